package core

import "time"

// Audit actions emitted by the federation flow.
const (
	AuditLoginSuccess     = "login.success"
	AuditLoginFailure     = "login.failure"
	AuditUserProvisioned  = "user.provisioned"
	AuditLinkSkipped      = "login.link_skipped"
	AuditRedirectRejected = "redirect.rejected"
	AuditSessionIssued    = "session.issued"
)

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "login.success")
	Action string `json:"action"`

	// Provider is the external authentication scheme involved.
	Provider string `json:"provider,omitempty"`

	// SubjectID is the provider-scoped subject identifier.
	SubjectID string `json:"subject_id,omitempty"`

	// UserID is the local user the event applies to, once resolved.
	UserID string `json:"user_id,omitempty"`

	// DisplayName at the time of the event.
	DisplayName string `json:"display_name,omitempty"`

	// ClientID of the authorization context behind the callback, if any.
	ClientID string `json:"client_id,omitempty"`

	// ReturnURL is the requested post-login destination.
	ReturnURL string `json:"return_url,omitempty"`

	// Provisioned marks first-time user creation.
	Provisioned bool `json:"provisioned,omitempty"`

	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Stacktrace string `json:"stacktrace,omitempty"`

	// SessionFingerprint identifies the issued session token without storing it.
	SessionFingerprint string `json:"session_fingerprint,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
