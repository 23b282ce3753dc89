package core

// Canonical claim types. These follow the short JWT claim vocabulary; external
// providers asserting the long WS-* schema URIs are translated on the way in.
const (
	ClaimSubject    = "sub"
	ClaimName       = "name"
	ClaimGivenName  = "given_name"
	ClaimFamilyName = "family_name"
	ClaimEmail      = "email"
	ClaimRole       = "role"
	ClaimSessionID  = "sid"
)

// Legacy claim type aliases still emitted by some providers.
const (
	// ClaimNameIdentifierLegacy is the WS-* alias for the subject identifier.
	ClaimNameIdentifierLegacy = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"

	// ClaimDisplayNameLegacy is the generic display-name type that gets retagged
	// to the canonical name claim during normalization.
	ClaimDisplayNameLegacy = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
)

// TokenIDToken is the property key under which a provider-issued identity
// token travels in SessionDescriptor.Properties. It is needed later for
// provider-side logout and must not be interpreted by this service.
const TokenIDToken = "id_token"

// RawClaim is a claim exactly as asserted by an external provider, before any
// translation into the canonical vocabulary.
type RawClaim struct {
	Type           string
	Value          string
	ValueType      string
	Issuer         string
	OriginalIssuer string
}

// Claim is a normalized claim in the canonical vocabulary.
// Immutable once created.
type Claim struct {
	Type      string
	Value     string
	ValueType string

	// Issuer is the provider that asserted this claim in the current
	// authentication round. Always overwritten during normalization.
	Issuer string

	// OriginalIssuer preserves the provider's own issuer metadata.
	OriginalIssuer string

	// Subject is an opaque back-reference to the asserting principal.
	Subject string
}

// ExternalAuthResult is the outcome of an upstream authentication roundtrip.
// It is produced by an upstream provider and read-only to the federation core.
type ExternalAuthResult struct {
	// Provider is the authentication scheme that produced this result.
	Provider string

	// Claims are the raw claims asserted about the principal, in provider order.
	Claims []RawClaim

	// Tokens holds provider-issued tokens by name (e.g. "id_token").
	Tokens map[string]string
}

// LocalUser is the durable local user record.
// Owned by the storage collaborator; mutated only inside a repository Tx.
type LocalUser struct {
	ID                 string
	UserName           string
	NormalizedUserName string

	// SecurityStamp is rotated on any credential-affecting change. A freshly
	// provisioned external user gets a new stamp so password login stays
	// unusable until explicitly set up.
	SecurityStamp string
}

// UserClaim is a claim bound to a local user.
type UserClaim struct {
	UserID string
	Claim
}

// LoginBinding associates a local user with one (provider, subject) pair.
// At most one binding exists per pair system-wide.
type LoginBinding struct {
	UserID      string
	Provider    string
	SubjectID   string
	DisplayName string
}

// ClaimsChangeSet is the issuer-scoped replace computed by reconciliation.
// Remove and Add are applied as one logical operation inside a single Tx.
type ClaimsChangeSet struct {
	Remove []UserClaim
	Add    []UserClaim
}

// Empty reports whether applying the change set would be a no-op.
func (cs ClaimsChangeSet) Empty() bool {
	return len(cs.Remove) == 0 && len(cs.Add) == 0
}

// SessionDescriptor is everything the session issuer needs to sign a user in.
// Transient, one per callback.
type SessionDescriptor struct {
	UserID      string
	DisplayName string

	// Provider is the authentication scheme the user arrived through.
	Provider string

	// AdditionalClaims carries protocol claims copied from the external result
	// (e.g. the upstream session id for single sign-out correlation).
	AdditionalClaims []Claim

	// Properties carries opaque protocol data (e.g. the provider id_token).
	Properties map[string]string
}

// RedirectDecision tells the web layer where to send the user after sign-in.
type RedirectDecision struct {
	TargetURL string

	// Interstitial selects the rendered intermediate page instead of a raw
	// 302. Used for PKCE (native) clients to avoid custom-URI-scheme issues.
	Interstitial bool
}

// ClientContext describes the client behind an active authorization request.
type ClientContext struct {
	ClientID string
	PKCE     bool
}
