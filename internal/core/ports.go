package core

import "context"

// AuthenticationResultSource retrieves the outcome of a completed upstream
// authentication roundtrip for a given scheme.
// Implementations: the upstream provider registry (OIDC code exchange).
type AuthenticationResultSource interface {
	// Result returns the external authentication result or an error if the
	// upstream step did not succeed.
	Result(ctx context.Context, scheme string) (*ExternalAuthResult, error)
}

// UserRepository is the storage collaborator for users, claims and logins.
// All mutations happen inside a Tx; the repository's uniqueness constraint on
// (provider, subject) is the authority of record against double provisioning.
type UserRepository interface {
	// Begin opens a scoped transaction. The caller must Commit or Rollback on
	// every exit path.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a caller-scoped storage transaction. Reads observe writes made earlier
// in the same Tx; nothing becomes visible to concurrent readers before Commit.
type Tx interface {
	// FindByLogin resolves a (provider, subject) pair to a user.
	// Returns ErrUserNotFound if no binding exists.
	FindByLogin(ctx context.Context, provider, subjectID string) (*LocalUser, error)

	CreateUser(ctx context.Context, user *LocalUser) error
	UpdateUser(ctx context.Context, user *LocalUser) error

	Claims(ctx context.Context, userID string) ([]UserClaim, error)
	RemoveClaims(ctx context.Context, userID string, claims []UserClaim) error
	AddClaims(ctx context.Context, userID string, claims []UserClaim) error

	Logins(ctx context.Context, userID string) ([]LoginBinding, error)

	// AddLogin creates a login binding. Returns ErrDuplicateLogin if the
	// (provider, subject) pair is already bound, including when a concurrent
	// Tx committed the same pair first.
	AddLogin(ctx context.Context, binding LoginBinding) error

	Commit() error
	Rollback() error
}

// AuthorizationContextService answers redirect-trust questions on behalf of
// the token-issuance collaborator.
type AuthorizationContextService interface {
	// IsValidReturnURL reports whether the URL is acceptable as a post-login
	// destination (local-relative path or a registered authorize request).
	IsValidReturnURL(url string) bool

	// AuthorizationContext resolves the client behind an authorize-request
	// URL, or nil if the URL carries no active authorization context.
	AuthorizationContext(url string) *ClientContext

	// IsPKCEClient reports whether the client is registered as public (no
	// secret, proof-key exchange required).
	IsPKCEClient(clientID string) bool
}

// SessionIssuer turns a session descriptor into a local session artifact and
// back. Implementations: the signed-JWT session issuer.
type SessionIssuer interface {
	// SignIn issues a session token for the descriptor.
	SignIn(ctx context.Context, session SessionDescriptor) (SessionToken, error)

	// Verify parses and validates a session token, reconstructing the
	// descriptor it was issued for.
	Verify(ctx context.Context, token string) (*SessionDescriptor, error)
}

// SessionToken is an opaque signed session artifact.
type SessionToken struct {
	Value     string
	ExpiresAt int64 // unix seconds
}

// ClaimTypeTranslator maps provider-specific claim types to the canonical
// vocabulary. Implementations are immutable after construction.
type ClaimTypeTranslator interface {
	// Translate returns the canonical type for a raw claim type, and whether
	// a translation exists.
	Translate(rawType string) (string, bool)
}
