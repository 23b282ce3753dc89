// Package upstream integrates the external identity providers users
// authenticate against.
package upstream

import (
	"context"

	"github.com/latsic/idbridge/internal/core"
)

// Provider drives one external authentication scheme.
// Implementations: OIDC provider, static (test) provider.
type Provider interface {
	// Name returns the identifier of this provider (as used in config).
	Name() string

	// AuthCodeURL returns the URL to redirect the user to for the
	// authentication roundtrip. state ties the callback to the challenge.
	AuthCodeURL(state string) string

	// Exchange completes the roundtrip: it redeems the authorization code
	// and returns the raw external authentication result.
	Exchange(ctx context.Context, code string) (*core.ExternalAuthResult, error)
}
