package federation

import (
	"fmt"
	"strings"

	"github.com/latsic/idbridge/internal/core"
)

// RedirectValidator decides whether a requested post-login destination is
// safe, and how it should be delivered.
type RedirectValidator struct {
	interaction core.AuthorizationContextService
}

func NewRedirectValidator(interaction core.AuthorizationContextService) *RedirectValidator {
	return &RedirectValidator{interaction: interaction}
}

// Decide validates the return URL hint and picks the delivery mode.
//
// An empty hint falls back to the application root. Anything that is neither
// a local-relative path nor a URL the authorization-context service
// recognizes fails with core.ErrUntrustedRedirect; callers must treat that as
// a security abort, never as "redirect to default instead".
func (v *RedirectValidator) Decide(returnURL string) (core.RedirectDecision, error) {
	if returnURL == "" {
		returnURL = "/"
	}

	if !IsLocalURL(returnURL) && !v.interaction.IsValidReturnURL(returnURL) {
		return core.RedirectDecision{}, fmt.Errorf("%w: %q", core.ErrUntrustedRedirect, returnURL)
	}

	decision := core.RedirectDecision{TargetURL: returnURL}

	// PKCE clients are assumed native: render the interstitial page instead
	// of a raw 302 so custom-URI-scheme navigation behaves.
	if ctx := v.interaction.AuthorizationContext(returnURL); ctx != nil {
		decision.Interstitial = v.interaction.IsPKCEClient(ctx.ClientID)
	}

	return decision, nil
}

// IsLocalURL reports whether the URL is a strictly local-relative path.
// Protocol-relative ("//evil") and backslash-escaped forms are rejected.
func IsLocalURL(url string) bool {
	if url == "" {
		return false
	}
	if !strings.HasPrefix(url, "/") {
		return false
	}
	if strings.HasPrefix(url, "//") || strings.HasPrefix(url, "/\\") {
		return false
	}
	return true
}
