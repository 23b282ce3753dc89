package api

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/latsic/idbridge/internal/api/presenter"
	"github.com/latsic/idbridge/internal/audit"
	"github.com/latsic/idbridge/internal/core"
	"github.com/latsic/idbridge/internal/federation"
	"github.com/latsic/idbridge/internal/state"
	"github.com/latsic/idbridge/internal/upstream"
)

// interstitialPage is rendered instead of a raw 302 for PKCE (native)
// clients. The client-side hop avoids custom-URI-scheme problems some
// platforms have with server-side redirects.
var interstitialPage = template.Must(template.New("interstitial").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta http-equiv="refresh" content="0;url={{.URL}}">
    <title>Signing you in...</title>
</head>
<body>
    <p>You are now being returned to the application.</p>
    <p>Once complete, you may close this tab.</p>
    <p><a href="{{.URL}}">Continue</a></p>
</body>
</html>
`))

// handleChallenge starts an external login roundtrip: it records a pending
// challenge and redirects the browser to the provider's authorization URL.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	q := r.URL.Query()
	providerName := q.Get("provider")
	returnURL := q.Get("return_url")

	provider, ok := s.providers[providerName]
	if !ok {
		presenter.Error(w, r, "unknown provider", http.StatusBadRequest)
		return
	}

	// reject untrusted destinations before the roundtrip even starts
	if returnURL != "" && !s.interaction.IsValidReturnURL(returnURL) {
		logger.Warn().Str("return_url", returnURL).Msg("challenge with untrusted return url rejected")
		presenter.Error(w, r, "untrusted return url", http.StatusBadRequest)
		return
	}

	nonce := uuid.NewString()
	challenge := state.Challenge{
		State:     nonce,
		Provider:  providerName,
		ReturnURL: returnURL,
		CreatedAt: time.Now(),
	}
	if err := s.challenges.Save(ctx, challenge); err != nil {
		logger.Error().Err(err).Msg("failed to save login challenge")
		presenter.Error(w, r, "could not start login", http.StatusServiceUnavailable)
		return
	}

	logger.Debug().Str("provider", providerName).Msg("external login challenge started")
	http.Redirect(w, r, provider.AuthCodeURL(nonce), http.StatusFound)
}

// handleCallback finishes an external login roundtrip. The state nonce must
// match a pending challenge; each nonce is redeemable exactly once.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	q := r.URL.Query()

	challenge, err := s.challenges.Take(ctx, q.Get("state"))
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			presenter.Error(w, r, "unknown or expired login challenge", http.StatusUnauthorized)
			return
		}
		logger.Error().Err(err).Msg("failed to load login challenge")
		presenter.Error(w, r, "could not complete login", http.StatusServiceUnavailable)
		return
	}

	// a nil result makes the federation service record the failure and
	// return the upstream-failure error
	var result *core.ExternalAuthResult
	if provider, ok := s.providers[challenge.Provider]; ok {
		result = s.exchange(r, provider, q.Get("code"))
	} else {
		logger.Error().Str("provider", challenge.Provider).Msg("pending challenge references unknown provider")
	}

	resp, err := s.federation.HandleCallback(ctx, federation.CallbackRequest{
		Result:    result,
		ReturnURL: challenge.ReturnURL,
	})
	if err != nil {
		presenter.Err(w, r, err, "login failed")
		return
	}

	token, err := s.sessions.SignIn(ctx, resp.Session)
	if err != nil {
		logger.Error().Err(err).Msg("failed to issue session token")
		presenter.Error(w, r, "could not issue session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.session.CookieName,
		Value:    token.Value,
		Path:     "/",
		Expires:  time.Unix(token.ExpiresAt, 0),
		HttpOnly: true,
		Secure:   s.cookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})

	entry := core.AuditEntry{
		ID:                 reqID,
		Time:               time.Now(),
		Action:             core.AuditSessionIssued,
		Provider:           resp.Session.Provider,
		UserID:             resp.Session.UserID,
		DisplayName:        resp.Session.DisplayName,
		Success:            true,
		SessionFingerprint: audit.Fingerprint(token.Value),
	}
	if err := s.auditor.Log(entry); err != nil {
		logger.Error().Err(err).Msg("failed to write audit log entry for session issuance")
	}

	if resp.Redirect.Interstitial {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := interstitialPage.Execute(w, struct{ URL string }{URL: resp.Redirect.TargetURL}); err != nil {
			logger.Error().Err(err).Msg("failed to render interstitial page")
		}
		return
	}
	http.Redirect(w, r, resp.Redirect.TargetURL, http.StatusFound)
}

// exchange redeems the authorization code; a failed exchange degrades to a
// nil result so the failure is handled in one place.
func (s *Server) exchange(r *http.Request, provider upstream.Provider, code string) *core.ExternalAuthResult {
	logger := log.Ctx(r.Context())

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		logger.Warn().
			Str("provider", provider.Name()).
			Str("error", errCode).
			Str("error_description", r.URL.Query().Get("error_description")).
			Msg("provider returned an authorization error")
		return nil
	}
	if code == "" {
		logger.Warn().Str("provider", provider.Name()).Msg("callback without authorization code")
		return nil
	}

	result, err := provider.Exchange(r.Context(), code)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider.Name()).Msg("authorization code exchange failed")
		return nil
	}
	return result
}

func (s *Server) cookieSecure() bool {
	if s.session.CookieSecure == nil {
		return true
	}
	return *s.session.CookieSecure
}
