package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/latsic/idbridge/internal/api/presenter"
	"github.com/latsic/idbridge/internal/core"
)

type SessionResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider,omitempty"`

	// SessionID is the upstream session id, if the provider asserted one.
	SessionID string `json:"session_id,omitempty"`
}

// handleSession resolves the current session from the cookie (or a bearer
// token) and returns its descriptor.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.currentSession(r)
	if !ok {
		presenter.Error(w, r, "no active session", http.StatusUnauthorized)
		return
	}

	resp := SessionResponse{
		UserID:      session.UserID,
		DisplayName: session.DisplayName,
		Provider:    session.Provider,
	}
	for _, c := range session.AdditionalClaims {
		if c.Type == core.ClaimSessionID {
			resp.SessionID = c.Value
		}
	}
	presenter.JSON(w, r, resp, http.StatusOK)
}

type LogoutResponse struct {
	// IDTokenHint is the provider-issued identity token carried through the
	// session, handed back for upstream signout.
	IDTokenHint string `json:"id_token_hint,omitempty"`
}

// handleLogout clears the session cookie. The response carries the upstream
// id_token so the caller can trigger provider-side signout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, ok := s.currentSession(r)
	if !ok {
		presenter.Error(w, r, "no active session", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})

	log.Ctx(r.Context()).Info().Str("user_id", session.UserID).Msg("session ended")
	presenter.JSON(w, r, LogoutResponse{
		IDTokenHint: session.Properties[core.TokenIDToken],
	}, http.StatusOK)
}

func (s *Server) currentSession(r *http.Request) (*core.SessionDescriptor, bool) {
	tokenStr := ""
	if cookie, err := r.Cookie(s.session.CookieName); err == nil {
		tokenStr = cookie.Value
	}
	if tokenStr == "" {
		auth := r.Header.Get("Authorization")
		tokenStr = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer"))
	}
	if tokenStr == "" {
		return nil, false
	}

	session, err := s.sessions.Verify(r.Context(), tokenStr)
	if err != nil {
		return nil, false
	}
	return session, true
}
