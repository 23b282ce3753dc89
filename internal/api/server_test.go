package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/latsic/idbridge/internal/audit"
	"github.com/latsic/idbridge/internal/claims"
	"github.com/latsic/idbridge/internal/config"
	"github.com/latsic/idbridge/internal/federation"
	"github.com/latsic/idbridge/internal/interaction"
	"github.com/latsic/idbridge/internal/session"
	"github.com/latsic/idbridge/internal/state"
	"github.com/latsic/idbridge/internal/store"
	"github.com/latsic/idbridge/internal/tasks"
	"github.com/latsic/idbridge/internal/upstream"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func newTestServer(t *testing.T) (http.Handler, *audit.InMemoryAuditor) {
	t.Helper()

	provider, err := upstream.NewStatic(config.ProviderConfig{
		Name: "static",
		Type: "static",
		Config: map[string]any{
			"code_map": map[string]any{
				"good-code": map[string]any{
					"sub":   "ext-1",
					"name":  "Alice",
					"email": "alice@example.com",
					"sid":   "upstream-sid-1",
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}

	auditor := audit.NewInMemoryAuditor()
	registry := interaction.NewClientRegistry([]config.ClientConfig{
		{ClientID: "spa", RedirectURIs: []string{"https://spa.example.com/cb"}, Public: true},
	})
	svc := federation.NewService(
		store.NewInMemoryUserStore(),
		claims.NewNormalizer(claims.NewDefaultTranslator()),
		registry,
		auditor,
	)

	manager := tasks.NewManager()
	insecure := false
	srv := NewServer(
		svc,
		session.NewJWTIssuer(testSigningKey, time.Hour),
		map[string]upstream.Provider{"static": provider},
		state.NewInMemoryStore(10*time.Minute),
		registry,
		manager,
		auditor,
		auditor,
		config.SessionConfig{CookieName: "idbridge_session", CookieSecure: &insecure},
	)
	return srv.Routes(testSigningKey), auditor
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "ops",
		"roles": []string{"admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("signing admin token: %v", err)
	}
	return signed
}

func doChallenge(t *testing.T, handler http.Handler, returnURL string) string {
	t.Helper()

	target := ChallengeRoute + "?provider=static"
	if returnURL != "" {
		target += "&return_url=" + url.QueryEscape(returnURL)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("challenge status = %d, body %s", rec.Code, rec.Body.String())
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parsing challenge redirect: %v", err)
	}
	nonce := loc.Query().Get("state")
	if nonce == "" {
		t.Fatalf("challenge redirect carries no state: %s", loc)
	}
	return nonce
}

func TestLoginRoundtrip(t *testing.T) {
	handler, _ := newTestServer(t)

	nonce := doChallenge(t, handler, "/dashboard")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		CallbackRoute+"?state="+nonce+"&code=good-code", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("callback status = %d, body %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("redirect target = %q, want /dashboard", loc)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "idbridge_session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected session cookie to be set")
	}

	// the cookie resolves to a session
	req := httptest.NewRequest(http.MethodGet, SessionRoute, nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d, body %s", rec.Code, rec.Body.String())
	}
	var sess SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatalf("decoding session response: %v", err)
	}
	if sess.DisplayName != "Alice" || sess.Provider != "static" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.SessionID != "upstream-sid-1" {
		t.Fatalf("upstream session id not carried: %+v", sess)
	}
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	handler, _ := newTestServer(t)

	nonce := doChallenge(t, handler, "")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		CallbackRoute+"?state="+nonce+"&code=good-code", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("first callback status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		CallbackRoute+"?state="+nonce+"&code=good-code", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replayed callback status = %d, want 401", rec.Code)
	}
}

func TestCallbackWithProviderError(t *testing.T) {
	handler, auditor := newTestServer(t)

	nonce := doChallenge(t, handler, "")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		CallbackRoute+"?state="+nonce+"&error=access_denied", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("callback status = %d, want 502", rec.Code)
	}

	entries, err := auditor.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	failure := false
	for _, e := range entries {
		if e.Action == "login.failure" {
			failure = true
		}
	}
	if !failure {
		t.Fatal("expected a login.failure audit entry")
	}
}

func TestChallengeRejectsUntrustedReturnURL(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		ChallengeRoute+"?provider=static&return_url="+url.QueryEscape("https://evil.example.com/"), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("challenge status = %d, want 400", rec.Code)
	}
}

func TestInterstitialForPKCEClient(t *testing.T) {
	handler, _ := newTestServer(t)

	returnURL := "https://idp.example.com/connect/authorize?client_id=spa&redirect_uri=" +
		url.QueryEscape("https://spa.example.com/cb")
	nonce := doChallenge(t, handler, returnURL)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		CallbackRoute+"?state="+nonce+"&code=good-code", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("callback status = %d, want interstitial 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "meta http-equiv=\"refresh\"") {
		t.Fatal("interstitial page without refresh hop")
	}
}

func TestAdminAuditRequiresToken(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ListAuditsRoute, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated admin status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, ListAuditsRoute, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated admin status = %d, body %s", rec.Code, rec.Body.String())
	}
}
