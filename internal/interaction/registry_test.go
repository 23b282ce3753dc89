package interaction

import (
	"testing"

	"github.com/latsic/idbridge/internal/config"
)

func testRegistry() *ClientRegistry {
	return NewClientRegistry([]config.ClientConfig{
		{
			ClientID:     "spa",
			RedirectURIs: []string{"https://spa.example.com/callback"},
			Public:       true,
		},
		{
			ClientID:     "backend",
			RedirectURIs: []string{"https://backend.example.com/signin-oidc"},
		},
	})
}

func TestIsValidReturnURL(t *testing.T) {
	r := testRegistry()

	cases := []struct {
		name string
		url  string
		want bool
	}{
		{name: "local path", url: "/dashboard", want: true},
		{name: "root", url: "/", want: true},
		{name: "protocol relative", url: "//evil.example.com", want: false},
		{name: "backslash escape", url: "/\\evil.example.com", want: false},
		{
			name: "authorize request for known client",
			url:  "https://idp.example.com/connect/authorize?client_id=spa&redirect_uri=https%3A%2F%2Fspa.example.com%2Fcallback",
			want: true,
		},
		{
			name: "authorize request for unknown client",
			url:  "https://idp.example.com/connect/authorize?client_id=nope",
			want: false,
		},
		{
			name: "authorize request with unregistered redirect_uri",
			url:  "https://idp.example.com/connect/authorize?client_id=spa&redirect_uri=https%3A%2F%2Fevil.example.com%2F",
			want: false,
		},
		{name: "absolute without client_id", url: "https://evil.example.com/", want: false},
		{name: "empty", url: "", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.IsValidReturnURL(tc.url); got != tc.want {
				t.Fatalf("IsValidReturnURL(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestAuthorizationContext(t *testing.T) {
	r := testRegistry()

	ctx := r.AuthorizationContext("https://idp.example.com/connect/authorize?client_id=spa")
	if ctx == nil {
		t.Fatal("expected context for registered client")
	}
	if ctx.ClientID != "spa" || !ctx.PKCE {
		t.Fatalf("unexpected context: %+v", ctx)
	}

	if ctx := r.AuthorizationContext("/dashboard"); ctx != nil {
		t.Fatalf("expected no context for local path, got %+v", ctx)
	}
}

func TestIsPKCEClient(t *testing.T) {
	r := testRegistry()

	if !r.IsPKCEClient("spa") {
		t.Fatal("spa should be a PKCE client")
	}
	if r.IsPKCEClient("backend") {
		t.Fatal("backend is confidential")
	}
	if r.IsPKCEClient("missing") {
		t.Fatal("unknown client must not be PKCE")
	}
}
