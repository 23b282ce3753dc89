package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
server:
  addr: ":9090"
  base_url: "https://login.example.com"
providers:
  - name: google
    type: oidc
    issuer_url: https://accounts.google.com
    client_id: abc
    client_secret: xyz
clients:
  - client_id: native-app
    redirect_uris: ["myapp://cb"]
    public: true
session:
  signing_key: "0123456789abcdef0123456789abcdef"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idbridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("store type default = %q, want memory", cfg.Store.Type)
	}
	if cfg.State.TTL != DefaultStateTTL {
		t.Errorf("state ttl default = %v", cfg.State.TTL)
	}
	if cfg.Session.CookieName != DefaultCookieName {
		t.Errorf("cookie name default = %q", cfg.Session.CookieName)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "missing base url",
			mutate:  func(c string) string { return strings.Replace(c, `base_url: "https://login.example.com"`, "", 1) },
			wantErr: "base_url",
		},
		{
			name: "no providers",
			mutate: func(c string) string {
				return strings.Split(c, "providers:")[0] + "session:\n  signing_key: \"0123456789abcdef0123456789abcdef\"\n"
			},
			wantErr: "provider",
		},
		{
			name:    "short signing key",
			mutate:  func(c string) string { return strings.Replace(c, "0123456789abcdef0123456789abcdef", "short", 1) },
			wantErr: "signing_key",
		},
		{
			name: "client without redirect uris",
			mutate: func(c string) string {
				return strings.Replace(c, `redirect_uris: ["myapp://cb"]`, "redirect_uris: []", 1)
			},
			wantErr: "redirect_uris",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.mutate(validYAML)))
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
