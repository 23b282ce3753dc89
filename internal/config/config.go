package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Providers []ProviderConfig `yaml:"providers"`
	Clients   []ClientConfig   `yaml:"clients"`
	Store     StoreConfig      `yaml:"store"`
	State     StateConfig      `yaml:"state"`
	Session   SessionConfig    `yaml:"session"`
	Audit     AuditConfig      `yaml:"audit"`
}

type ServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `yaml:"addr"`

	// BaseURL is the externally visible base URL, used to build the
	// provider redirect (callback) URL.
	BaseURL string `yaml:"base_url"`
}

// ProviderConfig holds configuration for one external identity provider.
type ProviderConfig struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`    // e.g., "oidc", "static"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// ClientConfig registers a downstream client for return-URL validation.
type ClientConfig struct {
	ClientID     string   `yaml:"client_id"`
	RedirectURIs []string `yaml:"redirect_uris"`

	// Public marks a PKCE (no-secret) client; these get the interstitial
	// redirect page after login.
	Public bool `yaml:"public"`
}

// StoreConfig selects the user storage backend.
type StoreConfig struct {
	Type string `yaml:"type"` // "memory" or "postgres"
	DSN  string `yaml:"dsn"`
}

// StateConfig selects the transient challenge-state backend.
type StateConfig struct {
	Type     string        `yaml:"type"` // "memory" or "redis"
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// SessionConfig controls the local session issuer.
type SessionConfig struct {
	// SigningKey signs session tokens (HS256). Required.
	SigningKey string `yaml:"signing_key"`

	// TTL is the session lifetime.
	TTL time.Duration `yaml:"ttl"`

	// CookieName overrides the session cookie name.
	CookieName string `yaml:"cookie_name"`

	// CookieSecure marks the cookie Secure; leave on outside local dev.
	CookieSecure *bool `yaml:"cookie_secure"`
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
}

const (
	DefaultStateTTL   = 10 * time.Minute
	DefaultSessionTTL = 8 * time.Hour
	DefaultCookieName = "idbridge_session"
	DefaultListenAddr = ":8080"
)

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultListenAddr
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.State.Type == "" {
		c.State.Type = "memory"
	}
	if c.State.TTL == 0 {
		c.State.TTL = DefaultStateTTL
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultCookieName
	}
	if c.Audit.Enabled && c.Audit.Type == "" {
		c.Audit.Type = "memory"
	}
}

func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	seenProviders := make(map[string]struct{})
	for idx, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider at index %d has empty name", idx)
		}
		if _, exists := seenProviders[p.Name]; exists {
			return fmt.Errorf("provider name '%s' is not unique", p.Name)
		}
		seenProviders[p.Name] = struct{}{}
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}

	seenClients := make(map[string]struct{})
	for idx, cl := range c.Clients {
		if cl.ClientID == "" {
			return fmt.Errorf("client at index %d has empty client_id", idx)
		}
		if _, exists := seenClients[cl.ClientID]; exists {
			return fmt.Errorf("client id '%s' is not unique", cl.ClientID)
		}
		seenClients[cl.ClientID] = struct{}{}
		if len(cl.RedirectURIs) == 0 {
			return fmt.Errorf("client '%s' has no redirect_uris", cl.ClientID)
		}
	}

	switch c.Store.Type {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}

	switch c.State.Type {
	case "memory":
	case "redis":
		if c.State.Addr == "" {
			return fmt.Errorf("state.addr is required for the redis state store")
		}
	default:
		return fmt.Errorf("unknown state store type %q", c.State.Type)
	}

	if c.Session.SigningKey == "" {
		return fmt.Errorf("session.signing_key is required")
	}
	if len(c.Session.SigningKey) < 32 {
		return fmt.Errorf("session.signing_key must be at least 32 bytes")
	}

	if c.Audit.Enabled {
		switch c.Audit.Type {
		case "memory":
		case "file":
			if c.Audit.Path == "" {
				return fmt.Errorf("audit.path is required for the file auditor")
			}
		default:
			return fmt.Errorf("unknown audit type %q", c.Audit.Type)
		}
	}

	return nil
}
