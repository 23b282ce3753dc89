package upstream

import (
	"context"
	"fmt"
	"sort"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/oauth2"

	"github.com/latsic/idbridge/internal/config"
	"github.com/latsic/idbridge/internal/core"
)

type OIDCProvider struct {
	name     string
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

type oidcConfig struct {
	IssuerURL    string   `mapstructure:"issuer_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
}

var _ Provider = (*OIDCProvider)(nil)

func NewOIDCProvider(ctx context.Context, cfg config.ProviderConfig, redirectURL string) (*OIDCProvider, error) {
	var conf oidcConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &conf,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder for oidc provider '%s': %w", cfg.Name, err)
	}
	if err := decoder.Decode(cfg.Config); err != nil {
		return nil, fmt.Errorf("decoding config for oidc provider '%s': %w", cfg.Name, err)
	}
	if conf.IssuerURL == "" {
		return nil, fmt.Errorf("oidc provider '%s' missing 'issuer_url'", cfg.Name)
	}
	if conf.ClientID == "" {
		return nil, fmt.Errorf("oidc provider '%s' missing 'client_id'", cfg.Name)
	}
	if len(conf.Scopes) == 0 {
		conf.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	provider, err := oidc.NewProvider(ctx, conf.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovering oidc provider '%s': %w", cfg.Name, err)
	}

	return &OIDCProvider{
		name: cfg.Name,
		oauth: oauth2.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       conf.Scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: conf.ClientID}),
	}, nil
}

func (p *OIDCProvider) Name() string {
	return p.name
}

func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange redeems the authorization code, verifies the id_token and flattens
// its claims into the raw claim shape the federation core consumes.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*core.ExternalAuthResult, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange with '%s': %v", core.ErrExternalAuthFailed, p.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: provider '%s' returned no id_token", core.ErrExternalAuthFailed, p.name)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: id_token verification for '%s': %v", core.ErrExternalAuthFailed, p.name, err)
	}

	var payload map[string]any
	if err := idToken.Claims(&payload); err != nil {
		return nil, fmt.Errorf("%w: extracting claims from '%s': %v", core.ErrExternalAuthFailed, p.name, err)
	}

	return &core.ExternalAuthResult{
		Provider: p.name,
		Claims:   flattenClaims(payload, idToken.Issuer),
		Tokens:   map[string]string{core.TokenIDToken: rawIDToken},
	}, nil
}

// flattenClaims converts an id_token payload into raw claims, one claim per
// scalar and one per element of array-valued claims (e.g. roles). Map keys
// are sorted so the claim order is stable across callbacks.
func flattenClaims(payload map[string]any, originalIssuer string) []core.RawClaim {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var claims []core.RawClaim
	for _, k := range keys {
		switch k {
		case "iss", "aud", "exp", "iat", "nbf", "nonce", "at_hash", "c_hash", "azp":
			// token envelope, not identity facts
			continue
		}
		switch v := payload[k].(type) {
		case []any:
			for _, item := range v {
				claims = append(claims, core.RawClaim{
					Type:           k,
					Value:          fmt.Sprint(item),
					OriginalIssuer: originalIssuer,
				})
			}
		default:
			claims = append(claims, core.RawClaim{
				Type:           k,
				Value:          fmt.Sprint(v),
				OriginalIssuer: originalIssuer,
			})
		}
	}
	return claims
}
