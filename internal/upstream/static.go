package upstream

import (
	"context"
	"fmt"

	"github.com/latsic/idbridge/internal/config"
	"github.com/latsic/idbridge/internal/core"
)

// StaticProvider answers every code from a fixed code-to-claims map.
// Useful for tests and local development without a live IdP.
type StaticProvider struct {
	name    string
	codeMap map[string][]core.RawClaim
}

var _ Provider = (*StaticProvider)(nil)

func NewStatic(cfg config.ProviderConfig) (*StaticProvider, error) {
	rawMap, ok := cfg.Config["code_map"].(map[string]any)
	if !ok {
		// no map provided: every exchange fails
		return &StaticProvider{name: cfg.Name}, nil
	}

	codeMap := make(map[string][]core.RawClaim)
	for code, claimsRaw := range rawMap {
		claimsMap, ok := claimsRaw.(map[string]any)
		if !ok {
			continue
		}
		var claims []core.RawClaim
		for k, v := range claimsMap {
			claims = append(claims, core.RawClaim{Type: k, Value: fmt.Sprint(v)})
		}
		codeMap[code] = claims
	}

	return &StaticProvider{
		name:    cfg.Name,
		codeMap: codeMap,
	}, nil
}

func (s *StaticProvider) Name() string {
	return s.name
}

func (s *StaticProvider) AuthCodeURL(state string) string {
	return "/v1/external/callback?state=" + state + "&code=static"
}

func (s *StaticProvider) Exchange(_ context.Context, code string) (*core.ExternalAuthResult, error) {
	claims, ok := s.codeMap[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown code for static provider '%s'", core.ErrExternalAuthFailed, s.name)
	}
	return &core.ExternalAuthResult{
		Provider: s.name,
		Claims:   claims,
	}, nil
}
