package upstream

import (
	"context"
	"fmt"

	"github.com/latsic/idbridge/internal/config"
)

func BuildRegistry(ctx context.Context, cfgs []config.ProviderConfig, redirectURL string) (map[string]Provider, error) {
	registry := make(map[string]Provider)
	for _, cfg := range cfgs {
		switch cfg.Type {
		case "static":
			prov, err := NewStatic(cfg)
			if err != nil {
				return nil, fmt.Errorf("building static provider %q: %w", cfg.Name, err)
			}
			registry[cfg.Name] = prov
		case "oidc":
			prov, err := NewOIDCProvider(ctx, cfg, redirectURL)
			if err != nil {
				return nil, fmt.Errorf("building oidc provider %q: %w", cfg.Name, err)
			}
			registry[cfg.Name] = prov
		default:
			return nil, fmt.Errorf("unknown provider type %q for provider %q", cfg.Type, cfg.Name)
		}
	}
	return registry, nil
}
