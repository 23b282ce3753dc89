package client

import (
	"context"

	"github.com/latsic/idbridge/internal/api"
	"github.com/latsic/idbridge/internal/core"
)

type ListAuditsOpts struct {
	Limit uint

	Provider string
	UserID   string
	Action   string
}

// ListAudits retrieves the latest audit entries from the server.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		ub = ub.addQueryParam("limit", opts.Limit)
	}
	if opts.Provider != "" {
		ub = ub.addQueryParam("provider", opts.Provider)
	}
	if opts.UserID != "" {
		ub = ub.addQueryParam("user_id", opts.UserID)
	}
	if opts.Action != "" {
		ub = ub.addQueryParam("action", opts.Action)
	}

	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}
