package federation

import (
	"context"
	"errors"
	"fmt"

	"github.com/latsic/idbridge/internal/core"
)

// ResolveUser looks up the local user bound to a (provider, subject) pair.
// Pure lookup, no mutation. Returns core.ErrUserNotFound when no binding
// exists; any other failure surfaces as core.ErrStorageUnavailable.
func ResolveUser(ctx context.Context, tx core.Tx, provider, subjectID string) (*core.LocalUser, error) {
	user, err := tx.FindByLogin(ctx, provider, subjectID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: resolving login %s/%s: %v",
			core.ErrStorageUnavailable, provider, subjectID, err)
	}
	return user, nil
}
