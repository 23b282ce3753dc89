package federation

import (
	"context"
	"errors"
	"fmt"

	"github.com/latsic/idbridge/internal/core"
)

// EnsureLinked guarantees the user has a login binding. If the user already
// has one (for any provider), it is left untouched: a user links at most one
// external account in this design. Idempotent across redeliveries.
//
// When the existing binding belongs to a different (provider, subject) pair
// than the callback, that binding is returned so the caller can record that
// a link was skipped; nil means the binding matches or was just created.
//
// A duplicate (provider, subject) conflict from the repository means another
// callback won the provisioning race; it surfaces as
// core.ErrConcurrentProvisioning so the caller can retry from scratch.
func EnsureLinked(ctx context.Context, tx core.Tx, user *core.LocalUser, provider, subjectID, displayName string) (*core.LoginBinding, error) {
	logins, err := tx.Logins(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing logins for %s: %v", core.ErrStorageUnavailable, user.ID, err)
	}
	if len(logins) > 0 {
		for _, l := range logins {
			if l.Provider == provider && l.SubjectID == subjectID {
				return nil, nil
			}
		}
		kept := logins[0]
		return &kept, nil
	}

	err = tx.AddLogin(ctx, core.LoginBinding{
		UserID:      user.ID,
		Provider:    provider,
		SubjectID:   subjectID,
		DisplayName: displayName,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateLogin) {
			return nil, fmt.Errorf("%w: login %s/%s", core.ErrConcurrentProvisioning, provider, subjectID)
		}
		return nil, fmt.Errorf("%w: adding login %s/%s: %v", core.ErrStorageUnavailable, provider, subjectID, err)
	}
	return nil, nil
}
