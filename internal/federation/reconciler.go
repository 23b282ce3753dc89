package federation

import (
	"context"
	"fmt"

	"github.com/latsic/idbridge/internal/core"
)

// PlanReconcile computes the issuer-scoped claim replace for one user.
// Remove covers exactly the stored claims whose issuer equals the acting
// provider; bindings from other issuers and locally-asserted claims are never
// touched. Add is the full normalized batch, converted to user claims.
//
// The plan is pure; applying it via ApplyChangeSet inside one Tx gives the
// replace its all-or-nothing semantics. Re-planning from the same batch is
// idempotent: remove followed by re-add of the same rows.
func PlanReconcile(existing []core.UserClaim, userID, provider string, batch []core.Claim) core.ClaimsChangeSet {
	var cs core.ClaimsChangeSet

	for _, c := range existing {
		if c.Issuer == provider {
			cs.Remove = append(cs.Remove, c)
		}
	}

	for _, c := range batch {
		cs.Add = append(cs.Add, core.UserClaim{UserID: userID, Claim: c})
	}

	return cs
}

// ApplyChangeSet executes the replace inside the caller's Tx. A failure on
// either half leaves the Tx poisoned; the caller must roll back and retry the
// whole callback from a freshly read claim set.
func ApplyChangeSet(ctx context.Context, tx core.Tx, userID string, cs core.ClaimsChangeSet) error {
	if len(cs.Remove) > 0 {
		if err := tx.RemoveClaims(ctx, userID, cs.Remove); err != nil {
			return fmt.Errorf("%w: removing issuer-scoped claims: %v", core.ErrStorageUnavailable, err)
		}
	}
	if len(cs.Add) > 0 {
		if err := tx.AddClaims(ctx, userID, cs.Add); err != nil {
			return fmt.Errorf("%w: adding normalized claims: %v", core.ErrStorageUnavailable, err)
		}
	}
	return nil
}
