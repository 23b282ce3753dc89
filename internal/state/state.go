// Package state holds the transient challenge roundtrip state between the
// challenge redirect and the provider callback. It replaces the temporary
// external cookie used by classic federation gateways: the state nonce rides
// in the provider roundtrip, the rest stays server-side.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown, expired or already-consumed state.
var ErrNotFound = errors.New("challenge state not found")

// Challenge is one pending external authentication roundtrip.
type Challenge struct {
	// State is the single-use nonce carried through the provider roundtrip.
	State string `json:"state"`

	// Provider is the authentication scheme that was challenged.
	Provider string `json:"provider"`

	// ReturnURL is the validated post-login destination hint.
	ReturnURL string `json:"return_url"`

	CreatedAt time.Time `json:"created_at"`
}

// Store persists pending challenges for the duration of the roundtrip.
type Store interface {
	// Save records a pending challenge.
	Save(ctx context.Context, ch Challenge) error

	// Take returns and consumes the challenge for a state nonce. Each nonce
	// is redeemable exactly once; a second Take returns ErrNotFound.
	Take(ctx context.Context, stateNonce string) (*Challenge, error)
}
