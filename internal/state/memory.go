package state

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps pending challenges in memory with a TTL.
type InMemoryStore struct {
	mu      sync.Mutex
	pending map[string]Challenge
	ttl     time.Duration
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		pending: make(map[string]Challenge),
		ttl:     ttl,
	}
}

func (s *InMemoryStore) Save(_ context.Context, ch Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[ch.State] = ch
	return nil
}

func (s *InMemoryStore) Take(_ context.Context, stateNonce string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.pending[stateNonce]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.pending, stateNonce)

	if time.Since(ch.CreatedAt) > s.ttl {
		return nil, ErrNotFound
	}
	return &ch, nil
}

// DeleteExpired drops expired challenges that were never redeemed.
// Run periodically by the maintenance task.
func (s *InMemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for nonce, ch := range s.pending {
		if time.Since(ch.CreatedAt) > s.ttl {
			delete(s.pending, nonce)
			deleted++
		}
	}
	return deleted, nil
}
