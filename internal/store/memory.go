// Package store provides UserRepository implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/latsic/idbridge/internal/core"
)

// InMemoryUserStore is a UserRepository for tests and single-node dev setups.
// Transactions stage their writes on a deep copy and swap it in on Commit;
// the store mutex is the sole serialization point, matching the concurrency
// model where the storage collaborator serializes concurrent callbacks.
type InMemoryUserStore struct {
	mu   sync.Mutex
	data *dataset
}

type dataset struct {
	users  map[string]core.LocalUser
	claims map[string][]core.UserClaim  // by user id
	logins map[string]core.LoginBinding // by provider+"\x00"+subject
	byUser map[string][]core.LoginBinding
}

func loginKey(provider, subjectID string) string {
	return provider + "\x00" + subjectID
}

func newDataset() *dataset {
	return &dataset{
		users:  make(map[string]core.LocalUser),
		claims: make(map[string][]core.UserClaim),
		logins: make(map[string]core.LoginBinding),
		byUser: make(map[string][]core.LoginBinding),
	}
}

func (d *dataset) clone() *dataset {
	cp := newDataset()
	for k, v := range d.users {
		cp.users[k] = v
	}
	for k, v := range d.claims {
		cp.claims[k] = append([]core.UserClaim(nil), v...)
	}
	for k, v := range d.logins {
		cp.logins[k] = v
	}
	for k, v := range d.byUser {
		cp.byUser[k] = append([]core.LoginBinding(nil), v...)
	}
	return cp
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{data: newDataset()}
}

var _ core.UserRepository = (*InMemoryUserStore)(nil)

// Begin locks the store for the duration of the transaction. Commit or
// Rollback releases the lock; abandoning a Tx without either would deadlock,
// which the orchestrator's rollback-on-every-exit discipline prevents.
func (s *InMemoryUserStore) Begin(_ context.Context) (core.Tx, error) {
	s.mu.Lock()
	return &memoryTx{store: s, staged: s.data.clone()}, nil
}

type memoryTx struct {
	store  *InMemoryUserStore
	staged *dataset
	done   bool
}

var _ core.Tx = (*memoryTx)(nil)

func (t *memoryTx) FindByLogin(_ context.Context, provider, subjectID string) (*core.LocalUser, error) {
	binding, ok := t.staged.logins[loginKey(provider, subjectID)]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	user, ok := t.staged.users[binding.UserID]
	if !ok {
		return nil, fmt.Errorf("login binding without user %q", binding.UserID)
	}
	return &user, nil
}

func (t *memoryTx) CreateUser(_ context.Context, user *core.LocalUser) error {
	if _, exists := t.staged.users[user.ID]; exists {
		return fmt.Errorf("user %q already exists", user.ID)
	}
	t.staged.users[user.ID] = *user
	return nil
}

func (t *memoryTx) UpdateUser(_ context.Context, user *core.LocalUser) error {
	if _, exists := t.staged.users[user.ID]; !exists {
		return core.ErrUserNotFound
	}
	t.staged.users[user.ID] = *user
	return nil
}

func (t *memoryTx) Claims(_ context.Context, userID string) ([]core.UserClaim, error) {
	return append([]core.UserClaim(nil), t.staged.claims[userID]...), nil
}

func (t *memoryTx) RemoveClaims(_ context.Context, userID string, claims []core.UserClaim) error {
	remaining := t.staged.claims[userID][:0:0]
	for _, existing := range t.staged.claims[userID] {
		if !containsClaim(claims, existing) {
			remaining = append(remaining, existing)
		}
	}
	t.staged.claims[userID] = remaining
	return nil
}

func (t *memoryTx) AddClaims(_ context.Context, userID string, claims []core.UserClaim) error {
	t.staged.claims[userID] = append(t.staged.claims[userID], claims...)
	return nil
}

func (t *memoryTx) Logins(_ context.Context, userID string) ([]core.LoginBinding, error) {
	return append([]core.LoginBinding(nil), t.staged.byUser[userID]...), nil
}

func (t *memoryTx) AddLogin(_ context.Context, binding core.LoginBinding) error {
	key := loginKey(binding.Provider, binding.SubjectID)
	if _, exists := t.staged.logins[key]; exists {
		return core.ErrDuplicateLogin
	}
	t.staged.logins[key] = binding
	t.staged.byUser[binding.UserID] = append(t.staged.byUser[binding.UserID], binding)
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	t.store.data = t.staged
	t.store.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func containsClaim(set []core.UserClaim, c core.UserClaim) bool {
	for _, s := range set {
		if s == c {
			return true
		}
	}
	return false
}
