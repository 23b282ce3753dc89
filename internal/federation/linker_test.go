package federation

import (
	"context"
	"errors"
	"testing"

	"github.com/latsic/idbridge/internal/core"
	"github.com/latsic/idbridge/internal/store"
)

func TestEnsureLinked_Idempotent(t *testing.T) {
	repo := store.NewInMemoryUserStore()
	seedUser(t, repo, "u1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tx, err := repo.Begin(ctx)
		if err != nil {
			t.Fatalf("Begin() error = %v", err)
		}
		user := &core.LocalUser{ID: "u1"}
		kept, err := EnsureLinked(ctx, tx, user, "google", "g-123", "Alice")
		if err != nil {
			t.Fatalf("EnsureLinked() run %d error = %v", i, err)
		}
		if kept != nil {
			t.Fatalf("EnsureLinked() run %d kept = %+v, want nil for a matching binding", i, kept)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
	}

	tx, _ := repo.Begin(ctx)
	defer func() { _ = tx.Rollback() }()
	logins, err := tx.Logins(ctx, "u1")
	if err != nil {
		t.Fatalf("Logins() error = %v", err)
	}
	if len(logins) != 1 {
		t.Fatalf("login count = %d, want 1", len(logins))
	}
}

func TestEnsureLinked_NoSecondProvider(t *testing.T) {
	// one-identity-per-local-account: an existing binding, even for another
	// provider, blocks a new one and is reported back for auditing
	repo := store.NewInMemoryUserStore()
	seedUser(t, repo, "u1")
	ctx := context.Background()

	tx, _ := repo.Begin(ctx)
	user := &core.LocalUser{ID: "u1"}
	if _, err := EnsureLinked(ctx, tx, user, "google", "g-123", "Alice"); err != nil {
		t.Fatalf("EnsureLinked() error = %v", err)
	}
	kept, err := EnsureLinked(ctx, tx, user, "corp-saml", "s-9", "Alice")
	if err != nil {
		t.Fatalf("EnsureLinked() second provider error = %v", err)
	}
	if kept == nil {
		t.Fatal("EnsureLinked() kept = nil, want the surviving google binding reported")
	}
	if kept.Provider != "google" || kept.SubjectID != "g-123" {
		t.Errorf("kept binding = %s/%s, want google/g-123", kept.Provider, kept.SubjectID)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	tx2, _ := repo.Begin(ctx)
	defer func() { _ = tx2.Rollback() }()
	logins, _ := tx2.Logins(ctx, "u1")
	if len(logins) != 1 {
		t.Fatalf("login count = %d, want 1", len(logins))
	}
	if logins[0].Provider != "google" {
		t.Errorf("surviving binding = %q, want the original google binding", logins[0].Provider)
	}
}

func TestEnsureLinked_ConflictMapsToConcurrentProvisioning(t *testing.T) {
	repo := store.NewInMemoryUserStore()
	seedUser(t, repo, "u1")
	seedUser(t, repo, "u2")
	ctx := context.Background()

	tx, _ := repo.Begin(ctx)
	if _, err := EnsureLinked(ctx, tx, &core.LocalUser{ID: "u1"}, "google", "g-123", "Alice"); err != nil {
		t.Fatalf("EnsureLinked() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	tx2, _ := repo.Begin(ctx)
	defer func() { _ = tx2.Rollback() }()
	_, err := EnsureLinked(ctx, tx2, &core.LocalUser{ID: "u2"}, "google", "g-123", "Alice")
	if !errors.Is(err, core.ErrConcurrentProvisioning) {
		t.Fatalf("error = %v, want ErrConcurrentProvisioning", err)
	}
	if !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("ErrConcurrentProvisioning should match ErrStorageUnavailable for retry handling")
	}
}
