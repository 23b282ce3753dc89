package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/latsic/idbridge/internal/core"
)

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	s := NewInMemoryUserStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	user := &core.LocalUser{ID: "u1", UserName: "alice", NormalizedUserName: "ALICE"}
	if err := tx.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := tx.AddLogin(ctx, core.LoginBinding{UserID: "u1", Provider: "static", SubjectID: "sub-1"}); err != nil {
		t.Fatalf("add login: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	tx, err = s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()
	if _, err := tx.FindByLogin(ctx, "static", "sub-1"); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after rollback, got %v", err)
	}
}

func TestCommitMakesWritesVisible(t *testing.T) {
	s := NewInMemoryUserStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	user := &core.LocalUser{ID: "u1", UserName: "alice", NormalizedUserName: "ALICE"}
	if err := tx.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	claims := []core.UserClaim{
		{UserID: "u1", Claim: core.Claim{Type: "name", Value: "Alice", Issuer: "static"}},
	}
	if err := tx.AddClaims(ctx, "u1", claims); err != nil {
		t.Fatalf("add claims: %v", err)
	}
	if err := tx.AddLogin(ctx, core.LoginBinding{UserID: "u1", Provider: "static", SubjectID: "sub-1"}); err != nil {
		t.Fatalf("add login: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx, err = s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()
	found, err := tx.FindByLogin(ctx, "static", "sub-1")
	if err != nil {
		t.Fatalf("find by login: %v", err)
	}
	if diff := cmp.Diff(user, found); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
	got, err := tx.Claims(ctx, "u1")
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if diff := cmp.Diff(claims, got); diff != "" {
		t.Errorf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestAddLoginRejectsDuplicateBinding(t *testing.T) {
	s := NewInMemoryUserStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.CreateUser(ctx, &core.LocalUser{ID: "u1"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := tx.AddLogin(ctx, core.LoginBinding{UserID: "u1", Provider: "static", SubjectID: "sub-1"}); err != nil {
		t.Fatalf("add login: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx, err = s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()
	if err := tx.CreateUser(ctx, &core.LocalUser{ID: "u2"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	err = tx.AddLogin(ctx, core.LoginBinding{UserID: "u2", Provider: "static", SubjectID: "sub-1"})
	if !errors.Is(err, core.ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestRemoveClaimsIsIssuerScoped(t *testing.T) {
	s := NewInMemoryUserStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	keep := core.UserClaim{UserID: "u1", Claim: core.Claim{Type: "email", Value: "a@b.io", Issuer: "other"}}
	drop := core.UserClaim{UserID: "u1", Claim: core.Claim{Type: "name", Value: "Old", Issuer: "static"}}
	if err := tx.AddClaims(ctx, "u1", []core.UserClaim{keep, drop}); err != nil {
		t.Fatalf("add claims: %v", err)
	}
	if err := tx.RemoveClaims(ctx, "u1", []core.UserClaim{drop}); err != nil {
		t.Fatalf("remove claims: %v", err)
	}
	got, err := tx.Claims(ctx, "u1")
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if diff := cmp.Diff([]core.UserClaim{keep}, got); diff != "" {
		t.Errorf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestDoubleCommitFails(t *testing.T) {
	s := NewInMemoryUserStore()
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Commit(); err == nil {
		t.Fatal("expected error on second commit")
	}
}
