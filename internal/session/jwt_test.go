package session

import (
	"context"
	"testing"
	"time"

	"github.com/latsic/idbridge/internal/core"
)

func TestJWTIssuerRoundtrip(t *testing.T) {
	issuer := NewJWTIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)

	in := core.SessionDescriptor{
		UserID:      "user-1",
		DisplayName: "Alice",
		Provider:    "google",
		AdditionalClaims: []core.Claim{
			{Type: core.ClaimSessionID, Value: "upstream-sid-42", Issuer: "google"},
		},
		Properties: map[string]string{
			core.TokenIDToken: "raw.id.token",
		},
	}

	token, err := issuer.SignIn(context.Background(), in)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if token.Value == "" {
		t.Fatal("expected non-empty token")
	}
	if token.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("expected future expiry, got %d", token.ExpiresAt)
	}

	out, err := issuer.Verify(context.Background(), token.Value)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out.UserID != in.UserID || out.DisplayName != in.DisplayName || out.Provider != in.Provider {
		t.Fatalf("descriptor mismatch: %+v", out)
	}
	if len(out.AdditionalClaims) != 1 || out.AdditionalClaims[0].Value != "upstream-sid-42" {
		t.Fatalf("expected sid claim to survive, got %+v", out.AdditionalClaims)
	}
	if out.Properties[core.TokenIDToken] != "raw.id.token" {
		t.Fatalf("expected id_token property to survive, got %+v", out.Properties)
	}
}

func TestJWTIssuerVerifyRejects(t *testing.T) {
	issuer := NewJWTIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	other := NewJWTIssuer([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)

	token, err := issuer.SignIn(context.Background(), core.SessionDescriptor{UserID: "user-1"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	cases := []struct {
		name  string
		token string
		via   *JWTIssuer
	}{
		{name: "garbage", token: "not.a.jwt", via: issuer},
		{name: "wrong key", token: token.Value, via: other},
		{name: "empty", token: "", via: issuer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.via.Verify(context.Background(), tc.token); err == nil {
				t.Fatal("expected verification error")
			}
		})
	}
}

func TestJWTIssuerExpiry(t *testing.T) {
	issuer := NewJWTIssuer([]byte("0123456789abcdef0123456789abcdef"), -time.Minute)

	token, err := issuer.SignIn(context.Background(), core.SessionDescriptor{UserID: "user-1"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := issuer.Verify(context.Background(), token.Value); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
