package claims

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/latsic/idbridge/internal/core"
)

func TestNormalizer_SubjectExtraction(t *testing.T) {
	tests := []struct {
		name        string
		claims      []core.RawClaim
		wantSubject string
		wantErr     error
	}{
		{
			name: "canonical sub claim",
			claims: []core.RawClaim{
				{Type: core.ClaimSubject, Value: "g-123"},
				{Type: core.ClaimEmail, Value: "a@example.com"},
			},
			wantSubject: "g-123",
		},
		{
			name: "legacy name identifier",
			claims: []core.RawClaim{
				{Type: core.ClaimNameIdentifierLegacy, Value: "legacy-42"},
			},
			wantSubject: "legacy-42",
		},
		{
			name: "sub preferred over legacy alias",
			claims: []core.RawClaim{
				{Type: core.ClaimNameIdentifierLegacy, Value: "legacy-42"},
				{Type: core.ClaimSubject, Value: "g-123"},
			},
			wantSubject: "g-123",
		},
		{
			name: "no subject at all",
			claims: []core.RawClaim{
				{Type: core.ClaimEmail, Value: "a@example.com"},
			},
			wantErr: core.ErrMissingSubjectClaim,
		},
		{
			name:    "empty batch",
			claims:  nil,
			wantErr: core.ErrMissingSubjectClaim,
		},
	}

	n := NewNormalizer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, normalized, err := n.Normalize(&core.ExternalAuthResult{
				Provider: "google",
				Claims:   tt.claims,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Normalize() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			// the subject claim must not survive into the batch
			for _, c := range normalized {
				if c.Type == core.ClaimSubject || c.Type == core.ClaimNameIdentifierLegacy {
					t.Errorf("subject claim leaked into batch: %+v", c)
				}
			}
		})
	}
}

func TestNormalizer_TypeTranslation(t *testing.T) {
	n := NewNormalizer(nil)

	subject := core.RawClaim{Type: core.ClaimSubject, Value: "s-1"}
	tests := []struct {
		name string
		raw  core.RawClaim
		want core.Claim
	}{
		{
			name: "legacy display name is retagged",
			raw: core.RawClaim{
				Type:           core.ClaimDisplayNameLegacy,
				Value:          "Alice",
				ValueType:      "string",
				OriginalIssuer: "accounts.google.com",
			},
			want: core.Claim{
				Type:           core.ClaimName,
				Value:          "Alice",
				ValueType:      "string",
				Issuer:         "google",
				OriginalIssuer: "accounts.google.com",
				Subject:        "s-1",
			},
		},
		{
			name: "table-translated email",
			raw: core.RawClaim{
				Type:  "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress",
				Value: "a@example.com",
			},
			want: core.Claim{
				Type:    core.ClaimEmail,
				Value:   "a@example.com",
				Issuer:  "google",
				Subject: "s-1",
			},
		},
		{
			name: "unknown type passes through with issuer overwritten",
			raw: core.RawClaim{
				Type:   "favourite_colour",
				Value:  "green",
				Issuer: "someone-else",
			},
			want: core.Claim{
				Type:    "favourite_colour",
				Value:   "green",
				Issuer:  "google",
				Subject: "s-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, normalized, err := n.Normalize(&core.ExternalAuthResult{
				Provider: "google",
				Claims:   []core.RawClaim{subject, tt.raw},
			})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			// drop any synthesized name claim, only compare the translated one
			got := normalized[0]
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("claim mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizer_NameSynthesis(t *testing.T) {
	tests := []struct {
		name     string
		claims   []core.RawClaim
		wantName string
		wantNone bool
	}{
		{
			name: "given and family combined",
			claims: []core.RawClaim{
				{Type: core.ClaimGivenName, Value: "Alice"},
				{Type: core.ClaimFamilyName, Value: "Smith"},
			},
			wantName: "Alice Smith",
		},
		{
			name: "given name alone",
			claims: []core.RawClaim{
				{Type: core.ClaimGivenName, Value: "Alice"},
			},
			wantName: "Alice",
		},
		{
			name: "family name alone",
			claims: []core.RawClaim{
				{Type: core.ClaimFamilyName, Value: "Smith"},
			},
			wantName: "Smith",
		},
		{
			name: "existing name claim suppresses synthesis",
			claims: []core.RawClaim{
				{Type: core.ClaimName, Value: "Dr. Alice"},
				{Type: core.ClaimGivenName, Value: "Alice"},
				{Type: core.ClaimFamilyName, Value: "Smith"},
			},
			wantName: "Dr. Alice",
		},
		{
			name: "nothing to synthesize from",
			claims: []core.RawClaim{
				{Type: core.ClaimEmail, Value: "a@example.com"},
			},
			wantNone: true,
		},
	}

	n := NewNormalizer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raws := append([]core.RawClaim{{Type: core.ClaimSubject, Value: "s-1"}}, tt.claims...)
			_, normalized, err := n.Normalize(&core.ExternalAuthResult{
				Provider: "google",
				Claims:   raws,
			})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}

			var names []core.Claim
			for _, c := range normalized {
				if c.Type == core.ClaimName {
					names = append(names, c)
				}
			}

			if tt.wantNone {
				if len(names) != 0 {
					t.Fatalf("expected no name claim, got %+v", names)
				}
				return
			}
			if len(names) != 1 {
				t.Fatalf("expected exactly one name claim, got %d", len(names))
			}
			if names[0].Value != tt.wantName {
				t.Errorf("name = %q, want %q", names[0].Value, tt.wantName)
			}
			if names[0].Issuer != "google" {
				t.Errorf("name issuer = %q, want google", names[0].Issuer)
			}
			// synthesized claims have no value type
			if tt.claims[0].Type != core.ClaimName && names[0].ValueType != "" {
				t.Errorf("synthesized name has value type %q", names[0].ValueType)
			}
		})
	}
}

func TestStaticTranslator_Immutable(t *testing.T) {
	table := map[string]string{"a": "b"}
	tr := NewStaticTranslator(table)
	table["a"] = "mutated"

	got, ok := tr.Translate("a")
	if !ok || got != "b" {
		t.Fatalf("Translate(a) = %q, %v; want b, true", got, ok)
	}
}
