// Package claims maps raw external claims into the canonical local vocabulary.
package claims

import (
	"strings"

	"github.com/latsic/idbridge/internal/core"
)

// Normalizer translates a provider's raw claim batch into normalized claims.
type Normalizer struct {
	translator core.ClaimTypeTranslator
}

func NewNormalizer(translator core.ClaimTypeTranslator) *Normalizer {
	if translator == nil {
		translator = NewDefaultTranslator()
	}
	return &Normalizer{translator: translator}
}

// Normalize extracts the provider subject identifier and normalizes the
// remaining claims. The subject claim (canonical "sub" or the legacy
// name-identifier alias) is excluded from the returned batch.
//
// Returns core.ErrMissingSubjectClaim if the batch asserts no subject.
func (n *Normalizer) Normalize(result *core.ExternalAuthResult) (string, []core.Claim, error) {
	subjectID, rest, err := extractSubject(result.Claims)
	if err != nil {
		return "", nil, err
	}

	provider := result.Provider
	normalized := make([]core.Claim, 0, len(rest))
	for _, raw := range rest {
		normalized = append(normalized, n.normalizeOne(raw, provider, subjectID))
	}

	if synthesized, ok := synthesizeName(normalized, provider, subjectID); ok {
		normalized = append(normalized, synthesized)
	}

	return subjectID, normalized, nil
}

func (n *Normalizer) normalizeOne(raw core.RawClaim, provider, subjectID string) core.Claim {
	claim := core.Claim{
		Type:           raw.Type,
		Value:          raw.Value,
		ValueType:      raw.ValueType,
		Issuer:         provider,
		OriginalIssuer: raw.OriginalIssuer,
		Subject:        subjectID,
	}

	switch {
	case raw.Type == core.ClaimDisplayNameLegacy:
		claim.Type = core.ClaimName
	default:
		if canonical, ok := n.translator.Translate(raw.Type); ok {
			claim.Type = canonical
		}
	}
	return claim
}

// extractSubject finds and removes the unique-subject claim from the batch.
func extractSubject(raws []core.RawClaim) (string, []core.RawClaim, error) {
	idx := -1
	for i, c := range raws {
		if c.Type == core.ClaimSubject {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, c := range raws {
			if c.Type == core.ClaimNameIdentifierLegacy {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return "", nil, core.ErrMissingSubjectClaim
	}

	rest := make([]core.RawClaim, 0, len(raws)-1)
	rest = append(rest, raws[:idx]...)
	rest = append(rest, raws[idx+1:]...)
	return raws[idx].Value, rest, nil
}

// synthesizeName builds a display-name claim from given/family name when the
// batch carries no name claim. If neither part is present, nothing is
// synthesized and the caller falls back to the user's stable id later.
func synthesizeName(batch []core.Claim, provider, subjectID string) (core.Claim, bool) {
	var first, last string
	for _, c := range batch {
		switch c.Type {
		case core.ClaimName:
			return core.Claim{}, false
		case core.ClaimGivenName:
			if first == "" {
				first = c.Value
			}
		case core.ClaimFamilyName:
			if last == "" {
				last = c.Value
			}
		}
	}

	value := strings.TrimSpace(first + " " + last)
	if value == "" {
		return core.Claim{}, false
	}

	// synthesized claims carry no value type
	return core.Claim{
		Type:    core.ClaimName,
		Value:   value,
		Issuer:  provider,
		Subject: subjectID,
	}, true
}
