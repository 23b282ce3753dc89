package claims

import "github.com/latsic/idbridge/internal/core"

// defaultOutboundTypes mirrors the standard outbound claim-type map used by
// JWT token handlers: long WS-* schema URIs on the left, short JWT claim
// names on the right. The display-name URI is handled separately by the
// normalizer (it is retagged, not table-translated).
var defaultOutboundTypes = map[string]string{
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress":   core.ClaimEmail,
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname":      core.ClaimGivenName,
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname":        core.ClaimFamilyName,
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/mobilephone":    "phone_number",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/dateofbirth":    "birthdate",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/gender":         "gender",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/webpage":        "website",
	"http://schemas.microsoft.com/ws/2008/06/identity/claims/role":         core.ClaimRole,
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier": "nameid",
}

// StaticTranslator is an immutable claim-type translation table.
type StaticTranslator struct {
	table map[string]string
}

var _ core.ClaimTypeTranslator = (*StaticTranslator)(nil)

// NewStaticTranslator copies the given table so later mutation of the input
// cannot leak into the translator.
func NewStaticTranslator(table map[string]string) *StaticTranslator {
	cp := make(map[string]string, len(table))
	for k, v := range table {
		cp[k] = v
	}
	return &StaticTranslator{table: cp}
}

// NewDefaultTranslator returns the standard outbound-type table.
func NewDefaultTranslator() *StaticTranslator {
	return NewStaticTranslator(defaultOutboundTypes)
}

func (t *StaticTranslator) Translate(rawType string) (string, bool) {
	canonical, ok := t.table[rawType]
	return canonical, ok
}
