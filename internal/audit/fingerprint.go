package audit

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint derives a stable identifier for a session token so audit
// entries can reference it without ever storing the token itself.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}
