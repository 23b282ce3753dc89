package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/latsic/idbridge/internal/api/presenter"
)

const adminRole = "admin"

// AdminAuth guards the admin surface. It accepts bearer tokens signed with
// the local signing key that carry the admin role; operators mint one with
// `idbridge admin-token`.
// TODO(future): replace the single role check with a proper RBAC layer.
func AdminAuth(signingKey []byte) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			tokenStr := strings.TrimPrefix(auth, "Bearer ")

			if tokenStr == "" {
				presenter.Error(w, r, "login required", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				presenter.Error(w, r, "invalid admin token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				presenter.Error(w, r, "invalid claims", http.StatusUnauthorized)
				return
			}

			if !hasRole(claims, adminRole) {
				presenter.Error(w, r, "insufficient privileges", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(claims jwt.MapClaims, want string) bool {
	roles, ok := claims["roles"].([]any)
	if !ok {
		return false
	}
	for _, roleAny := range roles {
		if roleStr, ok := roleAny.(string); ok && roleStr == want {
			return true
		}
	}
	return false
}
