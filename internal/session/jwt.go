// Package session issues and verifies local session tokens.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/latsic/idbridge/internal/core"
)

const localIssuer = "idbridge"

// JWTIssuer signs session descriptors into HS256 tokens and back. The token
// is the session: no server-side session table exists, which keeps logout to
// cookie deletion plus upstream signout via the carried id_token.
type JWTIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

var _ core.SessionIssuer = (*JWTIssuer)(nil)

func NewJWTIssuer(signingKey []byte, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{signingKey: signingKey, ttl: ttl}
}

func (i *JWTIssuer) SignIn(_ context.Context, session core.SessionDescriptor) (core.SessionToken, error) {
	now := time.Now()
	exp := now.Add(i.ttl)

	mapClaims := jwt.MapClaims{
		"iss":  localIssuer,
		"sub":  session.UserID,
		"name": session.DisplayName,
		"idp":  session.Provider,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
		"amr":  []string{"external"},
	}
	for _, c := range session.AdditionalClaims {
		if c.Type == core.ClaimSessionID {
			mapClaims[core.ClaimSessionID] = c.Value
		}
	}
	if len(session.Properties) > 0 {
		mapClaims["props"] = session.Properties
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return core.SessionToken{}, fmt.Errorf("signing session token: %w", err)
	}

	return core.SessionToken{Value: signed, ExpiresAt: exp.Unix()}, nil
}

func (i *JWTIssuer) Verify(_ context.Context, tokenStr string) (*core.SessionDescriptor, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.signingKey, nil
	}, jwt.WithIssuer(localIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid session claims")
	}

	session := &core.SessionDescriptor{
		Properties: map[string]string{},
	}
	session.UserID, _ = mapClaims["sub"].(string)
	session.DisplayName, _ = mapClaims["name"].(string)
	session.Provider, _ = mapClaims["idp"].(string)
	if session.UserID == "" {
		return nil, fmt.Errorf("session token without subject")
	}

	if sid, ok := mapClaims[core.ClaimSessionID].(string); ok && sid != "" {
		session.AdditionalClaims = append(session.AdditionalClaims, core.Claim{
			Type:   core.ClaimSessionID,
			Value:  sid,
			Issuer: session.Provider,
		})
	}
	if props, ok := mapClaims["props"].(map[string]any); ok {
		for k, v := range props {
			if s, ok := v.(string); ok {
				session.Properties[k] = s
			}
		}
	}

	return session, nil
}
