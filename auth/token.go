package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator exchanges signed admin tokens for privileged identities.
// Admin surfaces sit outside the process; the token is how they prove a
// stats or invalidation request is authorized.
type TokenValidator struct {
	key    []byte
	issuer string
}

// NewTokenValidator creates a validator for HS256 tokens signed with key.
// issuer, when non-empty, is enforced against the iss claim.
func NewTokenValidator(key []byte, issuer string) *TokenValidator {
	return &TokenValidator{key: key, issuer: issuer}
}

// Validate parses and validates an admin token, returning the identity it
// carries. Roles come from the "roles" claim, principal from "sub".
func (v *TokenValidator) Validate(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrTokenMalformed)
	}

	var roles []string
	if raw, ok := claims["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}

	return &Identity{Principal: sub, Roles: roles}, nil
}
