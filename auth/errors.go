package auth

import "errors"

// Sentinel errors for identity and authorization.
var (
	ErrMissingIdentity = errors.New("auth: no identity in context")
	ErrTokenExpired    = errors.New("auth: token expired")
	ErrTokenMalformed  = errors.New("auth: token malformed")
	ErrForbidden       = errors.New("auth: access denied")
)
