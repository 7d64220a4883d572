package auth

import (
	"context"
	"fmt"
)

// RequirePrivileged authorizes an administrative operation from the
// identity carried in the context. Returns nil when permitted.
func RequirePrivileged(ctx context.Context, operation string) error {
	id := IdentityFromContext(ctx)
	if id == nil {
		return fmt.Errorf("%w: operation %q", ErrMissingIdentity, operation)
	}
	if !id.IsPrivileged() {
		return &AuthzError{
			Subject:   id.Principal,
			Operation: operation,
			Reason:    "admin role required",
		}
	}
	return nil
}

// AuthzError represents an authorization failure.
type AuthzError struct {
	// Subject is the identity that was denied.
	Subject string

	// Operation is the administrative operation that was denied.
	Operation string

	// Reason explains why access was denied.
	Reason string
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q operation=%q reason=%q",
		e.Subject, e.Operation, e.Reason)
}

// Is reports whether this error matches the target.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}
