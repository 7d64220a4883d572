package auth

// Roles understood by the authorizer.
const (
	// RoleAdmin unlocks cache statistics and invalidation.
	RoleAdmin = "admin"
)

// Identity represents a caller principal.
type Identity struct {
	// Principal is the unique caller identifier supplied by the
	// upstream router (user id, service account).
	Principal string

	// Roles are the roles assigned to this identity.
	Roles []string
}

// HasRole checks if the identity has a specific role.
func (id *Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the identity may perform administrative
// operations.
func (id *Identity) IsPrivileged() bool {
	return id.HasRole(RoleAdmin)
}
