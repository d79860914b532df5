package models

// Role tags an authenticated identity. Stored in token claims as a set:
// always a JSON array, never a bare scalar.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleStudent Role = "Student"
)

// RoleSet is the claim representation of the caller's roles.
type RoleSet []Role

// Has reports whether the set contains the given role.
func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// HasAny reports whether the set intersects the given roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}
