package permission

import (
	"errors"
	"strings"
)

// Role is the account role carried in every session token.
type Role string

const (
	RoleProvider  Role = "provider"
	RoleDependent Role = "dependent"
	RoleAdmin     Role = "admin"
)

// ErrUnknownRole is returned by ParseRole for values outside the role set.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole normalises s and returns the matching Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleProvider, RoleDependent, RoleAdmin:
		return true
	}
	return false
}

// SelfRegistrable reports whether an account with this role may be created
// through public registration.
func (r Role) SelfRegistrable() bool {
	return r == RoleProvider || r == RoleDependent
}

// RequiresProviderID reports whether identities with this role must carry a
// provider ID.
func (r Role) RequiresProviderID() bool {
	return r == RoleProvider
}

func (r Role) String() string {
	return string(r)
}
