package types

import "fmt"

// Role is an optional classification lens that shifts the prompt emphasis.
// It never changes the response schema.
type Role string

const (
	RoleDefault   Role = ""
	RoleCode      Role = "CODE"
	RoleArchitect Role = "ARCHITECT"
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{
		RoleDefault,
		RoleCode,
		RoleArchitect,
	}
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleDefault, RoleCode, RoleArchitect:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role. An empty string is the default role.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}
