package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles a user can hold. The value stored in
// the database and embedded in token claims is the lower-case string
// form. Unknown values are rejected at the data-model boundary via
// ParseRole so that authorization checks never have to deal with
// unrecognized roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

// ParseRole normalizes and validates a role string. An empty input is an
// error; callers that want a default should check for emptiness first.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleCustomer:
		return RoleCustomer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// String returns the wire/database form of the role.
func (r Role) String() string { return string(r) }
