// internal/domain/models/sharing.go
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a sharing role on a participant document.
type Role string

// Canonical sharing roles. These are the values Drive accepts for user
// permissions and the only ones the distributor will send.
const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleOwner  Role = "owner"
)

// Roles is the full set of allowed sharing roles.
var Roles = []Role{RoleReader, RoleWriter, RoleOwner}

// ErrInvalidRole is returned when a role is not one of Roles.
var ErrInvalidRole = errors.New("share type should be 'writer', 'reader' or 'owner'")

// ParseRole canonicalises s and validates it against Roles.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: got %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// Permission is a single sharing grant on a document.
type Permission struct {
	ID    string
	Email string
	Role  Role
}
