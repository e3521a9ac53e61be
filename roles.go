package authclient

import (
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Role is the permission tier carried in the credential. Values are
// compared verbatim, so "Admin" and "admin" are different roles.
type Role string

const (
	// RoleAdmin is the administrator role issued by the server
	RoleAdmin Role = "Admin"
	// RoleManager can open the administrative screens
	RoleManager Role = "manager"
	// RoleGuest is authenticated but not administrative
	RoleGuest Role = "guest"
)

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsAdministrative checks if the role belongs to AdminRoles
func (r Role) IsAdministrative() bool {
	return IsPermitted(r, AdminRoles())
}

// AdminRoles returns the roles allowed into the administrative area.
func AdminRoles() *set.Set[Role] {
	return NewRoleSet(RoleAdmin, RoleManager)
}

// NewRoleSet builds a permitted role set.
func NewRoleSet(roles ...Role) *set.Set[Role] {
	return set.From(roles)
}

// ParseRoles builds a role set from raw strings, skipping blanks.
func ParseRoles(values []string) *set.Set[Role] {
	roles := set.New[Role](len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		roles.Insert(Role(v))
	}
	return roles
}

// IsPermitted reports whether role is a member of permitted. A nil or empty
// set permits nobody.
func IsPermitted(role Role, permitted *set.Set[Role]) bool {
	if permitted == nil || permitted.Empty() {
		return false
	}
	return permitted.Contains(role)
}
