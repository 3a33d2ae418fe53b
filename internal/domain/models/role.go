package models

import (
	"fmt"
	"strings"
)

// Role is a membership or global role. Roles are ordered roughly by privilege
// but do not form a hierarchy; callers always list the roles they accept.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleDesigner   Role = "designer"
	RoleMarketing  Role = "marketing"
	RoleMember     Role = "member"
)

// AllRoles lists every known role, most privileged first.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleManager,
	RoleDesigner,
	RoleMarketing,
	RoleMember,
}

// ParseRole normalizes s and returns the matching Role.
// Both "super_admin" and "SUPER_ADMIN" (and "super-admin") are accepted.
func ParseRole(s string) (Role, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	r := Role(norm)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleDesigner, RoleMarketing, RoleMember:
		return true
	}
	return false
}

// Label returns a human readable name for the role.
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleManager:
		return "Manager"
	case RoleDesigner:
		return "Designer"
	case RoleMarketing:
		return "Marketing"
	case RoleMember:
		return "Member"
	}
	return string(r)
}

func (r Role) String() string { return string(r) }

// MembershipRole reports whether r may be assigned on a working group
// membership. super_admin is global only.
func (r Role) MembershipRole() bool {
	return r.Valid() && r != RoleSuperAdmin
}
