// internal/app/policy/workinggrouppolicy/workinggrouppolicy.go
package workinggrouppolicy

import (
	"context"

	"github.com/dalemusser/printhub/internal/app/policy/tenantpolicy"
	"github.com/dalemusser/printhub/internal/domain/models"
)

// viewRoles may see a non-public working group.
var viewRoles = []models.Role{
	models.RoleAdmin,
	models.RoleManager,
	models.RoleDesigner,
	models.RoleMarketing,
	models.RoleMember,
}

// Policy authorizes actions on working groups themselves.
type Policy struct {
	Checker *tenantpolicy.Checker
}

// New returns a Policy.
func New(c *tenantpolicy.Checker) Policy { return Policy{Checker: c} }

// ViewAny reports whether u may list working groups.
func (p Policy) ViewAny(ctx context.Context, u *models.User) bool {
	return p.Checker.ViewAny(ctx, u)
}

// View: anyone may see the public default; others need a membership.
func (p Policy) View(ctx context.Context, u *models.User, g *models.WorkingGroup) bool {
	if g.IsPublicDefault {
		return true
	}
	return p.Checker.UserHasRole(ctx, u, g.ID, viewRoles...)
}

// Create is reserved for super admins.
func (p Policy) Create(u *models.User) bool {
	return u.IsSuperAdmin()
}

// Update requires the admin role in g.
func (p Policy) Update(ctx context.Context, u *models.User, g *models.WorkingGroup) bool {
	return p.Checker.UserHasRole(ctx, u, g.ID, models.RoleAdmin)
}

// Delete is reserved for super admins, and the public default can never be
// deleted.
func (p Policy) Delete(u *models.User, g *models.WorkingGroup) bool {
	return u.IsSuperAdmin() && !g.IsPublicDefault
}

// ManageMembers requires the admin role in g.
func (p Policy) ManageMembers(ctx context.Context, u *models.User, g *models.WorkingGroup) bool {
	return p.Checker.UserHasRole(ctx, u, g.ID, models.RoleAdmin)
}
