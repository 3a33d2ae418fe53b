// internal/app/policy/categorypolicy/categorypolicy.go
//
// Package categorypolicy authorizes category actions. Categories are not owned
// by a working group, so these checks use the user's global roles only.
package categorypolicy

import "github.com/dalemusser/printhub/internal/domain/models"

// Decision is the outcome of a publish request.
type Decision int

const (
	// Denied means the user may not publish.
	Denied Decision = iota
	// Immediate means the category is published right away.
	Immediate
	// Moderated means a moderation request is queued for a reviewer.
	Moderated
)

func (d Decision) String() string {
	switch d {
	case Immediate:
		return "immediate"
	case Moderated:
		return "moderated"
	}
	return "denied"
}

func hasAny(u *models.User, roles ...models.Role) bool {
	for _, r := range roles {
		if u.HasGlobalRole(r) {
			return true
		}
	}
	return false
}

// View: published categories are public; the rest need a staff role.
func View(u *models.User, c *models.Category) bool {
	if c.Status == models.CategoryStatusPublished {
		return true
	}
	return ViewUnpublished(u)
}

// ViewUnpublished reports whether u may see draft, pending and archived
// categories.
func ViewUnpublished(u *models.User) bool {
	return hasAny(u, models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager, models.RoleDesigner, models.RoleMarketing)
}

// Create allows super admins, admins, managers and designers.
func Create(u *models.User) bool {
	return hasAny(u, models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager, models.RoleDesigner)
}

// Update allows super admins, admins and managers. Designers may only edit drafts.
func Update(u *models.User, c *models.Category) bool {
	if hasAny(u, models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager) {
		return true
	}
	return u.HasGlobalRole(models.RoleDesigner) && c.IsDraft()
}

// Delete allows super admins and admins. Managers may only delete categories
// with no children and no products.
func Delete(u *models.User, c *models.Category) bool {
	if hasAny(u, models.RoleSuperAdmin, models.RoleAdmin) {
		return true
	}
	return u.HasGlobalRole(models.RoleManager) && c.ChildCount == 0 && c.ProductCount == 0
}

// Publish decides how a publish request from u is handled.
func Publish(u *models.User) Decision {
	switch {
	case hasAny(u, models.RoleSuperAdmin, models.RoleAdmin):
		return Immediate
	case u.HasGlobalRole(models.RoleManager):
		return Moderated
	}
	return Denied
}

// Review allows approving or rejecting queued moderation requests.
func Review(u *models.User) bool {
	return hasAny(u, models.RoleSuperAdmin, models.RoleAdmin)
}

// Move allows changing a category's parent.
func Move(u *models.User) bool {
	return hasAny(u, models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager)
}

// Reorder allows changing a category's position among its siblings.
func Reorder(u *models.User) bool {
	return hasAny(u, models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager)
}

// ManageMedia allows attaching and removing category images.
func ManageMedia(u *models.User) bool {
	return hasAny(u, models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager, models.RoleDesigner, models.RoleMarketing)
}
