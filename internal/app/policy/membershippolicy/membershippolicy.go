// internal/app/policy/membershippolicy/membershippolicy.go
package membershippolicy

import (
	"context"

	"github.com/dalemusser/printhub/internal/app/policy/tenantpolicy"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Policy authorizes changes to working group memberships.
//
// Admin memberships cannot be deleted here, even by another admin or a super
// admin. To remove an admin, first change the role with Update, then delete.
type Policy struct {
	Checker *tenantpolicy.Checker
}

// New returns a Policy.
func New(c *tenantpolicy.Checker) Policy { return Policy{Checker: c} }

// View lets any member of the group see its member list.
func (p Policy) View(ctx context.Context, u *models.User, groupID primitive.ObjectID) bool {
	return p.Checker.UserHasRole(ctx, u, groupID,
		models.RoleAdmin, models.RoleManager, models.RoleDesigner, models.RoleMarketing, models.RoleMember)
}

// Create (invite) requires the admin role in the group.
func (p Policy) Create(ctx context.Context, u *models.User, groupID primitive.ObjectID) bool {
	return p.Checker.UserHasRole(ctx, u, groupID, models.RoleAdmin)
}

// Update requires the admin role in the membership's group.
func (p Policy) Update(ctx context.Context, u *models.User, m *models.Membership) bool {
	return p.Checker.UserHasRole(ctx, u, m.GroupID, models.RoleAdmin)
}

// Delete requires the admin role in the membership's group and refuses admin
// memberships.
func (p Policy) Delete(ctx context.Context, u *models.User, m *models.Membership) bool {
	if m.Role == models.RoleAdmin {
		return false
	}
	return p.Checker.UserHasRole(ctx, u, m.GroupID, models.RoleAdmin)
}
