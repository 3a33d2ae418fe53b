package permission

import (
	"context"
	"net/http"

	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MembershipFinder returns a user's ACTIVE membership in a working group.
// Any error, including not found, means "no role".
type MembershipFinder interface {
	FindActive(ctx context.Context, userID, groupID primitive.ObjectID) (*models.Membership, error)
}

// Roles answers role questions against the Scope carried in ctx.
type Roles struct {
	Memberships MembershipFinder
	Log         *zap.Logger
}

// NewRoles returns a Roles checker.
func NewRoles(m MembershipFinder, logger *zap.Logger) *Roles {
	return &Roles{Memberships: m, Log: logger}
}

// HasRole reports whether u holds role in the current scope.
//
// super_admin is always checked against global roles. Otherwise, with a team
// bound the user needs an ACTIVE membership in that team with the role; with
// no team bound only global roles count.
func (r *Roles) HasRole(ctx context.Context, u *models.User, role models.Role) bool {
	return r.HasAnyRole(ctx, u, role)
}

// HasAnyRole reports whether u holds at least one of roles in the current scope.
func (r *Roles) HasAnyRole(ctx context.Context, u *models.User, roles ...models.Role) bool {
	if u == nil || len(roles) == 0 {
		return false
	}
	for _, role := range roles {
		if role == models.RoleSuperAdmin && u.IsSuperAdmin() {
			return true
		}
	}

	team, bound := ScopeFrom(ctx).TeamID()
	if !bound {
		for _, role := range roles {
			if role != models.RoleSuperAdmin && u.HasGlobalRole(role) {
				return true
			}
		}
		return false
	}

	m, err := r.Memberships.FindActive(ctx, u.ID, team)
	if err != nil {
		if r.Log != nil {
			r.Log.Debug("membership lookup for role check",
				zap.String("user_id", u.ID.Hex()),
				zap.String("team_id", team.Hex()),
				zap.Error(err))
		}
		return false
	}
	if m == nil || !m.IsActive() {
		return false
	}
	for _, role := range roles {
		if m.Role == role {
			return true
		}
	}
	return false
}

// RequireRole allows the request when the signed-in user holds any of roles
// in the current scope. Super admins always pass.
func (r *Roles) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			u, ok := auth.CurrentUser(req)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "", "Please sign in to continue.")
				return
			}
			if u.IsSuperAdmin() || r.HasAnyRole(req.Context(), u, roles...) {
				next.ServeHTTP(w, req)
				return
			}
			respond.Error(w, http.StatusForbidden, "", "You do not have access to this working group action.")
		})
	}
}
