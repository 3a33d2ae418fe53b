package workinggroup

import (
	"context"
	"errors"

	membershipstore "github.com/dalemusser/printhub/internal/app/store/memberships"
	workinggroupstore "github.com/dalemusser/printhub/internal/app/store/workinggroups"
	"github.com/dalemusser/printhub/internal/app/system/metrics"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Directory looks up working groups. Soft-deleted groups are not returned.
type Directory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.WorkingGroup, error)
	PublicDefault(ctx context.Context) (*models.WorkingGroup, error)
}

// MembershipFinder is the subset of the membership store used for resolution.
type MembershipFinder interface {
	FindActive(ctx context.Context, userID, groupID primitive.ObjectID) (*models.Membership, error)
	FindDefault(ctx context.Context, userID primitive.ObjectID) (*models.Membership, error)
	FirstActive(ctx context.Context, userID primitive.ObjectID) (*models.Membership, error)
}

// Gate reports whether working groups are enabled for a user.
// Implementations must turn their own failures into false.
type Gate interface {
	IsEnabled(ctx context.Context, user *models.User) bool
}

// Resolution sources, reported to Metrics.
const (
	SourceFlagDisabled      = "flag_disabled"
	SourceSession           = "session"
	SourceDefaultMembership = "default_membership"
	SourceFirstActive       = "first_active_membership"
	SourcePublicDefault     = "public_default"
	SourceNone              = "none"
)

// Resolver picks the working group for a request. It has no side effects
// beyond logging and counting.
type Resolver struct {
	Groups      Directory
	Memberships MembershipFinder
	Flag        Gate
	Log         *zap.Logger
	Metrics     *metrics.Metrics
}

// NewResolver wires a Resolver.
func NewResolver(groups Directory, memberships MembershipFinder, flag Gate, logger *zap.Logger) *Resolver {
	return &Resolver{Groups: groups, Memberships: memberships, Flag: flag, Log: logger}
}

// Resolve returns the working group for this request, or nil when there is
// none (no public default exists). First match wins:
//
//  1. working groups disabled for user: the public default
//  2. the group stored in the session, if user may use it
//  3. the user's default membership
//  4. the user's oldest active membership
//  5. the public default
//
// Misses and store errors fall through to the next tier.
func (r *Resolver) Resolve(ctx context.Context, sessionGroupID string, user *models.User) *models.WorkingGroup {
	g, source := r.resolve(ctx, sessionGroupID, user)
	if g == nil {
		source = SourceNone
	}
	r.Metrics.ResolutionObserved(source)
	return g
}

func (r *Resolver) resolve(ctx context.Context, sessionGroupID string, user *models.User) (*models.WorkingGroup, string) {
	if !r.Flag.IsEnabled(ctx, user) {
		return r.publicDefault(ctx), SourceFlagDisabled
	}

	if g, ok := r.fromSession(ctx, sessionGroupID, user); ok {
		return g, SourceSession
	}

	if user != nil {
		if m, err := r.Memberships.FindDefault(ctx, user.ID); err == nil {
			if g := r.group(ctx, m.GroupID, "default membership"); g != nil {
				return g, SourceDefaultMembership
			}
		} else {
			r.miss(err, "default membership", zap.String("user_id", user.ID.Hex()))
		}

		if m, err := r.Memberships.FirstActive(ctx, user.ID); err == nil {
			if g := r.group(ctx, m.GroupID, "first active membership"); g != nil {
				return g, SourceFirstActive
			}
		} else {
			r.miss(err, "first active membership", zap.String("user_id", user.ID.Hex()))
		}
	}

	return r.publicDefault(ctx), SourcePublicDefault
}

// fromSession applies tier 2. ok is false when resolution should continue.
func (r *Resolver) fromSession(ctx context.Context, sessionGroupID string, user *models.User) (*models.WorkingGroup, bool) {
	if sessionGroupID == "" {
		return nil, false
	}
	id, err := primitive.ObjectIDFromHex(sessionGroupID)
	if err != nil {
		r.debug("ignoring malformed session working group id", zap.String("working_group_id", sessionGroupID))
		return nil, false
	}
	g := r.group(ctx, id, "session working group")
	if g == nil {
		return nil, false
	}

	switch {
	case user == nil:
		// Anonymous sessions may only stay on the public default; anything
		// else falls through to tier 5.
		return g, g.IsPublicDefault
	case user.IsSuperAdmin():
		return g, true
	}

	if _, err := r.Memberships.FindActive(ctx, user.ID, g.ID); err != nil {
		r.miss(err, "session working group membership",
			zap.String("user_id", user.ID.Hex()),
			zap.String("working_group_id", g.ID.Hex()))
		return nil, false
	}
	return g, true
}

// CanSwitch reports whether user may make groupID their current working
// group. The rule matches tier 2: super admins may pick any live group,
// everyone else needs an ACTIVE membership.
func (r *Resolver) CanSwitch(ctx context.Context, user *models.User, groupID primitive.ObjectID) (*models.WorkingGroup, bool) {
	if user == nil {
		return nil, false
	}
	g := r.group(ctx, groupID, "switch target")
	if g == nil {
		return nil, false
	}
	if user.IsSuperAdmin() {
		return g, true
	}
	if _, err := r.Memberships.FindActive(ctx, user.ID, g.ID); err != nil {
		r.miss(err, "switch target membership",
			zap.String("user_id", user.ID.Hex()),
			zap.String("working_group_id", g.ID.Hex()))
		return nil, false
	}
	return g, true
}

func (r *Resolver) group(ctx context.Context, id primitive.ObjectID, what string) *models.WorkingGroup {
	g, err := r.Groups.GetByID(ctx, id)
	if err != nil {
		r.miss(err, what, zap.String("working_group_id", id.Hex()))
		return nil
	}
	return g
}

func (r *Resolver) publicDefault(ctx context.Context) *models.WorkingGroup {
	g, err := r.Groups.PublicDefault(ctx)
	if err != nil {
		r.miss(err, "public default working group")
		return nil
	}
	return g
}

// miss logs a lookup that did not produce a result. Not-found is routine;
// anything else is a store failure worth a warning.
func (r *Resolver) miss(err error, what string, fields ...zap.Field) {
	if r.Log == nil {
		return
	}
	fields = append(fields, zap.String("lookup", what), zap.Error(err))
	if errors.Is(err, workinggroupstore.ErrNotFound) || errors.Is(err, membershipstore.ErrNotFound) {
		r.Log.Debug("working group resolution miss", fields...)
		return
	}
	r.Log.Warn("working group lookup failed; falling through", fields...)
}

func (r *Resolver) debug(msg string, fields ...zap.Field) {
	if r.Log != nil {
		r.Log.Debug(msg, fields...)
	}
}
