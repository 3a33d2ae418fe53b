// internal/app/features/groupcontext/handler.go
//
// Package groupcontext reports the working group a request resolved to and
// lets a signed-in user pick a different one for subsequent requests.
package groupcontext

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	"github.com/dalemusser/printhub/internal/app/system/auditlog"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/dalemusser/printhub/internal/app/system/permission"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/app/system/workinggroup"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Switcher decides whether a user may select a working group.
type Switcher interface {
	CanSwitch(ctx context.Context, user *models.User, groupID primitive.ObjectID) (*models.WorkingGroup, bool)
}

// Memberships lists a user's memberships.
type Memberships interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.Membership, error)
}

// Groups loads working groups for the membership list.
type Groups interface {
	List(ctx context.Context) ([]models.WorkingGroup, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.WorkingGroup, error)
}

type Handler struct {
	Switcher    Switcher
	Memberships Memberships
	Groups      Groups
	Sessions    workinggroup.SessionStore
	ErrLog      *uierrors.ErrorLogger
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(sw Switcher, memberships Memberships, groups Groups, sessions workinggroup.SessionStore, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Switcher:    sw,
		Memberships: memberships,
		Groups:      groups,
		Sessions:    sessions,
		ErrLog:      errLog,
		AuditLog:    audit,
		Log:         logger,
	}
}

// available is one working group the user may switch to.
type available struct {
	WorkingGroup models.WorkingGroup `json:"working_group"`
	Role         models.Role         `json:"role,omitempty"`
	IsDefault    bool                `json:"is_default"`
}

type contextResponse struct {
	User         *models.User         `json:"user,omitempty"`
	WorkingGroup *models.WorkingGroup `json:"working_group"`
	Bound        bool                 `json:"bound"`
	Available    []available          `json:"available"`
}

// ServeContext handles GET /context.
//
// Anonymous callers see the public default (or null) and no alternatives.
// Super admins may switch to any live working group.
func (h *Handler) ServeContext(w http.ResponseWriter, r *http.Request) {
	resp := contextResponse{
		WorkingGroup: workinggroup.Current(r.Context()),
		Available:    []available{},
	}
	if scope := permission.ScopeFrom(r.Context()); scope != nil {
		_, resp.Bound = scope.TeamID()
	}

	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.JSON(w, http.StatusOK, resp)
		return
	}
	resp.User = u

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if u.IsSuperAdmin() {
		groups, err := h.Groups.List(ctx)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "list working groups failed", err, "A database error occurred.")
			return
		}
		for _, g := range groups {
			resp.Available = append(resp.Available, available{WorkingGroup: g})
		}
		respond.JSON(w, http.StatusOK, resp)
		return
	}

	mems, err := h.Memberships.ListByUser(ctx, u.ID, models.MembershipStatusActive)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list memberships failed", err, "A database error occurred.")
		return
	}
	ids := make([]primitive.ObjectID, 0, len(mems))
	for _, m := range mems {
		ids = append(ids, m.GroupID)
	}
	groups, err := h.Groups.ListByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list working groups failed", err, "A database error occurred.")
		return
	}
	byID := make(map[primitive.ObjectID]models.Membership, len(mems))
	for _, m := range mems {
		byID[m.GroupID] = m
	}
	for _, g := range groups {
		m := byID[g.ID]
		resp.Available = append(resp.Available, available{WorkingGroup: g, Role: m.Role, IsDefault: m.IsDefault})
	}
	respond.JSON(w, http.StatusOK, resp)
}

type switchRequest struct {
	WorkingGroupID string `json:"working_group_id"`
}

// HandleSwitch handles POST /context/working-group.
//
// The choice is stored in the session and takes effect from the next
// request, where it is resolved like any other session value.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.ErrLog.Unauthorized(w, r)
		return
	}

	var in switchRequest
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode switch body failed", err, "Invalid JSON body.")
		return
	}
	id, ok := normalize.ObjectID(in.WorkingGroupID)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "A valid working_group_id is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, allowed := h.Switcher.CanSwitch(ctx, u, id)
	if !allowed {
		h.ErrLog.Forbidden(w, r, "You are not an active member of that working group.")
		return
	}
	if err := h.Sessions.SetWorkingGroupID(w, r, g.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "save working group to session failed", err, "Could not update the session.")
		return
	}
	h.AuditLog.WorkingGroupSwitched(ctx, r, u.ID, g.ID)

	respond.JSON(w, http.StatusOK, contextResponse{User: u, WorkingGroup: g, Bound: true, Available: []available{}})
}
