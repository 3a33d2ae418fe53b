// internal/app/features/workinggroups/groups.go
package workinggroups

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	workinggroupstore "github.com/dalemusser/printhub/internal/app/store/workinggroups"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validType(t string) bool {
	switch t {
	case models.WorkingGroupTypePublic, models.WorkingGroupTypePrivate,
		models.WorkingGroupTypeCompany, models.WorkingGroupTypeAgency:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case models.WorkingGroupStatusActive, models.WorkingGroupStatusInactive, models.WorkingGroupStatusSuspended:
		return true
	}
	return false
}

// loadGroup fetches the {id} working group and writes 400/404/500 itself.
func (h *Handler) loadGroup(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.WorkingGroup, bool) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid working group id.")
		return nil, false
	}
	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, workinggroupstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Working group not found.")
			return nil, false
		}
		h.ErrLog.LogServerError(w, r, "load working group failed", err, "A database error occurred.")
		return nil, false
	}
	return g, true
}

// ServeList handles GET /working-groups. Super admins see every group; other
// users see the groups they are active members of.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.Policy.ViewAny(ctx, u) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var (
		groups []models.WorkingGroup
		err    error
	)
	if u.IsSuperAdmin() {
		groups, err = h.Groups.List(ctx)
	} else {
		var mems []models.Membership
		mems, err = h.Memberships.ListByUser(ctx, u.ID, models.MembershipStatusActive)
		if err == nil {
			ids := make([]primitive.ObjectID, 0, len(mems))
			for _, m := range mems {
				ids = append(ids, m.GroupID)
			}
			groups, err = h.Groups.ListByIDs(ctx, ids)
		}
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list working groups failed", err, "A database error occurred.")
		return
	}
	if groups == nil {
		groups = []models.WorkingGroup{}
	}
	respond.JSON(w, http.StatusOK, groups)
}

// ServeShow handles GET /working-groups/{id}.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.Policy.View(ctx, u, g) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

type groupInput struct {
	Name        *string        `json:"name"`
	Slug        *string        `json:"slug"`
	Type        *string        `json:"type"`
	Status      *string        `json:"status"`
	Description *string        `json:"description"`
	Settings    map[string]any `json:"settings"`
}

// clean sanitizes the input and reports a user-facing problem, if any.
func (in *groupInput) clean() string {
	if in.Name != nil {
		n := htmlsanitize.PlainText(*in.Name)
		in.Name = &n
	}
	if in.Description != nil {
		d := htmlsanitize.Sanitize(*in.Description)
		in.Description = &d
	}
	if in.Type != nil && !validType(*in.Type) {
		return "type must be one of public, private, company, agency."
	}
	if in.Status != nil && !validStatus(*in.Status) {
		return "status must be one of active, inactive, suspended."
	}
	return ""
}

// HandleCreate handles POST /working-groups.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if !h.Policy.Create(u) {
		h.ErrLog.Forbidden(w, r, "Only super admins can create working groups.")
		return
	}

	var in groupInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode working group failed", err, "Invalid JSON body.")
		return
	}
	if msg := in.clean(); msg != "" {
		respond.Error(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	g := models.WorkingGroup{Settings: in.Settings, CreatedBy: &u.ID}
	if in.Name != nil {
		g.Name = *in.Name
	}
	if in.Slug != nil {
		g.Slug = *in.Slug
	}
	if in.Type != nil {
		g.Type = *in.Type
	}
	if in.Status != nil {
		g.Status = *in.Status
	}
	if in.Description != nil {
		g.Description = *in.Description
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Groups.Create(ctx, g)
	switch {
	case errors.Is(err, workinggroupstore.ErrEmptyName):
		respond.Error(w, http.StatusBadRequest, "bad_request", "Name is required.")
		return
	case errors.Is(err, workinggroupstore.ErrDuplicateSlug):
		h.ErrLog.Conflict(w, r, "duplicate_slug", "A working group with this slug already exists.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create working group failed", err, "A database error occurred.")
		return
	}

	h.AuditLog.WorkingGroupCreated(ctx, r, u.ID, &created)
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUpdate handles PATCH /working-groups/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.Policy.Update(ctx, u, g) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in groupInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode working group failed", err, "Invalid JSON body.")
		return
	}
	if msg := in.clean(); msg != "" {
		respond.Error(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	upd := workinggroupstore.Update{
		Name:        in.Name,
		Slug:        in.Slug,
		Type:        in.Type,
		Status:      in.Status,
		Description: in.Description,
		Settings:    in.Settings,
	}
	updated, err := h.Groups.Update(ctx, g.ID, upd)
	switch {
	case errors.Is(err, workinggroupstore.ErrEmptyName):
		respond.Error(w, http.StatusBadRequest, "bad_request", "Name cannot be empty.")
		return
	case errors.Is(err, workinggroupstore.ErrDuplicateSlug):
		h.ErrLog.Conflict(w, r, "duplicate_slug", "A working group with this slug already exists.")
		return
	case errors.Is(err, workinggroupstore.ErrNotFound):
		h.ErrLog.NotFound(w, r, "Working group not found.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update working group failed", err, "A database error occurred.")
		return
	}

	h.AuditLog.WorkingGroupUpdated(ctx, r, u.ID, g.ID, in.changed())
	respond.JSON(w, http.StatusOK, updated)
}

// changed lists the submitted fields for the audit trail.
func (in groupInput) changed() string {
	var f []string
	if in.Name != nil {
		f = append(f, "name")
	}
	if in.Slug != nil {
		f = append(f, "slug")
	}
	if in.Type != nil {
		f = append(f, "type")
	}
	if in.Status != nil {
		f = append(f, "status")
	}
	if in.Description != nil {
		f = append(f, "description")
	}
	if in.Settings != nil {
		f = append(f, "settings")
	}
	sort.Strings(f)
	return strings.Join(f, ",")
}

// HandleDelete handles DELETE /working-groups/{id}. The public default
// working group can never be deleted.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.Policy.Delete(u, g) {
		h.ErrLog.Forbidden(w, r, "This working group cannot be deleted.")
		return
	}
	if err := h.Groups.SoftDelete(ctx, g.ID); err != nil {
		if errors.Is(err, workinggroupstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Working group not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "delete working group failed", err, "A database error occurred.")
		return
	}

	h.AuditLog.WorkingGroupDeleted(ctx, r, u.ID, g)
	respond.NoContent(w)
}
