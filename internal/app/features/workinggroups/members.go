// internal/app/features/workinggroups/members.go
package workinggroups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	membershipstore "github.com/dalemusser/printhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/printhub/internal/app/store/users"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memberRow struct {
	models.Membership
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// loadMember fetches {memberID} and checks it belongs to group g.
func (h *Handler) loadMember(ctx context.Context, w http.ResponseWriter, r *http.Request, g *models.WorkingGroup) (*models.Membership, bool) {
	id, ok := urlID(r, "memberID")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid membership id.")
		return nil, false
	}
	m, err := h.Memberships.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, membershipstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Membership not found.")
			return nil, false
		}
		h.ErrLog.LogServerError(w, r, "load membership failed", err, "A database error occurred.")
		return nil, false
	}
	if m.GroupID != g.ID {
		h.ErrLog.NotFound(w, r, "Membership not found.")
		return nil, false
	}
	return m, true
}

// writeMembershipErr maps lifecycle errors onto responses.
func (h *Handler) writeMembershipErr(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, membershipstore.ErrNotFound):
		h.ErrLog.NotFound(w, r, "Membership not found.")
	case errors.Is(err, membershipstore.ErrDuplicateMembership):
		h.ErrLog.Conflict(w, r, "duplicate_membership", "User is already a member of this working group.")
	case errors.Is(err, membershipstore.ErrInvalidTransition):
		h.ErrLog.Conflict(w, r, "invalid_transition", "The membership's status does not allow this change.")
	case errors.Is(err, membershipstore.ErrDefaultConflict):
		h.ErrLog.Conflict(w, r, "default_conflict", "Another default was set at the same time. Try again.")
	case errors.Is(err, membershipstore.ErrBadRole):
		respond.Error(w, http.StatusBadRequest, "bad_request", "That role cannot be assigned on a membership.")
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "A database error occurred.")
	}
}

// ServeMembers handles GET /working-groups/{id}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.MemberPolicy.View(ctx, u, g.ID) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	status := normalize.Status(query.Get(r, "status"))
	mems, err := h.Memberships.ListByGroup(ctx, g.ID, status)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list memberships failed", err, "A database error occurred.")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(mems))
	for _, m := range mems {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member users failed", err, "A database error occurred.")
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, usr := range users {
		byID[usr.ID] = usr
	}

	rows := make([]memberRow, 0, len(mems))
	for _, m := range mems {
		row := memberRow{Membership: m}
		if usr, ok := byID[m.UserID]; ok {
			row.FullName = usr.FullName
			row.Email = usr.Email
		}
		rows = append(rows, row)
	}
	respond.JSON(w, http.StatusOK, rows)
}

type inviteInput struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// HandleInvite handles POST /working-groups/{id}/members. The invitee is
// identified by user_id or email and joins with status invited.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	if !h.MemberPolicy.Create(ctx, u, g.ID) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in inviteInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode invite failed", err, "Invalid JSON body.")
		return
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Unknown role.")
		return
	}

	var target *models.User
	switch {
	case strings.TrimSpace(in.UserID) != "":
		oid, ok := normalize.ObjectID(in.UserID)
		if !ok {
			respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid user id.")
			return
		}
		target, err = h.Users.GetByID(ctx, oid)
	case strings.TrimSpace(in.Email) != "":
		target, err = h.Users.GetByEmail(ctx, in.Email)
	default:
		respond.Error(w, http.StatusBadRequest, "bad_request", "user_id or email is required.")
		return
	}
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "No such user.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load invitee failed", err, "A database error occurred.")
		return
	}

	m, err := h.Memberships.Invite(ctx, g.ID, target.ID, role, &u.ID)
	if err != nil {
		h.writeMembershipErr(w, r, "invite member failed", err)
		return
	}

	h.AuditLog.MemberInvited(ctx, r, u.ID, m)
	respond.JSON(w, http.StatusCreated, m)
}

// HandleAccept handles POST /working-groups/{id}/members/{memberID}/accept.
// The invited user accepts their own invitation; group admins may accept on
// their behalf.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	m, ok := h.loadMember(ctx, w, r, g)
	if !ok {
		return
	}
	if m.UserID != u.ID && !h.MemberPolicy.Update(ctx, u, m) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	accepted, err := h.Memberships.Accept(ctx, m.ID)
	if err != nil {
		h.writeMembershipErr(w, r, "accept membership failed", err)
		return
	}

	h.AuditLog.MemberAccepted(ctx, r, u.ID, accepted)
	respond.JSON(w, http.StatusOK, accepted)
}

type roleInput struct {
	Role string `json:"role"`
}

// HandleRole handles PATCH /working-groups/{id}/members/{memberID}.
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	m, ok := h.loadMember(ctx, w, r, g)
	if !ok {
		return
	}
	if !h.MemberPolicy.Update(ctx, u, m) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in roleInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode role failed", err, "Invalid JSON body.")
		return
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Unknown role.")
		return
	}

	updated, err := h.Memberships.UpdateRole(ctx, m.ID, role)
	if err != nil {
		h.writeMembershipErr(w, r, "update member role failed", err)
		return
	}

	h.AuditLog.MemberRoleChanged(ctx, r, u.ID, updated, m.Role)
	respond.JSON(w, http.StatusOK, updated)
}

// HandleRemove handles DELETE /working-groups/{id}/members/{memberID}.
// Admin memberships cannot be removed; demote them first.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	m, ok := h.loadMember(ctx, w, r, g)
	if !ok {
		return
	}
	if !h.MemberPolicy.Delete(ctx, u, m) {
		h.ErrLog.Forbidden(w, r, "This membership cannot be removed.")
		return
	}

	removed, err := h.Memberships.Remove(ctx, m.ID)
	if err != nil {
		h.writeMembershipErr(w, r, "remove member failed", err)
		return
	}

	h.AuditLog.MemberRemoved(ctx, r, u.ID, removed)
	respond.NoContent(w)
}

// HandleDefault handles POST /working-groups/{id}/members/{memberID}/default.
// Only the membership's own user may make it their default.
func (h *Handler) HandleDefault(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "set default membership")
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	m, ok := h.loadMember(ctx, w, r, g)
	if !ok {
		return
	}
	if m.UserID != u.ID {
		h.ErrLog.Forbidden(w, r, "Only the member can choose their default working group.")
		return
	}

	updated, err := h.Memberships.SetDefault(ctx, u.ID, m.ID)
	if err != nil {
		h.writeMembershipErr(w, r, "set default membership failed", err)
		return
	}

	h.AuditLog.DefaultChanged(ctx, r, u.ID, updated)
	respond.JSON(w, http.StatusOK, updated)
}
