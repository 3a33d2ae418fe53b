// internal/app/features/categories/moderation.go
package categories

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/printhub/internal/app/policy/categorypolicy"
	categorystore "github.com/dalemusser/printhub/internal/app/store/categories"
	moderationstore "github.com/dalemusser/printhub/internal/app/store/moderation"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type noteInput struct {
	Note string `json:"note"`
}

// decodeNote accepts an empty body.
func decodeNote(r *http.Request) (noteInput, error) {
	var in noteInput
	if r.ContentLength == 0 {
		return in, nil
	}
	err := respond.Decode(r, &in)
	return in, err
}

// HandlePublish handles POST /categories/{id}/publish.
//
// Admins publish immediately (200). Managers queue a moderation request and
// the category waits in pending until a reviewer decides (202).
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	decision := categorypolicy.Publish(u)
	if decision == categorypolicy.Denied {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	in, err := decodeNote(r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode publish failed", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCategory(ctx, w, r)
	if !ok {
		return
	}
	if c.Status == models.CategoryStatusPublished {
		respond.JSON(w, http.StatusOK, c)
		return
	}

	if decision == categorypolicy.Immediate {
		published, err := h.Categories.SetStatus(ctx, c.ID, models.CategoryStatusPublished)
		if err != nil {
			h.writeCategoryErr(w, r, "publish category failed", err)
			return
		}
		h.AuditLog.CategoryPublished(ctx, r, u.ID, c.ID)
		respond.JSON(w, http.StatusOK, published)
		return
	}

	req, err := h.Moderation.Submit(ctx, models.ModerationRequest{
		Subject:     SubjectCategory,
		SubjectID:   c.ID,
		Action:      ActionPublish,
		RequestedBy: u.ID,
		Note:        in.Note,
		Snapshot: map[string]any{
			"name":   c.Name,
			"slug":   c.Slug,
			"status": c.Status,
		},
	})
	if err != nil {
		if errors.Is(err, moderationstore.ErrAlreadyQueued) {
			h.ErrLog.Conflict(w, r, "already_queued", "A publish request for this category is already waiting for review.")
			return
		}
		h.ErrLog.LogServerError(w, r, "queue moderation request failed", err, "A database error occurred.")
		return
	}
	if _, err := h.Categories.SetStatus(ctx, c.ID, models.CategoryStatusPending); err != nil {
		h.writeCategoryErr(w, r, "mark category pending failed", err)
		return
	}

	h.AuditLog.ModerationQueued(ctx, r, u.ID, req)
	respond.JSON(w, http.StatusAccepted, req)
}

// ServeQueue handles GET /moderation.
func (h *Handler) ServeQueue(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if !categorypolicy.Review(u) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reqs, err := h.Moderation.ListPending(ctx, 0)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list moderation queue failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, reqs)
}

// HandleApprove handles POST /moderation/{reqID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// HandleReject handles POST /moderation/{reqID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

// review claims the pending request and then applies the outcome to its
// subject: approved publishes go live, rejected ones fall back to draft.
func (h *Handler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	u, _ := auth.CurrentUser(r)
	if !categorypolicy.Review(u) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}
	id, ok := normalize.ObjectID(chi.URLParam(r, "reqID"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid request id.")
		return
	}
	in, err := decodeNote(r)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode review failed", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req *models.ModerationRequest
	if approve {
		req, err = h.Moderation.Approve(ctx, id, u.ID, in.Note)
	} else {
		req, err = h.Moderation.Reject(ctx, id, u.ID, in.Note)
	}
	switch {
	case errors.Is(err, moderationstore.ErrNotFound):
		h.ErrLog.NotFound(w, r, "Moderation request not found.")
		return
	case errors.Is(err, moderationstore.ErrNotPending):
		h.ErrLog.Conflict(w, r, "not_pending", "This request has already been reviewed.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "review moderation request failed", err, "A database error occurred.")
		return
	}

	if req.Subject == SubjectCategory && req.Action == ActionPublish {
		status := models.CategoryStatusDraft
		if approve {
			status = models.CategoryStatusPublished
		}
		if _, err := h.Categories.SetStatus(ctx, req.SubjectID, status); err != nil {
			if !errors.Is(err, categorystore.ErrNotFound) {
				h.ErrLog.LogServerError(w, r, "apply moderation decision failed", err, "A database error occurred.")
				return
			}
			h.Log.Warn("moderated category no longer exists",
				zap.String("request_id", req.ID.Hex()),
				zap.String("category_id", req.SubjectID.Hex()))
		}
	}

	if approve {
		h.AuditLog.ModerationApproved(ctx, r, u.ID, req)
	} else {
		h.AuditLog.ModerationRejected(ctx, r, u.ID, req)
	}
	respond.JSON(w, http.StatusOK, req)
}
