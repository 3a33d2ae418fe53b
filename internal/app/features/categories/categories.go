// internal/app/features/categories/categories.go
package categories

import (
	"context"
	"net/http"

	"github.com/dalemusser/printhub/internal/app/policy/categorypolicy"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /categories?parent_id=. Visitors without a staff role
// only see published categories.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var raw *string
	if v := query.Get(r, "parent_id"); v != "" {
		raw = &v
	}
	parent, ok := parseParent(raw)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid parent_id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cats, err := h.Categories.List(ctx, parent, !categorypolicy.ViewUnpublished(u))
	if err != nil {
		h.writeCategoryErr(w, r, "list categories failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, cats)
}

// ServeShow handles GET /categories/{id}. Unpublished categories look missing
// to visitors who may not see them.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.loadCategory(ctx, w, r)
	if !ok {
		return
	}
	if !categorypolicy.View(u, c) {
		h.ErrLog.NotFound(w, r, "Category not found.")
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

type createInput struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// HandleCreate handles POST /categories. New categories start as drafts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if !categorypolicy.Create(u) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode category failed", err, "Invalid JSON body.")
		return
	}
	parent, ok := parseParent(in.ParentID)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid parent_id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Categories.Create(ctx, models.Category{Name: in.Name, ParentID: parent})
	if err != nil {
		h.writeCategoryErr(w, r, "create category failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

type renameInput struct {
	Name string `json:"name"`
}

// HandleRename handles PATCH /categories/{id}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCategory(ctx, w, r)
	if !ok {
		return
	}
	if !categorypolicy.Update(u, c) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in renameInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode category failed", err, "Invalid JSON body.")
		return
	}
	updated, err := h.Categories.Rename(ctx, c.ID, in.Name)
	if err != nil {
		h.writeCategoryErr(w, r, "rename category failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /categories/{id}. Children move up to the
// deleted category's parent.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCategory(ctx, w, r)
	if !ok {
		return
	}
	if !categorypolicy.Delete(u, c) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}
	if err := h.Categories.Delete(ctx, c.ID); err != nil {
		h.writeCategoryErr(w, r, "delete category failed", err)
		return
	}
	respond.NoContent(w)
}

type moveInput struct {
	ParentID *string `json:"parent_id"`
}

// HandleMove handles POST /categories/{id}/move. An empty parent_id moves the
// category to the root.
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if !categorypolicy.Move(u) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in moveInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode move failed", err, "Invalid JSON body.")
		return
	}
	parent, ok := parseParent(in.ParentID)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid parent_id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCategory(ctx, w, r)
	if !ok {
		return
	}
	moved, err := h.Categories.Move(ctx, c.ID, parent)
	if err != nil {
		h.writeCategoryErr(w, r, "move category failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, moved)
}

type reorderInput struct {
	Position int `json:"position"`
}

// HandleReorder handles POST /categories/{id}/reorder and returns the
// renumbered siblings.
func (h *Handler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if !categorypolicy.Reorder(u) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in reorderInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode reorder failed", err, "Invalid JSON body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadCategory(ctx, w, r)
	if !ok {
		return
	}
	siblings, err := h.Categories.Reorder(ctx, c.ID, in.Position)
	if err != nil {
		h.writeCategoryErr(w, r, "reorder category failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, siblings)
}
