// internal/app/features/categories/handler.go
package categories

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	categorystore "github.com/dalemusser/printhub/internal/app/store/categories"
	moderationstore "github.com/dalemusser/printhub/internal/app/store/moderation"
	"github.com/dalemusser/printhub/internal/app/system/auditlog"
	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Moderation subjects and actions written by this package.
const (
	SubjectCategory = "category"
	ActionPublish   = "publish"
)

// Handler serves the category tree and the moderation queue that gates
// publishing by managers.
type Handler struct {
	Categories *categorystore.Store
	Moderation *moderationstore.Store
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(categories *categorystore.Store, moderation *moderationstore.Store, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Categories: categories,
		Moderation: moderation,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
	}
}

func (h *Handler) loadCategory(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid category id.")
		return nil, false
	}
	c, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		h.writeCategoryErr(w, r, "load category failed", err)
		return nil, false
	}
	return c, true
}

func (h *Handler) writeCategoryErr(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, categorystore.ErrNotFound):
		h.ErrLog.NotFound(w, r, "Category not found.")
	case errors.Is(err, categorystore.ErrEmptyName):
		respond.Error(w, http.StatusBadRequest, "bad_request", "Name is required.")
	case errors.Is(err, categorystore.ErrBadStatus):
		respond.Error(w, http.StatusBadRequest, "bad_request", "Unknown status.")
	case errors.Is(err, categorystore.ErrCycle):
		h.ErrLog.Conflict(w, r, "cycle", "A category cannot be moved under itself or its descendants.")
	case errors.Is(err, categorystore.ErrDuplicateSlug):
		h.ErrLog.Conflict(w, r, "duplicate_slug", "A category with this slug already exists.")
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "A database error occurred.")
	}
}

// parseParent turns an optional hex id into a parent pointer. Empty means root.
func parseParent(s *string) (*primitive.ObjectID, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	id, ok := normalize.ObjectID(*s)
	if !ok {
		return nil, false
	}
	return &id, true
}
