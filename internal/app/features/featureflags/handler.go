// internal/app/features/featureflags/handler.go
package featureflags

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	featurestore "github.com/dalemusser/printhub/internal/app/store/features"
	"github.com/dalemusser/printhub/internal/app/system/auditlog"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

type Handler struct {
	Features *featurestore.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(features *featurestore.Store, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Features: features, ErrLog: errLog, AuditLog: audit, Log: logger}
}

func flagName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if !validName.MatchString(name) {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid flag name.")
		return "", false
	}
	return name, true
}

type flagView struct {
	Name   string                `json:"name"`
	Values []models.FeatureValue `json:"values"`
}

// ServeFlag handles GET /feature-flags/{name} and lists every stored value.
func (h *Handler) ServeFlag(w http.ResponseWriter, r *http.Request) {
	name, ok := flagName(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	values, err := h.Features.List(ctx, name)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list feature values failed", err, "A database error occurred.")
		return
	}
	if values == nil {
		values = []models.FeatureValue{}
	}
	respond.JSON(w, http.StatusOK, flagView{Name: name, Values: values})
}

type setInput struct {
	Scope string `json:"scope"`
	Value *bool  `json:"value"`
}

// HandleSet handles PUT /feature-flags/{name}. Scope defaults to global.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	name, ok := flagName(w, r)
	if !ok {
		return
	}

	var in setInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode feature value failed", err, "Invalid JSON body.")
		return
	}
	if in.Value == nil {
		respond.Error(w, http.StatusBadRequest, "bad_request", "value is required.")
		return
	}
	if in.Scope == "" {
		in.Scope = models.FeatureScopeGlobal
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Features.Set(ctx, name, in.Scope, *in.Value); err != nil {
		if errors.Is(err, featurestore.ErrBadScope) {
			respond.Error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		h.ErrLog.LogServerError(w, r, "set feature value failed", err, "A database error occurred.")
		return
	}

	h.AuditLog.FeatureFlagSet(ctx, r, u.ID, name, in.Scope, *in.Value)
	respond.JSON(w, http.StatusOK, models.FeatureValue{Name: name, Scope: in.Scope, Value: *in.Value})
}

// HandleUnset handles DELETE /feature-flags/{name}?scope=. The flag falls
// back to the next scope, or the configured default.
func (h *Handler) HandleUnset(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	name, ok := flagName(w, r)
	if !ok {
		return
	}
	scope := query.Get(r, "scope")
	if scope == "" {
		scope = models.FeatureScopeGlobal
	}
	if !featurestore.ValidScope(scope) {
		respond.Error(w, http.StatusBadRequest, "bad_request", featurestore.ErrBadScope.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Features.Unset(ctx, name, scope); err != nil {
		h.ErrLog.LogServerError(w, r, "unset feature value failed", err, "A database error occurred.")
		return
	}

	h.AuditLog.FeatureFlagUnset(ctx, r, u.ID, name, scope)
	respond.NoContent(w)
}
