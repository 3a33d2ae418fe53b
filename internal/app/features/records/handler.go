// internal/app/features/records/handler.go
//
// Package records serves CRUD for one tenant-scoped record kind. The same
// handler is mounted once per kind; the kind's role table decides access.
package records

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	"github.com/dalemusser/printhub/internal/app/policy/tenantpolicy"
	recordstore "github.com/dalemusser/printhub/internal/app/store/records"
	"github.com/dalemusser/printhub/internal/app/system/auditlog"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/limits"
	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/app/system/workinggroup"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Records  *recordstore.Store
	Policy   tenantpolicy.Policy
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler returns the handler for the store's record kind.
func NewHandler(records *recordstore.Store, checker *tenantpolicy.Checker, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) (*Handler, error) {
	policy, ok := tenantpolicy.New(checker, records.Kind())
	if !ok {
		return nil, fmt.Errorf("no policy for record kind %q", records.Kind())
	}
	return &Handler{
		Records:  records,
		Policy:   policy,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
	}, nil
}

// Path returns the URL segment a kind is mounted at ("payment_intents" ->
// "/payment-intents").
func Path(kind models.RecordKind) string {
	return "/" + strings.ReplaceAll(string(kind), "_", "-")
}

// groupOwner lets the list check ask "may u view records owned by this group".
type groupOwner primitive.ObjectID

func (g groupOwner) OwnerGroupID() primitive.ObjectID { return primitive.ObjectID(g) }

func (h *Handler) loadRecord(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Record, bool) {
	id, ok := normalize.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Invalid record id.")
		return nil, false
	}
	rec, err := h.Records.Get(ctx, id)
	if err != nil {
		h.writeStoreErr(w, r, "load record failed", err)
		return nil, false
	}
	return rec, true
}

func (h *Handler) writeStoreErr(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		h.ErrLog.NotFound(w, r, "Record not found.")
	case errors.Is(err, recordstore.ErrNoWorkingGroup):
		respond.Error(w, http.StatusConflict, "no_working_group", "Select a working group first.")
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "A database error occurred.")
	}
}

// ServeList handles GET /. Records come from the current working group only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groupID, _ := workinggroup.IDFromContext(ctx)
	if !h.Policy.ViewAny(ctx, u) || !h.Policy.View(ctx, u, groupOwner(groupID)) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var limit int64
	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			respond.Error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer.")
			return
		}
		limit = min(n, recordstore.DefaultLimit)
	}

	recs, err := h.Records.List(ctx, limit)
	if err != nil {
		h.writeStoreErr(w, r, "list records failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, recs)
}

var tooManyAttributes = fmt.Sprintf("A record may have at most %d attributes.", limits.MaxRecordAttributes)

type createInput struct {
	Reference  string            `json:"reference"`
	Attributes map[string]string `json:"attributes"`
}

// HandleCreate handles POST /. The record joins the current working group.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.Policy.Create(ctx, u) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode record failed", err, "Invalid JSON body.")
		return
	}
	if len(in.Attributes) > limits.MaxRecordAttributes {
		respond.Error(w, http.StatusBadRequest, "bad_request", tooManyAttributes)
		return
	}

	rec, err := h.Records.Create(ctx, u.ID, in.Reference, in.Attributes)
	if err != nil {
		h.writeStoreErr(w, r, "create record failed", err)
		return
	}

	h.AuditLog.RecordCreated(ctx, r, u.ID, rec)
	respond.JSON(w, http.StatusCreated, rec)
}

// ServeShow handles GET /{id}.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, ok := h.loadRecord(ctx, w, r)
	if !ok {
		return
	}
	if !h.Policy.View(ctx, u, rec) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

type updateInput struct {
	Reference  *string           `json:"reference"`
	Attributes map[string]string `json:"attributes"`
}

// HandleUpdate handles PATCH /{id}. The owning working group never changes.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, ok := h.loadRecord(ctx, w, r)
	if !ok {
		return
	}
	if !h.Policy.Update(ctx, u, rec) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}

	var in updateInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode record failed", err, "Invalid JSON body.")
		return
	}
	if len(in.Attributes) > limits.MaxRecordAttributes {
		respond.Error(w, http.StatusBadRequest, "bad_request", tooManyAttributes)
		return
	}

	updated, err := h.Records.Update(ctx, rec.ID, recordstore.Patch{
		Reference:  in.Reference,
		Attributes: in.Attributes,
	})
	if err != nil {
		h.writeStoreErr(w, r, "update record failed", err)
		return
	}

	h.AuditLog.RecordUpdated(ctx, r, u.ID, updated)
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, ok := h.loadRecord(ctx, w, r)
	if !ok {
		return
	}
	if !h.Policy.Delete(ctx, u, rec) {
		h.ErrLog.Forbidden(w, r, "")
		return
	}
	if err := h.Records.Delete(ctx, rec.ID); err != nil {
		h.writeStoreErr(w, r, "delete record failed", err)
		return
	}

	h.AuditLog.RecordDeleted(ctx, r, u.ID, rec)
	respond.NoContent(w)
}
