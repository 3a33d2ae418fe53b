// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/printhub/internal/app/store/audit"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/permission"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /audit.
//
// Filters: category, event_type, actor_id, group_id (super admin only),
// start_date and end_date (YYYY-MM-DD, inclusive), page (1-based).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	filter, page, msg := parseFilter(r)
	if msg != "" {
		respond.Error(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	// Group admins are pinned to their current working group.
	if !u.IsSuperAdmin() {
		if filter.GroupID != nil {
			h.ErrLog.Forbidden(w, r, "Only super admins may filter by working group.")
			return
		}
		groupID, ok := permission.ScopeFrom(ctx).TeamID()
		if !ok || !h.Roles.HasRole(ctx, u, models.RoleAdmin) {
			h.ErrLog.Forbidden(w, r, "")
			return
		}
		filter.GroupID = &groupID
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.")
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.")
		return
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	respond.JSON(w, http.StatusOK, listResponse{
		Events:     h.withNames(r, events),
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	})
}

// ServeCategories handles GET /audit/categories.
func (h *Handler) ServeCategories(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, categories)
}

func parseFilter(r *http.Request) (audit.QueryFilter, int, string) {
	filter := audit.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "event_type"),
		Limit:     pageSize,
	}
	if filter.Category != "" && !validCategory(filter.Category) {
		return filter, 0, "Unknown category."
	}

	page := 1
	if s := query.Get(r, "page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return filter, 0, "page must be a positive integer."
		}
		page = n
	}
	filter.Offset = int64((page - 1) * pageSize)

	for key, dst := range map[string]**primitive.ObjectID{"actor_id": &filter.ActorID, "group_id": &filter.GroupID} {
		s := query.Get(r, key)
		if s == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return filter, 0, "Invalid " + key + "."
		}
		*dst = &id
	}

	if s := query.Get(r, "start_date"); s != "" {
		t, err := parseDay(s)
		if err != nil {
			return filter, 0, "start_date must be YYYY-MM-DD."
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := parseDay(s)
		if err != nil {
			return filter, 0, "end_date must be YYYY-MM-DD."
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}
	return filter, page, ""
}

// withNames attaches user names. Lookup failures leave names blank.
func (h *Handler) withNames(r *http.Request, events []audit.Event) []eventRow {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}

	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) > 0 {
		users, err := h.Users.ListByIDs(r.Context(), ids)
		if err != nil {
			h.Log.Warn("resolve audit user names failed", zap.Error(err))
		}
		for _, u := range users {
			names[u.ID] = u.FullName
		}
	}

	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		row := eventRow{Event: e}
		if e.ActorID != nil {
			row.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			row.TargetName = names[*e.UserID]
		}
		rows = append(rows, row)
	}
	return rows
}
