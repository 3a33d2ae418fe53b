package workinggroup

import (
	"context"
	"net/http"

	"github.com/dalemusser/printhub/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Query Helpers                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// IDFromContext returns the current working group id.
func IDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	g := Current(ctx)
	if g == nil {
		return primitive.NilObjectID, false
	}
	return g.ID, true
}

// Filter adds group_id for the current working group to filter and reports
// whether one was available. Callers must reject the request on false rather
// than run an unscoped query.
//
//	filter := bson.M{"status": "open"}
//	if !workinggroup.Filter(ctx, filter) { ... }
func Filter(ctx context.Context, filter bson.M) bool {
	id, ok := IDFromContext(ctx)
	if !ok {
		return false
	}
	filter["group_id"] = id
	return true
}

// RequireWorkingGroup rejects requests that resolved to no working group.
func RequireWorkingGroup(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Current(r.Context()) == nil {
			respond.Error(w, http.StatusConflict, "no_working_group", "Select a working group first.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
