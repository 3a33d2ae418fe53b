package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// PublicDirectory finds the public default working group.
type PublicDirectory interface {
	PublicDefault(ctx context.Context) (*models.WorkingGroup, error)
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Groups PublicDirectory
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, groups PublicDirectory, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Groups: groups,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	PublicGroup string `json:"public_working_group,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "public_working_group":"present" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
//
// A missing public default working group is reported but does not fail the
// check; anonymous visitors then resolve to no working group.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		respond.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if h.Groups != nil {
		g, err := h.Groups.PublicDefault(ctx)
		switch {
		case err == nil && g != nil:
			resp.PublicGroup = "present"
		default:
			resp.PublicGroup = "missing"
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}
