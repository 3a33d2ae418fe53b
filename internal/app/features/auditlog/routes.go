// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit viewer (typically at "/audit"). Handlers decide
// between the super admin and group admin views.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/categories", h.ServeCategories)
	return r
}
