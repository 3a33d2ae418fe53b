// internal/app/features/featureflags/routes.go
package featureflags

import (
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is restricted to super admins.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSuperAdmin)
	r.Get("/{name}", h.ServeFlag)
	r.Put("/{name}", h.HandleSet)
	r.Delete("/{name}", h.HandleUnset)
	return r
}
