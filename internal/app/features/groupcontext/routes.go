// internal/app/features/groupcontext/routes.go
package groupcontext

import (
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /context.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeContext)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/working-group", h.HandleSwitch)
	})
	return r
}
