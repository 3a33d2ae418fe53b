// internal/app/features/categories/routes.go
package categories

import (
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the category tree. Reads are public; changes need a
// signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeShow)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Post("/", h.HandleCreate)
		r.Patch("/{id}", h.HandleRename)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/publish", h.HandlePublish)
		r.Post("/{id}/move", h.HandleMove)
		r.Post("/{id}/reorder", h.HandleReorder)
	})
	return r
}

// ModerationRoutes mounts the review queue.
func ModerationRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeQueue)
	r.Post("/{reqID}/approve", h.HandleApprove)
	r.Post("/{reqID}/reject", h.HandleReject)
	return r
}
