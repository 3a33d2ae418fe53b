// internal/app/features/workinggroups/routes.go
package workinggroups

import (
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts working group administration. Every route requires a
// signed-in user; finer checks are made by the policies.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeShow)
		r.Patch("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)

		r.Get("/members", h.ServeMembers)
		r.Post("/members", h.HandleInvite)
		r.Patch("/members/{memberID}", h.HandleRole)
		r.Delete("/members/{memberID}", h.HandleRemove)
		r.Post("/members/{memberID}/accept", h.HandleAccept)
		r.Post("/members/{memberID}/default", h.HandleDefault)
	})
	return r
}
