package workinggroup

import (
	"context"
	"net/http"

	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/permission"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.uber.org/zap"
)

// SessionStore reads and writes the working group id kept in the session.
// auth.SessionManager implements it.
type SessionStore interface {
	WorkingGroupID(r *http.Request) string
	SetWorkingGroupID(w http.ResponseWriter, r *http.Request, id string) error
	ClearWorkingGroupID(w http.ResponseWriter, r *http.Request) error
}

// Middleware resolves the working group for every request and applies the
// results:
//
//   - a fresh Holder and permission Scope go into the request context
//   - the Holder receives the resolved group (possibly nil)
//   - with a group and a signed-in user, the session remembers the group id
//     and the Scope binds to it
//   - otherwise the session id is removed and the Scope is cleared
//
// It must run after auth.LoadSessionUser.
func Middleware(res *Resolver, sessions SessionStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := auth.CurrentUser(r)

			lookupCtx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			g := res.Resolve(lookupCtx, sessions.WorkingGroupID(r), user)
			cancel()

			holder := NewHolder()
			holder.Set(g)
			scope := permission.NewScope()

			Apply(w, r, sessions, scope, g, user, logger)

			ctx := permission.WithScope(r.Context(), scope)
			ctx = WithHolder(ctx, holder)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Apply performs the session and scope side effects for a resolved group.
func Apply(w http.ResponseWriter, r *http.Request, sessions SessionStore, scope *permission.Scope, g *models.WorkingGroup, user *models.User, logger *zap.Logger) {
	if g != nil && user != nil {
		if err := sessions.SetWorkingGroupID(w, r, g.ID.Hex()); err != nil {
			logger.Warn("failed to store working group in session",
				zap.String("working_group_id", g.ID.Hex()),
				zap.Error(err))
		}
		id := g.ID
		scope.Bind(&id)
		return
	}

	if err := sessions.ClearWorkingGroupID(w, r); err != nil {
		logger.Warn("failed to clear working group from session", zap.Error(err))
	}
	scope.Clear()
}
