// Package auth owns the session cookie: who is signed in, and which working
// group they chose last.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"

	// WorkingGroupKey holds the hex id of the working group resolved for the
	// previous request. It seeds the next request's resolution.
	WorkingGroupKey = "working_group_id"
)

// UserFetcher loads the current user for a session on each request so role
// changes and disabled accounts take effect immediately.
// Returns nil when the user is not found or disabled.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *models.User
}

// SessionManager wraps the gorilla cookie store.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the cookie store.
//
// In production (secure=true), cookies are Secure + SameSite=None.
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		return nil, fmt.Errorf("session name is empty")
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		MaxAge:   int(maxAge.Seconds()),
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Store exposes the underlying cookie store (for cookie deletion options).
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// Name returns the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// SetUserFetcher installs the per-request user loader.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// GetSession returns the request's session. A cookie that fails to decode
// (rotated key, tampering) yields a fresh session and no error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		var cerr securecookie.Error
		if errors.As(err, &cerr) && cerr.IsDecode() {
			sm.log.Debug("discarding undecodable session cookie", zap.Error(err))
			return sess, nil
		}
		return sess, err
	}
	return sess, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helpers                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user & “found?” flag.
func CurrentUser(r *http.Request) (*models.User, bool) {
	return UserFromContext(r.Context())
}

// UserFromContext returns the signed-in user stored by LoadSessionUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// WithTestUser returns a request with u injected, bypassing the session.
// Exported for tests in other packages.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(WithUser(r.Context(), u))
}

// LoadSessionUser injects the user into context if they are signed in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err != nil {
			sm.log.Warn("session load failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		isAuth, _ := sess.Values[isAuthKey].(bool)
		userID, _ := sess.Values[userIDKey].(string)
		if !isAuth || userID == "" || sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}

		u := sm.fetcher.FetchUser(r.Context(), userID)
		if u == nil {
			// Deleted or disabled since sign-in. Treat as a visitor.
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// Browsers are redirected to /login?return=...; API callers get a 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		if wantsHTML(r) {
			ret := url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}
		respond.Error(w, http.StatusUnauthorized, "", "Please sign in to continue.")
	})
}

// RequireSuperAdmin ensures the signed-in user holds the global super_admin role.
func (sm *SessionManager) RequireSuperAdmin(next http.Handler) http.Handler {
	return sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := CurrentUser(r)
		if !u.IsSuperAdmin() {
			respond.Error(w, http.StatusForbidden, "", "Super admin access required.")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sign in / out                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// SignIn marks the session authenticated for u. Any working group chosen by a
// previous user of this browser is dropped.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *models.User) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID.Hex()
	delete(sess.Values, WorkingGroupKey)
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Warn("session decode failed during sign out", zap.Error(err))
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Working group pointer                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// WorkingGroupID returns the working group id stored in the session, or "".
func (sm *SessionManager) WorkingGroupID(r *http.Request) string {
	sess, err := sm.GetSession(r)
	if err != nil {
		return ""
	}
	id, _ := sess.Values[WorkingGroupKey].(string)
	return id
}

// SetWorkingGroupID stores id for the next request. The cookie is only
// rewritten when the value changes.
func (sm *SessionManager) SetWorkingGroupID(w http.ResponseWriter, r *http.Request, id string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	if cur, _ := sess.Values[WorkingGroupKey].(string); cur == id {
		return nil
	}
	sess.Values[WorkingGroupKey] = id
	return sess.Save(r, w)
}

// ClearWorkingGroupID removes the stored working group id.
func (sm *SessionManager) ClearWorkingGroupID(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return err
	}
	if _, ok := sess.Values[WorkingGroupKey]; !ok {
		return nil
	}
	delete(sess.Values, WorkingGroupKey)
	return sess.Save(r, w)
}

// helpers

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
