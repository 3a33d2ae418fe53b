// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	userstore "github.com/dalemusser/printhub/internal/app/store/users"
	"github.com/dalemusser/printhub/internal/app/system/auditlog"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/metrics"
	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/dalemusser/printhub/internal/app/system/ratelimit"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.uber.org/zap"
)

// Users is the subset of the user store login needs.
type Users interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Handler struct {
	Users      Users
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Metrics    *metrics.Metrics
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(users Users, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		Limiter:    ratelimit.NewLoginLimiter(),
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *models.User `json:"user"`
}

// HandleLogin handles POST /login.
//
//	{ "email": "a@example.com", "password": "..." }
//
// On success the session is signed in and the user is returned. Unknown
// emails, wrong passwords and disabled accounts all answer 401. Too many
// attempts from one IP or for one email answer 429 with Retry-After.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode login body failed", err, "Invalid JSON body.")
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		respond.Error(w, http.StatusBadRequest, "bad_request", "Email and password are required.")
		return
	}

	if ok, wait := h.Limiter.Check(r, email); !ok {
		h.Log.Warn("login rate limited",
			zap.String("ip", ratelimit.ClientIP(r)),
			zap.Duration("retry_after", wait))
		w.Header().Set("Retry-After", strconv.Itoa(int(wait/time.Second)+1))
		h.Metrics.LoginObserved("rate_limited")
		respond.Error(w, http.StatusTooManyRequests, "", "Too many login attempts. Please wait and try again.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Authenticate(ctx, email, in.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrBadCredentials) {
			h.auditFailure(ctx, r, email)
			h.Metrics.LoginObserved("invalid_credentials")
			respond.Error(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")
			return
		}
		h.ErrLog.LogServerError(w, r, "authenticate failed", err, "A database error occurred.")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Could not start a session.")
		return
	}
	h.Limiter.Succeeded(email)
	h.Metrics.LoginObserved("success")
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()))

	u.PasswordHash = ""
	respond.JSON(w, http.StatusOK, loginResponse{User: u})
}

// auditFailure records why a login failed. The response never says.
func (h *Handler) auditFailure(ctx context.Context, r *http.Request, email string) {
	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case err != nil || u == nil:
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
	case u.Status == models.UserStatusDisabled:
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, email)
	default:
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
	}
}
