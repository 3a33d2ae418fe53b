// internal/app/features/workinggroups/handler.go
package workinggroups

import (
	"net/http"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	"github.com/dalemusser/printhub/internal/app/policy/membershippolicy"
	"github.com/dalemusser/printhub/internal/app/policy/workinggrouppolicy"
	membershipstore "github.com/dalemusser/printhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/printhub/internal/app/store/users"
	workinggroupstore "github.com/dalemusser/printhub/internal/app/store/workinggroups"
	"github.com/dalemusser/printhub/internal/app/system/auditlog"
	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves working group administration and membership management.
type Handler struct {
	Groups       *workinggroupstore.Store
	Memberships  *membershipstore.Store
	Users        *userstore.Store
	Policy       workinggrouppolicy.Policy
	MemberPolicy membershippolicy.Policy
	ErrLog       *uierrors.ErrorLogger
	AuditLog     *auditlog.Logger
	Log          *zap.Logger
}

func NewHandler(
	groups *workinggroupstore.Store,
	memberships *membershipstore.Store,
	users *userstore.Store,
	policy workinggrouppolicy.Policy,
	memberPolicy membershippolicy.Policy,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Groups:       groups,
		Memberships:  memberships,
		Users:        users,
		Policy:       policy,
		MemberPolicy: memberPolicy,
		ErrLog:       errLog,
		AuditLog:     audit,
		Log:          logger,
	}
}

func urlID(r *http.Request, key string) (primitive.ObjectID, bool) {
	return normalize.ObjectID(chi.URLParam(r, key))
}
