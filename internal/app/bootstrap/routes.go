// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	auditlogfeature "github.com/dalemusser/printhub/internal/app/features/auditlog"
	categoriesfeature "github.com/dalemusser/printhub/internal/app/features/categories"
	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	featureflagsfeature "github.com/dalemusser/printhub/internal/app/features/featureflags"
	groupcontextfeature "github.com/dalemusser/printhub/internal/app/features/groupcontext"
	healthfeature "github.com/dalemusser/printhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/printhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/printhub/internal/app/features/logout"
	recordsfeature "github.com/dalemusser/printhub/internal/app/features/records"
	workinggroupsfeature "github.com/dalemusser/printhub/internal/app/features/workinggroups"
	"github.com/dalemusser/printhub/internal/app/policy/membershippolicy"
	"github.com/dalemusser/printhub/internal/app/policy/tenantpolicy"
	"github.com/dalemusser/printhub/internal/app/policy/workinggrouppolicy"
	"github.com/dalemusser/printhub/internal/app/store/audit"
	categorystore "github.com/dalemusser/printhub/internal/app/store/categories"
	featurestore "github.com/dalemusser/printhub/internal/app/store/features"
	membershipstore "github.com/dalemusser/printhub/internal/app/store/memberships"
	moderationstore "github.com/dalemusser/printhub/internal/app/store/moderation"
	recordstore "github.com/dalemusser/printhub/internal/app/store/records"
	userstore "github.com/dalemusser/printhub/internal/app/store/users"
	workinggroupstore "github.com/dalemusser/printhub/internal/app/store/workinggroups"
	"github.com/dalemusser/printhub/internal/app/system/auditlog"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/featureflag"
	"github.com/dalemusser/printhub/internal/app/system/metrics"
	"github.com/dalemusser/printhub/internal/app/system/permission"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/app/system/workinggroup"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// recordKinds are mounted at records.Path(kind), e.g. /payment-intents.
var recordKinds = []models.RecordKind{
	models.KindAddress,
	models.KindAsset,
	models.KindInvoice,
	models.KindOrder,
	models.KindPaymentIntent,
	models.KindQuote,
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Every request except /health passes through LoadSessionUser and then the
// working group middleware, so handlers can rely on auth.CurrentUser and
// workinggroup.Current being settled before they run.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.PrintHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request so role changes
	// and disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	errLog := uierrors.NewErrorLogger(logger)
	auditStore := audit.New(db)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	// Stores
	groups := workinggroupstore.New(db)
	memberships := membershipstore.New(db)
	users := userstore.New(db)

	// Working group resolution and authorization
	gate := featureflag.New(featurestore.New(db), appCfg.WorkingGroupsFlag, appCfg.WorkingGroupsDefault, logger)
	resolver := workinggroup.NewResolver(groups, memberships, gate, logger)
	checker := tenantpolicy.NewChecker(memberships, logger)
	roles := permission.NewRoles(memberships, logger)

	// Counters are always collected; /metrics is exposed only when enabled.
	appMetrics := metrics.New()
	resolver.Metrics = appMetrics

	r := chi.NewRouter()
	r.Use(appMetrics.Middleware)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "", "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.PrintHubMongoClient, groups, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", appMetrics.Handler())
	}

	var mountErr error
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.LoadSessionUser)
		r.Use(workinggroup.Middleware(resolver, sessionMgr, logger))

		// Authentication
		loginHandler := loginfeature.NewHandler(users, sessionMgr, errLog, auditLog, logger)
		loginHandler.Metrics = appMetrics
		r.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		// Current context and working group switching
		contextHandler := groupcontextfeature.NewHandler(resolver, memberships, groups, sessionMgr, errLog, auditLog, logger)
		r.Mount("/context", groupcontextfeature.Routes(contextHandler, sessionMgr))

		// Working group administration
		wgHandler := workinggroupsfeature.NewHandler(
			groups,
			memberships,
			users,
			workinggrouppolicy.New(checker),
			membershippolicy.New(checker),
			errLog,
			auditLog,
			logger,
		)
		r.Mount("/working-groups", workinggroupsfeature.Routes(wgHandler, sessionMgr))

		// Tenant-scoped records
		for _, kind := range recordKinds {
			h, err := recordsfeature.NewHandler(recordstore.New(db, kind), checker, errLog, auditLog, logger)
			if err != nil {
				mountErr = fmt.Errorf("mount %s: %w", kind, err)
				return
			}
			r.Mount(recordsfeature.Path(kind), recordsfeature.Routes(h, sessionMgr))
		}

		// Categories and moderation
		catHandler := categoriesfeature.NewHandler(categorystore.New(db), moderationstore.New(db), errLog, auditLog, logger)
		r.Mount("/categories", categoriesfeature.Routes(catHandler, sessionMgr))
		r.Mount("/moderation", categoriesfeature.ModerationRoutes(catHandler, sessionMgr))

		// Feature flags (super admin)
		flagsHandler := featureflagsfeature.NewHandler(featurestore.New(db), errLog, auditLog, logger)
		r.Mount("/feature-flags", featureflagsfeature.Routes(flagsHandler, sessionMgr))

		// Audit trail
		auditHandler := auditlogfeature.NewHandler(auditStore, users, roles, errLog, logger)
		r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))
	})
	if mountErr != nil {
		logger.Error("route setup failed", zap.Error(mountErr))
		return nil, mountErr
	}

	return r, nil
}
