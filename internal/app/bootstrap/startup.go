// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/printhub/internal/app/store/users"
	workinggroupstore "github.com/dalemusser/printhub/internal/app/store/workinggroups"
	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// PrintHub applies the configured timeouts, makes sure the public default
// working group exists and promotes or creates the configured superadmin.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ensurePublicGroup(gctx, deps, appCfg.PublicGroupName, logger)
	})
	g.Go(func() error {
		return ensureSuperAdmin(gctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, logger)
	})
	return g.Wait()
}

// ensurePublicGroup creates the public default working group if none exists.
func ensurePublicGroup(ctx context.Context, deps DBDeps, name string, logger *zap.Logger) error {
	g, created, err := workinggroupstore.New(deps.PrintHubMongoDatabase).EnsurePublicDefault(ctx, name)
	if err != nil {
		return fmt.Errorf("ensure public working group: %w", err)
	}
	if created {
		logger.Info("created public default working group",
			zap.String("working_group_id", g.ID.Hex()),
			zap.String("slug", g.Slug))
	}
	return nil
}

// ensureSuperAdmin makes sure the user with email holds the super_admin role.
// An existing user is promoted; otherwise a new user is created with password.
// An empty email disables the bootstrap.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	users := userstore.New(deps.PrintHubMongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.IsSuperAdmin() {
			return nil
		}
		roles := append(append([]models.Role{}, u.Roles...), models.RoleSuperAdmin)
		if err := users.SetRoles(ctx, u.ID, roles); err != nil {
			return fmt.Errorf("promote superadmin: %w", err)
		}
		logger.Info("promoted existing user to superadmin", zap.String("email", u.Email))
		return nil

	case errors.Is(err, userstore.ErrNotFound):
		created, err := users.Create(ctx, models.User{
			FullName: "Super Admin",
			Email:    email,
			Roles:    []models.Role{models.RoleSuperAdmin},
		}, password)
		if err != nil {
			return fmt.Errorf("create superadmin: %w", err)
		}
		if password == "" {
			logger.Warn("superadmin created without a password; it cannot sign in until one is set",
				zap.String("email", created.Email))
		} else {
			logger.Info("created superadmin", zap.String("email", created.Email))
		}
		return nil

	default:
		return fmt.Errorf("look up superadmin: %w", err)
	}
}
