// internal/app/features/auditlog/handler.go
//
// Package auditlog serves the audit trail as JSON. Super admins read every
// event; a working group admin reads the events of their current group.
package auditlog

import (
	"context"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	"github.com/dalemusser/printhub/internal/app/store/audit"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Events is the subset of the audit store the viewer reads.
type Events interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// Users resolves actor and target names.
type Users interface {
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// RoleChecker answers whether a user holds a role in the working group bound
// to ctx. permission.Roles implements it.
type RoleChecker interface {
	HasRole(ctx context.Context, u *models.User, role models.Role) bool
}

type Handler struct {
	Events Events
	Users  Users
	Roles  RoleChecker
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(events Events, users Users, roles RoleChecker, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Users:  users,
		Roles:  roles,
		ErrLog: errLog,
		Log:    logger,
	}
}
