// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/printhub/internal/app/store/audit"
	"github.com/dalemusser/printhub/internal/app/system/ratelimit"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, working group switch).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for administrative events (working groups, memberships,
	// records, moderation, feature flags). Same values as Auth.
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("working_group_id", event.GroupID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers and tests may omit it.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) auth(ctx context.Context, r *http.Request, ev audit.Event) {
	ev.Category = audit.CategoryAuth
	ev.IP = ratelimit.ClientIP(r)
	ev.UserAgent = r.UserAgent()
	l.Log(ctx, ev)
}

func (l *Logger) admin(ctx context.Context, r *http.Request, actorID primitive.ObjectID, ev audit.Event) {
	ev.Category = audit.CategoryAdmin
	ev.ActorID = &actorID
	ev.IP = ratelimit.ClientIP(r)
	ev.UserAgent = r.UserAgent()
	ev.Success = true
	l.Log(ctx, ev)
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.auth(ctx, r, audit.Event{
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailedUserNotFound logs a failed login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.auth(ctx, r, audit.Event{
		EventType:     audit.EventLoginFailedUserNotFound,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.auth(ctx, r, audit.Event{
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedUserDisabled logs a failed login due to a disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.auth(ctx, r, audit.Event{
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		FailureReason: "user disabled",
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a logout. Invalid ids are dropped rather than failing the log.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	ev := audit.Event{EventType: audit.EventLogout, Success: true}
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		ev.UserID = &oid
	}
	l.auth(ctx, r, ev)
}

// WorkingGroupSwitched logs a user choosing a different working group.
func (l *Logger) WorkingGroupSwitched(ctx context.Context, r *http.Request, userID, groupID primitive.ObjectID) {
	l.auth(ctx, r, audit.Event{
		EventType: audit.EventWorkingGroupSwitched,
		UserID:    &userID,
		GroupID:   &groupID,
		Success:   true,
	})
}

// --- Working Group Events ---

// WorkingGroupCreated logs creation of a working group.
func (l *Logger) WorkingGroupCreated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, g *models.WorkingGroup) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventWorkingGroupCreated,
		GroupID:   &g.ID,
		Details:   map[string]string{"name": g.Name, "slug": g.Slug, "type": g.Type},
	})
}

// WorkingGroupUpdated logs changes to a working group.
func (l *Logger) WorkingGroupUpdated(ctx context.Context, r *http.Request, actorID, groupID primitive.ObjectID, fieldsChanged string) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventWorkingGroupUpdated,
		GroupID:   &groupID,
		Details:   map[string]string{"fields_changed": fieldsChanged},
	})
}

// WorkingGroupDeleted logs a soft delete.
func (l *Logger) WorkingGroupDeleted(ctx context.Context, r *http.Request, actorID primitive.ObjectID, g *models.WorkingGroup) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventWorkingGroupDeleted,
		GroupID:   &g.ID,
		Details:   map[string]string{"name": g.Name},
	})
}

// --- Membership Events ---

// MemberInvited logs an invitation.
func (l *Logger) MemberInvited(ctx context.Context, r *http.Request, actorID primitive.ObjectID, m *models.Membership) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventMemberInvited,
		UserID:    &m.UserID,
		GroupID:   &m.GroupID,
		Details:   map[string]string{"role": m.Role.String(), "status": m.Status},
	})
}

// MemberAccepted logs an invitation being accepted.
func (l *Logger) MemberAccepted(ctx context.Context, r *http.Request, actorID primitive.ObjectID, m *models.Membership) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventMemberAccepted,
		UserID:    &m.UserID,
		GroupID:   &m.GroupID,
	})
}

// MemberRoleChanged logs a role change.
func (l *Logger) MemberRoleChanged(ctx context.Context, r *http.Request, actorID primitive.ObjectID, m *models.Membership, from models.Role) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventMemberRoleChanged,
		UserID:    &m.UserID,
		GroupID:   &m.GroupID,
		Details:   map[string]string{"from": from.String(), "to": m.Role.String()},
	})
}

// MemberRemoved logs a membership moving to left.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID primitive.ObjectID, m *models.Membership) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventMemberRemoved,
		UserID:    &m.UserID,
		GroupID:   &m.GroupID,
		Details:   map[string]string{"role": m.Role.String()},
	})
}

// DefaultChanged logs a user picking a new default working group.
func (l *Logger) DefaultChanged(ctx context.Context, r *http.Request, actorID primitive.ObjectID, m *models.Membership) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventDefaultChanged,
		UserID:    &m.UserID,
		GroupID:   &m.GroupID,
	})
}

// --- Record Events ---

func (l *Logger) record(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, rec *models.Record) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: eventType,
		GroupID:   &rec.GroupID,
		Details: map[string]string{
			"kind":      string(rec.Kind),
			"record_id": rec.ID.Hex(),
		},
	})
}

// RecordCreated logs a tenant record being created.
func (l *Logger) RecordCreated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, rec *models.Record) {
	l.record(ctx, r, audit.EventRecordCreated, actorID, rec)
}

// RecordUpdated logs a tenant record being updated.
func (l *Logger) RecordUpdated(ctx context.Context, r *http.Request, actorID primitive.ObjectID, rec *models.Record) {
	l.record(ctx, r, audit.EventRecordUpdated, actorID, rec)
}

// RecordDeleted logs a tenant record being deleted.
func (l *Logger) RecordDeleted(ctx context.Context, r *http.Request, actorID primitive.ObjectID, rec *models.Record) {
	l.record(ctx, r, audit.EventRecordDeleted, actorID, rec)
}

// --- Category and Moderation Events ---

// CategoryPublished logs an immediate publish.
func (l *Logger) CategoryPublished(ctx context.Context, r *http.Request, actorID, categoryID primitive.ObjectID) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventCategoryPublished,
		Details:   map[string]string{"category_id": categoryID.Hex()},
	})
}

func (l *Logger) moderation(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, req *models.ModerationRequest) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: eventType,
		UserID:    &req.RequestedBy,
		Details: map[string]string{
			"request_id": req.ID.Hex(),
			"subject":    req.Subject,
			"subject_id": req.SubjectID.Hex(),
			"action":     req.Action,
		},
	})
}

// ModerationQueued logs a change waiting for review.
func (l *Logger) ModerationQueued(ctx context.Context, r *http.Request, actorID primitive.ObjectID, req *models.ModerationRequest) {
	l.moderation(ctx, r, audit.EventModerationQueued, actorID, req)
}

// ModerationApproved logs a reviewer approving a request.
func (l *Logger) ModerationApproved(ctx context.Context, r *http.Request, reviewerID primitive.ObjectID, req *models.ModerationRequest) {
	l.moderation(ctx, r, audit.EventModerationApproved, reviewerID, req)
}

// ModerationRejected logs a reviewer rejecting a request.
func (l *Logger) ModerationRejected(ctx context.Context, r *http.Request, reviewerID primitive.ObjectID, req *models.ModerationRequest) {
	l.moderation(ctx, r, audit.EventModerationRejected, reviewerID, req)
}

// --- Feature Flag Events ---

// FeatureFlagSet logs a stored flag value.
func (l *Logger) FeatureFlagSet(ctx context.Context, r *http.Request, actorID primitive.ObjectID, name, scope string, value bool) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventFeatureFlagSet,
		Details: map[string]string{
			"name":  name,
			"scope": scope,
			"value": strconv.FormatBool(value),
		},
	})
}

// FeatureFlagUnset logs a flag value being removed.
func (l *Logger) FeatureFlagUnset(ctx context.Context, r *http.Request, actorID primitive.ObjectID, name, scope string) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventFeatureFlagUnset,
		Details:   map[string]string{"name": name, "scope": scope},
	})
}
