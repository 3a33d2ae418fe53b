package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func slugify(name string) string {
	return strings.ReplaceAll(text.Fold(name), " ", "-")
}

// CreateWorkingGroup inserts an active private working group.
func (f *Fixtures) CreateWorkingGroup(ctx context.Context, name string) models.WorkingGroup {
	f.t.Helper()
	return f.insertWorkingGroup(ctx, name, false)
}

// CreatePublicDefault inserts an active public working group flagged as the
// public default.
func (f *Fixtures) CreatePublicDefault(ctx context.Context, name string) models.WorkingGroup {
	f.t.Helper()
	return f.insertWorkingGroup(ctx, name, true)
}

func (f *Fixtures) insertWorkingGroup(ctx context.Context, name string, public bool) models.WorkingGroup {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.WorkingGroup{
		ID:              primitive.NewObjectID(),
		UUID:            uuid.NewString(),
		Name:            name,
		NameCI:          text.Fold(name),
		Slug:            slugify(name),
		Type:            models.WorkingGroupTypePrivate,
		Status:          models.WorkingGroupStatusActive,
		IsPublicDefault: public,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if public {
		g.Type = models.WorkingGroupTypePublic
	}

	if _, err := f.db.Collection("working_groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test working group: %v", err)
	}
	return g
}

// CreateUser inserts an active user holding the given global roles.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, roles ...models.Role) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		Roles:      roles,
		Status:     models.UserStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateMembership inserts a membership with the given role and status.
func (f *Fixtures) CreateMembership(ctx context.Context, userID, groupID primitive.ObjectID, role models.Role, status string) models.Membership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Membership{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		GroupID:   groupID,
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == models.MembershipStatusActive {
		m.JoinedAt = &now
	}

	if _, err := f.db.Collection("memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateCategory inserts a category with the given status.
func (f *Fixtures) CreateCategory(ctx context.Context, name, status string, parentID *primitive.ObjectID) models.Category {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Slug:      slugify(name),
		ParentID:  parentID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("categories").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return c
}
