package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SuperAdmin returns an in-memory user holding the global super_admin role.
func SuperAdmin() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		FullName: "Test Super Admin",
		Email:    "super@test.com",
		Roles:    []models.Role{models.RoleSuperAdmin},
		Status:   models.UserStatusActive,
	}
}

// PlainUser returns an in-memory user with no global roles.
func PlainUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		FullName: "Test User",
		Email:    "user@test.com",
		Status:   models.UserStatusActive,
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, u *models.User) *http.Request {
	return auth.WithTestUser(r, u)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request with v encoded as the JSON body.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// DecodeJSON decodes the recorder body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v (body=%q)", err, rec.Body.String())
	}
}
