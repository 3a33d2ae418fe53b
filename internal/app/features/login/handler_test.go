package login_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/printhub/internal/app/features/errors"
	"github.com/dalemusser/printhub/internal/app/features/login"
	userstore "github.com/dalemusser/printhub/internal/app/store/users"
	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/respond"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/printhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeUsers struct {
	user     *models.User
	password string
}

func (f *fakeUsers) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if f.user == nil || email != f.user.Email || password != f.password || f.user.Status == models.UserStatusDisabled {
		return nil, userstore.ErrBadCredentials
	}
	u := *f.user
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user == nil || email != f.user.Email {
		return nil, userstore.ErrNotFound
	}
	return f.user, nil
}

func newTestHandler(t *testing.T, users login.Users) *login.Handler {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return login.NewHandler(users, sm, uierrors.NewErrorLogger(logger), nil, logger)
}

func TestHandleLogin_Success(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", PasswordHash: "hash", Status: models.UserStatusActive}
	h := newTestHandler(t, &fakeUsers{user: u, password: "secret"})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]string{
		"email":    "  Ada@Example.com ",
		"password": "secret",
	})
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	var body struct {
		User models.User `json:"user"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.User.ID != u.ID {
		t.Errorf("user id = %v, want %v", body.User.ID, u.ID)
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	active := &models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", Status: models.UserStatusActive}
	disabled := &models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", Status: models.UserStatusDisabled}

	tests := []struct {
		name   string
		users  *fakeUsers
		body   any
		status int
		code   string
	}{
		{"wrong password", &fakeUsers{user: active, password: "secret"}, map[string]string{"email": "ada@example.com", "password": "nope"}, http.StatusUnauthorized, "invalid_credentials"},
		{"unknown email", &fakeUsers{user: active, password: "secret"}, map[string]string{"email": "bob@example.com", "password": "secret"}, http.StatusUnauthorized, "invalid_credentials"},
		{"disabled", &fakeUsers{user: disabled, password: "secret"}, map[string]string{"email": "ada@example.com", "password": "secret"}, http.StatusUnauthorized, "invalid_credentials"},
		{"missing password", &fakeUsers{}, map[string]string{"email": "ada@example.com"}, http.StatusBadRequest, "bad_request"},
		{"unknown field", &fakeUsers{}, map[string]string{"login": "ada"}, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.users)
			rec := httptest.NewRecorder()
			h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", tt.body))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body respond.ErrorBody
			testutil.DecodeJSON(t, rec, &body)
			if body.Error != tt.code {
				t.Errorf("error = %q, want %q", body.Error, tt.code)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("failed login must not set a session cookie")
			}
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	active := &models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", Status: models.UserStatusActive}
	h := newTestHandler(t, &fakeUsers{user: active, password: "secret"})

	attempt := func(password string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]string{
			"email":    "ada@example.com",
			"password": password,
		}))
		return rec
	}

	for i := 0; i < 5; i++ {
		if rec := attempt("nope"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, rec.Code)
		}
	}

	rec := attempt("secret")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
	var body respond.ErrorBody
	testutil.DecodeJSON(t, rec, &body)
	if body.Error != "too_many_requests" {
		t.Errorf("error = %q, want too_many_requests", body.Error)
	}
}
