package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

type stubFetcher struct {
	users map[string]*models.User
}

func (f stubFetcher) FetchUser(_ context.Context, id string) *models.User {
	return f.users[id]
}

// carryCookies copies Set-Cookie headers from rec onto a new request.
func carryCookies(rec *httptest.ResponseRecorder, req *http.Request) *http.Request {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_NoUser_Browser_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)

	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &models.User{ID: primitive.NewObjectID()})
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	sm := newTestSessionManager(t)

	tests := []struct {
		name  string
		roles []models.Role
		want  int
	}{
		{"super admin", []models.Role{models.RoleSuperAdmin}, http.StatusOK},
		{"admin only", []models.Role{models.RoleAdmin}, http.StatusForbidden},
		{"no roles", nil, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := &models.User{ID: primitive.NewObjectID(), Roles: tc.roles}
			req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), u)
			rec := httptest.NewRecorder()
			sm.RequireSuperAdmin(okHandler()).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status: got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestSignIn_LoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	u := &models.User{ID: primitive.NewObjectID(), FullName: "Pat"}
	sm.SetUserFetcher(stubFetcher{users: map[string]*models.User{u.ID.Hex(): u}})

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), u); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req := carryCookies(rec, httptest.NewRequest("GET", "/", nil))
	var got *models.User
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != u.ID {
		t.Fatalf("expected user %s in context, got %+v", u.ID.Hex(), got)
	}
}

func TestLoadSessionUser_FetcherRejects(t *testing.T) {
	sm := newTestSessionManager(t)
	u := &models.User{ID: primitive.NewObjectID()}
	sm.SetUserFetcher(stubFetcher{users: map[string]*models.User{}})

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), u); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req := carryCookies(rec, httptest.NewRequest("GET", "/", nil))
	found := true
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("expected no user when fetcher returns nil")
	}
}

func TestLoadSessionUser_TamperedCookieIsIgnored(t *testing.T) {
	sm := newTestSessionManager(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "not-a-valid-cookie"})

	called := false
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected visitor for tampered cookie")
		}
	})).ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("next handler not called")
	}
}

func TestWorkingGroupID_SetAndClear(t *testing.T) {
	sm := newTestSessionManager(t)
	id := primitive.NewObjectID().Hex()

	rec := httptest.NewRecorder()
	if err := sm.SetWorkingGroupID(rec, httptest.NewRequest("GET", "/", nil), id); err != nil {
		t.Fatalf("SetWorkingGroupID: %v", err)
	}

	req := carryCookies(rec, httptest.NewRequest("GET", "/", nil))
	if got := sm.WorkingGroupID(req); got != id {
		t.Fatalf("WorkingGroupID: got %q, want %q", got, id)
	}

	rec2 := httptest.NewRecorder()
	if err := sm.ClearWorkingGroupID(rec2, req); err != nil {
		t.Fatalf("ClearWorkingGroupID: %v", err)
	}
	req2 := carryCookies(rec2, httptest.NewRequest("GET", "/", nil))
	if got := sm.WorkingGroupID(req2); got != "" {
		t.Errorf("expected cleared working group id, got %q", got)
	}
}

func TestSignIn_DropsPreviousWorkingGroup(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SetWorkingGroupID(rec, httptest.NewRequest("GET", "/", nil), primitive.NewObjectID().Hex()); err != nil {
		t.Fatalf("SetWorkingGroupID: %v", err)
	}
	req := carryCookies(rec, httptest.NewRequest("POST", "/login", nil))

	rec2 := httptest.NewRecorder()
	if err := sm.SignIn(rec2, req, &models.User{ID: primitive.NewObjectID()}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	req2 := carryCookies(rec2, httptest.NewRequest("GET", "/", nil))
	if got := sm.WorkingGroupID(req2); got != "" {
		t.Errorf("expected working group cleared on sign in, got %q", got)
	}
}
