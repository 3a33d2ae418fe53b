package permission_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/printhub/internal/app/system/auth"
	"github.com/dalemusser/printhub/internal/app/system/permission"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeMemberships struct {
	byKey map[[2]primitive.ObjectID]models.Membership
	err   error
}

func (f *fakeMemberships) add(userID, groupID primitive.ObjectID, role models.Role) {
	if f.byKey == nil {
		f.byKey = map[[2]primitive.ObjectID]models.Membership{}
	}
	f.byKey[[2]primitive.ObjectID{userID, groupID}] = models.Membership{
		UserID: userID, GroupID: groupID, Role: role, Status: models.MembershipStatusActive,
	}
}

func (f *fakeMemberships) FindActive(_ context.Context, userID, groupID primitive.ObjectID) (*models.Membership, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.byKey[[2]primitive.ObjectID{userID, groupID}]
	if !ok {
		return nil, errors.New("not found")
	}
	return &m, nil
}

func ctxBoundTo(id *primitive.ObjectID) context.Context {
	s := permission.NewScope()
	s.Bind(id)
	return permission.WithScope(context.Background(), s)
}

func TestScope_BindClear(t *testing.T) {
	s := permission.NewScope()
	if _, ok := s.TeamID(); ok {
		t.Fatal("new scope should be unbound")
	}

	id := primitive.NewObjectID()
	s.Bind(&id)
	got, ok := s.TeamID()
	if !ok || got != id {
		t.Fatalf("TeamID: got %s %v", got.Hex(), ok)
	}

	// Bind copies the id.
	id = primitive.NewObjectID()
	if got2, _ := s.TeamID(); got2 == id {
		t.Error("scope should not alias the caller's variable")
	}

	s.Clear()
	if _, ok := s.TeamID(); ok {
		t.Error("expected unbound after Clear")
	}

	s.Bind(&id)
	s.Bind(nil)
	if _, ok := s.TeamID(); ok {
		t.Error("expected unbound after Bind(nil)")
	}
}

func TestScopeFrom_Missing(t *testing.T) {
	if permission.ScopeFrom(context.Background()) != nil {
		t.Error("expected nil scope")
	}
	var s *permission.Scope
	if _, ok := s.TeamID(); ok {
		t.Error("nil scope must report unbound")
	}
}

func TestRoles_TeamScoped(t *testing.T) {
	teamA, teamB := primitive.NewObjectID(), primitive.NewObjectID()
	u := &models.User{ID: primitive.NewObjectID()}

	fm := &fakeMemberships{}
	fm.add(u.ID, teamA, models.RoleAdmin)
	fm.add(u.ID, teamB, models.RoleMember)
	roles := permission.NewRoles(fm, zap.NewNop())

	if !roles.HasRole(ctxBoundTo(&teamA), u, models.RoleAdmin) {
		t.Error("expected admin in team A")
	}
	if roles.HasRole(ctxBoundTo(&teamB), u, models.RoleAdmin) {
		t.Error("admin role in team A must not leak into team B")
	}
	if !roles.HasRole(ctxBoundTo(&teamB), u, models.RoleMember) {
		t.Error("expected member in team B")
	}
	if !roles.HasAnyRole(ctxBoundTo(&teamB), u, models.RoleAdmin, models.RoleMember) {
		t.Error("expected HasAnyRole to match member")
	}
}

func TestRoles_Unbound_UsesGlobalRoles(t *testing.T) {
	team := primitive.NewObjectID()
	u := &models.User{ID: primitive.NewObjectID(), Roles: []models.Role{models.RoleManager}}
	fm := &fakeMemberships{}
	fm.add(u.ID, team, models.RoleAdmin)
	roles := permission.NewRoles(fm, zap.NewNop())

	ctx := ctxBoundTo(nil)
	if roles.HasRole(ctx, u, models.RoleAdmin) {
		t.Error("membership roles must not apply when unbound")
	}
	if !roles.HasRole(ctx, u, models.RoleManager) {
		t.Error("expected global manager role when unbound")
	}
	if !roles.HasRole(context.Background(), u, models.RoleManager) {
		t.Error("a context without a scope behaves as unbound")
	}
}

func TestRoles_SuperAdminIsGlobal(t *testing.T) {
	team := primitive.NewObjectID()
	super := &models.User{ID: primitive.NewObjectID(), Roles: []models.Role{models.RoleSuperAdmin}}
	roles := permission.NewRoles(&fakeMemberships{}, zap.NewNop())

	if !roles.HasRole(ctxBoundTo(&team), super, models.RoleSuperAdmin) {
		t.Error("super_admin check must ignore the team binding")
	}
	if roles.HasRole(ctxBoundTo(&team), super, models.RoleAdmin) {
		t.Error("super admin holds no team role without a membership")
	}
	if roles.HasRole(ctxBoundTo(nil), super, models.RoleAdmin) {
		t.Error("super_admin is not a global admin role")
	}
}

func TestRoles_StoreErrorDenies(t *testing.T) {
	team := primitive.NewObjectID()
	u := &models.User{ID: primitive.NewObjectID()}
	roles := permission.NewRoles(&fakeMemberships{err: errors.New("boom")}, zap.NewNop())

	if roles.HasRole(ctxBoundTo(&team), u, models.RoleMember) {
		t.Error("expected deny on store error")
	}
	if roles.HasRole(ctxBoundTo(&team), nil, models.RoleMember) {
		t.Error("expected deny for nil user")
	}
}

func TestRoles_ConcurrentScopesIndependent(t *testing.T) {
	teamA, teamB := primitive.NewObjectID(), primitive.NewObjectID()
	u := &models.User{ID: primitive.NewObjectID()}
	fm := &fakeMemberships{}
	fm.add(u.ID, teamA, models.RoleAdmin)
	roles := permission.NewRoles(fm, zap.NewNop())

	var wg sync.WaitGroup
	errs := make(chan string, 200)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if !roles.HasRole(ctxBoundTo(&teamA), u, models.RoleAdmin) {
				errs <- "team A lost admin"
			}
		}()
		go func() {
			defer wg.Done()
			if roles.HasRole(ctxBoundTo(&teamB), u, models.RoleAdmin) {
				errs <- "team B gained admin"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}

func TestRequireRole(t *testing.T) {
	team := primitive.NewObjectID()
	admin := &models.User{ID: primitive.NewObjectID()}
	member := &models.User{ID: primitive.NewObjectID()}
	super := &models.User{ID: primitive.NewObjectID(), Roles: []models.Role{models.RoleSuperAdmin}}
	fm := &fakeMemberships{}
	fm.add(admin.ID, team, models.RoleAdmin)
	fm.add(member.ID, team, models.RoleMember)
	roles := permission.NewRoles(fm, zap.NewNop())

	h := roles.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"admin", admin, http.StatusOK},
		{"member", member, http.StatusForbidden},
		{"super admin", super, http.StatusOK},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil).WithContext(ctxBoundTo(&team))
			if tc.user != nil {
				req = auth.WithTestUser(req, tc.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status: got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
