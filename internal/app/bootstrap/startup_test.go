package bootstrap

import (
	"strings"
	"testing"

	userstore "github.com/dalemusser/printhub/internal/app/store/users"
	workinggroupstore "github.com/dalemusser/printhub/internal/app/store/workinggroups"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/printhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{PrintHubMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "superadmin@test.com", "correct-horse", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	u, err := userstore.New(db).Authenticate(ctx, "superadmin@test.com", "correct-horse")
	if err != nil {
		t.Fatalf("expected created superadmin to authenticate: %v", err)
	}
	if !u.IsSuperAdmin() {
		t.Errorf("expected super_admin role, got %v", u.Roles)
	}
	if u.Status != models.UserStatusActive {
		t.Errorf("expected status %q, got %q", models.UserStatusActive, u.Status)
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreateUser(ctx, "Existing User", "existing@test.com", models.RoleMember)

	deps := DBDeps{PrintHubMongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "Existing@Test.com", "", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !u.IsSuperAdmin() {
		t.Errorf("expected user to be promoted, got roles %v", u.Roles)
	}
	if !u.HasGlobalRole(models.RoleMember) {
		t.Errorf("expected existing roles to be kept, got %v", u.Roles)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestEnsureSuperAdmin_AlreadySuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreateUser(ctx, "Root", "root@test.com", models.RoleSuperAdmin)

	deps := DBDeps{PrintHubMongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "root@test.com", "", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(u.Roles) != 1 || u.Roles[0] != models.RoleSuperAdmin {
		t.Errorf("expected roles unchanged, got %v", u.Roles)
	}
}

func TestEnsureSuperAdmin_EmptyEmailSkips(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{PrintHubMongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "", "whatever", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no users, got %d", n)
	}
}

func TestEnsurePublicGroup_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{PrintHubMongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := ensurePublicGroup(ctx, deps, "Public", testLogger()); err != nil {
			t.Fatalf("ensurePublicGroup (pass %d) failed: %v", i+1, err)
		}
	}

	n, err := db.Collection("working_groups").CountDocuments(ctx, bson.M{"is_public_default": true})
	if err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly 1 public default group, got %d", n)
	}

	g, err := workinggroupstore.New(db).PublicDefault(ctx)
	if err != nil {
		t.Fatalf("PublicDefault: %v", err)
	}
	if g.Name != "Public" {
		t.Errorf("expected name %q, got %q", "Public", g.Name)
	}
	if g.Type != models.WorkingGroupTypePublic {
		t.Errorf("expected type %q, got %q", models.WorkingGroupTypePublic, g.Type)
	}
}

func TestEnsurePublicGroup_KeepsExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreatePublicDefault(ctx, "Everyone")

	deps := DBDeps{PrintHubMongoDatabase: db}
	if err := ensurePublicGroup(ctx, deps, "Public", testLogger()); err != nil {
		t.Fatalf("ensurePublicGroup failed: %v", err)
	}

	g, err := workinggroupstore.New(db).PublicDefault(ctx)
	if err != nil {
		t.Fatalf("PublicDefault: %v", err)
	}
	if g.ID != existing.ID {
		t.Errorf("expected existing public group %s, got %s", existing.ID.Hex(), g.ID.Hex())
	}
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "printhub",
		SessionKey:        strings.Repeat("k", minSessionKeyLen),
		WorkingGroupsFlag: "working-groups",
		AuditLogAuth:      "all",
		AuditLogAdmin:     "db",
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", env: "prod", mutate: func(*AppConfig) {}},
		{name: "dev key allowed in dev", env: "dev", mutate: func(c *AppConfig) { c.SessionKey = devSessionKey }},
		{name: "dev key refused in prod", env: "prod", mutate: func(c *AppConfig) { c.SessionKey = devSessionKey }, wantErr: "development default"},
		{name: "short key", env: "dev", mutate: func(c *AppConfig) { c.SessionKey = "short" }, wantErr: "session_key"},
		{name: "missing database", env: "dev", mutate: func(c *AppConfig) { c.MongoDatabase = "" }, wantErr: "mongo_database"},
		{name: "missing flag name", env: "dev", mutate: func(c *AppConfig) { c.WorkingGroupsFlag = "" }, wantErr: "working_groups_flag"},
		{name: "bad audit auth", env: "dev", mutate: func(c *AppConfig) { c.AuditLogAuth = "sometimes" }, wantErr: "audit_log_auth"},
		{name: "bad audit admin", env: "dev", mutate: func(c *AppConfig) { c.AuditLogAdmin = "" }, wantErr: "audit_log_admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := validateApp(tt.env, cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
