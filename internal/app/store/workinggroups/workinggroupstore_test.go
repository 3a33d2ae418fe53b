package workinggroupstore_test

import (
	"errors"
	"testing"
	"time"

	workinggroupstore "github.com/dalemusser/printhub/internal/app/store/workinggroups"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/printhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme Print Co.", "acme-print-co"},
		{"  spaces  ", "spaces"},
		{"already-slugged", "already-slugged"},
		{"!!!", "group"},
	}
	for _, tc := range tests {
		if got := workinggroupstore.Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.WorkingGroup{Name: "Acme Print"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.UUID == "" {
		t.Error("expected UUID to be assigned")
	}
	if created.Slug != "acme-print" {
		t.Errorf("Slug: got %q, want %q", created.Slug, "acme-print")
	}
	if created.Status != models.WorkingGroupStatusActive {
		t.Errorf("Status: got %q", created.Status)
	}
	if created.Type != models.WorkingGroupTypePrivate {
		t.Errorf("Type: got %q", created.Type)
	}
}

func TestStore_Create_SlugSuffixes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	want := []string{"acme", "acme-2", "acme-3"}
	for i, w := range want {
		g, err := store.Create(ctx, models.WorkingGroup{Name: "Acme"})
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i+1, err)
		}
		if g.Slug != w {
			t.Errorf("Create #%d slug: got %q, want %q", i+1, g.Slug, w)
		}
	}
}

func TestStore_Create_ExplicitSlugDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.WorkingGroup{Name: "One", Slug: "taken"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.WorkingGroup{Name: "Two", Slug: "taken"})
	if !errors.Is(err, workinggroupstore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestStore_Create_EmptyName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.WorkingGroup{Name: "  "}); !errors.Is(err, workinggroupstore.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestStore_GetByID_SoftDeletedIsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, err := store.Create(ctx, models.WorkingGroup{Name: "Gone Soon"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.GetByID(ctx, g.ID); err != nil {
		t.Fatalf("GetByID before delete: %v", err)
	}
	if err := store.SoftDelete(ctx, g.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, g.ID); !errors.Is(err, workinggroupstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after soft delete, got %v", err)
	}
	if err := store.SoftDelete(ctx, g.ID); !errors.Is(err, workinggroupstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	// The document is kept.
	n, err := db.Collection("working_groups").CountDocuments(ctx, bson.M{"_id": g.ID})
	if err != nil || n != 1 {
		t.Errorf("expected document retained, n=%d err=%v", n, err)
	}
}

func TestStore_GetBySlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, _ := store.Create(ctx, models.WorkingGroup{Name: "Northwind"})
	found, err := store.GetBySlug(ctx, "northwind")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if found.ID != g.ID {
		t.Errorf("ID: got %s, want %s", found.ID.Hex(), g.ID.Hex())
	}
}

func TestStore_PublicDefault_NewestWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.PublicDefault(ctx); !errors.Is(err, workinggroupstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty db, got %v", err)
	}

	older, _ := store.Create(ctx, models.WorkingGroup{Name: "Public Old", IsPublicDefault: true})
	// Force a strictly older timestamp.
	_, _ = db.Collection("working_groups").UpdateByID(ctx, older.ID,
		bson.M{"$set": bson.M{"created_at": time.Now().UTC().Add(-time.Hour)}})
	newer, _ := store.Create(ctx, models.WorkingGroup{Name: "Public New", IsPublicDefault: true})
	_, _ = store.Create(ctx, models.WorkingGroup{Name: "Private"})

	got, err := store.PublicDefault(ctx)
	if err != nil {
		t.Fatalf("PublicDefault failed: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("expected newest public default %s, got %s", newer.ID.Hex(), got.ID.Hex())
	}

	// Deleting the newest falls back to the older one.
	_ = store.SoftDelete(ctx, newer.ID)
	got, err = store.PublicDefault(ctx)
	if err != nil {
		t.Fatalf("PublicDefault after delete failed: %v", err)
	}
	if got.ID != older.ID {
		t.Errorf("expected older public default %s, got %s", older.ID.Hex(), got.ID.Hex())
	}
}

func TestStore_EnsurePublicDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, created, err := store.EnsurePublicDefault(ctx, "Public")
	if err != nil {
		t.Fatalf("EnsurePublicDefault failed: %v", err)
	}
	if !created || !g.IsPublicDefault || g.Type != models.WorkingGroupTypePublic {
		t.Errorf("unexpected first result: created=%v group=%+v", created, g)
	}

	again, created, err := store.EnsurePublicDefault(ctx, "Public")
	if err != nil {
		t.Fatalf("second EnsurePublicDefault failed: %v", err)
	}
	if created || again.ID != g.ID {
		t.Errorf("expected existing public default to be reused")
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, _ := store.Create(ctx, models.WorkingGroup{Name: "Before"})
	name := "After"
	status := models.WorkingGroupStatusSuspended
	updated, err := store.Update(ctx, g.ID, workinggroupstore.Update{Name: &name, Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "After" || updated.Status != status {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if updated.Slug != g.Slug {
		t.Errorf("slug should not change unless requested: got %q", updated.Slug)
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), workinggroupstore.Update{Name: &name}); !errors.Is(err, workinggroupstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Update_DuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _ = store.Create(ctx, models.WorkingGroup{Name: "Alpha"})
	b, _ := store.Create(ctx, models.WorkingGroup{Name: "Beta"})
	slug := "alpha"
	if _, err := store.Update(ctx, b.ID, workinggroupstore.Update{Slug: &slug}); !errors.Is(err, workinggroupstore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestStore_ListAndListByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workinggroupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, _ := store.Create(ctx, models.WorkingGroup{Name: "Bravo"})
	a, _ := store.Create(ctx, models.WorkingGroup{Name: "Alpha"})
	c, _ := store.Create(ctx, models.WorkingGroup{Name: "Charlie"})
	_ = store.SoftDelete(ctx, c.ID)

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != a.ID || all[1].ID != b.ID {
		t.Errorf("List: unexpected result %+v", all)
	}

	some, err := store.ListByIDs(ctx, []primitive.ObjectID{b.ID, c.ID})
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(some) != 1 || some[0].ID != b.ID {
		t.Errorf("ListByIDs: unexpected result %+v", some)
	}

	none, err := store.ListByIDs(ctx, nil)
	if err != nil || none != nil {
		t.Errorf("ListByIDs(nil): got %v, %v", none, err)
	}
}
