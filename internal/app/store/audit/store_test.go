package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/printhub/internal/app/store/audit"
	"github.com/dalemusser/printhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	groupID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventWorkingGroupCreated,
		GroupID:   &groupID,
		IP:        "192.168.1.1",
		Success:   true,
		Details:   map[string]string{"name": "Acme"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	after := time.Now().Add(time.Second)

	events, err := store.GetByGroup(ctx, groupID, 10)
	if err != nil {
		t.Fatalf("GetByGroup failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if ev.CreatedAt.Before(before) || ev.CreatedAt.After(after) {
		t.Errorf("expected created_at to be now, got %v", ev.CreatedAt)
	}
	if ev.Details["name"] != "Acme" {
		t.Errorf("details: got %v", ev.Details)
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g1 := primitive.NewObjectID()
	g2 := primitive.NewObjectID()
	actor := primitive.NewObjectID()

	seed := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, ActorID: &actor, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventMemberInvited, GroupID: &g1, ActorID: &actor, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventMemberRemoved, GroupID: &g1, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventMemberInvited, GroupID: &g2, Success: true},
	}
	for _, ev := range seed {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"by category", audit.QueryFilter{Category: audit.CategoryAuth}, 1},
		{"by event type", audit.QueryFilter{EventType: audit.EventMemberInvited}, 2},
		{"by group", audit.QueryFilter{GroupID: &g1}, 2},
		{"by actor", audit.QueryFilter{ActorID: &actor}, 2},
		{"group and type", audit.QueryFilter{GroupID: &g1, EventType: audit.EventMemberRemoved}, 1},
		{"limit", audit.QueryFilter{Limit: 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAdmin})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 3 {
		t.Errorf("CountByFilter: got %d, want 3", n)
	}
}

func TestStore_Query_TimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := time.Now().Add(-48 * time.Hour).UTC()
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, CreatedAt: old}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	since := time.Now().Add(-time.Hour)
	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &since})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 recent event, got %d", len(events))
	}
}

func TestStore_GetRecent_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Minute)
	for i, typ := range []string{audit.EventLoginSuccess, audit.EventWorkingGroupSwitched, audit.EventLogout} {
		err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: typ,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventLogout {
		t.Errorf("expected newest first, got %s", events[0].EventType)
	}
}
