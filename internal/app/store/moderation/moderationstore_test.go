package moderationstore_test

import (
	"errors"
	"testing"

	moderationstore "github.com/dalemusser/printhub/internal/app/store/moderation"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/dalemusser/printhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func publishRequest(subjectID, requestedBy primitive.ObjectID) models.ModerationRequest {
	return models.ModerationRequest{
		Subject:     "category",
		SubjectID:   subjectID,
		Action:      "publish",
		RequestedBy: requestedBy,
		Snapshot:    map[string]any{"name": "Flyers"},
	}
}

func TestStore_Submit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := moderationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	subject := primitive.NewObjectID()
	req, err := store.Submit(ctx, publishRequest(subject, primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if req.Status != models.ModerationPending {
		t.Errorf("Status: got %q, want pending", req.Status)
	}

	if _, err := store.Submit(ctx, publishRequest(subject, primitive.NewObjectID())); !errors.Is(err, moderationstore.ErrAlreadyQueued) {
		t.Errorf("expected ErrAlreadyQueued, got %v", err)
	}

	got, err := store.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Snapshot["name"] != "Flyers" {
		t.Errorf("Snapshot: got %v", got.Snapshot)
	}
}

func TestStore_ApproveAndReject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := moderationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := primitive.NewObjectID()
	a, _ := store.Submit(ctx, publishRequest(primitive.NewObjectID(), primitive.NewObjectID()))
	b, _ := store.Submit(ctx, publishRequest(primitive.NewObjectID(), primitive.NewObjectID()))

	pending, err := store.ListPending(ctx, 0)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != a.ID {
		t.Fatalf("ListPending: expected a then b, got %+v", pending)
	}

	approved, err := store.Approve(ctx, a.ID, reviewer, "looks good")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.ModerationApproved {
		t.Errorf("Status: got %q", approved.Status)
	}
	if approved.ReviewerID == nil || *approved.ReviewerID != reviewer {
		t.Errorf("ReviewerID: got %v", approved.ReviewerID)
	}
	if approved.ReviewedAt == nil {
		t.Error("expected ReviewedAt")
	}
	if approved.Note != "looks good" {
		t.Errorf("Note: got %q", approved.Note)
	}

	if _, err := store.Reject(ctx, a.ID, reviewer, ""); !errors.Is(err, moderationstore.ErrNotPending) {
		t.Errorf("reviewing twice: expected ErrNotPending, got %v", err)
	}
	if _, err := store.Reject(ctx, primitive.NewObjectID(), reviewer, ""); !errors.Is(err, moderationstore.ErrNotFound) {
		t.Errorf("unknown id: expected ErrNotFound, got %v", err)
	}

	rejected, err := store.Reject(ctx, b.ID, reviewer, "")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != models.ModerationRejected {
		t.Errorf("Status: got %q", rejected.Status)
	}

	pending, _ = store.ListPending(ctx, 0)
	if len(pending) != 0 {
		t.Errorf("expected empty queue, got %d", len(pending))
	}

	if _, err := store.Submit(ctx, publishRequest(a.SubjectID, primitive.NewObjectID())); err != nil {
		t.Errorf("resubmitting after review should be allowed: %v", err)
	}
}
