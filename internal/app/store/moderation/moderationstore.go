// internal/app/store/moderation/moderationstore.go
package moderationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/printhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = errors.New("moderation request not found")
	ErrNotPending    = errors.New("moderation request is no longer pending")
	ErrAlreadyQueued = errors.New("a pending request already exists for this subject")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("moderation_requests")}
}

// Submit queues a pending request. Only one pending request may exist per
// subject and action.
func (s *Store) Submit(ctx context.Context, req models.ModerationRequest) (*models.ModerationRequest, error) {
	err := s.c.FindOne(ctx, bson.M{
		"subject":    req.Subject,
		"subject_id": req.SubjectID,
		"action":     req.Action,
		"status":     models.ModerationPending,
	}).Err()
	switch {
	case err == nil:
		return nil, ErrAlreadyQueued
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	req.ID = primitive.NewObjectID()
	req.Status = models.ModerationPending
	req.ReviewerID = nil
	req.ReviewedAt = nil
	req.Note = htmlsanitize.PlainText(req.Note)
	req.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, req); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByID returns one request.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ModerationRequest, error) {
	var req models.ModerationRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListPending returns pending requests, oldest first.
func (s *Store) ListPending(ctx context.Context, limit int64) ([]models.ModerationRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"status": models.ModerationPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ModerationRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve marks a pending request approved by reviewerID.
func (s *Store) Approve(ctx context.Context, id, reviewerID primitive.ObjectID, note string) (*models.ModerationRequest, error) {
	return s.review(ctx, id, reviewerID, models.ModerationApproved, note)
}

// Reject marks a pending request rejected by reviewerID.
func (s *Store) Reject(ctx context.Context, id, reviewerID primitive.ObjectID, note string) (*models.ModerationRequest, error) {
	return s.review(ctx, id, reviewerID, models.ModerationRejected, note)
}

func (s *Store) review(ctx context.Context, id, reviewerID primitive.ObjectID, status, note string) (*models.ModerationRequest, error) {
	set := bson.M{
		"status":      status,
		"reviewer_id": reviewerID,
		"reviewed_at": time.Now().UTC(),
	}
	if note = htmlsanitize.PlainText(note); note != "" {
		set["note"] = note
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var req models.ModerationRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ModerationPending},
		bson.M{"$set": set}, opts).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, ErrNotPending
}
