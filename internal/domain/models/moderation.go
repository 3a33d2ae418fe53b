package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Moderation request statuses.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)

// ModerationRequest queues a change that needs a reviewer before it takes
// effect (for example a manager publishing a category).
type ModerationRequest struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Subject     string              `bson:"subject" json:"subject"` // "category"
	SubjectID   primitive.ObjectID  `bson:"subject_id" json:"subject_id"`
	Action      string              `bson:"action" json:"action"` // "publish"
	RequestedBy primitive.ObjectID  `bson:"requested_by" json:"requested_by"`
	Status      string              `bson:"status" json:"status"`
	ReviewerID  *primitive.ObjectID `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	Snapshot    map[string]any      `bson:"snapshot,omitempty" json:"snapshot,omitempty"`
	Note        string              `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	ReviewedAt  *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
}
