package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership statuses.
const (
	MembershipStatusInvited = "invited"
	MembershipStatusActive  = "active"
	MembershipStatusLeft    = "left"
)

// Membership links a user to a working group with a role.
// Exactly one document per (user_id, group_id).
type Membership struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	GroupID   primitive.ObjectID  `bson:"group_id" json:"group_id"`
	Role      Role                `bson:"role" json:"role"`
	Status    string              `bson:"status" json:"status"`
	IsDefault bool                `bson:"is_default" json:"is_default"`
	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	JoinedAt  *time.Time          `bson:"joined_at,omitempty" json:"joined_at,omitempty"`
	LeftAt    *time.Time          `bson:"left_at,omitempty" json:"left_at,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the membership currently grants access.
func (m Membership) IsActive() bool {
	return m.Status == MembershipStatusActive
}
