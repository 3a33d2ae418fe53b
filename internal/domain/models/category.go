package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category statuses.
const (
	CategoryStatusDraft     = "draft"
	CategoryStatusPending   = "pending"
	CategoryStatusPublished = "published"
	CategoryStatusArchived  = "archived"
)

// Category is a product category. Categories are global (not owned by a
// working group); visibility follows Status.
type Category struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	NameCI       string              `bson:"name_ci" json:"-"`
	Slug         string              `bson:"slug" json:"slug"`
	ParentID     *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Position     int                 `bson:"position" json:"position"`
	Status       string              `bson:"status" json:"status"`
	ChildCount   int64               `bson:"-" json:"child_count"`
	ProductCount int64               `bson:"product_count" json:"product_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsDraft reports whether the category is still a draft.
func (c Category) IsDraft() bool {
	return c.Status == CategoryStatusDraft
}
