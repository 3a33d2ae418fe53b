package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Working group types.
const (
	WorkingGroupTypePublic  = "public"
	WorkingGroupTypePrivate = "private"
	WorkingGroupTypeCompany = "company"
	WorkingGroupTypeAgency  = "agency"
)

// Working group statuses.
const (
	WorkingGroupStatusActive    = "active"
	WorkingGroupStatusInactive  = "inactive"
	WorkingGroupStatusSuspended = "suspended"
)

// WorkingGroup is the tenant container in PrintHub.
//
// Every tenant-scoped record (orders, quotes, invoices, assets, addresses,
// payment intents) carries the group_id of exactly one working group.
// At most one working group is expected to hold IsPublicDefault; anonymous
// visitors and users without memberships land in it.
type WorkingGroup struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UUID string             `bson:"uuid" json:"uuid"`

	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"-"`
	Slug   string `bson:"slug" json:"slug"` // unique

	Type            string         `bson:"type" json:"type"`
	Status          string         `bson:"status" json:"status"`
	Description     string         `bson:"description,omitempty" json:"description,omitempty"`
	Settings        map[string]any `bson:"settings,omitempty" json:"settings,omitempty"`
	IsPublicDefault bool           `bson:"is_public_default" json:"is_public_default"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"-"`
}

// IsDeleted reports whether the working group has been soft-deleted.
func (g WorkingGroup) IsDeleted() bool {
	return g.DeletedAt != nil
}
