package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordKind names a tenant-scoped resource type. Each kind lives in its own
// collection named after the kind.
type RecordKind string

const (
	KindAddress       RecordKind = "addresses"
	KindAsset         RecordKind = "assets"
	KindInvoice       RecordKind = "invoices"
	KindOrder         RecordKind = "orders"
	KindPaymentIntent RecordKind = "payment_intents"
	KindQuote         RecordKind = "quotes"
)

// Record is the common shape of every tenant-scoped resource.
// GroupID is assigned at creation and never rewritten.
type Record struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UUID       string             `bson:"uuid" json:"uuid"`
	GroupID    primitive.ObjectID `bson:"group_id" json:"group_id"`
	Kind       RecordKind         `bson:"kind" json:"kind"`
	Reference  string             `bson:"reference,omitempty" json:"reference,omitempty"`
	Attributes map[string]string  `bson:"attributes,omitempty" json:"attributes,omitempty"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// OwnerGroupID returns the working group that owns the record.
func (r Record) OwnerGroupID() primitive.ObjectID {
	return r.GroupID
}
