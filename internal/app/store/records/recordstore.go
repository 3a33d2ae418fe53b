// internal/app/store/records/recordstore.go
//
// Package recordstore persists tenant-scoped records (addresses, assets,
// invoices, orders, payment intents, quotes). Every read and write is scoped
// to the working group bound to the request context; a record's group_id is
// fixed at creation and no update path writes it.
package recordstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/printhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/printhub/internal/app/system/workinggroup"
	"github.com/dalemusser/printhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit caps List when the caller passes no limit.
const DefaultLimit = 100

var (
	ErrNotFound       = errors.New("record not found")
	ErrNoWorkingGroup = errors.New("no working group bound to the request")
)

// Store manages one record kind.
type Store struct {
	c    *mongo.Collection
	kind models.RecordKind
}

// New returns the store for kind. The collection is named after the kind.
func New(db *mongo.Database, kind models.RecordKind) *Store {
	return &Store{c: db.Collection(string(kind)), kind: kind}
}

// Kind returns the record kind this store manages.
func (s *Store) Kind() models.RecordKind { return s.kind }

func scoped(ctx context.Context, filter bson.M) (bson.M, error) {
	if !workinggroup.Filter(ctx, filter) {
		return nil, ErrNoWorkingGroup
	}
	return filter, nil
}

// Create inserts a record owned by the working group bound to ctx.
func (s *Store) Create(ctx context.Context, createdBy primitive.ObjectID, reference string, attrs map[string]string) (*models.Record, error) {
	groupID, ok := workinggroup.IDFromContext(ctx)
	if !ok {
		return nil, ErrNoWorkingGroup
	}
	now := time.Now().UTC()
	rec := models.Record{
		ID:         primitive.NewObjectID(),
		UUID:       uuid.NewString(),
		GroupID:    groupID,
		Kind:       s.kind,
		Reference:  htmlsanitize.PlainText(reference),
		Attributes: htmlsanitize.PlainTextMap(attrs),
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get returns a record in the current working group. Records owned by other
// groups are reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Record, error) {
	filter, err := scoped(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	var rec models.Record
	if err := s.c.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns the current working group's records, newest first.
func (s *Store) List(ctx context.Context, limit int64) ([]models.Record, error) {
	filter, err := scoped(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Record{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch holds the mutable fields. Nil leaves a field unchanged.
type Patch struct {
	Reference  *string
	Attributes map[string]string
}

// Update applies p to a record in the current working group.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (*models.Record, error) {
	filter, err := scoped(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Reference != nil {
		set["reference"] = htmlsanitize.PlainText(*p.Reference)
	}
	if p.Attributes != nil {
		set["attributes"] = htmlsanitize.PlainTextMap(p.Attributes)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec models.Record
	if err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Delete removes a record in the current working group.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	filter, err := scoped(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByGroup counts a group's records regardless of the bound context.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}
