// internal/app/store/workinggroups/workinggroupstore.go
package workinggroupstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/dalemusser/printhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxSlugAttempts bounds the "-2", "-3", ... suffix search.
const maxSlugAttempts = 50

var (
	ErrNotFound      = errors.New("working group not found")
	ErrDuplicateSlug = errors.New("a working group with this slug already exists")
	ErrEmptyName     = errors.New("working group name is required")
)

// Slugify folds name to a URL-safe slug ("Acme Print Co." -> "acme-print-co").
func Slugify(name string) string {
	return normalize.Slug(name, "group")
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("working_groups")}
}

// notDeleted is merged into every read so soft-deleted groups never resolve.
func notDeleted(filter bson.M) bson.M {
	filter["deleted_at"] = bson.M{"$exists": false}
	return filter
}

// Create inserts a new working group, assigning its UUID and a unique slug.
// When g.Slug is empty the slug is derived from the name and suffixed
// "-2", "-3", ... until it is free. An explicit slug that is taken yields
// ErrDuplicateSlug.
func (s *Store) Create(ctx context.Context, g models.WorkingGroup) (models.WorkingGroup, error) {
	if strings.TrimSpace(g.Name) == "" {
		return models.WorkingGroup{}, ErrEmptyName
	}
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.UUID = uuid.NewString()
	g.NameCI = text.Fold(g.Name)
	if g.Type == "" {
		g.Type = models.WorkingGroupTypePrivate
	}
	if g.Status == "" {
		g.Status = models.WorkingGroupStatusActive
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	g.DeletedAt = nil

	explicit := g.Slug != ""
	base := Slugify(g.Slug)
	if !explicit {
		base = Slugify(g.Name)
	}

	for n := 1; n <= maxSlugAttempts; n++ {
		g.Slug = base
		if n > 1 {
			g.Slug = fmt.Sprintf("%s-%d", base, n)
		}
		_, err := s.c.InsertOne(ctx, g)
		if err == nil {
			return g, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.WorkingGroup{}, err
		}
		if explicit {
			return models.WorkingGroup{}, ErrDuplicateSlug
		}
	}
	return models.WorkingGroup{}, ErrDuplicateSlug
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.WorkingGroup, error) {
	var g models.WorkingGroup
	err := s.c.FindOne(ctx, notDeleted(filter), opts...).Decode(&g)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// GetByID retrieves a live (not soft-deleted) working group.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.WorkingGroup, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug retrieves a live working group by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.WorkingGroup, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

// PublicDefault returns the public default working group. If several are
// flagged, the newest by created_at wins, ties broken by highest _id.
func (s *Store) PublicDefault(ctx context.Context) (*models.WorkingGroup, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	return s.findOne(ctx, bson.M{"is_public_default": true}, opts)
}

// EnsurePublicDefault returns the public default, creating one named name
// when none exists.
func (s *Store) EnsurePublicDefault(ctx context.Context, name string) (*models.WorkingGroup, bool, error) {
	g, err := s.PublicDefault(ctx)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	created, err := s.Create(ctx, models.WorkingGroup{
		Name:            name,
		Type:            models.WorkingGroupTypePublic,
		Status:          models.WorkingGroupStatusActive,
		IsPublicDefault: true,
	})
	if err != nil {
		return nil, false, err
	}
	return &created, true, nil
}

// Update is the set of mutable fields. Nil pointers are left unchanged.
type Update struct {
	Name        *string
	Slug        *string
	Type        *string
	Status      *string
	Description *string
	Settings    map[string]any
}

// Update modifies a working group's mutable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.WorkingGroup, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, ErrEmptyName
		}
		set["name"] = *upd.Name
		set["name_ci"] = text.Fold(*upd.Name)
	}
	if upd.Slug != nil {
		set["slug"] = Slugify(*upd.Slug)
	}
	if upd.Type != nil {
		set["type"] = *upd.Type
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Settings != nil {
		set["settings"] = upd.Settings
	}

	res, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// SoftDelete stamps deleted_at. The document is kept for history.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}),
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns live working groups sorted by name.
func (s *Store) List(ctx context.Context) ([]models.WorkingGroup, error) {
	return s.find(ctx, bson.M{})
}

// ListByIDs returns the live working groups among ids, sorted by name.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.WorkingGroup, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.WorkingGroup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, notDeleted(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.WorkingGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
