// internal/app/store/categories/categorystore.go
package categorystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/printhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/printhub/internal/app/system/normalize"
	"github.com/dalemusser/printhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	maxSlugAttempts = 50
	// maxDepth bounds the ancestor walk in Move.
	maxDepth = 64
)

var (
	ErrNotFound      = errors.New("category not found")
	ErrDuplicateSlug = errors.New("a category with this slug already exists")
	ErrEmptyName     = errors.New("category name is required")
	ErrBadStatus     = errors.New("unknown category status")
	ErrCycle         = errors.New("a category cannot be moved under itself or its descendants")
)

// ValidStatus reports whether s is a known category status.
func ValidStatus(s string) bool {
	switch s {
	case models.CategoryStatusDraft, models.CategoryStatusPending,
		models.CategoryStatusPublished, models.CategoryStatusArchived:
		return true
	}
	return false
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("categories")}
}

// parentFilter matches the siblings under parentID (nil = root).
func parentFilter(parentID *primitive.ObjectID) bson.M {
	if parentID == nil {
		return bson.M{"parent_id": bson.M{"$exists": false}}
	}
	return bson.M{"parent_id": *parentID}
}

// Create inserts a category at the end of its siblings. Status defaults to
// draft and the slug is derived from the name with "-2", "-3", ... suffixes.
func (s *Store) Create(ctx context.Context, c models.Category) (*models.Category, error) {
	c.Name = htmlsanitize.PlainText(c.Name)
	if strings.TrimSpace(c.Name) == "" {
		return nil, ErrEmptyName
	}
	if c.Status == "" {
		c.Status = models.CategoryStatusDraft
	}
	if !ValidStatus(c.Status) {
		return nil, ErrBadStatus
	}
	if c.ParentID != nil {
		if _, err := s.GetByID(ctx, *c.ParentID); err != nil {
			return nil, err
		}
	}
	pos, err := s.c.CountDocuments(ctx, parentFilter(c.ParentID))
	if err != nil {
		return nil, fmt.Errorf("count siblings: %w", err)
	}

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	c.Position = int(pos)
	c.ChildCount = 0
	c.CreatedAt = now
	c.UpdatedAt = now

	base := normalize.Slug(c.Name, "category")
	for n := 1; n <= maxSlugAttempts; n++ {
		c.Slug = base
		if n > 1 {
			c.Slug = fmt.Sprintf("%s-%d", base, n)
		}
		_, err := s.c.InsertOne(ctx, c)
		if err == nil {
			return &c, nil
		}
		if !wafflemongo.IsDup(err) {
			return nil, err
		}
	}
	return nil, ErrDuplicateSlug
}

// GetByID returns a category with ChildCount filled in.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"parent_id": id})
	if err != nil {
		return nil, fmt.Errorf("count children: %w", err)
	}
	c.ChildCount = n
	return &c, nil
}

// List returns the children of parentID (nil = root) ordered by position.
// When publishedOnly is set, unpublished categories are left out.
func (s *Store) List(ctx context.Context, parentID *primitive.ObjectID, publishedOnly bool) ([]models.Category, error) {
	filter := parentFilter(parentID)
	if publishedOnly {
		filter["status"] = models.CategoryStatusPublished
	}
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Category{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Rename changes a category's name. The slug is kept.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) (*models.Category, error) {
	name = htmlsanitize.PlainText(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return s.set(ctx, id, bson.M{"name": name, "name_ci": text.Fold(name)})
}

// SetStatus moves a category to status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Category, error) {
	if !ValidStatus(status) {
		return nil, ErrBadStatus
	}
	return s.set(ctx, id, bson.M{"status": status})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error) {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Move re-parents a category (nil = root) and places it last among its new
// siblings. Moving under itself or a descendant yields ErrCycle.
func (s *Store) Move(ctx context.Context, id primitive.ObjectID, newParent *primitive.ObjectID) (*models.Category, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if newParent != nil {
		cur := *newParent
		for depth := 0; ; depth++ {
			if cur == id {
				return nil, ErrCycle
			}
			if depth >= maxDepth {
				return nil, ErrCycle
			}
			p, err := s.GetByID(ctx, cur)
			if err != nil {
				return nil, err
			}
			if p.ParentID == nil {
				break
			}
			cur = *p.ParentID
		}
	}

	pos, err := s.c.CountDocuments(ctx, parentFilter(newParent))
	if err != nil {
		return nil, fmt.Errorf("count siblings: %w", err)
	}
	update := bson.M{"$set": bson.M{"position": int(pos), "updated_at": time.Now().UTC()}}
	if newParent == nil {
		update["$unset"] = bson.M{"parent_id": ""}
	} else {
		update["$set"].(bson.M)["parent_id"] = *newParent
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Reorder moves a category to position among its siblings and renumbers the
// siblings 0..n-1. Out-of-range positions are clamped.
func (s *Store) Reorder(ctx context.Context, id primitive.ObjectID, position int) ([]models.Category, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.List(ctx, c.ParentID, false)
	if err != nil {
		return nil, err
	}

	ordered := make([]models.Category, 0, len(siblings))
	for _, sib := range siblings {
		if sib.ID != id {
			ordered = append(ordered, sib)
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(ordered) {
		position = len(ordered)
	}
	ordered = append(ordered[:position], append([]models.Category{*c}, ordered[position:]...)...)

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(ordered))
	for i := range ordered {
		ordered[i].Position = i
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": ordered[i].ID}).
			SetUpdate(bson.M{"$set": bson.M{"position": i, "updated_at": now}}))
	}
	if _, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return nil, fmt.Errorf("renumber siblings: %w", err)
	}
	return ordered, nil
}

// Delete removes a category. Its children are re-parented to the deleted
// category's parent.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.ChildCount > 0 {
		update := bson.M{"$unset": bson.M{"parent_id": ""}}
		if c.ParentID != nil {
			update = bson.M{"$set": bson.M{"parent_id": *c.ParentID}}
		}
		if _, err := s.c.UpdateMany(ctx, bson.M{"parent_id": id}, update); err != nil {
			return fmt.Errorf("re-parent children: %w", err)
		}
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
