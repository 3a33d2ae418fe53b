// internal/app/store/features/featurestore.go
package featurestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrBadScope is returned when a scope is neither "global" nor "user:<id>".
var ErrBadScope = errors.New(`scope must be "global" or "user:<id>"`)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("feature_values")}
}

// ValidScope reports whether scope is a supported flag scope.
func ValidScope(scope string) bool {
	if scope == models.FeatureScopeGlobal {
		return true
	}
	return strings.HasPrefix(scope, "user:") && len(scope) > len("user:")
}

// Lookup returns the stored value for (name, scope).
func (s *Store) Lookup(ctx context.Context, name, scope string) (bool, bool, error) {
	var fv models.FeatureValue
	err := s.c.FindOne(ctx, bson.M{"name": name, "scope": scope}).Decode(&fv)
	if err == mongo.ErrNoDocuments {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return fv.Value, true, nil
}

// Set stores value for (name, scope), replacing any previous value.
func (s *Store) Set(ctx context.Context, name, scope string, value bool) error {
	if !ValidScope(scope) {
		return ErrBadScope
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"name": name, "scope": scope},
		bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return err
}

// Unset removes the stored value for (name, scope). Missing values are not an error.
func (s *Store) Unset(ctx context.Context, name, scope string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"name": name, "scope": scope})
	return err
}

// List returns every stored value for name, global first.
func (s *Store) List(ctx context.Context, name string) ([]models.FeatureValue, error) {
	cur, err := s.c.Find(ctx, bson.M{"name": name}, options.Find().SetSort(bson.D{{Key: "scope", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FeatureValue
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
