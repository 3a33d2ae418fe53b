// internal/app/store/memberships/membershipstore.go
package membershipstore

// Lifecycle: invited -> active -> left. A left membership can be invited or
// added again; the (user_id, group_id) document is reused.

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/printhub/internal/app/system/timeouts"
	"github.com/dalemusser/printhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound            = errors.New("membership not found")
	ErrDuplicateMembership = errors.New("user is already a member of this working group")
	ErrInvalidTransition   = errors.New("membership status does not allow this change")
	ErrBadRole             = errors.New("role cannot be assigned on a membership")
	ErrDefaultConflict     = errors.New("another default membership was set concurrently")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("memberships")}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Queries used by working group resolution                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Membership, error) {
	var m models.Membership
	if err := s.c.FindOne(ctx, filter, opts...).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindActive returns the user's ACTIVE membership in groupID.
func (s *Store) FindActive(ctx context.Context, userID, groupID primitive.ObjectID) (*models.Membership, error) {
	return s.findOne(ctx, bson.M{
		"user_id":  userID,
		"group_id": groupID,
		"status":   models.MembershipStatusActive,
	})
}

// FindDefault returns the user's ACTIVE membership flagged as default.
// Should several be flagged, the lowest _id wins.
func (s *Store) FindDefault(ctx context.Context, userID primitive.ObjectID) (*models.Membership, error) {
	return s.findOne(ctx, bson.M{
		"user_id":    userID,
		"status":     models.MembershipStatusActive,
		"is_default": true,
	}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// FirstActive returns the user's oldest ACTIVE membership
// (created_at ascending, then _id).
func (s *Store) FirstActive(ctx context.Context, userID primitive.ObjectID) (*models.Membership, error) {
	return s.findOne(ctx, bson.M{
		"user_id": userID,
		"status":  models.MembershipStatusActive,
	}, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
}

// HasAnyActive reports whether the user has at least one ACTIVE membership.
func (s *Store) HasAnyActive(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "status": models.MembershipStatusActive},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID retrieves a membership regardless of status.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Membership, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// ListByUser returns the user's memberships, optionally filtered by status.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.Membership, error) {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

// ListByGroup returns a group's memberships, optionally filtered by status.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.Membership, error) {
	filter := bson.M{"group_id": groupID}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Lifecycle                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Invite creates an INVITED membership. A previously LEFT membership for the
// same pair is reopened as invited.
func (s *Store) Invite(ctx context.Context, groupID, userID primitive.ObjectID, role models.Role, invitedBy *primitive.ObjectID) (*models.Membership, error) {
	return s.open(ctx, groupID, userID, role, models.MembershipStatusInvited, invitedBy)
}

// Add creates an ACTIVE membership directly (group creators, admin tooling).
// A previously LEFT membership for the same pair is reactivated.
func (s *Store) Add(ctx context.Context, groupID, userID primitive.ObjectID, role models.Role) (*models.Membership, error) {
	return s.open(ctx, groupID, userID, role, models.MembershipStatusActive, nil)
}

func (s *Store) open(ctx context.Context, groupID, userID primitive.ObjectID, role models.Role, status string, invitedBy *primitive.ObjectID) (*models.Membership, error) {
	if !role.MembershipRole() {
		return nil, ErrBadRole
	}
	now := time.Now().UTC()
	m := models.Membership{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		GroupID:   groupID,
		Role:      role,
		Status:    status,
		InvitedBy: invitedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == models.MembershipStatusActive {
		m.JoinedAt = &now
	}

	_, err := s.c.InsertOne(ctx, m)
	if err == nil {
		return &m, nil
	}
	if !wafflemongo.IsDup(err) {
		return nil, err
	}

	// Reopen a LEFT membership; anything else is a duplicate.
	set := bson.M{
		"role":       role,
		"status":     status,
		"is_default": false,
		"updated_at": now,
	}
	if invitedBy != nil {
		set["invited_by"] = *invitedBy
	}
	if status == models.MembershipStatusActive {
		set["joined_at"] = now
	}
	var reopened models.Membership
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "group_id": groupID, "status": models.MembershipStatusLeft},
		bson.M{"$set": set, "$unset": bson.M{"left_at": ""}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&reopened)
	if err == mongo.ErrNoDocuments {
		return nil, ErrDuplicateMembership
	}
	if err != nil {
		return nil, err
	}
	return &reopened, nil
}

// transition moves a membership from one of fromStatuses applying update.
func (s *Store) transition(ctx context.Context, id primitive.ObjectID, fromStatuses []string, update bson.M) (*models.Membership, error) {
	var m models.Membership
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": fromStatuses}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, ErrInvalidTransition
}

// Accept moves an INVITED membership to ACTIVE and stamps joined_at.
func (s *Store) Accept(ctx context.Context, id primitive.ObjectID) (*models.Membership, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id,
		[]string{models.MembershipStatusInvited},
		bson.M{"$set": bson.M{"status": models.MembershipStatusActive, "joined_at": now, "updated_at": now}})
}

// Remove moves an INVITED or ACTIVE membership to LEFT. The default flag is
// cleared so a left group is never resolved as the user's default.
func (s *Store) Remove(ctx context.Context, id primitive.ObjectID) (*models.Membership, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id,
		[]string{models.MembershipStatusInvited, models.MembershipStatusActive},
		bson.M{"$set": bson.M{
			"status":     models.MembershipStatusLeft,
			"is_default": false,
			"left_at":    now,
			"updated_at": now,
		}})
}

// UpdateRole changes the role on an INVITED or ACTIVE membership.
func (s *Store) UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.Membership, error) {
	if !role.MembershipRole() {
		return nil, ErrBadRole
	}
	return s.transition(ctx, id,
		[]string{models.MembershipStatusInvited, models.MembershipStatusActive},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}})
}

// SetDefault makes membership id the user's default. The membership must be
// ACTIVE and belong to userID.
//
// Other defaults are cleared first, then this one is set. If the second write
// fails the cleared defaults are restored. The partial unique index on
// (user_id) where is_default=true rejects the loser of two concurrent calls
// with ErrDefaultConflict.
func (s *Store) SetDefault(ctx context.Context, userID, id primitive.ObjectID) (*models.Membership, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, ErrNotFound
	}

	previous, err := s.defaultIDs(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if len(previous) > 0 {
		if _, err := s.c.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": previous}},
			bson.M{"$set": bson.M{"is_default": false, "updated_at": now}},
		); err != nil {
			return nil, err
		}
	}

	m, err = s.transition(ctx, id,
		[]string{models.MembershipStatusActive},
		bson.M{"$set": bson.M{"is_default": true, "updated_at": now}})
	if err == nil {
		return m, nil
	}
	if wafflemongo.IsDup(err) {
		err = ErrDefaultConflict
	}
	if rerr := s.restoreDefaults(ctx, previous); rerr != nil {
		return nil, errors.Join(err, rerr)
	}
	return nil, err
}

// defaultIDs lists the user's default memberships other than except.
func (s *Store) defaultIDs(ctx context.Context, userID, except primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID, "is_default": true, "_id": bson.M{"$ne": except}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// restoreDefaults sets is_default back on ids that are still ACTIVE. It runs
// on a detached context so a caller timeout does not skip it.
func (s *Store) restoreDefaults(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	_, err := s.c.UpdateMany(rctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": models.MembershipStatusActive},
		bson.M{"$set": bson.M{"is_default": true, "updated_at": time.Now().UTC()}})
	return err
}

// CountActiveByRole counts a group's ACTIVE memberships holding role.
func (s *Store) CountActiveByRole(ctx context.Context, groupID primitive.ObjectID, role models.Role) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"status":   models.MembershipStatusActive,
		"role":     role,
	})
}
