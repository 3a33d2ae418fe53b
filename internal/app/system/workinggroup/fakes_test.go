package workinggroup_test

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	membershipstore "github.com/dalemusser/printhub/internal/app/store/memberships"
	workinggroupstore "github.com/dalemusser/printhub/internal/app/store/workinggroups"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeDirectory is an in-memory Directory.
type fakeDirectory struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]*models.WorkingGroup
	err    error
}

func newDirectory(groups ...*models.WorkingGroup) *fakeDirectory {
	d := &fakeDirectory{groups: map[primitive.ObjectID]*models.WorkingGroup{}}
	for _, g := range groups {
		d.groups[g.ID] = g
	}
	return d
}

func (d *fakeDirectory) GetByID(_ context.Context, id primitive.ObjectID) (*models.WorkingGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	g, ok := d.groups[id]
	if !ok || g.IsDeleted() {
		return nil, workinggroupstore.ErrNotFound
	}
	return g, nil
}

func (d *fakeDirectory) PublicDefault(_ context.Context) (*models.WorkingGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	var best *models.WorkingGroup
	for _, g := range d.groups {
		if !g.IsPublicDefault || g.IsDeleted() {
			continue
		}
		if best == nil || g.CreatedAt.After(best.CreatedAt) ||
			(g.CreatedAt.Equal(best.CreatedAt) && g.ID.Hex() > best.ID.Hex()) {
			best = g
		}
	}
	if best == nil {
		return nil, workinggroupstore.ErrNotFound
	}
	return best, nil
}

// fakeMemberships is an in-memory MembershipFinder.
type fakeMemberships struct {
	mu   sync.Mutex
	list []models.Membership
	err  error
}

func (f *fakeMemberships) add(userID, groupID primitive.ObjectID, role models.Role, status string, isDefault bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = append(f.list, models.Membership{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		GroupID:   groupID,
		Role:      role,
		Status:    status,
		IsDefault: isDefault,
		CreatedAt: time.Now().UTC().Add(time.Duration(len(f.list)) * time.Second),
	})
}

func (f *fakeMemberships) active(userID primitive.ObjectID) []models.Membership {
	var out []models.Membership
	for _, m := range f.list {
		if m.UserID == userID && m.IsActive() {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (f *fakeMemberships) FindActive(_ context.Context, userID, groupID primitive.ObjectID) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.active(userID) {
		if m.GroupID == groupID {
			return &m, nil
		}
	}
	return nil, membershipstore.ErrNotFound
}

func (f *fakeMemberships) FindDefault(_ context.Context, userID primitive.ObjectID) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.active(userID) {
		if m.IsDefault {
			return &m, nil
		}
	}
	return nil, membershipstore.ErrNotFound
}

func (f *fakeMemberships) FirstActive(_ context.Context, userID primitive.ObjectID) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	act := f.active(userID)
	if len(act) == 0 {
		return nil, membershipstore.ErrNotFound
	}
	return &act[0], nil
}

// gateFunc adapts a function to the Gate interface.
type gateFunc func(ctx context.Context, u *models.User) bool

func (f gateFunc) IsEnabled(ctx context.Context, u *models.User) bool { return f(ctx, u) }

var enabled = gateFunc(func(context.Context, *models.User) bool { return true })
var disabled = gateFunc(func(context.Context, *models.User) bool { return false })

// fakeSession is an in-memory SessionStore keyed by nothing: one browser.
type fakeSession struct {
	mu      sync.Mutex
	id      string
	sets    int
	clears  int
	failSet error
}

func (s *fakeSession) WorkingGroupID(*http.Request) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *fakeSession) SetWorkingGroupID(_ http.ResponseWriter, _ *http.Request, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.id = id
	s.sets++
	return nil
}

func (s *fakeSession) ClearWorkingGroupID(http.ResponseWriter, *http.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.clears++
	return nil
}

func newGroup(name string, public bool) *models.WorkingGroup {
	return &models.WorkingGroup{
		ID:              primitive.NewObjectID(),
		Name:            name,
		Slug:            name,
		Status:          models.WorkingGroupStatusActive,
		IsPublicDefault: public,
		CreatedAt:       time.Now().UTC(),
	}
}

func newUser(roles ...models.Role) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Roles: roles}
}
