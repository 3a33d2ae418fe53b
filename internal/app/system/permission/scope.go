// Package permission scopes role checks to the working group bound for the
// current request.
//
// A user can be an admin in one working group and a member in another. Once a
// Scope is bound, HasRole only consults the membership in that group.
package permission

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scope is the per-request team binding. The zero value is unbound.
type Scope struct {
	mu   sync.RWMutex
	team *primitive.ObjectID
}

// NewScope returns an unbound scope.
func NewScope() *Scope { return &Scope{} }

// Bind sets the team to id. A nil id clears the binding.
func (s *Scope) Bind(id *primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == nil {
		s.team = nil
		return
	}
	v := *id
	s.team = &v
}

// Clear removes any binding.
func (s *Scope) Clear() { s.Bind(nil) }

// TeamID returns the bound team.
func (s *Scope) TeamID() (primitive.ObjectID, bool) {
	if s == nil {
		return primitive.NilObjectID, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.team == nil {
		return primitive.NilObjectID, false
	}
	return *s.team, true
}

type ctxKey struct{}

// WithScope returns ctx carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// ScopeFrom returns the scope carried by ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(ctxKey{}).(*Scope)
	return s
}
