// Package workinggroup decides, once per request, which working group the
// caller is acting within, and carries that decision through the request
// context.
package workinggroup

import (
	"context"
	"sync"

	"github.com/dalemusser/printhub/internal/app/system/permission"
	"github.com/dalemusser/printhub/internal/domain/models"
)

// Holder is the per-request slot for the resolved working group.
// A new Holder is created for every request; it is never shared.
type Holder struct {
	mu    sync.RWMutex
	group *models.WorkingGroup
}

// NewHolder returns an empty holder.
func NewHolder() *Holder { return &Holder{} }

// Set stores g (nil for "no working group").
func (h *Holder) Set(g *models.WorkingGroup) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.group = g
}

// Current returns the stored working group, or nil.
func (h *Holder) Current() *models.WorkingGroup {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.group
}

type holderKey struct{}

// WithHolder returns ctx carrying h.
func WithHolder(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// HolderFrom returns the holder carried by ctx, or nil.
func HolderFrom(ctx context.Context) *Holder {
	h, _ := ctx.Value(holderKey{}).(*Holder)
	return h
}

// Current returns the working group resolved for ctx's request, or nil.
func Current(ctx context.Context) *models.WorkingGroup {
	return HolderFrom(ctx).Current()
}

// WithTestGroup returns ctx with a holder set to g and a scope bound to it.
func WithTestGroup(ctx context.Context, g *models.WorkingGroup) context.Context {
	h := NewHolder()
	h.Set(g)
	scope := permission.NewScope()
	if g != nil {
		id := g.ID
		scope.Bind(&id)
	}
	return permission.WithScope(WithHolder(ctx, h), scope)
}
