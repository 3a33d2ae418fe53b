// Package featureflag answers "is this feature on for this user?".
//
// A flag value can be stored per user ("user:<hex id>") and globally
// ("global"). A user-scoped true wins. Otherwise the global value applies, and
// when nothing is stored the gate falls back to its configured default.
// Backend failures turn the feature off.
package featureflag

import (
	"context"

	"github.com/dalemusser/printhub/internal/domain/models"
	"go.uber.org/zap"
)

// Backend looks up a stored flag value. found is false when no value is
// stored for (name, scope).
type Backend interface {
	Lookup(ctx context.Context, name, scope string) (value bool, found bool, err error)
}

// Gate evaluates a single named feature.
type Gate struct {
	Backend Backend
	Name    string
	Default bool
	Log     *zap.Logger
}

// New returns a Gate for name.
func New(backend Backend, name string, def bool, logger *zap.Logger) *Gate {
	return &Gate{Backend: backend, Name: name, Default: def, Log: logger}
}

// UserScope returns the scope string for user-scoped values.
func UserScope(u *models.User) string {
	return "user:" + u.ID.Hex()
}

// IsEnabled reports whether the feature is on for user (nil for anonymous).
func (g *Gate) IsEnabled(ctx context.Context, user *models.User) bool {
	if user != nil {
		v, found, err := g.Backend.Lookup(ctx, g.Name, UserScope(user))
		if err != nil {
			g.warn("user-scoped flag lookup failed", err)
			return false
		}
		if found && v {
			return true
		}
	}

	v, found, err := g.Backend.Lookup(ctx, g.Name, models.FeatureScopeGlobal)
	if err != nil {
		g.warn("global flag lookup failed", err)
		return false
	}
	if found {
		return v
	}
	return g.Default
}

func (g *Gate) warn(msg string, err error) {
	if g.Log == nil {
		return
	}
	g.Log.Warn(msg, zap.String("feature", g.Name), zap.Error(err))
}
