// internal/app/policy/tenantpolicy/tenantpolicy.go
//
// Package tenantpolicy authorizes actions on records owned by a working group
// (addresses, assets, invoices, orders, payment intents, quotes).
//
// Every check is "does the user hold an ACTIVE membership in the owning
// working group with one of these roles". Global super admins always pass.
// Policies answer with a bool; a store failure is logged and denies.
package tenantpolicy

import (
	"context"

	"github.com/dalemusser/printhub/internal/app/system/workinggroup"
	"github.com/dalemusser/printhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MembershipFinder is the subset of the membership store policies need.
type MembershipFinder interface {
	FindActive(ctx context.Context, userID, groupID primitive.ObjectID) (*models.Membership, error)
	HasAnyActive(ctx context.Context, userID primitive.ObjectID) (bool, error)
}

// Owned is anything that belongs to exactly one working group.
type Owned interface {
	OwnerGroupID() primitive.ObjectID
}

// Checker holds the shared role lookups.
type Checker struct {
	Memberships MembershipFinder
	Log         *zap.Logger
}

// NewChecker returns a Checker.
func NewChecker(m MembershipFinder, logger *zap.Logger) *Checker {
	return &Checker{Memberships: m, Log: logger}
}

// UserHasRole reports whether u is a super admin or holds an ACTIVE
// membership in groupID with a role in allowed.
func (c *Checker) UserHasRole(ctx context.Context, u *models.User, groupID primitive.ObjectID, allowed ...models.Role) bool {
	if u == nil {
		return false
	}
	if u.IsSuperAdmin() {
		return true
	}
	if groupID.IsZero() || len(allowed) == 0 {
		return false
	}
	m, err := c.Memberships.FindActive(ctx, u.ID, groupID)
	if err != nil || m == nil || !m.IsActive() {
		if err != nil {
			c.debug("membership lookup denied", u, groupID, err)
		}
		return false
	}
	for _, r := range allowed {
		if m.Role == r {
			return true
		}
	}
	return false
}

// ViewAny reports whether u may list records at all: super admins and users
// with at least one ACTIVE membership anywhere.
func (c *Checker) ViewAny(ctx context.Context, u *models.User) bool {
	if u == nil {
		return false
	}
	if u.IsSuperAdmin() {
		return true
	}
	ok, err := c.Memberships.HasAnyActive(ctx, u.ID)
	if err != nil {
		c.debug("active membership check denied", u, primitive.NilObjectID, err)
		return false
	}
	return ok
}

func (c *Checker) debug(msg string, u *models.User, groupID primitive.ObjectID, err error) {
	if c.Log == nil {
		return
	}
	c.Log.Debug(msg,
		zap.String("user_id", u.ID.Hex()),
		zap.String("working_group_id", groupID.Hex()),
		zap.Error(err))
}

// Rules lists the membership roles allowed for each action.
type Rules struct {
	View   []models.Role
	Create []models.Role
	Update []models.Role
	Delete []models.Role
}

var (
	admin     = models.RoleAdmin
	manager   = models.RoleManager
	designer  = models.RoleDesigner
	marketing = models.RoleMarketing
	member    = models.RoleMember
)

// Per-kind role tables.
var (
	Address = Rules{
		View:   []models.Role{admin, manager, member},
		Create: []models.Role{admin, manager, member},
		Update: []models.Role{admin, manager},
		Delete: []models.Role{admin},
	}
	Asset = Rules{
		View:   []models.Role{admin, manager, designer, marketing, member},
		Create: []models.Role{admin, manager, designer, member},
		Update: []models.Role{admin, manager, designer},
		Delete: []models.Role{admin, manager},
	}
	Invoice = Rules{
		View:   []models.Role{admin, manager},
		Create: []models.Role{admin},
		Update: []models.Role{admin},
		Delete: []models.Role{admin},
	}
	Order = Rules{
		View:   []models.Role{admin, manager, marketing, designer, member},
		Create: []models.Role{admin, manager, marketing, designer, member},
		Update: []models.Role{admin, manager},
		Delete: []models.Role{admin},
	}
	PaymentIntent = Rules{
		View:   []models.Role{admin, manager},
		Create: []models.Role{admin, manager},
		Update: []models.Role{admin, manager},
		Delete: []models.Role{admin},
	}
	Quote = Rules{
		View:   []models.Role{admin, manager, marketing},
		Create: []models.Role{admin, manager, marketing},
		Update: []models.Role{admin, manager},
		Delete: []models.Role{admin},
	}
)

// RulesFor returns the table for kind.
func RulesFor(kind models.RecordKind) (Rules, bool) {
	switch kind {
	case models.KindAddress:
		return Address, true
	case models.KindAsset:
		return Asset, true
	case models.KindInvoice:
		return Invoice, true
	case models.KindOrder:
		return Order, true
	case models.KindPaymentIntent:
		return PaymentIntent, true
	case models.KindQuote:
		return Quote, true
	}
	return Rules{}, false
}

// Policy applies one Rules table.
type Policy struct {
	Checker *Checker
	Rules   Rules
}

// New returns the policy for kind.
func New(c *Checker, kind models.RecordKind) (Policy, bool) {
	rules, ok := RulesFor(kind)
	if !ok {
		return Policy{}, false
	}
	return Policy{Checker: c, Rules: rules}, true
}

// ViewAny reports whether u may list records of this kind.
func (p Policy) ViewAny(ctx context.Context, u *models.User) bool {
	return p.Checker.ViewAny(ctx, u)
}

// View reports whether u may see rec.
func (p Policy) View(ctx context.Context, u *models.User, rec Owned) bool {
	return p.Checker.UserHasRole(ctx, u, rec.OwnerGroupID(), p.Rules.View...)
}

// Create reports whether u may create a record in the working group bound to
// ctx. With no working group bound the answer is always false.
func (p Policy) Create(ctx context.Context, u *models.User) bool {
	g := workinggroup.Current(ctx)
	if g == nil {
		return false
	}
	return p.Checker.UserHasRole(ctx, u, g.ID, p.Rules.Create...)
}

// Update reports whether u may modify rec.
func (p Policy) Update(ctx context.Context, u *models.User, rec Owned) bool {
	return p.Checker.UserHasRole(ctx, u, rec.OwnerGroupID(), p.Rules.Update...)
}

// Delete reports whether u may delete rec.
func (p Policy) Delete(ctx context.Context, u *models.User, rec Owned) bool {
	return p.Checker.UserHasRole(ctx, u, rec.OwnerGroupID(), p.Rules.Delete...)
}
