// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User statuses.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User is a back-office account.
//
// NOTE:
//   - Working group access is not embedded on User.
//     Use the memberships collection to discover a user's groups.
//   - Roles holds global (not tenant scoped) roles. super_admin here bypasses
//     every working group check.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Roles        []Role             `bson:"roles,omitempty" json:"roles,omitempty"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasGlobalRole reports whether role is among the user's global roles.
func (u *User) HasGlobalRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the user holds the global super_admin role.
func (u *User) IsSuperAdmin() bool {
	return u.HasGlobalRole(RoleSuperAdmin)
}
