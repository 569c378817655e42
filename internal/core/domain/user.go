package domain

import "time"

// System accounts seeded at provisioning time.
const (
	AdminUserID   = 1
	DefaultUserID = 2
)

// User is a directory record joined with its role.
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	RoleID       int
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSystemUser reports whether id belongs to one of the seeded accounts whose
// username, email and role are immutable.
func IsSystemUser(id int) bool {
	return id == AdminUserID || id == DefaultUserID
}

// NewUser carries the fields needed to insert a user.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	RoleID       int
}

// UserPatch is the set of column changes committed by a single update. Nil
// fields are left untouched; UpdatedAt is always refreshed.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	RoleID       *int
}

// IsEmpty reports whether the patch changes nothing besides the timestamp.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil && p.RoleID == nil
}
