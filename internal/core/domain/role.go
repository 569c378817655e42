package domain

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Seeded role ids. Migrations insert them with fixed keys.
const (
	AdminRoleID = 1
	UserRoleID  = 2
)

// Role is reference data. It is created by migrations and never deleted while
// a user references it.
type Role struct {
	ID          int
	Name        string
	Description *string
}

// IsPrivileged reports whether holding the role grants administrative rights.
func (r Role) IsPrivileged() bool {
	return r.Name == RoleAdmin
}
