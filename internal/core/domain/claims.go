package domain

// Claims is the verified identity carried by a session token. A nil *Claims
// stands for an anonymous caller.
type Claims struct {
	UserID   int
	Username string
	Role     string
}

func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// IsSelf reports whether the claims belong to the user with the given id.
func (c *Claims) IsSelf(userID int) bool {
	return c != nil && c.UserID == userID
}

// ActorID returns the user id behind the claims, or 0 for anonymous callers.
func (c *Claims) ActorID() int {
	if c == nil {
		return 0
	}
	return c.UserID
}
