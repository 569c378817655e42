package ports

import (
	"time"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Token is a signed session token and the instant it stops being valid.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(user *domain.User) (Token, error)
	Validate(token string) (*domain.Claims, error)
}
