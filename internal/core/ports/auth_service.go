package ports

import (
	"context"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

// RegisterInput is a registration candidate. RoleID 0 selects the default role.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	RoleID   int
}

// AuthResult is returned by a successful login or registration.
type AuthResult struct {
	User  *domain.User
	Token Token
}

type AuthService interface {
	Register(ctx context.Context, actor *domain.Claims, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	VerifySession(ctx context.Context, token string) (*domain.Claims, error)
}
