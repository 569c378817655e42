package ports

import (
	"context"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

// UpdateUserInput is a partial update. Nil fields are not part of the request.
type UpdateUserInput struct {
	Username    *string
	Email       *string
	Password    *string
	OldPassword *string
	RoleID      *int
}

type UserService interface {
	GetUser(ctx context.Context, actor *domain.Claims, id int) (*domain.User, error)
	GetProfile(ctx context.Context, actor *domain.Claims) (*domain.User, error)
	ListUsers(ctx context.Context, actor *domain.Claims, filter domain.UserFilter) (*domain.UserPage, error)
	UpdateUser(ctx context.Context, actor *domain.Claims, id int, input UpdateUserInput) error
	DeleteUser(ctx context.Context, actor *domain.Claims, id int) error
}

type RoleService interface {
	ListRoles(ctx context.Context) ([]domain.Role, error)
}
