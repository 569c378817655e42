package ports

import (
	"context"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

// UserRepository is the user directory. It enforces uniqueness of username and
// email but applies no business policy.
type UserRepository interface {
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// UsernameTaken and EmailTaken compare case-insensitively against every
	// user except excludeID.
	UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID int) (bool, error)
	Create(ctx context.Context, user domain.NewUser) (*domain.User, error)
	Update(ctx context.Context, id int, patch domain.UserPatch) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error)
}

// RoleRepository exposes the seeded role reference data.
type RoleRepository interface {
	List(ctx context.Context) ([]domain.Role, error)
	FindByID(ctx context.Context, id int) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
}
