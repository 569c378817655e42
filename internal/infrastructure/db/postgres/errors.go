package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

const (
	usernameIndex = "users_username_lower_key"
	emailIndex    = "users_email_lower_key"
)

// mapError translates driver failures into domain errors. Constraint
// violations become conflicts; anything else is a storage failure.
func mapError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			switch pqErr.Constraint {
			case usernameIndex:
				return domain.ErrUsernameTaken
			case emailIndex:
				return domain.ErrEmailTaken
			}
		case "foreign_key_violation":
			return domain.ErrRoleNotFound
		}
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
