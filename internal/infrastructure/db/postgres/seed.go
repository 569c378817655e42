package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/usermanagement/identity-api/internal/core/domain"
	"github.com/usermanagement/identity-api/internal/core/ports"
)

// SeedPasswords are the initial plaintext passwords of the system accounts.
type SeedPasswords struct {
	Admin string
	User  string
}

// SeedSystemUsers inserts the two system accounts if they are missing.
// Existing rows are left untouched so changed passwords survive restarts.
func SeedSystemUsers(ctx context.Context, db *sqlx.DB, hasher ports.PasswordHasher, pw SeedPasswords, log zerolog.Logger) error {
	adminHash, err := hasher.Hash(pw.Admin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	userHash, err := hasher.Hash(pw.User)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	const q = `
	INSERT INTO users (id, username, email, password_hash, role_id)
	VALUES ($1, 'admin', 'admin@example.com', $2, $3),
	       ($4, 'user',  'user@example.com',  $5, $6)
	ON CONFLICT (id) DO NOTHING`

	res, err := db.ExecContext(ctx, q,
		domain.AdminUserID, adminHash, domain.AdminRoleID,
		domain.DefaultUserID, userHash, domain.UserRoleID,
	)
	if err != nil {
		return mapError("seed system users", err, nil)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		log.Info().Int64("inserted", n).Msg("system accounts seeded")
	}
	return nil
}
