package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

const selectUser = `
	SELECT u.id, u.username, u.email, u.password_hash, u.role_id,
	       r.name AS role_name, r.description AS role_description,
	       u.created_at, u.updated_at
	FROM users u
	JOIN roles r ON r.id = u.role_id`

type userRow struct {
	ID              int            `db:"id"`
	Username        string         `db:"username"`
	Email           string         `db:"email"`
	PasswordHash    string         `db:"password_hash"`
	RoleID          int            `db:"role_id"`
	RoleName        string         `db:"role_name"`
	RoleDescription sql.NullString `db:"role_description"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		RoleID:       r.RoleID,
		Role: domain.Role{
			ID:          r.RoleID,
			Name:        r.RoleName,
			Description: nullString(r.RoleDescription),
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// UserRepository implements ports.UserRepository on PostgreSQL. Roles are
// always loaded with an explicit join.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return r.findOne(ctx, "find user by id", selectUser+` WHERE u.id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "find user by username", selectUser+` WHERE LOWER(u.username) = LOWER($1)`, username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "find user by email", selectUser+` WHERE LOWER(u.email) = LOWER($1)`, email)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		return nil, mapError(op, err, domain.ErrUserNotFound)
	}
	u := row.toDomain()
	return &u, nil
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) AND id <> $2)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, q, username, excludeID); err != nil {
		return false, mapError("check username", err, nil)
	}
	return taken, nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID int) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, q, email, excludeID); err != nil {
		return false, mapError("check email", err, nil)
	}
	return taken, nil
}

// Create inserts a user and returns it joined with its role. Uniqueness is
// enforced by the case-insensitive indexes, not by a prior read.
func (r *UserRepository) Create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	const q = `
	WITH inserted AS (
		INSERT INTO users (username, email, password_hash, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, password_hash, role_id, created_at, updated_at
	)
	SELECT u.id, u.username, u.email, u.password_hash, u.role_id,
	       r.name AS role_name, r.description AS role_description,
	       u.created_at, u.updated_at
	FROM inserted u
	JOIN roles r ON r.id = u.role_id`

	var row userRow
	if err := r.db.GetContext(ctx, &row, q, in.Username, in.Email, in.PasswordHash, in.RoleID); err != nil {
		return nil, mapError("create user", err, nil)
	}
	u := row.toDomain()
	return &u, nil
}

// Update applies patch in a single statement and refreshes updated_at.
func (r *UserRepository) Update(ctx context.Context, id int, patch domain.UserPatch) error {
	const q = `
	UPDATE users SET
		username      = COALESCE($2, username),
		email         = COALESCE($3, email),
		password_hash = COALESCE($4, password_hash),
		role_id       = COALESCE($5, role_id),
		updated_at    = GREATEST(NOW(), created_at)
	WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id, patch.Username, patch.Email, patch.PasswordHash, patch.RoleID)
	if err != nil {
		return mapError("update user", err, nil)
	}
	return expectOneRow("update user", res)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError("delete user", err, nil)
	}
	return expectOneRow("delete user", res)
}

func expectOneRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(op, err, nil)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List returns the requested page ordered by id, plus the total number of
// matching users. The search term matches username, email or role name.
func (r *UserRepository) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int, error) {
	var (
		where string
		args  []any
	)
	if term := strings.TrimSpace(f.Search); term != "" {
		where = ` WHERE u.username ILIKE $1 OR u.email ILIKE $1 OR r.name ILIKE $1`
		args = append(args, "%"+escapeLike(term)+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users u JOIN roles r ON r.id = u.role_id` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, mapError("count users", err, nil)
	}

	n := len(args)
	listQuery := selectUser + where + ` ORDER BY u.id ASC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, f.PageSize, f.Offset())

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, mapError("list users", err, nil)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
