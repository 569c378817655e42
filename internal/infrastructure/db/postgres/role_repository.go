package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/usermanagement/identity-api/internal/core/domain"
)

type roleRow struct {
	ID          int            `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
}

func (r roleRow) toDomain() domain.Role {
	return domain.Role{ID: r.ID, Name: r.Name, Description: nullString(r.Description)}
}

// RoleRepository implements ports.RoleRepository on PostgreSQL.
type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	var rows []roleRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, description FROM roles ORDER BY id`); err != nil {
		return nil, mapError("list roles", err, nil)
	}
	roles := make([]domain.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.toDomain())
	}
	return roles, nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id int) (*domain.Role, error) {
	var row roleRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, description FROM roles WHERE id = $1`, id); err != nil {
		return nil, mapError("find role by id", err, domain.ErrRoleNotFound)
	}
	role := row.toDomain()
	return &role, nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var row roleRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, description FROM roles WHERE name = $1`, name); err != nil {
		return nil, mapError("find role by name", err, domain.ErrRoleNotFound)
	}
	role := row.toDomain()
	return &role, nil
}
