package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
)

type RoleRepository struct {
	db     DBTX
	logger *logrus.Logger
}

func NewRoleRepository(db DBTX, logger *logrus.Logger) *RoleRepository {
	return &RoleRepository{db: db, logger: logger}
}

func (r *RoleRepository) Create(ctx context.Context, role *entity.Role) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO roles (name, description, permissions)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, role.Name, role.Description, role.Permissions.Strings())

	return mapError(row.Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt))
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*entity.Role, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	role, err := scanRole(row, r.logger)
	if err != nil {
		return nil, mapError(err)
	}
	return role, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	role, err := scanRole(row, r.logger)
	if err != nil {
		return nil, mapError(err)
	}
	return role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*entity.Role, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapError(err)
	}
	return r.collect(rows)
}

func (r *RoleRepository) collect(rows pgx.Rows) ([]*entity.Role, error) {
	defer rows.Close()
	var out []*entity.Role
	for rows.Next() {
		role, err := scanRole(rows, r.logger)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, role)
	}
	return out, mapError(rows.Err())
}

func (r *RoleRepository) Update(ctx context.Context, role *entity.Role) error {
	role.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE roles
		SET name = $1, description = $2, permissions = $3, updated_at = $4
		WHERE id = $5
	`, role.Name, role.Description, role.Permissions.Strings(), role.UpdatedAt, role.ID)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the role; user_roles rows go with it (ON DELETE CASCADE).
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
