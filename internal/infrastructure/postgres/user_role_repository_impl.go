package postgres

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
)

type UserRoleRepository struct {
	db     DBTX
	logger *logrus.Logger
}

func NewUserRoleRepository(db DBTX, logger *logrus.Logger) *UserRoleRepository {
	return &UserRoleRepository{db: db, logger: logger}
}

// Assign relies on the (user_id, role_id) primary key; a concurrent duplicate
// surfaces as repository.ErrDuplicate.
func (r *UserRoleRepository) Assign(ctx context.Context, userID, roleID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
	`, userID, roleID)
	return mapError(err)
}

func (r *UserRoleRepository) Remove(ctx context.Context, userID, roleID string) (int64, error) {
	res, err := r.db.Exec(ctx, `
		DELETE FROM user_roles
		WHERE user_id = $1 AND role_id = $2
	`, userID, roleID)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected(), nil
}

func (r *UserRoleRepository) RolesOfUser(ctx context.Context, userID string) ([]*entity.Role, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.name, r.description, r.permissions, r.created_at, r.updated_at
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
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

func (r *UserRoleRepository) HasRoleNamed(ctx context.Context, userID, roleName string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND r.name = $2
		)
	`, userID, roleName).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

var _ repository.UserRoleRepository = (*UserRoleRepository)(nil)
