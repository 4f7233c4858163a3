package repository

import (
	"context"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
)

// RoleRepository persists roles and their embedded permission sets.
type RoleRepository interface {
	Create(ctx context.Context, r *entity.Role) error
	GetByID(ctx context.Context, id string) (*entity.Role, error)
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	List(ctx context.Context) ([]*entity.Role, error)
	Update(ctx context.Context, r *entity.Role) error
	Delete(ctx context.Context, id string) error
}

// UserRoleRepository manages the user_roles join table.
type UserRoleRepository interface {
	// Assign inserts the pair. Returns ErrDuplicate if it already exists
	// and ErrNotFound if either side is missing.
	Assign(ctx context.Context, userID, roleID string) error
	// Remove deletes the pair and reports how many rows went away.
	Remove(ctx context.Context, userID, roleID string) (int64, error)
	// RolesOfUser returns every role assigned to the user. A missing user yields no roles.
	RolesOfUser(ctx context.Context, userID string) ([]*entity.Role, error)
	HasRoleNamed(ctx context.Context, userID, roleName string) (bool, error)
}
