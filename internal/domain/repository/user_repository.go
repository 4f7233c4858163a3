package repository

import (
	"context"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
)

// UserListFilter narrows and pages List results.
type UserListFilter struct {
	Status entity.UserStatus
	Limit  int
	Offset int
}

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// List returns users newest first, each with its assigned roles.
	List(ctx context.Context, f UserListFilter) ([]*entity.User, int, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
}
