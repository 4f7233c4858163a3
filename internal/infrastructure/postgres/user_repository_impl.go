package postgres

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
)

type UserRepository struct {
	db     DBTX
	logger *logrus.Logger
}

func NewUserRepository(db DBTX, logger *logrus.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

const userColumns = `id, email, password_hash, name, status, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.Name, string(u.Status))

	return mapError(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	u := &entity.User{}
	var status string
	row := r.db.QueryRow(ctx, query, arg)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &status,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	u.Status = entity.UserStatus(status)
	return u, nil
}

// List pages users newest first and attaches their roles with a second query.
func (r *UserRepository) List(ctx context.Context, f repository.UserListFilter) ([]*entity.User, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`, COUNT(*) OVER()
		FROM users
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(f.Status), limit, f.Offset)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var (
		users []*entity.User
		total int
		ids   []string
		byID  = map[string]*entity.User{}
	)
	for rows.Next() {
		u := &entity.User{}
		var status string
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &status,
			&u.CreatedAt, &u.UpdatedAt, &total); err != nil {
			return nil, 0, mapError(err)
		}
		u.Status = entity.UserStatus(status)
		users = append(users, u)
		ids = append(ids, u.ID)
		byID[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	if len(ids) == 0 {
		return users, total, nil
	}

	roleRows, err := r.db.Query(ctx, `
		SELECT ur.user_id, r.id, r.name, r.description, r.permissions, r.created_at, r.updated_at
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1::uuid[])
		ORDER BY r.name
	`, ids)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var (
			userID string
			role   entity.Role
			raw    []string
		)
		if err := roleRows.Scan(&userID, &role.ID, &role.Name, &role.Description, &raw,
			&role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, mapError(err)
		}
		role.Permissions = permissionsFromStorage(r.logger, role.ID, raw)
		if u, ok := byID[userID]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return users, total, mapError(roleRows.Err())
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET email = $1, password_hash = $2, name = $3, status = $4, updated_at = $5
		WHERE id = $6
	`, u.Email, u.Password, u.Name, string(u.Status), u.UpdatedAt, u.ID)
	if err != nil {
		return mapError(err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes the user; user_roles rows go with it (ON DELETE CASCADE).
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
