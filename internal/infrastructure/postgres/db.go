package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const roleColumns = `id, name, description, permissions, created_at, updated_at`

// permissionsFromStorage keeps known tokens only. Unknown ones are never granted.
func permissionsFromStorage(logger *logrus.Logger, roleID string, raw []string) entity.PermissionSet {
	set := entity.NewPermissionSet()
	for _, s := range raw {
		p, err := entity.ParsePermission(s)
		if err != nil {
			if logger != nil {
				logger.WithField("role_id", roleID).WithField("permission", s).Warn("ignoring unknown permission stored on role")
			}
			continue
		}
		set.Add(p)
	}
	return set
}

func scanRole(row pgx.Row, logger *logrus.Logger) (*entity.Role, error) {
	r := &entity.Role{}
	var raw []string
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &raw, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Permissions = permissionsFromStorage(logger, r.ID, raw)
	return r, nil
}
