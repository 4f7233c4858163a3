package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	repo "github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
)

// AuthzService evaluates and mutates the user -> role -> permission graph.
//
// Permission queries never fail because a user or role is missing: an unknown
// user simply has no permissions. The error return is reserved for storage faults.
type AuthzService struct {
	Users     repo.UserRepository
	Roles     repo.RoleRepository
	UserRoles repo.UserRoleRepository
	Events    EventPublisher
	Logger    *logrus.Logger
}

func NewAuthzService(users repo.UserRepository, roles repo.RoleRepository, userRoles repo.UserRoleRepository, events EventPublisher, logger *logrus.Logger) *AuthzService {
	return &AuthzService{
		Users:     users,
		Roles:     roles,
		UserRoles: userRoles,
		Events:    events,
		Logger:    logger,
	}
}

// EffectivePermissions returns the union of the permission sets of every role
// assigned to the user. The returned set is owned by the caller.
func (s *AuthzService) EffectivePermissions(ctx context.Context, userID string) (entity.PermissionSet, error) {
	if strings.TrimSpace(userID) == "" {
		return entity.NewPermissionSet(), nil
	}
	cache := cacheFrom(ctx)
	if set, ok := cache.get(userID); ok {
		return set.Clone(), nil
	}

	roles, err := s.UserRoles.RolesOfUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.NewPermissionSet(), nil
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("load user roles failed")
		}
		return nil, err
	}

	set := entity.NewPermissionSet()
	for _, r := range roles {
		set.Union(r.Permissions)
	}
	cache.put(userID, set)
	return set, nil
}

// HasPermission reports whether perm is in the user's effective permissions.
func (s *AuthzService) HasPermission(ctx context.Context, userID string, perm entity.Permission) (bool, error) {
	set, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Has(perm), nil
}

// IsAdmin is HasPermission(userID, system:admin).
func (s *AuthzService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.HasPermission(ctx, userID, entity.PermSystemAdmin)
}

// HasRole reports whether the user holds the role with the given name.
func (s *AuthzService) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	ok, err := s.UserRoles.HasRoleNamed(ctx, userID, roleName)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return ok, err
}

// RolesOf lists the roles currently assigned to the user.
func (s *AuthzService) RolesOf(ctx context.Context, userID string) ([]*entity.Role, error) {
	roles, err := s.UserRoles.RolesOfUser(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return roles, err
}

// AssignRole grants roleID to userID. Both must exist. Assigning a role the
// user already holds succeeds without creating a second row.
func (s *AuthzService) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if _, err := s.Roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}

	err := s.UserRoles.Assign(ctx, userID, roleID)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrDuplicate):
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"user_id": userID, "role_id": roleID}).Debug("role already assigned")
		}
		return nil
	case errors.Is(err, repo.ErrNotFound):
		// an endpoint was deleted between the lookups and the insert
		if strings.Contains(err.Error(), "user_id") {
			return ErrUserNotFound
		}
		return ErrRoleNotFound
	default:
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "role_id": roleID}).Error("assign role failed")
		}
		return err
	}

	cacheFrom(ctx).invalidate(userID)
	publishAudit(ctx, s.Events, s.Logger, AuditEvent{Type: EventRoleAssigned, UserID: userID, RoleID: roleID})
	return nil
}

// RemoveRole revokes roleID from userID. Revoking a role that was never held is a no-op.
func (s *AuthzService) RemoveRole(ctx context.Context, userID, roleID string) error {
	n, err := s.UserRoles.Remove(ctx, userID, roleID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "role_id": roleID}).Error("remove role failed")
		}
		return err
	}
	if n == 0 {
		return nil
	}
	cacheFrom(ctx).invalidate(userID)
	publishAudit(ctx, s.Events, s.Logger, AuditEvent{Type: EventRoleRevoked, UserID: userID, RoleID: roleID})
	return nil
}
