package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	repo "github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
)

type RoleService struct {
	Repo   repo.RoleRepository
	Events EventPublisher
	Logger *logrus.Logger
}

func NewRoleService(r repo.RoleRepository, events EventPublisher, logger *logrus.Logger) *RoleService {
	return &RoleService{Repo: r, Events: events, Logger: logger}
}

type CreateRoleInput struct {
	Name        string
	Description string
	Permissions []string
}

// UpdateRoleInput replaces only the fields that are non-nil.
type UpdateRoleInput struct {
	Name        *string
	Description *string
	Permissions []string // nil keeps the current set; an empty slice clears it
}

func (s *RoleService) List(ctx context.Context) ([]*entity.Role, error) {
	return s.Repo.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, id string) (*entity.Role, error) {
	r, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return r, nil
}

// Create validates the permission tokens against the known set and stores them deduplicated.
func (s *RoleService) Create(ctx context.Context, in CreateRoleInput) (*entity.Role, error) {
	perms, err := entity.ParsePermissions(in.Permissions)
	if err != nil {
		return nil, err
	}
	r := &entity.Role{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Permissions: perms,
	}
	if err := s.Repo.Create(ctx, r); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrRoleNameTaken
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("name", r.Name).Error("create role failed")
		}
		return nil, err
	}
	publishAudit(ctx, s.Events, s.Logger, AuditEvent{Type: EventRoleCreated, RoleID: r.ID})
	return r, nil
}

func (s *RoleService) Update(ctx context.Context, id string, in UpdateRoleInput) (*entity.Role, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		r.Description = strings.TrimSpace(*in.Description)
	}
	if in.Permissions != nil {
		perms, err := entity.ParsePermissions(in.Permissions)
		if err != nil {
			return nil, err
		}
		r.Permissions = perms
	}
	if err := s.Repo.Update(ctx, r); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrRoleNameTaken
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	cacheFrom(ctx).invalidateAll()
	publishAudit(ctx, s.Events, s.Logger, AuditEvent{Type: EventRoleUpdated, RoleID: r.ID})
	return r, nil
}

// Delete removes the role and, through the foreign key cascade, all of its assignments.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	cacheFrom(ctx).invalidateAll()
	publishAudit(ctx, s.Events, s.Logger, AuditEvent{Type: EventRoleDeleted, RoleID: id})
	return nil
}

// EnsureRole creates the named role with perms if it does not exist yet.
// An existing role is returned untouched.
func (s *RoleService) EnsureRole(ctx context.Context, name, description string, perms entity.PermissionSet) (*entity.Role, bool, error) {
	existing, err := s.Repo.GetByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}
	r := &entity.Role{Name: name, Description: description, Permissions: perms.Clone()}
	if err := s.Repo.Create(ctx, r); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// lost a race with another seeder
			existing, gErr := s.Repo.GetByName(ctx, name)
			return existing, false, gErr
		}
		return nil, false, err
	}
	return r, true, nil
}

// SeedDefaultRoles ensures the built-in admin and user roles exist.
// Roles that already exist keep their current permissions.
func (s *RoleService) SeedDefaultRoles(ctx context.Context) ([]*entity.Role, error) {
	defaults := entity.DefaultRolePermissions()
	out := make([]*entity.Role, 0, len(defaults))
	for _, name := range []string{entity.RoleAdmin, entity.RoleUser} {
		r, created, err := s.EnsureRole(ctx, name, entity.DefaultRoleDescriptions[name], defaults[name])
		if err != nil {
			return nil, err
		}
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"role": name, "id": r.ID, "created": created}).Info("role ensured")
		}
		out = append(out, r)
	}
	return out, nil
}
