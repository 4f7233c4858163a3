package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	repo "github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

type UserService struct {
	Repo         repo.UserRepository
	Authz        *AuthzService
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Events       EventPublisher
	SessionTTL   time.Duration
}

func NewUserService(r repo.UserRepository, authz *AuthzService, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, events EventPublisher) *UserService {
	return &UserService{
		Repo:         r,
		Authz:        authz,
		JWT:          jwt,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Events:       events,
		SessionTTL:   24 * time.Hour,
	}
}

type ListUsersInput struct {
	Status entity.UserStatus
	Limit  int
	Offset int
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Status   entity.UserStatus
	RoleID   string
}

type UpdateUserInput struct {
	Name   *string
	Status *entity.UserStatus
}

func (s *UserService) List(ctx context.Context, in ListUsersInput) ([]*entity.User, int, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 50
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	return s.Repo.List(ctx, repo.UserListFilter{Status: in.Status, Limit: in.Limit, Offset: in.Offset})
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	roles, err := s.Authz.RolesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		u.Roles = append(u.Roles, *r)
	}
	return u, nil
}

// Create registers a user on behalf of an administrator, optionally granting one role.
// The role is checked before the user row is written.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	email := normalizeEmail(in.Email)
	if in.Status == "" {
		in.Status = entity.UserStatusActive
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if in.RoleID != "" {
		if _, err := s.Authz.Roles.GetByID(ctx, in.RoleID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrRoleNotFound
			}
			return nil, err
		}
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(in.Name),
		Status:   in.Status,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", email).Error("create user failed")
		}
		return nil, err
	}

	if in.RoleID != "" {
		if err := s.Authz.AssignRole(ctx, u.ID, in.RoleID); err != nil {
			return nil, err
		}
		if roles, err := s.Authz.RolesOf(ctx, u.ID); err == nil {
			for _, r := range roles {
				u.Roles = append(u.Roles, *r)
			}
		}
	}

	_ = s.indexUser(ctx, u)
	return u, nil
}

// Update changes name and/or status. Moving a user out of ACTIVE drops their session.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		u.Status = *in.Status
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !u.CanLogin() {
		s.dropSession(ctx, u.ID)
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// Delete removes the user together with all role assignments.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	cacheFrom(ctx).invalidate(id)
	s.dropSession(ctx, id)
	s.unindexUser(ctx, id)
	publishAudit(ctx, s.Events, s.Logger, AuditEvent{Type: EventUserDeleted, UserID: id})
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"status":     string(u.Status),
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

func (s *UserService) unindexUser(ctx context.Context, id string) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: id}.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match search on email and name.
func (s *UserService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
