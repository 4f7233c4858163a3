package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	repo "github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Profile is the signed-in user's view of themselves.
type Profile struct {
	User        *entity.User
	Permissions entity.PermissionSet
	IsAdmin     bool
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates an ACTIVE account with no roles.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*entity.User, error) {
	return s.Create(ctx, CreateUserInput{Name: name, Email: email, Password: password, Status: entity.UserStatusActive})
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || u == nil {
		if err != nil && errors.Is(err, repo.ErrUnavailable) {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.CanLogin() {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, s.SessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name}, pair, nil
}

// Refresh rotates the session id and both tokens. The refresh token must carry
// the session id currently stored in Redis.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil || !u.CanLogin() {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, helpers.SessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.SessionTTL)
		_, _ = pipe.Exec(ctx)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

func (s *UserService) Logout(ctx context.Context, userID string) {
	s.dropSession(ctx, userID)
}

func (s *UserService) dropSession(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := s.Redis.Del(ctx, helpers.SessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("drop session failed")
	}
}

// GetProfile returns the user with roles and effective permissions.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.Authz.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Permissions: perms, IsAdmin: perms.Has(entity.PermSystemAdmin)}, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if strings.TrimSpace(u.Password) == "" || !helpers.CompareHashAndPassword(u.Password, current) {
		return ErrWrongPassword
	}
	hash, err := helpers.HashPassword(next)
	if err != nil {
		return err
	}
	u.Password = hash
	if err := s.Repo.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
