package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

func TestAccount_LoginRecordsSession(t *testing.T) {
	f := newFixture(t)
	svc, mr := newUserService(t, f)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Empty(t, u.Roles, "self registration grants no roles")

	res, pair, err := svc.Login(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.UserID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, claims.SessionID, mr.HGet(helpers.SessionKey(u.ID), "sid"))
	assert.True(t, mr.TTL(helpers.SessionKey(u.ID)) > 0)
}

func TestAccount_LoginFailures(t *testing.T) {
	f := newFixture(t)
	svc, _ := newUserService(t, f)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
}

func TestAccount_RefreshRotatesSession(t *testing.T) {
	f := newFixture(t)
	svc, mr := newUserService(t, f)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	_, first, err := svc.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	oldSID := mr.HGet(helpers.SessionKey(u.ID), "sid")

	second, uid, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
	assert.NotEqual(t, oldSID, mr.HGet(helpers.SessionKey(u.ID), "sid"))

	// the rotated-out refresh token is no longer accepted
	_, _, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)

	svc.Logout(ctx, u.ID)
	_, _, err = svc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
}

func TestAccount_ProfileAndPasswordChange(t *testing.T) {
	f := newFixture(t)
	svc, _ := newUserService(t, f)
	ctx := context.Background()

	u, err := svc.Create(ctx, application.CreateUserInput{Name: "Ana", Email: "ana@example.com", Password: "secret1", RoleID: f.adminRole.ID})
	require.NoError(t, err)

	p, err := svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
	assert.Equal(t, 9, p.Permissions.Len())

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "not-it", "newsecret"), application.ErrWrongPassword)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "secret1", "newsecret"))

	_, _, err = svc.Login(ctx, "ana@example.com", "secret1")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ana@example.com", "newsecret")
	assert.NoError(t, err)

	_, err = svc.GetProfile(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}
