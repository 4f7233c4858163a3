package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

type stubAuthorizer struct {
	perms map[string]entity.PermissionSet
	err   error
	calls int
}

func (s *stubAuthorizer) EffectivePermissions(_ context.Context, userID string) (entity.PermissionSet, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.perms[userID].Clone(), nil
}

func init() { gin.SetMode(gin.TestMode) }

// serve runs guard behind a middleware that signs in uid (when non-empty).
func serve(t *testing.T, uid string, guard gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if uid != "" {
			c.Set(CtxUserIDKey, uid)
		}
		c.Next()
	}, guard, func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func TestRequirePermission(t *testing.T) {
	authz := &stubAuthorizer{perms: map[string]entity.PermissionSet{
		"admin":  entity.DefaultRolePermissions()[entity.RoleAdmin],
		"reader": entity.NewPermissionSet(entity.PermUserRead),
	}}
	logger := helpers.NewDiscardLogger()

	t.Run("unauthenticated is 401", func(t *testing.T) {
		w := serve(t, "", RequirePermission(authz, logger, entity.PermUserRead))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("granted", func(t *testing.T) {
		w := serve(t, "reader", RequirePermission(authz, logger, entity.PermUserRead))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("missing permission is 403", func(t *testing.T) {
		w := serve(t, "reader", RequirePermission(authz, logger, entity.PermUserDelete))
		assert.Equal(t, http.StatusForbidden, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
	})

	t.Run("user without roles is 403", func(t *testing.T) {
		w := serve(t, "stranger", RequirePermission(authz, logger, entity.PermUserRead))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(t, "admin", RequireAdmin(authz, logger)).Code)
		assert.Equal(t, http.StatusForbidden, serve(t, "reader", RequireAdmin(authz, logger)).Code)
	})
}

func TestRequireAllAndAny(t *testing.T) {
	authz := &stubAuthorizer{perms: map[string]entity.PermissionSet{
		"u": entity.NewPermissionSet(entity.PermUserRead, entity.PermRoleRead),
	}}
	logger := helpers.NewDiscardLogger()

	assert.Equal(t, http.StatusOK, serve(t, "u", RequireAll(authz, logger, entity.PermUserRead, entity.PermRoleRead)).Code)
	assert.Equal(t, http.StatusForbidden, serve(t, "u", RequireAll(authz, logger, entity.PermUserRead, entity.PermRoleUpdate)).Code)
	assert.Equal(t, http.StatusOK, serve(t, "u", RequireAny(authz, logger, entity.PermRoleUpdate, entity.PermRoleRead)).Code)
	assert.Equal(t, http.StatusForbidden, serve(t, "u", RequireAny(authz, logger, entity.PermRoleUpdate, entity.PermSystemAdmin)).Code)
}

func TestRequirePermissionStorageErrors(t *testing.T) {
	logger := helpers.NewDiscardLogger()

	unavailable := &stubAuthorizer{err: repository.ErrUnavailable}
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, "u", RequirePermission(unavailable, logger, entity.PermUserRead)).Code)

	broken := &stubAuthorizer{err: errors.New("boom")}
	assert.Equal(t, http.StatusInternalServerError, serve(t, "u", RequirePermission(broken, logger, entity.PermUserRead)).Code)
}
