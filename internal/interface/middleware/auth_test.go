package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

func newAuthRouter(t *testing.T, rdb *redis.Client, jwt *helpers.JWTManager) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.GET("/me", Auth(rdb, jwt), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"uid":   c.GetString(CtxUserIDKey),
			"actor": application.ActorFrom(c.Request.Context()),
		})
	})
	return r
}

func TestAuth(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	r := newAuthRouter(t, rdb, jwt)

	token, _, err := jwt.GenerateAccessToken("user-1", "sid-1")
	require.NoError(t, err)
	require.NoError(t, rdb.HSet(context.Background(), helpers.SessionKey("user-1"), "sid", "sid-1", "name", "Ana").Err())

	do := func(mod func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		mod(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(func(*http.Request) {}).Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		w := do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"uid":"user-1","actor":"user-1"}`, w.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		w := do(func(req *http.Request) { req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: token}) })
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := helpers.NewJWTManager("x", "y", time.Minute, time.Hour)
		forged, _, err := other.GenerateAccessToken("user-1", "sid-1")
		require.NoError(t, err)
		w := do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+forged) })
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("stale session id", func(t *testing.T) {
		stale, _, err := jwt.GenerateAccessToken("user-1", "sid-0")
		require.NoError(t, err)
		w := do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+stale) })
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logged out", func(t *testing.T) {
		mr.Del(helpers.SessionKey("user-1"))
		w := do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	r.GET("/x", RateLimit(rdb, 2, time.Minute, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimitAdminBypass(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	authz := &stubAuthorizer{perms: map[string]entity.PermissionSet{
		"admin":  entity.DefaultRolePermissions()[entity.RoleAdmin],
		"reader": entity.DefaultRolePermissions()[entity.RoleUser],
	}}

	hit := func(uid string) int {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) {
			c.Set(CtxUserIDKey, uid)
			c.Next()
		}, RateLimit(rdb, 1, time.Minute, KeyByUserID(), AllowPermission(authz, entity.PermSystemAdmin)), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, hit("reader"))
	assert.Equal(t, http.StatusTooManyRequests, hit("reader"))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit("admin"))
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "3f1b8a2e-6d0c-4f6e-9d55-2b1f0a9c7e11")
	r.ServeHTTP(w, req)
	assert.Equal(t, "3f1b8a2e-6d0c-4f6e-9d55-2b1f0a9c7e11", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid", w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}
