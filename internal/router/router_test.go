package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/rbac-admin-panel/config"
	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/container"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/internal/infrastructure/memory"
	"github.com/oksasatya/rbac-admin-panel/internal/interface/middleware"
	"github.com/oksasatya/rbac-admin-panel/internal/router"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
	"github.com/oksasatya/rbac-admin-panel/pkg/validation"
)

var validationOnce sync.Once

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   json.RawMessage `json:"error"`
}

type harness struct {
	engine *gin.Engine
	jwt    *helpers.JWTManager
	svc    router.Services
	admin  *entity.User
	reader *entity.User
	roles  map[string]*entity.Role
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

func newHarnessWith(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validationOnce.Do(validation.Init)

	store := memory.NewStore()
	logger := helpers.NewDiscardLogger()
	jwt := helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)
	container.SetLogger(logger)
	container.SetMemoryStore(store)
	container.SetJWT(jwt)
	container.SetRedis(nil)
	container.SetEvents(nil)
	container.SetConfig(cfg)

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	reg := router.NewRegistry(engine)
	reg.Use(middleware.PermissionCache())
	router.InitModules(reg)
	reg.RegisterAll()

	h := &harness{engine: engine, jwt: jwt, svc: router.BuildServices(router.BuildRepositories()), roles: map[string]*entity.Role{}}
	ctx := context.Background()
	seeded, err := h.svc.Roles.SeedDefaultRoles(ctx)
	require.NoError(t, err)
	for _, r := range seeded {
		h.roles[r.Name] = r
	}
	h.admin, err = h.svc.Users.Create(ctx, application.CreateUserInput{Name: "Admin", Email: "admin@example.com", Password: "secret1", RoleID: h.roles[entity.RoleAdmin].ID})
	require.NoError(t, err)
	h.reader, err = h.svc.Users.Create(ctx, application.CreateUserInput{Name: "Reader", Email: "reader@example.com", Password: "secret1", RoleID: h.roles[entity.RoleUser].ID})
	require.NoError(t, err)
	return h
}

func (h *harness) do(t *testing.T, method, path string, as *entity.User, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, _, err := h.jwt.GenerateAccessToken(as.ID, "sid")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestUserRoutesEnforcePermissions(t *testing.T) {
	h := newHarness(t)

	t.Run("unauthenticated", func(t *testing.T) {
		w, _ := h.do(t, http.MethodGet, "/api/users", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("reader can list", func(t *testing.T) {
		w, env := h.do(t, http.MethodGet, "/api/users", h.reader, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 2, env.Meta["total"])
	})

	t.Run("reader cannot create or delete", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, "/api/users", h.reader, map[string]any{"name": "x", "email": "x@example.com", "password": "secret1"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		w, _ = h.do(t, http.MethodDelete, "/api/users/"+h.admin.ID, h.reader, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("reader cannot manage roles", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, "/api/users/"+h.reader.ID+"/roles", h.reader, map[string]any{"role_id": h.roles[entity.RoleAdmin].ID})
		assert.Equal(t, http.StatusForbidden, w.Code)
		w, _ = h.do(t, http.MethodGet, "/api/roles", h.reader, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAdminManagesUsers(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(t, http.MethodPost, "/api/users", h.admin, map[string]any{
		"name":     "Carol",
		"email":    "carol@example.com",
		"password": "secret1",
		"role_id":  h.roles[entity.RoleUser].ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var carol struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Roles  []struct {
			Name string `json:"name"`
		} `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &carol))
	assert.Equal(t, "ACTIVE", carol.Status)
	require.Len(t, carol.Roles, 1)
	assert.Equal(t, entity.RoleUser, carol.Roles[0].Name)

	t.Run("duplicate email", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, "/api/users", h.admin, map[string]any{"name": "C", "email": "carol@example.com", "password": "secret1"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown role on create", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, "/api/users", h.admin, map[string]any{"name": "D", "email": "d@example.com", "password": "secret1", "role_id": "00000000-0000-0000-0000-000000000000"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation details", func(t *testing.T) {
		w, env := h.do(t, http.MethodPost, "/api/users", h.admin, map[string]any{"name": "E", "email": "not-an-email", "password": "123", "status": "GONE"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		var details map[string]string
		require.NoError(t, json.Unmarshal(env.Error, &details))
		assert.Contains(t, details, "email")
		assert.Contains(t, details, "password")
		assert.Contains(t, details, "status")
	})

	t.Run("assign and revoke", func(t *testing.T) {
		path := "/api/users/" + carol.ID + "/roles"
		w, _ := h.do(t, http.MethodPost, path, h.admin, map[string]any{"role_id": h.roles[entity.RoleAdmin].ID})
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = h.do(t, http.MethodPost, path, h.admin, map[string]any{"role_id": h.roles[entity.RoleAdmin].ID})
		require.Equal(t, http.StatusOK, w.Code, "repeating an assignment succeeds")

		w, env := h.do(t, http.MethodGet, "/api/users/"+carol.ID+"/permissions", h.admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var perms struct {
			Permissions []string `json:"permissions"`
			IsAdmin     bool     `json:"is_admin"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &perms))
		assert.True(t, perms.IsAdmin)
		assert.Len(t, perms.Permissions, 9)

		w, _ = h.do(t, http.MethodDelete, path+"/"+h.roles[entity.RoleAdmin].ID, h.admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = h.do(t, http.MethodDelete, path+"/"+h.roles[entity.RoleAdmin].ID, h.admin, nil)
		require.Equal(t, http.StatusOK, w.Code, "revoking a role not held succeeds")

		ok, err := h.svc.Authz.IsAdmin(context.Background(), carol.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("assign to missing user or role", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, "/api/users/00000000-0000-0000-0000-000000000000/roles", h.admin, map[string]any{"role_id": h.roles[entity.RoleUser].ID})
		assert.Equal(t, http.StatusNotFound, w.Code)
		w, _ = h.do(t, http.MethodPost, "/api/users/"+carol.ID+"/roles", h.admin, map[string]any{"role_id": "00000000-0000-0000-0000-000000000000"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		w, _ = h.do(t, http.MethodPost, "/api/users/not-a-uuid/roles", h.admin, map[string]any{"role_id": h.roles[entity.RoleUser].ID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update status", func(t *testing.T) {
		w, env := h.do(t, http.MethodPut, "/api/users/"+carol.ID, h.admin, map[string]any{"status": "INACTIVE"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"INACTIVE"`)
	})

	t.Run("delete", func(t *testing.T) {
		w, _ := h.do(t, http.MethodDelete, "/api/users/"+h.admin.ID, h.admin, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "admins cannot delete themselves")

		w, _ = h.do(t, http.MethodDelete, "/api/users/"+carol.ID, h.admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = h.do(t, http.MethodGet, "/api/users/"+carol.ID, h.admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminManagesRoles(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(t, http.MethodPost, "/api/roles", h.admin, map[string]any{"name": "auditor", "permissions": []string{"role:read", "user:read"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var role struct {
		ID          string   `json:"id"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &role))
	assert.Equal(t, []string{"role:read", "user:read"}, role.Permissions)

	w, env = h.do(t, http.MethodPost, "/api/roles", h.admin, map[string]any{"name": "broken", "permissions": []string{"user:read", "user:explode"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Error), "permissions")

	w, _ = h.do(t, http.MethodPost, "/api/roles", h.admin, map[string]any{"name": entity.RoleAdmin})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = h.do(t, http.MethodPut, "/api/roles/"+role.ID, h.admin, map[string]any{"permissions": []string{"role:read"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"permissions":["role:read"]`)

	w, env = h.do(t, http.MethodGet, "/api/roles", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, env.Meta["count"])

	w, env = h.do(t, http.MethodGet, "/api/permissions", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 9, env.Meta["count"])

	w, _ = h.do(t, http.MethodDelete, "/api/roles/"+role.ID, h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodGet, "/api/roles/"+role.ID, h.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccountRoutes(t *testing.T) {
	h := newHarness(t)

	t.Run("check admin", func(t *testing.T) {
		w, _ := h.do(t, http.MethodGet, "/api/auth/check-admin", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w, env := h.do(t, http.MethodGet, "/api/auth/check-admin", h.admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"is_admin":true,"user_id":"`+h.admin.ID+`"}`, string(env.Data))

		w, env = h.do(t, http.MethodGet, "/api/auth/check-admin", h.reader, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"is_admin":false,"user_id":"`+h.reader.ID+`"}`, string(env.Data))
	})

	t.Run("register then login", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, "/api/auth/register", nil, map[string]any{"name": "New", "email": "new@example.com", "password": "secret1"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w, _ = h.do(t, http.MethodPost, "/api/login", nil, map[string]any{"email": "new@example.com", "password": "wrong!"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w, _ = h.do(t, http.MethodPost, "/api/login", nil, map[string]any{"email": "new@example.com", "password": "secret1"})
		require.Equal(t, http.StatusOK, w.Code)
		var names []string
		for _, c := range w.Result().Cookies() {
			names = append(names, c.Name)
		}
		assert.ElementsMatch(t, []string{helpers.AccessCookie, helpers.RefreshCookie}, names)
	})

	t.Run("me", func(t *testing.T) {
		w, env := h.do(t, http.MethodGet, "/api/me", h.reader, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var me struct {
			Permissions []string `json:"permissions"`
			IsAdmin     bool     `json:"is_admin"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &me))
		assert.Equal(t, []string{"user:read"}, me.Permissions)
		assert.False(t, me.IsAdmin)
	})

	t.Run("change password", func(t *testing.T) {
		w, _ := h.do(t, http.MethodPost, "/api/auth/change-password", h.reader, map[string]any{
			"current_password": "secret1", "new_password": "secret2", "confirm_password": "mismatch",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = h.do(t, http.MethodPost, "/api/auth/change-password", h.reader, map[string]any{
			"current_password": "nope!!", "new_password": "secret2", "confirm_password": "secret2",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = h.do(t, http.MethodPost, "/api/auth/change-password", h.reader, map[string]any{
			"current_password": "secret1", "new_password": "secret2", "confirm_password": "secret2",
		})
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = h.do(t, http.MethodPost, "/api/login", nil, map[string]any{"email": "reader@example.com", "password": "secret2"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	reg := router.NewRegistry(engine)
	reg.AddHealthCheck("always", func(context.Context) error { return nil })
	reg.RegisterAll()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","checks":{"always":"ok"}}`, w.Body.String())

	reg.AddHealthCheck("down", func(context.Context) error { return assert.AnError })
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDebugVarsRequireAdmin(t *testing.T) {
	h := newHarnessWith(t, &config.Config{DebugMetricsEnabled: true})

	w, _ := h.do(t, http.MethodGet, "/api/debug/vars", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(t, http.MethodGet, "/api/debug/vars", h.reader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	token, _, err := h.jwt.GenerateAccessToken(h.admin.ID, "sid")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	h.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var vars map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vars))
	assert.Contains(t, vars, "rbac_mutations")
	assert.Contains(t, vars, "rbac_denied")
}
