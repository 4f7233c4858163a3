package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-admin-panel/internal/container"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	handlers "github.com/oksasatya/rbac-admin-panel/internal/interface/http"
	"github.com/oksasatya/rbac-admin-panel/internal/interface/middleware"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

// UserModule wires the user administration routes under /api/users.
// Every route requires a session and the matching user:* or role:update permission.
type UserModule struct {
	Handler *handlers.UserHandler
	Authz   middleware.Authorizer
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, authz middleware.Authorizer, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Authz: authz, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	logger := container.GetLogger()
	need := func(p entity.Permission) gin.HandlerFunc {
		return middleware.RequirePermission(m.Authz, logger, p)
	}

	users := rg.Group("/users")
	users.Use(
		middleware.Auth(rdb, m.JWT),
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByUserID(), middleware.AllowPermission(m.Authz, entity.PermSystemAdmin)),
	)
	{
		users.GET("", need(entity.PermUserRead), m.Handler.List)
		users.GET("/search", need(entity.PermUserRead), m.Handler.Search)
		users.POST("", need(entity.PermUserCreate), m.Handler.Create)
		users.GET("/:id", need(entity.PermUserRead), m.Handler.Get)
		users.PUT("/:id", need(entity.PermUserUpdate), m.Handler.Update)
		users.DELETE("/:id", need(entity.PermUserDelete), m.Handler.Delete)
		users.GET("/:id/permissions", need(entity.PermUserRead), m.Handler.Permissions)
		users.POST("/:id/roles", need(entity.PermRoleUpdate), m.Handler.AssignRole)
		users.DELETE("/:id/roles/:roleId", need(entity.PermRoleUpdate), m.Handler.RemoveRole)
	}
}
