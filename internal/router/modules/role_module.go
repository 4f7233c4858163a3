package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-admin-panel/internal/container"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	handlers "github.com/oksasatya/rbac-admin-panel/internal/interface/http"
	"github.com/oksasatya/rbac-admin-panel/internal/interface/middleware"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

// RoleModule wires /api/roles and /api/permissions.
type RoleModule struct {
	Handler *handlers.RoleHandler
	Authz   middleware.Authorizer
	JWT     *helpers.JWTManager
}

func NewRoleModule(h *handlers.RoleHandler, authz middleware.Authorizer, jwt *helpers.JWTManager) *RoleModule {
	return &RoleModule{Handler: h, Authz: authz, JWT: jwt}
}

func (m *RoleModule) Register(rg *gin.RouterGroup) {
	logger := container.GetLogger()
	need := func(p entity.Permission) gin.HandlerFunc {
		return middleware.RequirePermission(m.Authz, logger, p)
	}
	authn := middleware.Auth(container.GetRedis(), m.JWT)

	roles := rg.Group("/roles", authn)
	{
		roles.GET("", need(entity.PermRoleRead), m.Handler.List)
		roles.POST("", need(entity.PermRoleCreate), m.Handler.Create)
		roles.GET("/:id", need(entity.PermRoleRead), m.Handler.Get)
		roles.PUT("/:id", need(entity.PermRoleUpdate), m.Handler.Update)
		roles.DELETE("/:id", need(entity.PermRoleDelete), m.Handler.Delete)
	}
	rg.GET("/permissions", authn, need(entity.PermRoleRead), m.Handler.Permissions)
}
