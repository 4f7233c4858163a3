package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-admin-panel/internal/container"
	"github.com/oksasatya/rbac-admin-panel/internal/interface/middleware"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

// DebugModule serves expvar (runtime stats plus the rbac_mutations and
// rbac_denied counters) to administrators only.
type DebugModule struct {
	Authz middleware.Authorizer
	JWT   *helpers.JWTManager
}

func NewDebugModule(authz middleware.Authorizer, jwt *helpers.JWTManager) *DebugModule {
	return &DebugModule{Authz: authz, JWT: jwt}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	rl := middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars",
		rl,
		middleware.Auth(rdb, m.JWT),
		middleware.RequireAdmin(m.Authz, container.GetLogger()),
		gin.WrapH(expvar.Handler()),
	)
}
