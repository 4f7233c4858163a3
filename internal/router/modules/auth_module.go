package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-admin-panel/internal/container"
	handlers "github.com/oksasatya/rbac-admin-panel/internal/interface/http"
	"github.com/oksasatya/rbac-admin-panel/internal/interface/middleware"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

// AuthModule wires sign-in and self-service routes.
// Public: POST /api/auth/register, POST /api/login, POST /api/refresh
// Protected: POST /api/logout, GET /api/me, POST /api/auth/change-password, GET /api/auth/check-admin
type AuthModule struct {
	Handler *handlers.AuthHandler
	Authz   middleware.Authorizer
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, authz middleware.Authorizer, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Authz: authz, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	registerLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/me", m.Handler.Me)
		auth.POST("/auth/change-password", middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByUserID(), nil), m.Handler.ChangePassword)
		auth.GET("/auth/check-admin", m.Handler.CheckAdmin)
	}
}
