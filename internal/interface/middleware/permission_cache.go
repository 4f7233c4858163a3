package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
)

// PermissionCache attaches a per-request effective-permission memo to the request context.
func PermissionCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(application.WithPermissionCache(c.Request.Context()))
		c.Next()
	}
}
