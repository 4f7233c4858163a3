package middleware

import (
	"net"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
)

// AllowPrivateIP bypasses rate limiting for loopback and RFC 1918 callers,
// e.g. an internal metrics scraper.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// AllowPermission bypasses rate limiting for signed-in users holding perm.
// It must run after Auth. Lookup errors count as "not allowed".
func AllowPermission(authz Authorizer, perm entity.Permission) AllowFunc {
	return func(c *gin.Context) bool {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" || authz == nil {
			return false
		}
		granted, err := authz.EffectivePermissions(c.Request.Context(), uid)
		return err == nil && granted.Has(perm)
	}
}
