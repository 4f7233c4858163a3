package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

// accessToken reads the access_token cookie, falling back to an
// "Authorization: Bearer" header for non-browser clients.
func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessCookie); err == nil && token != "" {
		return token
	}
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
