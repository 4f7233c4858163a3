package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
	"github.com/oksasatya/rbac-admin-panel/pkg/response"
)

// Context keys set by Auth.
const (
	CtxUserIDKey    = "userID"
	CtxUserNameKey  = "userName"
	CtxUserEmailKey = "userEmail"
)

// Auth validates the access token and ensures an active session exists in Redis
// whose sid matches the token. On success the user id is stored in the Gin
// context and recorded as the actor on the request context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), helpers.SessionKey(claims.UserID)).Result()
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				response.Abort(c, http.StatusUnauthorized, "session not found", nil)
				return
			}
			c.Set(CtxUserNameKey, data["name"])
			c.Set(CtxUserEmailKey, data["email"])
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(application.WithActor(c.Request.Context(), claims.UserID))
		c.Next()
	}
}
