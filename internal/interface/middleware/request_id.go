package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/rbac-admin-panel/pkg/response"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id that is echoed in the
// response header and in the envelope. A client-supplied X-Request-ID is kept
// only when it is a UUID so log correlation ids stay uniform.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
