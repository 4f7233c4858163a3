package middleware

import (
	"context"
	"errors"
	"expvar"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
	"github.com/oksasatya/rbac-admin-panel/pkg/response"
)

// DeniedCount counts requests rejected with 403.
var DeniedCount = expvar.NewInt("rbac_denied")

// Authorizer is the subset of application.AuthzService used by route guards.
type Authorizer interface {
	EffectivePermissions(ctx context.Context, userID string) (entity.PermissionSet, error)
}

// RequirePermission lets the request through only if the signed-in user holds perm.
// No user → 401, missing permission → 403, storage failure → 503/500.
func RequirePermission(authz Authorizer, logger *logrus.Logger, perm entity.Permission) gin.HandlerFunc {
	return RequireAll(authz, logger, perm)
}

// RequireAdmin gates a route on system:admin.
func RequireAdmin(authz Authorizer, logger *logrus.Logger) gin.HandlerFunc {
	return RequireAll(authz, logger, entity.PermSystemAdmin)
}

// RequireAll ensures the current user has all required permissions.
func RequireAll(authz Authorizer, logger *logrus.Logger, perms ...entity.Permission) gin.HandlerFunc {
	return guard(authz, logger, func(granted entity.PermissionSet) bool {
		for _, p := range perms {
			if !granted.Has(p) {
				return false
			}
		}
		return true
	})
}

// RequireAny ensures the current user has at least one of the required permissions.
func RequireAny(authz Authorizer, logger *logrus.Logger, perms ...entity.Permission) gin.HandlerFunc {
	return guard(authz, logger, func(granted entity.PermissionSet) bool {
		if len(perms) == 0 {
			return true
		}
		for _, p := range perms {
			if granted.Has(p) {
				return true
			}
		}
		return false
	})
}

func guard(authz Authorizer, logger *logrus.Logger, allowed func(entity.PermissionSet) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			response.Abort(c, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		granted, err := authz.EffectivePermissions(c.Request.Context(), uid)
		if err != nil {
			if logger != nil {
				logger.WithError(err).WithField("user_id", uid).Error("permission check failed")
			}
			status := http.StatusInternalServerError
			if errors.Is(err, repository.ErrUnavailable) {
				status = http.StatusServiceUnavailable
			}
			response.Abort(c, status, "permission check failed", nil)
			return
		}
		if !allowed(granted) {
			DeniedCount.Add(1)
			response.Abort(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}
