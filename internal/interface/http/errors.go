package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	repo "github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
	"github.com/oksasatya/rbac-admin-panel/pkg/response"
	"github.com/oksasatya/rbac-admin-panel/pkg/validation"
)

// statusFor maps application errors onto HTTP status codes and public messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, application.ErrRoleNotFound):
		return http.StatusNotFound, "role not found"
	case errors.Is(err, application.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, application.ErrRoleNameTaken):
		return http.StatusConflict, "role name already exists"
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, application.ErrAccountDisabled):
		return http.StatusForbidden, "account is not active"
	case errors.Is(err, application.ErrWrongPassword):
		return http.StatusBadRequest, "current password is incorrect"
	case errors.Is(err, application.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid status"
	case errors.Is(err, helpers.ErrPasswordTooShort), errors.Is(err, helpers.ErrPasswordTooLong):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrUnknownPermission):
		return http.StatusBadRequest, "invalid payload"
	case errors.Is(err, repo.ErrUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(response.RequestIDKey),
		}).Error("request failed")
	}
	var details any
	if errors.Is(err, entity.ErrUnknownPermission) {
		details = validation.ToDetails(err)
	}
	response.Error[any](c, status, msg, details)
}

func badPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}
