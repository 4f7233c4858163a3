package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/pkg/response"
)

// UserHandler serves the administrator's user management endpoints.
type UserHandler struct {
	Svc    *application.UserService
	Authz  *application.AuthzService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, authz *application.AuthzService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Authz: authz, Logger: logger}
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd,max=72"`
	Status   string `json:"status" binding:"omitempty,user_status"`
	RoleID   string `json:"role_id" binding:"omitempty,uuid"`
}

type updateUserRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=100"`
	Status *string `json:"status" binding:"omitempty,user_status"`
}

type assignRoleRequest struct {
	RoleID string `json:"role_id" binding:"required,uuid"`
}

// pathID returns the named path parameter if it is a UUID, otherwise it writes 400.
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid "+name, nil)
		return "", false
	}
	return id, true
}

func (h *UserHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := entity.UserStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))

	users, total, err := h.Svc.List(c.Request.Context(), application.ListUsersInput{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUsers(users), "users", response.PageMeta{Count: len(users), Total: total, Limit: limit, Offset: offset})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUser(u), "user", nil)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	u, err := h.Svc.Create(c.Request.Context(), application.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Status:   entity.UserStatus(req.Status),
		RoleID:   req.RoleID,
	})
	if err != nil {
		// an unknown role in the payload is a client error, not a missing resource
		if errors.Is(err, application.ErrRoleNotFound) {
			response.Error[any](c, http.StatusBadRequest, "role not found", map[string]string{"role_id": "does not exist"})
			return
		}
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, presentUser(u), "user created", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	in := application.UpdateUserInput{Name: req.Name}
	if req.Status != nil {
		st := entity.UserStatus(*req.Status)
		in.Status = &st
	}
	u, err := h.Svc.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentUser(u), "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id == c.GetString("userID") {
		response.Error[any](c, http.StatusBadRequest, "cannot delete your own account", nil)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "user deleted", nil)
}

// Permissions returns the effective permission set of the user in the path.
func (h *UserHandler) Permissions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.Svc.Get(c.Request.Context(), id); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	perms, err := h.Authz.EffectivePermissions(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user_id":     id,
		"permissions": perms,
		"is_admin":    perms.Has(entity.PermSystemAdmin),
	}, "permissions", nil)
}

func (h *UserHandler) AssignRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	if err := h.Authz.AssignRole(c.Request.Context(), id, req.RoleID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"user_id": id, "role_id": req.RoleID, "assigned": true}, "role assigned", nil)
}

func (h *UserHandler) RemoveRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	roleID, ok := pathID(c, "roleId")
	if !ok {
		return
	}
	if err := h.Authz.RemoveRole(c.Request.Context(), id, roleID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"user_id": id, "role_id": roleID, "removed": true}, "role removed", nil)
}

// Search looks users up by email or name through Elasticsearch.
func (h *UserHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	results, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("q", q).Warn("user search failed")
		}
		response.Error[any](c, http.StatusBadGateway, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, results, "search results", response.CountMeta{Count: len(results)})
}

