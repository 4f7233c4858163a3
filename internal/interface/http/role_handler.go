package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/pkg/response"
)

type RoleHandler struct {
	Svc    *application.RoleService
	Logger *logrus.Logger
}

func NewRoleHandler(svc *application.RoleService, logger *logrus.Logger) *RoleHandler {
	return &RoleHandler{Svc: svc, Logger: logger}
}

type createRoleRequest struct {
	Name        string   `json:"name" binding:"required,min=2,max=50"`
	Description string   `json:"description" binding:"max=255"`
	Permissions []string `json:"permissions" binding:"unique,dive,permission"`
}

type updateRoleRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=2,max=50"`
	Description *string  `json:"description" binding:"omitempty,max=255"`
	Permissions []string `json:"permissions" binding:"omitempty,unique,dive,permission"`
}

func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.Svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentRoles(roles), "roles", response.CountMeta{Count: len(roles)})
}

func (h *RoleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentRole(r), "role", nil)
}

func (h *RoleHandler) Create(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	r, err := h.Svc.Create(c.Request.Context(), application.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, presentRole(r), "role created", nil)
}

func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	r, err := h.Svc.Update(c.Request.Context(), id, application.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, presentRole(r), "role updated", nil)
}

func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "role deleted", nil)
}

// Permissions lists every permission token a role may carry.
func (h *RoleHandler) Permissions(c *gin.Context) {
	all := entity.AllPermissions()
	response.Success(c, http.StatusOK, entity.NewPermissionSet(all...), "permissions", response.CountMeta{Count: len(all)})
}
