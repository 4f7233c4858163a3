package handlers

import (
	"time"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
)

type roleSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userView struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Roles     []roleSummary `json:"roles"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type roleView struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Permissions entity.PermissionSet `json:"permissions"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func presentUser(u *entity.User) userView {
	roles := make([]roleSummary, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, roleSummary{ID: r.ID, Name: r.Name})
	}
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Status:    string(u.Status),
		Roles:     roles,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func presentUsers(us []*entity.User) []userView {
	out := make([]userView, 0, len(us))
	for _, u := range us {
		out = append(out, presentUser(u))
	}
	return out
}

func presentRole(r *entity.Role) roleView {
	perms := r.Permissions
	if perms == nil {
		perms = entity.NewPermissionSet()
	}
	return roleView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func presentRoles(rs []*entity.Role) []roleView {
	out := make([]roleView, 0, len(rs))
	for _, r := range rs {
		out = append(out, presentRole(r))
	}
	return out
}
