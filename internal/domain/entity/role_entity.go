package entity

import "time"

// Role represents an authorization role
// Many-to-many with User via user_roles
type Role struct {
	ID          string
	Name        string
	Description string
	Permissions PermissionSet
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserRole is a single (user, role) assignment. The pair is unique in storage.
type UserRole struct {
	UserID    string
	RoleID    string
	CreatedAt time.Time
}

// Names of the roles created by the seed command.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultRolePermissions maps the predefined roles to their permission sets.
func DefaultRolePermissions() map[string]PermissionSet {
	return map[string]PermissionSet{
		RoleAdmin: NewPermissionSet(
			PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete,
			PermRoleRead, PermRoleCreate, PermRoleUpdate, PermRoleDelete,
			PermSystemAdmin,
		),
		RoleUser: NewPermissionSet(PermUserRead),
	}
}

// DefaultRoleDescriptions holds the seed descriptions of the predefined roles.
var DefaultRoleDescriptions = map[string]string{
	RoleAdmin: "System administrator with every permission",
	RoleUser:  "Regular user with basic read access",
}
