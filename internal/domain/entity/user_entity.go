package entity

import (
	"time"
)

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusBanned   UserStatus = "BANNED"
)

// Valid reports whether s is one of the known statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusBanned:
		return true
	}
	return false
}

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	Status    UserStatus
	Roles     []Role // populated only by queries that join user_roles
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanLogin is false for banned and inactive accounts.
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive
}
