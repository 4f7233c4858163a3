package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRoleNameTaken      = errors.New("role name already exists")
	ErrAccountDisabled    = errors.New("account is not active")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidStatus      = errors.New("invalid user status")
)
