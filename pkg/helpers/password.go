package helpers

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength matches the "pwd" validation alias.
const MinPasswordLength = 6

var (
	ErrPasswordTooShort = errors.New("password too short")
	// bcrypt ignores everything past 72 bytes
	ErrPasswordTooLong = errors.New("password longer than 72 bytes")
)

// PasswordCost is the bcrypt work factor used by HashPassword.
var PasswordCost = bcrypt.DefaultCost

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	switch {
	case len(plain) < MinPasswordLength:
		return "", ErrPasswordTooShort
	case len(plain) > 72:
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
