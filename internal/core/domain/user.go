package domain

import (
	"errors"
	"time"
)

// Roles form a closed set. Anything else is rejected at registration time
// and again by the users collection schema (defence in depth).
const (
	RoleAdmin   = "admin"
	RoleShipper = "shipper"
	RoleCarrier = "carrier"
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleShipper, RoleCarrier:
		return true
	}
	return false
}

var (
	ErrInvalidRole        = errors.New("invalid role")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// User models an authenticated actor in the system. PasswordHash never
// leaves the trust boundary: it is excluded from every JSON rendering.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
