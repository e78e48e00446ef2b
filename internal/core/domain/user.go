package domain

import (
	"time"

	"github.com/eduka/campus-auth/pkg/roles"
)

// User models an account in the campus user store. ID is the hex form of the
// store's ObjectID.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         roles.Role `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Identity pairs a user's id and role, as embedded in an access token.
type Identity struct {
	UserID   string
	Username string
	Role     roles.Role
	TokenID  string
	Expires  time.Time
}
