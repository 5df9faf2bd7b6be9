package domain

import "time"

// Role determines an actor's capabilities.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleDriver  Role = "driver"
)

// Valid reports whether the role is one the system knows.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleDriver:
		return true
	}
	return false
}

// Actor is the authenticated identity behind a request. It is resolved by
// the identity collaborator and threaded explicitly into every core call.
type Actor struct {
	ID   string
	Role Role
}

// User represents an account in the system. Drivers are users with
// RoleDriver; the password is stored only as a bcrypt hash.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
