package domain

import (
	"context"
	"time"
)

// Role is a user's application role. Roles are assigned administratively
// (cmd/cli assign-role); users cannot change their own role.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleEmployee   Role = "employee"
	RoleManager    Role = "manager"
	RoleHR         Role = "hr"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUnassigned, RoleEmployee, RoleManager, RoleHR:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	ID         string // UUID
	ExternalID string // Unique subject ID at the external identity provider
	Email      string // Unique email address
	FullName   string
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	// Upsert inserts the user or, on external ID conflict, refreshes email and
	// full name while leaving an already-assigned role untouched.
	Upsert(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, id string, role Role) error
	List(ctx context.Context) ([]*User, error)
}
