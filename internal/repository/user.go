package repository

import (
	"context"

	"fleettrack/internal/domain"
)

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	// Create persists a new user. Returns ErrConflict when the email is
	// already registered.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ListByRole retrieves all users with the given role.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// Update updates name and email.
	Update(ctx context.Context, user *domain.User) error

	// Delete permanently removes a user.
	Delete(ctx context.Context, id string) error
}
