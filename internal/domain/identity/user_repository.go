package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// UpdateProfile updates the cloud-replicated fields only, leaving the
	// password hash untouched
	UpdateProfile(ctx context.Context, user *User) error

	// Delete deletes a user by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindAll returns all users
	FindAll(ctx context.Context) ([]*User, error)

	// CountByRole returns the number of users with the given role
	CountByRole(ctx context.Context, role UserRole) (int64, error)
}
