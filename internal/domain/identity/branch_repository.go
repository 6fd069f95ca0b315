package identity

import (
	"context"

	"github.com/google/uuid"
)

// BranchRepository defines the interface for branch persistence
type BranchRepository interface {
	// Create creates a new branch
	Create(ctx context.Context, branch *Branch) error

	// Update updates an existing branch
	Update(ctx context.Context, branch *Branch) error

	// Delete deletes a branch by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a branch by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)

	// FindByCode finds a branch by its unique code
	FindByCode(ctx context.Context, code string) (*Branch, error)

	// FindAll returns all branches
	FindAll(ctx context.Context) ([]*Branch, error)

	// Count returns the total number of branches
	Count(ctx context.Context) (int64, error)
}
