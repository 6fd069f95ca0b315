package catalog

import (
	"context"

	"github.com/google/uuid"
)

// MedicineFilter narrows FindAll results
type MedicineFilter struct {
	NameContains string
	Category     string
	BelowReorder bool
	Limit        int
	Offset       int
}

// MedicineRepository defines the interface for medicine persistence
type MedicineRepository interface {
	// Create creates a new medicine
	Create(ctx context.Context, medicine *Medicine) error

	// Update updates an existing medicine
	Update(ctx context.Context, medicine *Medicine) error

	// Upsert inserts the medicine or overwrites the existing row by ID
	Upsert(ctx context.Context, medicine *Medicine) error

	// Delete deletes a medicine by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a medicine by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Medicine, error)

	// FindByBarcode finds a medicine by barcode
	FindByBarcode(ctx context.Context, barcode string) (*Medicine, error)

	// FindAll returns medicines matching the filter
	FindAll(ctx context.Context, filter MedicineFilter) ([]*Medicine, error)

	// AdjustQuantity atomically adds delta to the stock quantity
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int64) error

	// CountByCategory returns the number of medicines per category
	CountByCategory(ctx context.Context) (map[string]int64, error)
}
