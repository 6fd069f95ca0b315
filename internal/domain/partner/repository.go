package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// Create creates a new customer
	Create(ctx context.Context, customer *Customer) error

	// Update updates an existing customer
	Update(ctx context.Context, customer *Customer) error

	// Upsert inserts the customer or overwrites the existing row by ID
	Upsert(ctx context.Context, customer *Customer) error

	// Delete deletes a customer by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a customer by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByPhone finds a customer by phone number
	FindByPhone(ctx context.Context, phone string) (*Customer, error)

	// FindAll returns all customers
	FindAll(ctx context.Context) ([]*Customer, error)
}

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	// Create creates a new supplier
	Create(ctx context.Context, supplier *Supplier) error

	// Update updates an existing supplier
	Update(ctx context.Context, supplier *Supplier) error

	// Upsert inserts the supplier or overwrites the existing row by ID
	Upsert(ctx context.Context, supplier *Supplier) error

	// Delete deletes a supplier by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a supplier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindAll returns all suppliers
	FindAll(ctx context.Context) ([]*Supplier, error)
}
