package trade

import (
	"context"

	"github.com/google/uuid"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// Create creates a sale and its items
	Create(ctx context.Context, sale *Sale) error

	// FindByID finds a sale with its items by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByInvoiceNo finds a sale by invoice number
	FindByInvoiceNo(ctx context.Context, invoiceNo string) (*Sale, error)

	// FindAll returns all sales, newest first
	FindAll(ctx context.Context, limit, offset int) ([]*Sale, error)
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// Create creates a purchase order and its items
	Create(ctx context.Context, order *PurchaseOrder) error

	// Update updates an existing purchase order
	Update(ctx context.Context, order *PurchaseOrder) error

	// FindByID finds a purchase order with its items by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindAll returns all purchase orders
	FindAll(ctx context.Context) ([]*PurchaseOrder, error)
}

// GRNRepository defines the interface for goods received note persistence
type GRNRepository interface {
	// Create creates a GRN and its items
	Create(ctx context.Context, grn *GoodsReceivedNote) error

	// FindByID finds a GRN with its items by ID
	FindByID(ctx context.Context, id uuid.UUID) (*GoodsReceivedNote, error)

	// FindAll returns all goods received notes
	FindAll(ctx context.Context) ([]*GoodsReceivedNote, error)
}
