package trade

import (
	"strings"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the lifecycle of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft    PurchaseOrderStatus = "draft"
	PurchaseOrderStatusOrdered  PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusReceived PurchaseOrderStatus = "received"
	PurchaseOrderStatusClosed   PurchaseOrderStatus = "closed"
)

// PurchaseOrder represents an order placed with a supplier
type PurchaseOrder struct {
	shared.BaseEntity
	OrderNo    string
	SupplierID *uuid.UUID
	BranchID   *uuid.UUID
	Status     PurchaseOrderStatus
	Total      decimal.Decimal
	Items      []PurchaseOrderItem
}

// PurchaseOrderItem is a line on a purchase order
type PurchaseOrderItem struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	MedicineID      uuid.UUID
	Quantity        int64
	UnitCost        decimal.Decimal
	Total           decimal.Decimal
}

// NewPurchaseOrder creates a new purchase order with required fields
func NewPurchaseOrder(orderNo string) (*PurchaseOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NO", "Order number is required")
	}
	return &PurchaseOrder{
		BaseEntity: shared.NewBaseEntity(),
		OrderNo:    orderNo,
		Status:     PurchaseOrderStatusDraft,
		Total:      decimal.Zero,
	}, nil
}

// AddItem appends a line and updates the total
func (p *PurchaseOrder) AddItem(medicineID uuid.UUID, quantity int64, unitCost decimal.Decimal) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	lineTotal := unitCost.Mul(decimal.NewFromInt(quantity))
	p.Items = append(p.Items, PurchaseOrderItem{
		ID:              uuid.New(),
		PurchaseOrderID: p.ID,
		MedicineID:      medicineID,
		Quantity:        quantity,
		UnitCost:        unitCost,
		Total:           lineTotal,
	})
	p.Total = p.Total.Add(lineTotal)
	return nil
}
