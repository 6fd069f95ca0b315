package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a sale was paid
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentCredit PaymentMethod = "credit"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusRefunded  SaleStatus = "refunded"
)

// Sale represents a completed point-of-sale transaction
type Sale struct {
	shared.BaseEntity
	InvoiceNo     string
	BranchID      *uuid.UUID
	UserID        *uuid.UUID
	CustomerID    *uuid.UUID
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	Status        SaleStatus
	SoldAt        time.Time
	Items         []SaleItem
}

// SaleItem is a line on a sale
type SaleItem struct {
	ID         uuid.UUID
	SaleID     uuid.UUID
	MedicineID uuid.UUID
	Quantity   int64
	UnitPrice  decimal.Decimal
	Total      decimal.Decimal
}

// NewSale creates a new sale with required fields
func NewSale(invoiceNo string, method PaymentMethod) (*Sale, error) {
	invoiceNo = strings.TrimSpace(invoiceNo)
	if invoiceNo == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NO", "Invoice number is required")
	}
	return &Sale{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceNo:     invoiceNo,
		Subtotal:      decimal.Zero,
		Discount:      decimal.Zero,
		Tax:           decimal.Zero,
		Total:         decimal.Zero,
		PaymentMethod: method,
		Status:        SaleStatusCompleted,
		SoldAt:        time.Now(),
	}, nil
}

// AddItem appends a line and updates the totals
func (s *Sale) AddItem(medicineID uuid.UUID, quantity int64, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	lineTotal := unitPrice.Mul(decimal.NewFromInt(quantity))
	s.Items = append(s.Items, SaleItem{
		ID:         uuid.New(),
		SaleID:     s.ID,
		MedicineID: medicineID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Total:      lineTotal,
	})
	s.Subtotal = s.Subtotal.Add(lineTotal)
	s.Total = s.Subtotal.Sub(s.Discount).Add(s.Tax)
	return nil
}
