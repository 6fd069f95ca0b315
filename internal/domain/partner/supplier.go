package partner

import (
	"strings"

	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Supplier represents a medicine supplier
type Supplier struct {
	shared.BaseEntity
	Name        string
	ContactName string
	Phone       string
	Email       string
	Address     string
	Balance     decimal.Decimal
}

// NewSupplier creates a new supplier with required fields
func NewSupplier(name string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name is required")
	}
	return &Supplier{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Balance:    decimal.Zero,
	}, nil
}
