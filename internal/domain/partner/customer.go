package partner

import (
	"strings"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Customer represents a pharmacy customer.
//
// LoyaltyPoints and CreditBalance accrue locally between syncs but are
// still overwritten by the cloud value on pull (last-write-wins). Known
// limitation pending a field-level merge decision.
type Customer struct {
	shared.BaseEntity
	Name          string
	Phone         string
	Email         string
	Address       string
	BranchID      *uuid.UUID
	LoyaltyPoints int64
	CreditBalance decimal.Decimal
}

// NewCustomer creates a new customer with required fields
func NewCustomer(name, phone string) (*Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name is required")
	}
	return &Customer{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		Phone:         phone,
		CreditBalance: decimal.Zero,
	}, nil
}

// AddLoyaltyPoints accrues loyalty points for a sale
func (c *Customer) AddLoyaltyPoints(points int64) {
	if points > 0 {
		c.LoyaltyPoints += points
	}
}
