package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltyTransactionType distinguishes earning from redeeming
type LoyaltyTransactionType string

const (
	LoyaltyEarn   LoyaltyTransactionType = "earn"
	LoyaltyRedeem LoyaltyTransactionType = "redeem"
)

// LoyaltyTransaction records one loyalty or credit movement on a
// customer account, usually written alongside a sale.
type LoyaltyTransaction struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	SaleID     *uuid.UUID
	Type       LoyaltyTransactionType
	Points     int64
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// NewLoyaltyTransaction creates a loyalty movement
func NewLoyaltyTransaction(customerID uuid.UUID, saleID *uuid.UUID, txType LoyaltyTransactionType, points int64, amount decimal.Decimal) *LoyaltyTransaction {
	return &LoyaltyTransaction{
		ID:         uuid.New(),
		CustomerID: customerID,
		SaleID:     saleID,
		Type:       txType,
		Points:     points,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}
}

// LoyaltyRepository defines the interface for loyalty transaction persistence
type LoyaltyRepository interface {
	// Create records a loyalty movement
	Create(ctx context.Context, tx *LoyaltyTransaction) error

	// FindByCustomer returns a customer's movements, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*LoyaltyTransaction, error)
}
