package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/partner"
)

// LoyaltyRepository implements partner.LoyaltyRepository over the adapter
type LoyaltyRepository struct {
	q Queryer
}

// NewLoyaltyRepository creates a loyalty transaction repository
func NewLoyaltyRepository(q Queryer) *LoyaltyRepository {
	return &LoyaltyRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *LoyaltyRepository) WithTx(tx Queryer) *LoyaltyRepository {
	return &LoyaltyRepository{q: tx}
}

// Create records a loyalty movement
func (r *LoyaltyRepository) Create(ctx context.Context, tx *partner.LoyaltyTransaction) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecInsert,
		Table: "loyalty_transactions",
		Values: map[string]any{
			"id":          BindID(tx.ID),
			"customer_id": BindID(tx.CustomerID),
			"sale_id":     BindIDPtr(tx.SaleID),
			"type":        string(tx.Type),
			"points":      tx.Points,
			"amount":      BindDec(tx.Amount),
			"created_at":  BindTime(tx.CreatedAt),
		},
	})
	return err
}

// FindByCustomer returns a customer's movements, newest first
func (r *LoyaltyRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*partner.LoyaltyTransaction, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "loyalty_transactions",
		Where:   Eq("customer_id", BindID(customerID)),
		OrderBy: []Order{{Column: "created_at", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	txs := make([]*partner.LoyaltyTransaction, len(rows))
	for i, row := range rows {
		txs[i] = &partner.LoyaltyTransaction{
			ID:         ID(row, "id"),
			CustomerID: ID(row, "customer_id"),
			SaleID:     IDPtr(row, "sale_id"),
			Type:       partner.LoyaltyTransactionType(Str(row, "type")),
			Points:     I64(row, "points"),
			Amount:     Dec(row, "amount"),
			CreatedAt:  Time(row, "created_at"),
		}
	}
	return txs, nil
}

// Ensure LoyaltyRepository implements the domain interface
var _ partner.LoyaltyRepository = (*LoyaltyRepository)(nil)
