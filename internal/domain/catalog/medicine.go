package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Medicine represents a stocked pharmacy product. BatchNo is required and
// unique together with the name; cloud records that omit it are assigned a
// synthetic one during merge.
type Medicine struct {
	shared.BaseEntity
	Name         string
	GenericName  string
	BatchNo      string
	Barcode      string
	Category     string
	Manufacturer string
	SupplierID   *uuid.UUID
	BranchID     *uuid.UUID
	Quantity     int64
	ReorderLevel int64
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	ExpiryDate   *time.Time
}

// NewMedicine creates a new medicine with required fields
func NewMedicine(name, batchNo string, sellingPrice decimal.Decimal) (*Medicine, error) {
	name = strings.TrimSpace(name)
	batchNo = strings.TrimSpace(batchNo)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_MEDICINE_NAME", "Medicine name is required")
	}
	if batchNo == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NO", "Batch number is required")
	}
	if sellingPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	return &Medicine{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		BatchNo:      batchNo,
		SellingPrice: sellingPrice,
		CostPrice:    decimal.Zero,
	}, nil
}

// SyntheticBatchNo derives a deterministic batch number for a cloud record
// that arrived without one, so re-applying the same pull stays idempotent.
func SyntheticBatchNo(id uuid.UUID) string {
	return fmt.Sprintf("SYNC-%s", strings.ToUpper(id.String()[:8]))
}

// IsBelowReorderLevel returns true if stock has reached the reorder threshold
func (m *Medicine) IsBelowReorderLevel() bool {
	return m.Quantity <= m.ReorderLevel
}

// IsExpired returns true if the medicine has passed its expiry date
func (m *Medicine) IsExpired(now time.Time) bool {
	return m.ExpiryDate != nil && m.ExpiryDate.Before(now)
}
