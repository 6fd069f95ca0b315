package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// GoodsReceivedNote records stock received against a purchase order
type GoodsReceivedNote struct {
	shared.BaseEntity
	GRNNo           string
	PurchaseOrderID *uuid.UUID
	SupplierID      *uuid.UUID
	BranchID        *uuid.UUID
	ReceivedAt      time.Time
	Total           decimal.Decimal
	Items           []GRNItem
}

// GRNItem is a received line on a goods received note
type GRNItem struct {
	ID         uuid.UUID
	GRNID      uuid.UUID
	MedicineID uuid.UUID
	Quantity   int64
	UnitCost   decimal.Decimal
	BatchNo    string
	ExpiryDate *time.Time
}

// NewGoodsReceivedNote creates a new GRN with required fields
func NewGoodsReceivedNote(grnNo string) (*GoodsReceivedNote, error) {
	grnNo = strings.TrimSpace(grnNo)
	if grnNo == "" {
		return nil, shared.NewDomainError("INVALID_GRN_NO", "GRN number is required")
	}
	return &GoodsReceivedNote{
		BaseEntity: shared.NewBaseEntity(),
		GRNNo:      grnNo,
		ReceivedAt: time.Now(),
		Total:      decimal.Zero,
	}, nil
}

// AddItem appends a received line and updates the total
func (g *GoodsReceivedNote) AddItem(medicineID uuid.UUID, quantity int64, unitCost decimal.Decimal, batchNo string) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	g.Items = append(g.Items, GRNItem{
		ID:         uuid.New(),
		GRNID:      g.ID,
		MedicineID: medicineID,
		Quantity:   quantity,
		UnitCost:   unitCost,
		BatchNo:    batchNo,
	})
	g.Total = g.Total.Add(unitCost.Mul(decimal.NewFromInt(quantity)))
	return nil
}
