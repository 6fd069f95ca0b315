package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/domain/trade"
)

// GRNRepository implements trade.GRNRepository over the adapter
type GRNRepository struct {
	q Queryer
}

// NewGRNRepository creates a goods received note repository
func NewGRNRepository(q Queryer) *GRNRepository {
	return &GRNRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *GRNRepository) WithTx(tx Queryer) *GRNRepository {
	return &GRNRepository{q: tx}
}

// Create writes the GRN and its received lines. Callers run this inside
// Adapter.Transaction with the stock increments it implies.
func (r *GRNRepository) Create(ctx context.Context, grn *trade.GoodsReceivedNote) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecInsert,
		Table: "goods_received_notes",
		Values: map[string]any{
			"id":                BindID(grn.ID),
			"grn_no":            grn.GRNNo,
			"purchase_order_id": BindIDPtr(grn.PurchaseOrderID),
			"supplier_id":       BindIDPtr(grn.SupplierID),
			"branch_id":         BindIDPtr(grn.BranchID),
			"received_at":       BindTime(grn.ReceivedAt),
			"total":             BindDec(grn.Total),
			"created_at":        BindTime(grn.CreatedAt),
			"updated_at":        BindTime(grn.UpdatedAt),
		},
	})
	if err != nil {
		return err
	}
	for _, item := range grn.Items {
		_, err := r.q.Execute(ctx, ExecSpec{
			Kind:  ExecInsert,
			Table: "grn_items",
			Values: map[string]any{
				"id":          BindID(item.ID),
				"grn_id":      BindID(grn.ID),
				"medicine_id": BindID(item.MedicineID),
				"quantity":    item.Quantity,
				"unit_cost":   BindDec(item.UnitCost),
				"batch_no":    item.BatchNo,
				"expiry_date": BindTimePtr(item.ExpiryDate),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a GRN with its items by ID
func (r *GRNRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.GoodsReceivedNote, error) {
	rows, err := r.q.Query(ctx, QuerySpec{Table: "goods_received_notes", Where: Eq("id", BindID(id)), Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	grn := grnFromRow(rows[0])
	if err := r.loadItems(ctx, []*trade.GoodsReceivedNote{grn}); err != nil {
		return nil, err
	}
	return grn, nil
}

// FindAll returns all goods received notes newest first, items included
func (r *GRNRepository) FindAll(ctx context.Context) ([]*trade.GoodsReceivedNote, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "goods_received_notes",
		OrderBy: []Order{{Column: "received_at", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	grns := make([]*trade.GoodsReceivedNote, len(rows))
	for i, row := range rows {
		grns[i] = grnFromRow(row)
	}
	if err := r.loadItems(ctx, grns); err != nil {
		return nil, err
	}
	return grns, nil
}

func (r *GRNRepository) loadItems(ctx context.Context, grns []*trade.GoodsReceivedNote) error {
	if len(grns) == 0 {
		return nil
	}
	ids := make([]any, len(grns))
	byID := make(map[uuid.UUID]*trade.GoodsReceivedNote, len(grns))
	for i, g := range grns {
		ids[i] = BindID(g.ID)
		byID[g.ID] = g
	}
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "grn_items",
		Where:   In("grn_id", ids...),
		OrderBy: []Order{{Column: "id"}},
	})
	if err != nil {
		return err
	}
	for _, row := range rows {
		grnID := ID(row, "grn_id")
		grn, ok := byID[grnID]
		if !ok {
			continue
		}
		grn.Items = append(grn.Items, trade.GRNItem{
			ID:         ID(row, "id"),
			GRNID:      grnID,
			MedicineID: ID(row, "medicine_id"),
			Quantity:   I64(row, "quantity"),
			UnitCost:   Dec(row, "unit_cost"),
			BatchNo:    Str(row, "batch_no"),
			ExpiryDate: TimePtr(row, "expiry_date"),
		})
	}
	return nil
}

func grnFromRow(row Row) *trade.GoodsReceivedNote {
	return &trade.GoodsReceivedNote{
		BaseEntity: shared.BaseEntity{
			ID:        ID(row, "id"),
			CreatedAt: Time(row, "created_at"),
			UpdatedAt: Time(row, "updated_at"),
		},
		GRNNo:           Str(row, "grn_no"),
		PurchaseOrderID: IDPtr(row, "purchase_order_id"),
		SupplierID:      IDPtr(row, "supplier_id"),
		BranchID:        IDPtr(row, "branch_id"),
		ReceivedAt:      Time(row, "received_at"),
		Total:           Dec(row, "total"),
	}
}

// Ensure GRNRepository implements the domain interface
var _ trade.GRNRepository = (*GRNRepository)(nil)
