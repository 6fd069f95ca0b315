package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/domain/trade"
)

// PurchaseOrderRepository implements trade.PurchaseOrderRepository over the adapter
type PurchaseOrderRepository struct {
	q Queryer
}

// NewPurchaseOrderRepository creates a purchase order repository
func NewPurchaseOrderRepository(q Queryer) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *PurchaseOrderRepository) WithTx(tx Queryer) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{q: tx}
}

// Create writes the purchase order and its line items
func (r *PurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:   ExecInsert,
		Table:  "purchase_orders",
		Values: purchaseOrderValues(order),
	})
	if err != nil {
		return err
	}
	for _, item := range order.Items {
		_, err := r.q.Execute(ctx, ExecSpec{
			Kind:  ExecInsert,
			Table: "purchase_order_items",
			Values: map[string]any{
				"id":                BindID(item.ID),
				"purchase_order_id": BindID(order.ID),
				"medicine_id":       BindID(item.MedicineID),
				"quantity":          item.Quantity,
				"unit_cost":         BindDec(item.UnitCost),
				"total":             BindDec(item.Total),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Update updates the purchase order header. Line items are immutable
// once the order leaves draft, so only the header row is touched.
func (r *PurchaseOrderRepository) Update(ctx context.Context, order *trade.PurchaseOrder) error {
	order.UpdatedAt = time.Now()
	values := purchaseOrderValues(order)
	delete(values, "id")
	delete(values, "created_at")
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "purchase_orders",
		Set:   values,
		Where: Eq("id", BindID(order.ID)),
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a purchase order with its items by ID
func (r *PurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	rows, err := r.q.Query(ctx, QuerySpec{Table: "purchase_orders", Where: Eq("id", BindID(id)), Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	order := purchaseOrderFromRow(rows[0])
	if err := r.loadItems(ctx, []*trade.PurchaseOrder{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// FindAll returns all purchase orders newest first, items included
func (r *PurchaseOrderRepository) FindAll(ctx context.Context) ([]*trade.PurchaseOrder, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "purchase_orders",
		OrderBy: []Order{{Column: "created_at", Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	orders := make([]*trade.PurchaseOrder, len(rows))
	for i, row := range rows {
		orders[i] = purchaseOrderFromRow(row)
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PurchaseOrderRepository) loadItems(ctx context.Context, orders []*trade.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]any, len(orders))
	byID := make(map[uuid.UUID]*trade.PurchaseOrder, len(orders))
	for i, o := range orders {
		ids[i] = BindID(o.ID)
		byID[o.ID] = o
	}
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "purchase_order_items",
		Where:   In("purchase_order_id", ids...),
		OrderBy: []Order{{Column: "id"}},
	})
	if err != nil {
		return err
	}
	for _, row := range rows {
		orderID := ID(row, "purchase_order_id")
		order, ok := byID[orderID]
		if !ok {
			continue
		}
		order.Items = append(order.Items, trade.PurchaseOrderItem{
			ID:              ID(row, "id"),
			PurchaseOrderID: orderID,
			MedicineID:      ID(row, "medicine_id"),
			Quantity:        I64(row, "quantity"),
			UnitCost:        Dec(row, "unit_cost"),
			Total:           Dec(row, "total"),
		})
	}
	return nil
}

func purchaseOrderValues(o *trade.PurchaseOrder) map[string]any {
	return map[string]any{
		"id":          BindID(o.ID),
		"order_no":    o.OrderNo,
		"supplier_id": BindIDPtr(o.SupplierID),
		"branch_id":   BindIDPtr(o.BranchID),
		"status":      string(o.Status),
		"total":       BindDec(o.Total),
		"created_at":  BindTime(o.CreatedAt),
		"updated_at":  BindTime(o.UpdatedAt),
	}
}

func purchaseOrderFromRow(row Row) *trade.PurchaseOrder {
	return &trade.PurchaseOrder{
		BaseEntity: shared.BaseEntity{
			ID:        ID(row, "id"),
			CreatedAt: Time(row, "created_at"),
			UpdatedAt: Time(row, "updated_at"),
		},
		OrderNo:    Str(row, "order_no"),
		SupplierID: IDPtr(row, "supplier_id"),
		BranchID:   IDPtr(row, "branch_id"),
		Status:     trade.PurchaseOrderStatus(Str(row, "status")),
		Total:      Dec(row, "total"),
	}
}

// Ensure PurchaseOrderRepository implements the domain interface
var _ trade.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)
