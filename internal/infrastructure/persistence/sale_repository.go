package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/domain/trade"
)

// SaleRepository implements trade.SaleRepository over the adapter
type SaleRepository struct {
	q Queryer
}

// NewSaleRepository creates a sale repository
func NewSaleRepository(q Queryer) *SaleRepository {
	return &SaleRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *SaleRepository) WithTx(tx Queryer) *SaleRepository {
	return &SaleRepository{q: tx}
}

// Create writes the sale and its line items. Callers run this inside
// Adapter.Transaction together with the stock adjustment and the outbox
// append so a sale is recorded atomically or not at all.
func (r *SaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecInsert,
		Table: "sales",
		Values: map[string]any{
			"id":             BindID(sale.ID),
			"invoice_no":     sale.InvoiceNo,
			"branch_id":      BindIDPtr(sale.BranchID),
			"user_id":        BindIDPtr(sale.UserID),
			"customer_id":    BindIDPtr(sale.CustomerID),
			"subtotal":       BindDec(sale.Subtotal),
			"discount":       BindDec(sale.Discount),
			"tax":            BindDec(sale.Tax),
			"total":          BindDec(sale.Total),
			"payment_method": string(sale.PaymentMethod),
			"status":         string(sale.Status),
			"sold_at":        BindTime(sale.SoldAt),
			"created_at":     BindTime(sale.CreatedAt),
			"updated_at":     BindTime(sale.UpdatedAt),
		},
	})
	if err != nil {
		return err
	}
	for _, item := range sale.Items {
		_, err := r.q.Execute(ctx, ExecSpec{
			Kind:  ExecInsert,
			Table: "sale_items",
			Values: map[string]any{
				"id":          BindID(item.ID),
				"sale_id":     BindID(sale.ID),
				"medicine_id": BindID(item.MedicineID),
				"quantity":    item.Quantity,
				"unit_price":  BindDec(item.UnitPrice),
				"total":       BindDec(item.Total),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds a sale with its items by ID
func (r *SaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.findOne(ctx, Eq("id", BindID(id)))
}

// FindByInvoiceNo finds a sale with its items by invoice number
func (r *SaleRepository) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*trade.Sale, error) {
	return r.findOne(ctx, Eq("invoice_no", invoiceNo))
}

// FindAll returns sales newest first, items included
func (r *SaleRepository) FindAll(ctx context.Context, limit, offset int) ([]*trade.Sale, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "sales",
		OrderBy: []Order{{Column: "sold_at", Desc: true}},
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, err
	}
	sales := make([]*trade.Sale, len(rows))
	for i, row := range rows {
		sales[i] = saleFromRow(row)
	}
	if err := r.loadItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *SaleRepository) findOne(ctx context.Context, where Predicate) (*trade.Sale, error) {
	rows, err := r.q.Query(ctx, QuerySpec{Table: "sales", Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	sale := saleFromRow(rows[0])
	if err := r.loadItems(ctx, []*trade.Sale{sale}); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *SaleRepository) loadItems(ctx context.Context, sales []*trade.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]any, len(sales))
	byID := make(map[uuid.UUID]*trade.Sale, len(sales))
	for i, s := range sales {
		ids[i] = BindID(s.ID)
		byID[s.ID] = s
	}
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "sale_items",
		Where:   In("sale_id", ids...),
		OrderBy: []Order{{Column: "id"}},
	})
	if err != nil {
		return err
	}
	for _, row := range rows {
		saleID := ID(row, "sale_id")
		sale, ok := byID[saleID]
		if !ok {
			continue
		}
		sale.Items = append(sale.Items, trade.SaleItem{
			ID:         ID(row, "id"),
			SaleID:     saleID,
			MedicineID: ID(row, "medicine_id"),
			Quantity:   I64(row, "quantity"),
			UnitPrice:  Dec(row, "unit_price"),
			Total:      Dec(row, "total"),
		})
	}
	return nil
}

func saleFromRow(row Row) *trade.Sale {
	return &trade.Sale{
		BaseEntity: shared.BaseEntity{
			ID:        ID(row, "id"),
			CreatedAt: Time(row, "created_at"),
			UpdatedAt: Time(row, "updated_at"),
		},
		InvoiceNo:     Str(row, "invoice_no"),
		BranchID:      IDPtr(row, "branch_id"),
		UserID:        IDPtr(row, "user_id"),
		CustomerID:    IDPtr(row, "customer_id"),
		Subtotal:      Dec(row, "subtotal"),
		Discount:      Dec(row, "discount"),
		Tax:           Dec(row, "tax"),
		Total:         Dec(row, "total"),
		PaymentMethod: trade.PaymentMethod(Str(row, "payment_method")),
		Status:        trade.SaleStatus(Str(row, "status")),
		SoldAt:        Time(row, "sold_at"),
	}
}

// Ensure SaleRepository implements the domain interface
var _ trade.SaleRepository = (*SaleRepository)(nil)
