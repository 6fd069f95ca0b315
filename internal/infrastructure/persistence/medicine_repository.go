package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/catalog"
	"github.com/meditrack/backend/internal/domain/shared"
)

// MedicineRepository implements catalog.MedicineRepository over the adapter
type MedicineRepository struct {
	q Queryer
}

// NewMedicineRepository creates a medicine repository
func NewMedicineRepository(q Queryer) *MedicineRepository {
	return &MedicineRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *MedicineRepository) WithTx(tx Queryer) *MedicineRepository {
	return &MedicineRepository{q: tx}
}

// Create creates a new medicine
func (r *MedicineRepository) Create(ctx context.Context, medicine *catalog.Medicine) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:   ExecInsert,
		Table:  "medicines",
		Values: medicineValues(medicine),
	})
	return err
}

// Update updates an existing medicine
func (r *MedicineRepository) Update(ctx context.Context, medicine *catalog.Medicine) error {
	medicine.UpdatedAt = time.Now()
	values := medicineValues(medicine)
	delete(values, "id")
	delete(values, "created_at")
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "medicines",
		Set:   values,
		Where: Eq("id", BindID(medicine.ID)),
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Upsert inserts the medicine or overwrites the existing row by ID.
// Update-then-insert keeps the primitive idempotent on both backends.
func (r *MedicineRepository) Upsert(ctx context.Context, medicine *catalog.Medicine) error {
	err := r.Update(ctx, medicine)
	if err == shared.ErrNotFound {
		return r.Create(ctx, medicine)
	}
	return err
}

// Delete deletes a medicine by ID
func (r *MedicineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecDelete,
		Table: "medicines",
		Where: Eq("id", BindID(id)),
	})
	return err
}

// FindByID finds a medicine by ID
func (r *MedicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	return r.findOne(ctx, Eq("id", BindID(id)))
}

// FindByBarcode finds a medicine by barcode
func (r *MedicineRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Medicine, error) {
	return r.findOne(ctx, Eq("barcode", barcode))
}

// FindAll returns medicines matching the filter, ordered by name
func (r *MedicineRepository) FindAll(ctx context.Context, filter catalog.MedicineFilter) ([]*catalog.Medicine, error) {
	var preds []Predicate
	if filter.NameContains != "" {
		preds = append(preds, Contains("name", filter.NameContains))
	}
	if filter.Category != "" {
		preds = append(preds, Eq("category", filter.Category))
	}
	if filter.BelowReorder {
		preds = append(preds, Lte("quantity", Col("reorder_level")))
	}
	spec := QuerySpec{
		Table:   "medicines",
		OrderBy: []Order{{Column: "name"}},
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}
	if len(preds) > 0 {
		spec.Where = And(preds...)
	}
	rows, err := r.q.Query(ctx, spec)
	if err != nil {
		return nil, err
	}
	medicines := make([]*catalog.Medicine, len(rows))
	for i, row := range rows {
		medicines[i] = medicineFromRow(row)
	}
	return medicines, nil
}

// AdjustQuantity atomically adds delta to the stock quantity
func (r *MedicineRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int64) error {
	op := MutIncrement
	if delta < 0 {
		op = MutDecrement
		delta = -delta
	}
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:      ExecUpdate,
		Table:     "medicines",
		Set:       map[string]any{"updated_at": BindTime(time.Now())},
		Mutations: []Mutation{{Column: "quantity", Op: op, Value: delta}},
		Where:     Eq("id", BindID(id)),
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByCategory returns the number of medicines per category
func (r *MedicineRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:      "medicines",
		GroupBy:    []string{"category"},
		Aggregates: []Aggregate{{Func: AggCount, Column: "*", Alias: "n"}},
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[Str(row, "category")] = I64(row, "n")
	}
	return counts, nil
}

func (r *MedicineRepository) findOne(ctx context.Context, where Predicate) (*catalog.Medicine, error) {
	rows, err := r.q.Query(ctx, QuerySpec{Table: "medicines", Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return medicineFromRow(rows[0]), nil
}

func medicineValues(m *catalog.Medicine) map[string]any {
	return map[string]any{
		"id":            BindID(m.ID),
		"name":          m.Name,
		"generic_name":  m.GenericName,
		"batch_no":      m.BatchNo,
		"barcode":       m.Barcode,
		"category":      m.Category,
		"manufacturer":  m.Manufacturer,
		"supplier_id":   BindIDPtr(m.SupplierID),
		"branch_id":     BindIDPtr(m.BranchID),
		"quantity":      m.Quantity,
		"reorder_level": m.ReorderLevel,
		"cost_price":    BindDec(m.CostPrice),
		"selling_price": BindDec(m.SellingPrice),
		"expiry_date":   BindTimePtr(m.ExpiryDate),
		"created_at":    BindTime(m.CreatedAt),
		"updated_at":    BindTime(m.UpdatedAt),
	}
}

func medicineFromRow(row Row) *catalog.Medicine {
	return &catalog.Medicine{
		BaseEntity: shared.BaseEntity{
			ID:        ID(row, "id"),
			CreatedAt: Time(row, "created_at"),
			UpdatedAt: Time(row, "updated_at"),
		},
		Name:         Str(row, "name"),
		GenericName:  Str(row, "generic_name"),
		BatchNo:      Str(row, "batch_no"),
		Barcode:      Str(row, "barcode"),
		Category:     Str(row, "category"),
		Manufacturer: Str(row, "manufacturer"),
		SupplierID:   IDPtr(row, "supplier_id"),
		BranchID:     IDPtr(row, "branch_id"),
		Quantity:     I64(row, "quantity"),
		ReorderLevel: I64(row, "reorder_level"),
		CostPrice:    Dec(row, "cost_price"),
		SellingPrice: Dec(row, "selling_price"),
		ExpiryDate:   TimePtr(row, "expiry_date"),
	}
}

// Ensure MedicineRepository implements the domain interface
var _ catalog.MedicineRepository = (*MedicineRepository)(nil)
