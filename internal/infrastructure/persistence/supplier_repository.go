package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/partner"
	"github.com/meditrack/backend/internal/domain/shared"
)

// SupplierRepository implements partner.SupplierRepository over the adapter
type SupplierRepository struct {
	q Queryer
}

// NewSupplierRepository creates a supplier repository
func NewSupplierRepository(q Queryer) *SupplierRepository {
	return &SupplierRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *SupplierRepository) WithTx(tx Queryer) *SupplierRepository {
	return &SupplierRepository{q: tx}
}

// Create creates a new supplier
func (r *SupplierRepository) Create(ctx context.Context, supplier *partner.Supplier) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:   ExecInsert,
		Table:  "suppliers",
		Values: supplierValues(supplier),
	})
	return err
}

// Update updates an existing supplier
func (r *SupplierRepository) Update(ctx context.Context, supplier *partner.Supplier) error {
	supplier.UpdatedAt = time.Now()
	values := supplierValues(supplier)
	delete(values, "id")
	delete(values, "created_at")
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "suppliers",
		Set:   values,
		Where: Eq("id", BindID(supplier.ID)),
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Upsert inserts the supplier or overwrites the existing row by ID
func (r *SupplierRepository) Upsert(ctx context.Context, supplier *partner.Supplier) error {
	err := r.Update(ctx, supplier)
	if err == shared.ErrNotFound {
		return r.Create(ctx, supplier)
	}
	return err
}

// Delete deletes a supplier by ID
func (r *SupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecDelete,
		Table: "suppliers",
		Where: Eq("id", BindID(id)),
	})
	return err
}

// FindByID finds a supplier by ID
func (r *SupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	rows, err := r.q.Query(ctx, QuerySpec{Table: "suppliers", Where: Eq("id", BindID(id)), Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return supplierFromRow(rows[0]), nil
}

// FindAll returns all suppliers ordered by name
func (r *SupplierRepository) FindAll(ctx context.Context) ([]*partner.Supplier, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "suppliers",
		OrderBy: []Order{{Column: "name"}},
	})
	if err != nil {
		return nil, err
	}
	suppliers := make([]*partner.Supplier, len(rows))
	for i, row := range rows {
		suppliers[i] = supplierFromRow(row)
	}
	return suppliers, nil
}

func supplierValues(s *partner.Supplier) map[string]any {
	return map[string]any{
		"id":           BindID(s.ID),
		"name":         s.Name,
		"contact_name": s.ContactName,
		"phone":        s.Phone,
		"email":        s.Email,
		"address":      s.Address,
		"balance":      BindDec(s.Balance),
		"created_at":   BindTime(s.CreatedAt),
		"updated_at":   BindTime(s.UpdatedAt),
	}
}

func supplierFromRow(row Row) *partner.Supplier {
	return &partner.Supplier{
		BaseEntity: shared.BaseEntity{
			ID:        ID(row, "id"),
			CreatedAt: Time(row, "created_at"),
			UpdatedAt: Time(row, "updated_at"),
		},
		Name:        Str(row, "name"),
		ContactName: Str(row, "contact_name"),
		Phone:       Str(row, "phone"),
		Email:       Str(row, "email"),
		Address:     Str(row, "address"),
		Balance:     Dec(row, "balance"),
	}
}

// Ensure SupplierRepository implements the domain interface
var _ partner.SupplierRepository = (*SupplierRepository)(nil)
