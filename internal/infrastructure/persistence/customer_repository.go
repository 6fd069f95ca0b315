package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/partner"
	"github.com/meditrack/backend/internal/domain/shared"
)

// CustomerRepository implements partner.CustomerRepository over the adapter
type CustomerRepository struct {
	q Queryer
}

// NewCustomerRepository creates a customer repository
func NewCustomerRepository(q Queryer) *CustomerRepository {
	return &CustomerRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *CustomerRepository) WithTx(tx Queryer) *CustomerRepository {
	return &CustomerRepository{q: tx}
}

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:   ExecInsert,
		Table:  "customers",
		Values: customerValues(customer),
	})
	return err
}

// Update updates an existing customer
func (r *CustomerRepository) Update(ctx context.Context, customer *partner.Customer) error {
	customer.UpdatedAt = time.Now()
	values := customerValues(customer)
	delete(values, "id")
	delete(values, "created_at")
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "customers",
		Set:   values,
		Where: Eq("id", BindID(customer.ID)),
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Upsert inserts the customer or overwrites the existing row by ID
func (r *CustomerRepository) Upsert(ctx context.Context, customer *partner.Customer) error {
	err := r.Update(ctx, customer)
	if err == shared.ErrNotFound {
		return r.Create(ctx, customer)
	}
	return err
}

// Delete deletes a customer by ID
func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecDelete,
		Table: "customers",
		Where: Eq("id", BindID(id)),
	})
	return err
}

// FindByID finds a customer by ID
func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.findOne(ctx, Eq("id", BindID(id)))
}

// FindByPhone finds a customer by phone number
func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*partner.Customer, error) {
	return r.findOne(ctx, Eq("phone", phone))
}

// FindAll returns all customers ordered by name
func (r *CustomerRepository) FindAll(ctx context.Context) ([]*partner.Customer, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "customers",
		OrderBy: []Order{{Column: "name"}},
	})
	if err != nil {
		return nil, err
	}
	customers := make([]*partner.Customer, len(rows))
	for i, row := range rows {
		customers[i] = customerFromRow(row)
	}
	return customers, nil
}

func (r *CustomerRepository) findOne(ctx context.Context, where Predicate) (*partner.Customer, error) {
	rows, err := r.q.Query(ctx, QuerySpec{Table: "customers", Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return customerFromRow(rows[0]), nil
}

func customerValues(c *partner.Customer) map[string]any {
	return map[string]any{
		"id":             BindID(c.ID),
		"name":           c.Name,
		"phone":          c.Phone,
		"email":          c.Email,
		"address":        c.Address,
		"branch_id":      BindIDPtr(c.BranchID),
		"loyalty_points": c.LoyaltyPoints,
		"credit_balance": BindDec(c.CreditBalance),
		"created_at":     BindTime(c.CreatedAt),
		"updated_at":     BindTime(c.UpdatedAt),
	}
}

func customerFromRow(row Row) *partner.Customer {
	return &partner.Customer{
		BaseEntity: shared.BaseEntity{
			ID:        ID(row, "id"),
			CreatedAt: Time(row, "created_at"),
			UpdatedAt: Time(row, "updated_at"),
		},
		Name:          Str(row, "name"),
		Phone:         Str(row, "phone"),
		Email:         Str(row, "email"),
		Address:       Str(row, "address"),
		BranchID:      IDPtr(row, "branch_id"),
		LoyaltyPoints: I64(row, "loyalty_points"),
		CreditBalance: Dec(row, "credit_balance"),
	}
}

// Ensure CustomerRepository implements the domain interface
var _ partner.CustomerRepository = (*CustomerRepository)(nil)
