package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/identity"
	"github.com/meditrack/backend/internal/domain/shared"
)

// BranchRepository implements identity.BranchRepository over the adapter
type BranchRepository struct {
	q Queryer
}

// NewBranchRepository creates a branch repository
func NewBranchRepository(q Queryer) *BranchRepository {
	return &BranchRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *BranchRepository) WithTx(tx Queryer) *BranchRepository {
	return &BranchRepository{q: tx}
}

// Create creates a new branch
func (r *BranchRepository) Create(ctx context.Context, branch *identity.Branch) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:   ExecInsert,
		Table:  "branches",
		Values: branchValues(branch),
	})
	return err
}

// Update updates an existing branch
func (r *BranchRepository) Update(ctx context.Context, branch *identity.Branch) error {
	branch.UpdatedAt = time.Now()
	values := branchValues(branch)
	delete(values, "id")
	delete(values, "created_at")
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "branches",
		Set:   values,
		Where: Eq("id", BindID(branch.ID)),
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a branch by ID
func (r *BranchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecDelete,
		Table: "branches",
		Where: Eq("id", BindID(id)),
	})
	return err
}

// FindByID finds a branch by ID
func (r *BranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Branch, error) {
	return r.findOne(ctx, Eq("id", BindID(id)))
}

// FindByCode finds a branch by its unique code
func (r *BranchRepository) FindByCode(ctx context.Context, code string) (*identity.Branch, error) {
	return r.findOne(ctx, Eq("code", code))
}

// FindAll returns all branches ordered by code
func (r *BranchRepository) FindAll(ctx context.Context) ([]*identity.Branch, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "branches",
		OrderBy: []Order{{Column: "code"}},
	})
	if err != nil {
		return nil, err
	}
	branches := make([]*identity.Branch, len(rows))
	for i, row := range rows {
		branches[i] = branchFromRow(row)
	}
	return branches, nil
}

// Count returns the total number of branches
func (r *BranchRepository) Count(ctx context.Context) (int64, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:      "branches",
		Aggregates: []Aggregate{{Func: AggCount, Column: "*", Alias: "n"}},
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return I64(rows[0], "n"), nil
}

func (r *BranchRepository) findOne(ctx context.Context, where Predicate) (*identity.Branch, error) {
	rows, err := r.q.Query(ctx, QuerySpec{Table: "branches", Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return branchFromRow(rows[0]), nil
}

func branchValues(b *identity.Branch) map[string]any {
	return map[string]any{
		"id":         BindID(b.ID),
		"code":       b.Code,
		"name":       b.Name,
		"address":    b.Address,
		"phone":      b.Phone,
		"email":      b.Email,
		"status":     string(b.Status),
		"is_main":    b.IsMain,
		"created_at": BindTime(b.CreatedAt),
		"updated_at": BindTime(b.UpdatedAt),
	}
}

func branchFromRow(row Row) *identity.Branch {
	return &identity.Branch{
		BaseEntity: shared.BaseEntity{
			ID:        ID(row, "id"),
			CreatedAt: Time(row, "created_at"),
			UpdatedAt: Time(row, "updated_at"),
		},
		Code:    Str(row, "code"),
		Name:    Str(row, "name"),
		Address: Str(row, "address"),
		Phone:   Str(row, "phone"),
		Email:   Str(row, "email"),
		Status:  identity.BranchStatus(Str(row, "status")),
		IsMain:  Boolean(row, "is_main"),
	}
}

// Ensure BranchRepository implements the domain interface
var _ identity.BranchRepository = (*BranchRepository)(nil)
