package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/identity"
	"github.com/meditrack/backend/internal/domain/shared"
)

// UserRepository implements identity.UserRepository over the adapter
type UserRepository struct {
	q Queryer
}

// NewUserRepository creates a user repository
func NewUserRepository(q Queryer) *UserRepository {
	return &UserRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle
func (r *UserRepository) WithTx(tx Queryer) *UserRepository {
	return &UserRepository{q: tx}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:   ExecInsert,
		Table:  "users",
		Values: userValues(user),
	})
	return err
}

// Update updates an existing user including the password hash
func (r *UserRepository) Update(ctx context.Context, user *identity.User) error {
	user.UpdatedAt = time.Now()
	values := userValues(user)
	delete(values, "id")
	delete(values, "created_at")
	return r.update(ctx, user.ID, values)
}

// UpdateProfile updates the cloud-replicated fields only. The password
// hash is local-only and never touched by a pull merge.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *identity.User) error {
	return r.update(ctx, user.ID, map[string]any{
		"name":       user.Name,
		"email":      user.Email,
		"phone":      user.Phone,
		"role":       string(user.Role),
		"branch_id":  BindIDPtr(user.BranchID),
		"status":     string(user.Status),
		"updated_at": BindTime(time.Now()),
	})
}

func (r *UserRepository) update(ctx context.Context, id uuid.UUID, set map[string]any) error {
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "users",
		Set:   set,
		Where: Eq("id", BindID(id)),
	})
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecDelete,
		Table: "users",
		Where: Eq("id", BindID(id)),
	})
	return err
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.findOne(ctx, Eq("id", BindID(id)))
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.findOne(ctx, Eq("email", strings.ToLower(strings.TrimSpace(email))))
}

// FindAll returns all users ordered by name
func (r *UserRepository) FindAll(ctx context.Context) ([]*identity.User, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "users",
		OrderBy: []Order{{Column: "name"}},
	})
	if err != nil {
		return nil, err
	}
	users := make([]*identity.User, len(rows))
	for i, row := range rows {
		users[i] = userFromRow(row)
	}
	return users, nil
}

// CountByRole returns the number of users with the given role
func (r *UserRepository) CountByRole(ctx context.Context, role identity.UserRole) (int64, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:      "users",
		Where:      Eq("role", string(role)),
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

func (r *UserRepository) findOne(ctx context.Context, where Predicate) (*identity.User, error) {
	rows, err := r.q.Query(ctx, QuerySpec{Table: "users", Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return userFromRow(rows[0]), nil
}

func userValues(u *identity.User) map[string]any {
	return map[string]any{
		"id":            BindID(u.ID),
		"name":          u.Name,
		"email":         u.Email,
		"phone":         u.Phone,
		"password_hash": u.PasswordHash,
		"role":          string(u.Role),
		"branch_id":     BindIDPtr(u.BranchID),
		"status":        string(u.Status),
		"last_login_at": BindTimePtr(u.LastLoginAt),
		"created_at":    BindTime(u.CreatedAt),
		"updated_at":    BindTime(u.UpdatedAt),
	}
}

func userFromRow(row Row) *identity.User {
	return &identity.User{
		BaseEntity: shared.BaseEntity{
			ID:        ID(row, "id"),
			CreatedAt: Time(row, "created_at"),
			UpdatedAt: Time(row, "updated_at"),
		},
		Name:         Str(row, "name"),
		Email:        Str(row, "email"),
		Phone:        Str(row, "phone"),
		PasswordHash: Str(row, "password_hash"),
		Role:         identity.UserRole(Str(row, "role")),
		BranchID:     IDPtr(row, "branch_id"),
		Status:       identity.UserStatus(Str(row, "status")),
		LastLoginAt:  TimePtr(row, "last_login_at"),
	}
}

// Ensure UserRepository implements the domain interface
var _ identity.UserRepository = (*UserRepository)(nil)
