package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/catalog"
	"github.com/meditrack/backend/internal/domain/identity"
	"github.com/meditrack/backend/internal/domain/shared"
)

// newMemoryAdapter opens a bootstrapped in-memory database
func newMemoryAdapter(t *testing.T) *SQLiteAdapter {
	t.Helper()
	adapter := NewSQLiteAdapter(SQLiteConfig{Path: ":memory:"}, zap.NewNop())
	require.NoError(t, adapter.Connect(context.Background()))
	t.Cleanup(func() { _ = adapter.Disconnect() })
	require.NoError(t, adapter.Initialize(context.Background()))
	return adapter
}

func TestSQLiteNotConnected(t *testing.T) {
	adapter := NewSQLiteAdapter(SQLiteConfig{Path: ":memory:"}, zap.NewNop())
	_, err := adapter.Query(context.Background(), QuerySpec{Table: "settings"})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, adapter.IsConnected())
}

func TestSQLiteBootstrapSeedsDefaults(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()

	branches := NewBranchRepository(adapter)
	users := NewUserRepository(adapter)
	settings := NewSettingsRepository(adapter)

	main, err := branches.FindByCode(ctx, "MAIN")
	require.NoError(t, err)
	assert.True(t, main.IsMain)
	assert.Equal(t, identity.BranchStatusActive, main.Status)

	admin, err := users.FindByEmail(ctx, "admin@meditrack.local")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, admin.Role)
	assert.True(t, admin.CheckPassword("admin123"))

	currency, err := settings.Get(ctx, "currency")
	require.NoError(t, err)
	assert.Equal(t, "USD", currency)
}

func TestSQLiteInitializeIdempotent(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Initialize(ctx))
	require.NoError(t, adapter.Initialize(ctx))

	count, err := NewBranchRepository(adapter).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	admins, err := NewUserRepository(adapter).CountByRole(ctx, identity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
}

func TestSQLiteTransactionRollback(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()
	settings := NewSettingsRepository(adapter)

	boom := errors.New("boom")
	err := adapter.Transaction(ctx, func(tx Queryer) error {
		if err := settings.WithTx(tx).Set(ctx, "rollback_probe", "1"); err != nil {
			return err
		}
		return boom
	})

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.ErrorIs(t, err, boom)

	_, err = settings.Get(ctx, "rollback_probe")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSQLiteTransactionCommit(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()
	settings := NewSettingsRepository(adapter)

	err := adapter.Transaction(ctx, func(tx Queryer) error {
		return settings.WithTx(tx).Set(ctx, "commit_probe", "1")
	})
	require.NoError(t, err)

	v, err := settings.Get(ctx, "commit_probe")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestSQLiteReturningEmulation(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()

	branch, err := identity.NewBranch("RET1", "Returning Branch")
	require.NoError(t, err)

	res, err := adapter.Execute(ctx, ExecSpec{
		Kind:      ExecInsert,
		Table:     "branches",
		Values:    branchValues(branch),
		Returning: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Returned, 1)
	assert.Equal(t, "RET1", Str(res.Returned[0], "code"))
	assert.Equal(t, branch.ID, ID(res.Returned[0], "id"))
}

func TestSQLiteUpdateReturningWhenFilterColumnChanges(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()

	_, err := adapter.Execute(ctx, ExecSpec{
		Kind:  ExecInsert,
		Table: "settings",
		Values: map[string]any{
			"key":        "receipt_footer",
			"value":      "old",
			"updated_at": BindTime(time.Now()),
		},
	})
	require.NoError(t, err)

	// The filter matches on the very column the update rewrites; the
	// returned rows must still reflect the post-update state, same as
	// a native RETURNING.
	res, err := adapter.Execute(ctx, ExecSpec{
		Kind:      ExecUpdate,
		Table:     "settings",
		Set:       map[string]any{"value": "new"},
		Where:     Eq("value", "old"),
		Returning: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	require.Len(t, res.Returned, 1)
	assert.Equal(t, "receipt_footer", Str(res.Returned[0], "key"))
	assert.Equal(t, "new", Str(res.Returned[0], "value"))

	// A filter matching nothing returns no rows either way.
	res, err = adapter.Execute(ctx, ExecSpec{
		Kind:      ExecUpdate,
		Table:     "settings",
		Set:       map[string]any{"value": "other"},
		Where:     Eq("value", "old"),
		Returning: true,
	})
	require.NoError(t, err)
	assert.Zero(t, res.RowsAffected)
	assert.Empty(t, res.Returned)
}

func TestMedicineRepositoryRoundTrip(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()
	repo := NewMedicineRepository(adapter)

	med, err := catalog.NewMedicine("Paracetamol 500mg", "B-100", decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	med.Barcode = "890123"
	med.Category = "analgesic"
	med.Quantity = 40
	med.ReorderLevel = 10
	require.NoError(t, repo.Create(ctx, med))

	got, err := repo.FindByID(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, med.Name, got.Name)
	assert.Equal(t, med.BatchNo, got.BatchNo)
	assert.True(t, got.SellingPrice.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, int64(40), got.Quantity)

	byBarcode, err := repo.FindByBarcode(ctx, "890123")
	require.NoError(t, err)
	assert.Equal(t, med.ID, byBarcode.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMedicineRepositoryFindAllFilters(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()
	repo := NewMedicineRepository(adapter)

	seed := func(name, batch string, qty, reorder int64) *catalog.Medicine {
		m, err := catalog.NewMedicine(name, batch, decimal.New(5, 0))
		require.NoError(t, err)
		m.Quantity = qty
		m.ReorderLevel = reorder
		require.NoError(t, repo.Create(ctx, m))
		return m
	}
	seed("Paracetamol 500mg", "B-1", 100, 10)
	seed("Ibuprofen 200mg", "B-2", 5, 10)
	seed("Amoxicillin 250mg", "B-3", 10, 10)

	t.Run("name contains is case-insensitive", func(t *testing.T) {
		out, err := repo.FindAll(ctx, catalog.MedicineFilter{NameContains: "PARA"})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Paracetamol 500mg", out[0].Name)
	})

	t.Run("below reorder compares against the row's own threshold", func(t *testing.T) {
		out, err := repo.FindAll(ctx, catalog.MedicineFilter{BelowReorder: true})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "Amoxicillin 250mg", out[0].Name)
		assert.Equal(t, "Ibuprofen 200mg", out[1].Name)
	})

	t.Run("limit and offset page through name order", func(t *testing.T) {
		out, err := repo.FindAll(ctx, catalog.MedicineFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Ibuprofen 200mg", out[0].Name)
	})
}

func TestMedicineRepositoryAdjustQuantity(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()
	repo := NewMedicineRepository(adapter)

	med, err := catalog.NewMedicine("Cetirizine 10mg", "B-9", decimal.New(3, 0))
	require.NoError(t, err)
	med.Quantity = 20
	require.NoError(t, repo.Create(ctx, med))

	require.NoError(t, repo.AdjustQuantity(ctx, med.ID, -6))
	require.NoError(t, repo.AdjustQuantity(ctx, med.ID, 2))

	got, err := repo.FindByID(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(16), got.Quantity)

	assert.ErrorIs(t, repo.AdjustQuantity(ctx, uuid.New(), 1), shared.ErrNotFound)
}

func TestBranchCodeUniqueConstraint(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()
	repo := NewBranchRepository(adapter)

	first, err := identity.NewBranch("DUP", "First")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := identity.NewBranch("DUP", "Second")
	require.NoError(t, err)
	assert.Error(t, repo.Create(ctx, second))
}

func TestUserUpdateProfilePreservesPassword(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()
	repo := NewUserRepository(adapter)

	user, err := identity.NewUser("Cashier One", "cashier@example.com", "s3cret-pw", identity.RoleCashier)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	user.Name = "Cashier Renamed"
	user.PasswordHash = "should-not-be-written"
	require.NoError(t, repo.UpdateProfile(ctx, user))

	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cashier Renamed", got.Name)
	assert.True(t, got.CheckPassword("s3cret-pw"))
}

func TestSettingsTimeRoundTrip(t *testing.T) {
	adapter := newMemoryAdapter(t)
	ctx := context.Background()
	repo := NewSettingsRepository(adapter)

	// Absent key reads as the zero time, which callers treat as
	// "never synced".
	zero, err := repo.GetTime(ctx, "sync.last_sync_at")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	at := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	require.NoError(t, repo.SetTime(ctx, "sync.last_sync_at", at))

	got, err := repo.GetTime(ctx, "sync.last_sync_at")
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}
