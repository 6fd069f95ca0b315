package trade

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/catalog"
	"github.com/meditrack/backend/internal/domain/outbox"
	"github.com/meditrack/backend/internal/domain/partner"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/domain/trade"
	"github.com/meditrack/backend/internal/infrastructure/persistence"
)

type saleDeps struct {
	adapter   *persistence.SQLiteAdapter
	service   *SaleService
	medicines *persistence.MedicineRepository
	customers *persistence.CustomerRepository
	loyalty   *persistence.LoyaltyRepository
	sales     *persistence.SaleRepository
	outbox    *persistence.OutboxRepository
}

func newSaleDeps(t *testing.T) *saleDeps {
	t.Helper()
	ctx := context.Background()

	adapter := persistence.NewSQLiteAdapter(persistence.SQLiteConfig{Path: ":memory:"}, zap.NewNop())
	require.NoError(t, adapter.Connect(ctx))
	t.Cleanup(func() { _ = adapter.Disconnect() })
	require.NoError(t, adapter.Initialize(ctx))

	d := &saleDeps{
		adapter:   adapter,
		medicines: persistence.NewMedicineRepository(adapter),
		customers: persistence.NewCustomerRepository(adapter),
		loyalty:   persistence.NewLoyaltyRepository(adapter),
		sales:     persistence.NewSaleRepository(adapter),
		outbox:    persistence.NewOutboxRepository(adapter),
	}
	d.service = NewSaleService(adapter, d.sales, d.medicines, d.customers, d.loyalty, d.outbox,
		persistence.NewSettingsRepository(adapter), zap.NewNop())
	return d
}

func (d *saleDeps) seedMedicine(t *testing.T, name, batch string, qty int64, price decimal.Decimal) *catalog.Medicine {
	t.Helper()
	m, err := catalog.NewMedicine(name, batch, price)
	require.NoError(t, err)
	m.Quantity = qty
	require.NoError(t, d.medicines.Create(context.Background(), m))
	return m
}

func TestRecordSale(t *testing.T) {
	d := newSaleDeps(t)
	ctx := context.Background()

	med := d.seedMedicine(t, "Paracetamol 500mg", "B-1", 10, decimal.New(4, 0))

	sale, err := trade.NewSale("INV-1001", trade.PaymentCash)
	require.NoError(t, err)
	require.NoError(t, sale.AddItem(med.ID, 3, med.SellingPrice))
	require.NoError(t, d.service.Record(ctx, sale))

	got, err := d.medicines.FindByID(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Quantity)

	stored, err := d.sales.FindByInvoiceNo(ctx, "INV-1001")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Total.Equal(decimal.New(12, 0)))

	pending, err := d.outbox.FindPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, outbox.EntitySale, pending[0].EntityType)
	assert.Equal(t, outbox.OperationCreate, pending[0].Operation)
	assert.Equal(t, sale.ID, pending[0].EntityID)
}

func TestRecordSaleAwardsLoyalty(t *testing.T) {
	d := newSaleDeps(t)
	ctx := context.Background()

	med := d.seedMedicine(t, "Ibuprofen 200mg", "B-2", 20, decimal.New(5, 0))
	customer, err := partner.NewCustomer("Jamie Doe", "555-0101")
	require.NoError(t, err)
	require.NoError(t, d.customers.Create(ctx, customer))

	sale, err := trade.NewSale("INV-1002", trade.PaymentCard)
	require.NoError(t, err)
	sale.CustomerID = &customer.ID
	require.NoError(t, sale.AddItem(med.ID, 4, med.SellingPrice))
	require.NoError(t, d.service.Record(ctx, sale))

	// Seeded rate is one point per currency unit, total is 20.
	got, err := d.customers.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.LoyaltyPoints)

	movements, err := d.loyalty.FindByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, partner.LoyaltyEarn, movements[0].Type)
	assert.Equal(t, int64(20), movements[0].Points)

	// Both the sale and the customer's new balance go to the cloud.
	pending, err := d.outbox.FindPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	types := []outbox.EntityType{pending[0].EntityType, pending[1].EntityType}
	assert.Contains(t, types, outbox.EntitySale)
	assert.Contains(t, types, outbox.EntityCustomer)
}

func TestRecordSaleInsufficientStockRollsBack(t *testing.T) {
	d := newSaleDeps(t)
	ctx := context.Background()

	med := d.seedMedicine(t, "Amoxicillin 250mg", "B-3", 2, decimal.New(8, 0))

	sale, err := trade.NewSale("INV-1003", trade.PaymentCash)
	require.NoError(t, err)
	require.NoError(t, sale.AddItem(med.ID, 5, med.SellingPrice))

	err = d.service.Record(ctx, sale)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	got, err := d.medicines.FindByID(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Quantity)

	_, err = d.sales.FindByInvoiceNo(ctx, "INV-1003")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	pending, err := d.outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestRecordEmptySale(t *testing.T) {
	d := newSaleDeps(t)

	sale, err := trade.NewSale("INV-1004", trade.PaymentCash)
	require.NoError(t, err)

	err = d.service.Record(context.Background(), sale)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMPTY_SALE", domainErr.Code)
}
