package trade

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/outbox"
	"github.com/meditrack/backend/internal/domain/partner"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/domain/trade"
	"github.com/meditrack/backend/internal/infrastructure/persistence"
)

// SaleService records point-of-sale transactions. A sale, its stock
// decrements, the loyalty movement and the outbox rows commit in one
// transaction or not at all.
type SaleService struct {
	adapter   persistence.Adapter
	sales     *persistence.SaleRepository
	medicines *persistence.MedicineRepository
	customers *persistence.CustomerRepository
	loyalty   *persistence.LoyaltyRepository
	outbox    *persistence.OutboxRepository
	settings  *persistence.SettingsRepository
	logger    *zap.Logger
}

// NewSaleService creates a sale service
func NewSaleService(
	adapter persistence.Adapter,
	sales *persistence.SaleRepository,
	medicines *persistence.MedicineRepository,
	customers *persistence.CustomerRepository,
	loyalty *persistence.LoyaltyRepository,
	outboxRepo *persistence.OutboxRepository,
	settings *persistence.SettingsRepository,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		adapter:   adapter,
		sales:     sales,
		medicines: medicines,
		customers: customers,
		loyalty:   loyalty,
		outbox:    outboxRepo,
		settings:  settings,
		logger:    logger,
	}
}

// Record commits the sale. Stock is checked and decremented per line; a
// customer on the sale earns loyalty points at the configured rate.
func (s *SaleService) Record(ctx context.Context, sale *trade.Sale) error {
	if len(sale.Items) == 0 {
		return shared.NewDomainError("EMPTY_SALE", "A sale requires at least one item")
	}

	return s.adapter.Transaction(ctx, func(tx persistence.Queryer) error {
		medicines := s.medicines.WithTx(tx)
		for _, item := range sale.Items {
			medicine, err := medicines.FindByID(ctx, item.MedicineID)
			if err != nil {
				return err
			}
			if medicine.Quantity < item.Quantity {
				return shared.ErrInsufficientStock
			}
			if err := medicines.AdjustQuantity(ctx, item.MedicineID, -item.Quantity); err != nil {
				return err
			}
		}

		if err := s.sales.WithTx(tx).Create(ctx, sale); err != nil {
			return err
		}

		if sale.CustomerID != nil {
			if err := s.awardLoyalty(ctx, tx, sale); err != nil {
				return err
			}
		}

		payload, err := json.Marshal(sale)
		if err != nil {
			return err
		}
		entry := outbox.NewEntry(outbox.EntitySale, sale.ID, outbox.OperationCreate, payload)
		return s.outbox.WithTx(tx).Save(ctx, entry)
	})
}

// Get returns one sale with its items
func (s *SaleService) Get(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return s.sales.FindByID(ctx, id)
}

// GetByInvoiceNo returns one sale by invoice number
func (s *SaleService) GetByInvoiceNo(ctx context.Context, invoiceNo string) (*trade.Sale, error) {
	return s.sales.FindByInvoiceNo(ctx, invoiceNo)
}

// List returns sales newest first
func (s *SaleService) List(ctx context.Context, limit, offset int) ([]*trade.Sale, error) {
	return s.sales.FindAll(ctx, limit, offset)
}

// awardLoyalty credits points for the sale total and enqueues the
// customer update so the new balance reaches the cloud
func (s *SaleService) awardLoyalty(ctx context.Context, tx persistence.Queryer, sale *trade.Sale) error {
	rate := s.loyaltyRate(ctx)
	points := sale.Total.IntPart() * rate
	if points <= 0 {
		return nil
	}

	customers := s.customers.WithTx(tx)
	customer, err := customers.FindByID(ctx, *sale.CustomerID)
	if err != nil {
		return err
	}
	customer.AddLoyaltyPoints(points)
	if err := customers.Update(ctx, customer); err != nil {
		return err
	}

	movement := partner.NewLoyaltyTransaction(customer.ID, &sale.ID, partner.LoyaltyEarn, points, sale.Total)
	if err := s.loyalty.WithTx(tx).Create(ctx, movement); err != nil {
		return err
	}

	payload, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	entry := outbox.NewEntry(outbox.EntityCustomer, customer.ID, outbox.OperationUpdate, payload)
	return s.outbox.WithTx(tx).Save(ctx, entry)
}

func (s *SaleService) loyaltyRate(ctx context.Context) int64 {
	v, err := s.settings.Get(ctx, "loyalty_points_per_unit")
	if err != nil {
		return 1
	}
	rate, err := strconv.ParseInt(v, 10, 64)
	if err != nil || rate < 0 {
		return 1
	}
	return rate
}
