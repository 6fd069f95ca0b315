package partner

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/outbox"
	"github.com/meditrack/backend/internal/domain/partner"
	"github.com/meditrack/backend/internal/infrastructure/persistence"
)

// CustomerService handles customer CRUD with transactional outbox
// enqueue, mirroring the medicine service.
type CustomerService struct {
	adapter   persistence.Adapter
	customers *persistence.CustomerRepository
	outbox    *persistence.OutboxRepository
	logger    *zap.Logger
}

// NewCustomerService creates a customer service
func NewCustomerService(
	adapter persistence.Adapter,
	customers *persistence.CustomerRepository,
	outboxRepo *persistence.OutboxRepository,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		adapter:   adapter,
		customers: customers,
		outbox:    outboxRepo,
		logger:    logger,
	}
}

// Create stores a new customer and enqueues it for upload
func (s *CustomerService) Create(ctx context.Context, customer *partner.Customer) error {
	return s.adapter.Transaction(ctx, func(tx persistence.Queryer) error {
		if err := s.customers.WithTx(tx).Create(ctx, customer); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, customer, outbox.OperationCreate)
	})
}

// Update stores changed fields and enqueues the customer for upload
func (s *CustomerService) Update(ctx context.Context, customer *partner.Customer) error {
	return s.adapter.Transaction(ctx, func(tx persistence.Queryer) error {
		if err := s.customers.WithTx(tx).Update(ctx, customer); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, customer, outbox.OperationUpdate)
	})
}

// Delete removes a customer and enqueues the deletion
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.adapter.Transaction(ctx, func(tx persistence.Queryer) error {
		customer, err := s.customers.WithTx(tx).FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.customers.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, customer, outbox.OperationDelete)
	})
}

// Get returns one customer by ID
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return s.customers.FindByID(ctx, id)
}

// GetByPhone returns one customer by phone number
func (s *CustomerService) GetByPhone(ctx context.Context, phone string) (*partner.Customer, error) {
	return s.customers.FindByPhone(ctx, phone)
}

// List returns all customers
func (s *CustomerService) List(ctx context.Context) ([]*partner.Customer, error) {
	return s.customers.FindAll(ctx)
}

func (s *CustomerService) enqueue(ctx context.Context, tx persistence.Queryer, customer *partner.Customer, op outbox.Operation) error {
	payload, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	entry := outbox.NewEntry(outbox.EntityCustomer, customer.ID, op, payload)
	return s.outbox.WithTx(tx).Save(ctx, entry)
}
