package catalog

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/catalog"
	"github.com/meditrack/backend/internal/domain/outbox"
	"github.com/meditrack/backend/internal/infrastructure/persistence"
)

// MedicineService handles medicine CRUD. Every mutation commits with an
// outbox row in the same transaction, so a write can never land without
// its intent-to-sync record.
type MedicineService struct {
	adapter   persistence.Adapter
	medicines *persistence.MedicineRepository
	outbox    *persistence.OutboxRepository
	logger    *zap.Logger
}

// NewMedicineService creates a medicine service
func NewMedicineService(
	adapter persistence.Adapter,
	medicines *persistence.MedicineRepository,
	outboxRepo *persistence.OutboxRepository,
	logger *zap.Logger,
) *MedicineService {
	return &MedicineService{
		adapter:   adapter,
		medicines: medicines,
		outbox:    outboxRepo,
		logger:    logger,
	}
}

// Create stores a new medicine and enqueues it for upload
func (s *MedicineService) Create(ctx context.Context, medicine *catalog.Medicine) error {
	return s.adapter.Transaction(ctx, func(tx persistence.Queryer) error {
		if err := s.medicines.WithTx(tx).Create(ctx, medicine); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, medicine, outbox.OperationCreate)
	})
}

// Update stores changed fields and enqueues the medicine for upload
func (s *MedicineService) Update(ctx context.Context, medicine *catalog.Medicine) error {
	return s.adapter.Transaction(ctx, func(tx persistence.Queryer) error {
		if err := s.medicines.WithTx(tx).Update(ctx, medicine); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, medicine, outbox.OperationUpdate)
	})
}

// Delete removes a medicine and enqueues the deletion
func (s *MedicineService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.adapter.Transaction(ctx, func(tx persistence.Queryer) error {
		medicine, err := s.medicines.WithTx(tx).FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.medicines.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, medicine, outbox.OperationDelete)
	})
}

// Get returns one medicine by ID
func (s *MedicineService) Get(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	return s.medicines.FindByID(ctx, id)
}

// GetByBarcode returns one medicine by barcode
func (s *MedicineService) GetByBarcode(ctx context.Context, barcode string) (*catalog.Medicine, error) {
	return s.medicines.FindByBarcode(ctx, barcode)
}

// List returns medicines matching the filter
func (s *MedicineService) List(ctx context.Context, filter catalog.MedicineFilter) ([]*catalog.Medicine, error) {
	return s.medicines.FindAll(ctx, filter)
}

// LowStock returns medicines at or below their reorder level
func (s *MedicineService) LowStock(ctx context.Context) ([]*catalog.Medicine, error) {
	return s.medicines.FindAll(ctx, catalog.MedicineFilter{BelowReorder: true})
}

func (s *MedicineService) enqueue(ctx context.Context, tx persistence.Queryer, medicine *catalog.Medicine, op outbox.Operation) error {
	payload, err := json.Marshal(medicine)
	if err != nil {
		return err
	}
	entry := outbox.NewEntry(outbox.EntityMedicine, medicine.ID, op, payload)
	return s.outbox.WithTx(tx).Save(ctx, entry)
}
