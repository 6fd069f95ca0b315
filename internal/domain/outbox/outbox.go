package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies which replicated aggregate an entry refers to
type EntityType string

const (
	EntityBranch        EntityType = "BRANCH"
	EntityUser          EntityType = "USER"
	EntityMedicine      EntityType = "MEDICINE"
	EntityCustomer      EntityType = "CUSTOMER"
	EntitySupplier      EntityType = "SUPPLIER"
	EntitySale          EntityType = "SALE"
	EntityPurchaseOrder EntityType = "PURCHASE_ORDER"
	EntityGRN           EntityType = "GRN"
)

// Operation is the kind of mutation recorded
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// Status is the delivery state of an entry
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSynced  Status = "SYNCED"
)

// Entry is one durable intent-to-sync row. Appended in the same
// transaction as the local write it records; after that only Status,
// Attempts, LastAttemptAt, ErrorMessage and SyncedAt may change. The
// payload is a snapshot taken at enqueue time and may be stale: the push
// synchronizer re-fetches the current row before upload.
type Entry struct {
	ID            uuid.UUID
	EntityType    EntityType
	EntityID      uuid.UUID
	Operation     Operation
	Payload       []byte
	Status        Status
	Attempts      int
	LastAttemptAt *time.Time
	ErrorMessage  string
	SyncedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewEntry creates a pending outbox entry for a committed local mutation
func NewEntry(entityType EntityType, entityID uuid.UUID, op Operation, payload []byte) *Entry {
	now := time.Now()
	return &Entry{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  op,
		Payload:    payload,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// MarkSynced transitions the entry after server acknowledgment
func (e *Entry) MarkSynced(at time.Time) {
	e.Status = StatusSynced
	e.SyncedAt = &at
	e.UpdatedAt = at
}

// MarkFailed records a failed delivery attempt, leaving the entry pending
func (e *Entry) MarkFailed(errMsg string) {
	now := time.Now()
	e.Attempts++
	e.LastAttemptAt = &now
	e.ErrorMessage = errMsg
	e.UpdatedAt = now
}

// Repository defines the interface for outbox persistence
type Repository interface {
	// Save persists one or more entries
	Save(ctx context.Context, entries ...*Entry) error

	// FindPending retrieves pending entries ordered by creation time
	FindPending(ctx context.Context, limit int) ([]*Entry, error)

	// MarkSynced marks the given entries as synced at the given time
	MarkSynced(ctx context.Context, ids []uuid.UUID, at time.Time) error

	// MarkFailed increments attempts and records the error for the given entries
	MarkFailed(ctx context.Context, ids []uuid.UUID, errMsg string) error

	// CountPending returns the number of pending entries
	CountPending(ctx context.Context) (int64, error)

	// DeleteSyncedOlderThan garbage-collects synced entries
	DeleteSyncedOlderThan(ctx context.Context, before time.Time) (int64, error)
}
