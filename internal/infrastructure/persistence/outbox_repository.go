package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meditrack/backend/internal/domain/outbox"
)

// OutboxRepository implements outbox.Repository over the adapter
type OutboxRepository struct {
	q Queryer
}

// NewOutboxRepository creates an outbox repository
func NewOutboxRepository(q Queryer) *OutboxRepository {
	return &OutboxRepository{q: q}
}

// WithTx returns a repository bound to the given transaction handle.
// Save is normally called through this so the entry commits atomically
// with the local write it records.
func (r *OutboxRepository) WithTx(tx Queryer) *OutboxRepository {
	return &OutboxRepository{q: tx}
}

// Save persists one or more entries
func (r *OutboxRepository) Save(ctx context.Context, entries ...*outbox.Entry) error {
	for _, e := range entries {
		_, err := r.q.Execute(ctx, ExecSpec{
			Kind:  ExecInsert,
			Table: "outbox",
			Values: map[string]any{
				"id":              BindID(e.ID),
				"entity_type":     string(e.EntityType),
				"entity_id":       BindID(e.EntityID),
				"operation":       string(e.Operation),
				"payload":         string(e.Payload),
				"status":          string(e.Status),
				"attempts":        int64(e.Attempts),
				"last_attempt_at": BindTimePtr(e.LastAttemptAt),
				"error_message":   e.ErrorMessage,
				"synced_at":       BindTimePtr(e.SyncedAt),
				"created_at":      BindTime(e.CreatedAt),
				"updated_at":      BindTime(e.UpdatedAt),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FindPending retrieves pending entries in enqueue order. A limit of
// zero means no limit.
func (r *OutboxRepository) FindPending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:   "outbox",
		Where:   Eq("status", string(outbox.StatusPending)),
		OrderBy: []Order{{Column: "created_at"}},
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	entries := make([]*outbox.Entry, len(rows))
	for i, row := range rows {
		entries[i] = outboxEntryFromRow(row)
	}
	return entries, nil
}

// MarkSynced marks the given entries as synced at the given time
func (r *OutboxRepository) MarkSynced(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "outbox",
		Set: map[string]any{
			"status":     string(outbox.StatusSynced),
			"synced_at":  BindTime(at),
			"updated_at": BindTime(at),
		},
		Where: In("id", bindIDs(ids)...),
	})
	return err
}

// MarkFailed increments attempts and records the error for the given
// entries, leaving them pending for the next push.
func (r *OutboxRepository) MarkFailed(ctx context.Context, ids []uuid.UUID, errMsg string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	_, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecUpdate,
		Table: "outbox",
		Set: map[string]any{
			"last_attempt_at": BindTime(now),
			"error_message":   errMsg,
			"updated_at":      BindTime(now),
		},
		Mutations: []Mutation{{Column: "attempts", Op: MutIncrement, Value: int64(1)}},
		Where:     In("id", bindIDs(ids)...),
	})
	return err
}

// CountPending returns the number of pending entries
func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	rows, err := r.q.Query(ctx, QuerySpec{
		Table:      "outbox",
		Where:      Eq("status", string(outbox.StatusPending)),
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

// DeleteSyncedOlderThan garbage-collects acknowledged entries and
// returns how many were removed
func (r *OutboxRepository) DeleteSyncedOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.q.Execute(ctx, ExecSpec{
		Kind:  ExecDelete,
		Table: "outbox",
		Where: And(
			Eq("status", string(outbox.StatusSynced)),
			Lt("synced_at", BindTime(before)),
		),
	})
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func bindIDs(ids []uuid.UUID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = BindID(id)
	}
	return out
}

func outboxEntryFromRow(row Row) *outbox.Entry {
	return &outbox.Entry{
		ID:            ID(row, "id"),
		EntityType:    outbox.EntityType(Str(row, "entity_type")),
		EntityID:      ID(row, "entity_id"),
		Operation:     outbox.Operation(Str(row, "operation")),
		Payload:       []byte(Str(row, "payload")),
		Status:        outbox.Status(Str(row, "status")),
		Attempts:      int(I64(row, "attempts")),
		LastAttemptAt: TimePtr(row, "last_attempt_at"),
		ErrorMessage:  Str(row, "error_message"),
		SyncedAt:      TimePtr(row, "synced_at"),
		CreatedAt:     Time(row, "created_at"),
		UpdatedAt:     Time(row, "updated_at"),
	}
}

// Ensure OutboxRepository implements the domain interface
var _ outbox.Repository = (*OutboxRepository)(nil)
