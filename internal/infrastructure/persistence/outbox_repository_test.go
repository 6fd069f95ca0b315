package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrack/backend/internal/domain/outbox"
)

func seedEntry(t *testing.T, repo *OutboxRepository, entityType outbox.EntityType, op outbox.Operation, createdAt time.Time) *outbox.Entry {
	t.Helper()
	e := outbox.NewEntry(entityType, uuid.New(), op, []byte(`{}`))
	e.CreatedAt = createdAt
	e.UpdatedAt = createdAt
	require.NoError(t, repo.Save(context.Background(), e))
	return e
}

func TestOutboxFindPendingOrder(t *testing.T) {
	repo := NewOutboxRepository(newMemoryAdapter(t))
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	third := seedEntry(t, repo, outbox.EntitySale, outbox.OperationCreate, base.Add(2*time.Minute))
	first := seedEntry(t, repo, outbox.EntityMedicine, outbox.OperationCreate, base)
	second := seedEntry(t, repo, outbox.EntityMedicine, outbox.OperationUpdate, base.Add(time.Minute))

	got, err := repo.FindPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, third.ID, got[2].ID)

	limited, err := repo.FindPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, first.ID, limited[0].ID)
}

func TestOutboxMarkSynced(t *testing.T) {
	repo := NewOutboxRepository(newMemoryAdapter(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	a := seedEntry(t, repo, outbox.EntityCustomer, outbox.OperationCreate, now.Add(-time.Hour))
	b := seedEntry(t, repo, outbox.EntityCustomer, outbox.OperationUpdate, now.Add(-time.Hour))

	require.NoError(t, repo.MarkSynced(ctx, []uuid.UUID{a.ID, b.ID}, now))

	pending, err := repo.FindPending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOutboxMarkFailedKeepsEntryPending(t *testing.T) {
	repo := NewOutboxRepository(newMemoryAdapter(t))
	ctx := context.Background()

	e := seedEntry(t, repo, outbox.EntityBranch, outbox.OperationUpdate, time.Now().UTC())

	require.NoError(t, repo.MarkFailed(ctx, []uuid.UUID{e.ID}, "server unreachable"))
	require.NoError(t, repo.MarkFailed(ctx, []uuid.UUID{e.ID}, "server unreachable"))

	pending, err := repo.FindPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts)
	assert.Equal(t, "server unreachable", pending[0].ErrorMessage)
	assert.NotNil(t, pending[0].LastAttemptAt)
	assert.Equal(t, outbox.StatusPending, pending[0].Status)
}

func TestOutboxMarkEmptyIDs(t *testing.T) {
	repo := NewOutboxRepository(newMemoryAdapter(t))
	ctx := context.Background()

	assert.NoError(t, repo.MarkSynced(ctx, nil, time.Now()))
	assert.NoError(t, repo.MarkFailed(ctx, nil, "x"))
}

func TestOutboxDeleteSyncedOlderThan(t *testing.T) {
	repo := NewOutboxRepository(newMemoryAdapter(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	old := seedEntry(t, repo, outbox.EntitySale, outbox.OperationCreate, now.Add(-72*time.Hour))
	recent := seedEntry(t, repo, outbox.EntitySale, outbox.OperationCreate, now.Add(-time.Hour))
	stillPending := seedEntry(t, repo, outbox.EntitySale, outbox.OperationCreate, now.Add(-72*time.Hour))

	require.NoError(t, repo.MarkSynced(ctx, []uuid.UUID{old.ID}, now.Add(-48*time.Hour)))
	require.NoError(t, repo.MarkSynced(ctx, []uuid.UUID{recent.ID}, now))

	removed, err := repo.DeleteSyncedOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The pending entry survives regardless of age.
	pending, err := repo.FindPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, stillPending.ID, pending[0].ID)
}
