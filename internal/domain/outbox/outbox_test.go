package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewEntry(t *testing.T) {
	entityID := uuid.New()
	e := NewEntry(EntityMedicine, entityID, OperationCreate, []byte(`{"name":"x"}`))

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, EntityMedicine, e.EntityType)
	assert.Equal(t, entityID, e.EntityID)
	assert.Equal(t, StatusPending, e.Status)
	assert.Zero(t, e.Attempts)
	assert.Nil(t, e.SyncedAt)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestEntryMarkSynced(t *testing.T) {
	e := NewEntry(EntitySale, uuid.New(), OperationCreate, nil)
	at := time.Now().Add(time.Minute)

	e.MarkSynced(at)
	assert.Equal(t, StatusSynced, e.Status)
	assert.Equal(t, at, *e.SyncedAt)
	assert.Equal(t, at, e.UpdatedAt)
}

func TestEntryMarkFailed(t *testing.T) {
	e := NewEntry(EntityCustomer, uuid.New(), OperationUpdate, nil)

	e.MarkFailed("connection refused")
	e.MarkFailed("server returned 503")

	assert.Equal(t, StatusPending, e.Status)
	assert.Equal(t, 2, e.Attempts)
	assert.Equal(t, "server returned 503", e.ErrorMessage)
	assert.NotNil(t, e.LastAttemptAt)
	assert.Nil(t, e.SyncedAt)
}
