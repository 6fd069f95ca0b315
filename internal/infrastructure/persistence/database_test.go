package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/domain/identity"
	"github.com/meditrack/backend/internal/domain/shared"
	"github.com/meditrack/backend/internal/infrastructure/config"
)

func embeddedConfig(path string) *config.Config {
	return &config.Config{Database: config.DatabaseConfig{
		Backend: config.BackendEmbedded,
		Path:    path,
	}}
}

func TestDatabaseSwapBackend(t *testing.T) {
	ctx := context.Background()

	db, err := NewDatabase(embeddedConfig(":memory:"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Open(ctx))
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	branches := NewBranchRepository(db.Adapter())
	kiosk, err := identity.NewBranch("KIOSK1", "Airport Kiosk")
	require.NoError(t, err)
	require.NoError(t, branches.Create(ctx, kiosk))
	old := db.Adapter()

	next := embeddedConfig(filepath.Join(t.TempDir(), "swap.db"))
	require.NoError(t, db.SwapBackend(ctx, next))

	assert.False(t, old.IsConnected())
	require.True(t, db.Adapter().IsConnected())

	// The handle now fronts a freshly bootstrapped store: the seeded
	// main branch exists, the branch created on the old backend does not.
	branches = NewBranchRepository(db.Adapter())
	main, err := branches.FindByCode(ctx, "MAIN")
	require.NoError(t, err)
	assert.True(t, main.IsMain)

	_, err = branches.FindByCode(ctx, "KIOSK1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDatabaseSwapBackendKeepsCurrentOnFailure(t *testing.T) {
	ctx := context.Background()

	db, err := NewDatabase(embeddedConfig(":memory:"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Open(ctx))
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	bad := &config.Config{Database: config.DatabaseConfig{Backend: "carrier-pigeon"}}
	require.Error(t, db.SwapBackend(ctx, bad))

	// Still serving on the original backend.
	assert.True(t, db.Adapter().IsConnected())
	_, err = NewBranchRepository(db.Adapter()).FindByCode(ctx, "MAIN")
	require.NoError(t, err)
}

func TestNewDatabaseUnknownBackend(t *testing.T) {
	_, err := NewDatabase(&config.Config{Database: config.DatabaseConfig{Backend: "dbase"}}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database backend")
}
