package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "meditrack-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, BackendEmbedded, cfg.Database.Backend)
	assert.Equal(t, "meditrack.db", cfg.Database.Path)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 200, cfg.Sync.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Sync.RequestTimeout)
	assert.Equal(t, 168*time.Hour, cfg.Sync.OutboxRetention)
	assert.Equal(t, "8471", cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MEDITRACK_DATABASE_BACKEND", "networked")
	t.Setenv("MEDITRACK_DATABASE_HOST", "db.internal")
	t.Setenv("MEDITRACK_SYNC_SERVER_URL", "https://cloud.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendNetworked, cfg.Database.Backend)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "https://cloud.example.com", cfg.Sync.ServerURL)
}

func TestValidateBackend(t *testing.T) {
	t.Setenv("MEDITRACK_DATABASE_BACKEND", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.backend")
}

func TestValidateServerURL(t *testing.T) {
	t.Setenv("MEDITRACK_SYNC_SERVER_URL", "cloud.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.server_url")
}

func TestValidatePoolBounds(t *testing.T) {
	t.Setenv("MEDITRACK_DATABASE_MAX_OPEN_CONNS", "2")
	t.Setenv("MEDITRACK_DATABASE_MAX_IDLE_CONNS", "5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_idle_conns")
}

func TestValidateProduction(t *testing.T) {
	t.Setenv("MEDITRACK_APP_ENV", "production")
	t.Setenv("MEDITRACK_DATABASE_BACKEND", "networked")
	t.Setenv("MEDITRACK_DATABASE_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.password")
}

func TestValidateProductionSyncURL(t *testing.T) {
	t.Setenv("MEDITRACK_APP_ENV", "production")
	t.Setenv("MEDITRACK_SYNC_SERVER_URL", "http://cloud.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https")
}
