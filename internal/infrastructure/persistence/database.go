package persistence

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/meditrack/backend/internal/infrastructure/config"
)

// Database owns the active storage adapter. It is constructed once at
// startup and handed to repositories and the sync engine; which backend
// sits behind it is a configuration concern the rest of the code never
// sees. Exactly one adapter is active at a time; SwapBackend replaces
// it without restarting the process.
type Database struct {
	mu      sync.RWMutex
	adapter Adapter
	logger  *zap.Logger
}

// NewDatabase builds the adapter selected by the configuration
func NewDatabase(cfg *config.Config, logger *zap.Logger) (*Database, error) {
	adapter, err := buildAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Database{adapter: adapter, logger: logger}, nil
}

// NewDatabaseWithAdapter wraps an already constructed adapter. Used by
// tests and by callers that build adapters directly.
func NewDatabaseWithAdapter(adapter Adapter, logger *zap.Logger) *Database {
	return &Database{adapter: adapter, logger: logger}
}

func buildAdapter(cfg *config.Config, logger *zap.Logger) (Adapter, error) {
	switch cfg.Database.Backend {
	case config.BackendEmbedded:
		return NewSQLiteAdapter(SQLiteConfig{Path: cfg.Database.Path}, logger), nil
	case config.BackendNetworked:
		return NewPostgresAdapter(PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown database backend: %q", cfg.Database.Backend)
	}
}

// Open connects and bootstraps the schema
func (d *Database) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.adapter.Connect(ctx); err != nil {
		return err
	}
	if err := d.adapter.Initialize(ctx); err != nil {
		// Leave no half-open handle behind a failed bootstrap
		_ = d.adapter.Disconnect()
		return err
	}
	d.logger.Info("database ready", zap.String("backend", d.adapter.Dialect().Name()))
	return nil
}

// SwapBackend replaces the active adapter with one built from cfg. The
// replacement is connected and bootstrapped before the old adapter is
// torn down; on any failure the current adapter stays active.
func (d *Database) SwapBackend(ctx context.Context, cfg *config.Config) error {
	next, err := buildAdapter(cfg, d.logger)
	if err != nil {
		return err
	}
	if err := next.Connect(ctx); err != nil {
		return err
	}
	if err := next.Initialize(ctx); err != nil {
		_ = next.Disconnect()
		return err
	}

	d.mu.Lock()
	old := d.adapter
	d.adapter = next
	d.mu.Unlock()

	if old != nil && old.IsConnected() {
		if err := old.Disconnect(); err != nil {
			d.logger.Warn("previous backend did not close cleanly", zap.Error(err))
		}
	}
	d.logger.Info("database backend swapped", zap.String("backend", next.Dialect().Name()))
	return nil
}

// Close releases the underlying connection pool
func (d *Database) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapter.Disconnect()
}

// Adapter returns the active adapter
func (d *Database) Adapter() Adapter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.adapter
}
