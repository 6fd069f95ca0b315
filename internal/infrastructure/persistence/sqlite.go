package persistence

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteConfig holds embedded backend settings
type SQLiteConfig struct {
	// Path is the database file location; ":memory:" opens an in-memory
	// database (used by tests)
	Path string
}

// SQLiteAdapter is the embedded backend: a single file database with no
// concurrency beyond the engine's own locking.
type SQLiteAdapter struct {
	cfg    SQLiteConfig
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteAdapter creates an unconnected embedded adapter
func NewSQLiteAdapter(cfg SQLiteConfig, logger *zap.Logger) *SQLiteAdapter {
	return &SQLiteAdapter{cfg: cfg, logger: logger}
}

// Connect opens the database file, creating parent directories on first run
func (a *SQLiteAdapter) Connect(ctx context.Context) error {
	if a.cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.Path), 0o755); err != nil {
			return classifySQLiteError(err)
		}
	}
	dsn := a.cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return classifySQLiteError(err)
	}
	// The embedded engine serializes writers; a single connection avoids
	// SQLITE_BUSY churn inside transactions.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return classifySQLiteError(err)
	}
	a.db = db
	a.logger.Info("opened embedded database", zap.String("path", a.cfg.Path))
	return nil
}

// Disconnect closes the database file
func (a *SQLiteAdapter) Disconnect() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Initialize bootstraps the schema and seeds defaults
func (a *SQLiteAdapter) Initialize(ctx context.Context) error {
	if a.db == nil {
		return ErrNotConnected
	}
	return initializeSchema(ctx, a, a.logger)
}

// IsConnected reports whether the database file is open
func (a *SQLiteAdapter) IsConnected() bool {
	if a.db == nil {
		return false
	}
	return a.db.Ping() == nil
}

// Query runs a select spec against the file database
func (a *SQLiteAdapter) Query(ctx context.Context, spec QuerySpec) ([]Row, error) {
	if a.db == nil {
		return nil, ErrNotConnected
	}
	return executor{db: a.db, dialect: SQLiteDialect{}}.Query(ctx, spec)
}

// Execute runs a mutation spec against the file database
func (a *SQLiteAdapter) Execute(ctx context.Context, spec ExecSpec) (ExecResult, error) {
	if a.db == nil {
		return ExecResult{}, ErrNotConnected
	}
	return executor{db: a.db, dialect: SQLiteDialect{}}.Execute(ctx, spec)
}

// Transaction runs fn with all-or-nothing semantics
func (a *SQLiteAdapter) Transaction(ctx context.Context, fn func(tx Queryer) error) error {
	if a.db == nil {
		return ErrNotConnected
	}
	return runInTransaction(ctx, a.db, SQLiteDialect{}, fn)
}

// Dialect returns the sqlite dialect
func (a *SQLiteAdapter) Dialect() Dialect { return SQLiteDialect{} }

func classifySQLiteError(err error) *ConnectError {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &ConnectError{Kind: ConnectAuthFailed, Err: err,
			Hint: "permission denied opening the database file; check file ownership"}
	case errors.Is(err, fs.ErrNotExist):
		return &ConnectError{Kind: ConnectDatabaseMissing, Err: err,
			Hint: "database path does not exist and could not be created"}
	default:
		return &ConnectError{Kind: ConnectUnknown, Err: err,
			Hint: "could not open the embedded database file"}
	}
}

// Ensure SQLiteAdapter implements Adapter
var _ Adapter = (*SQLiteAdapter)(nil)
