package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresConfig holds networked backend connection settings
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// DSN returns the connection string with properly escaped values
func (c *PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// PostgresAdapter is the networked backend: a bounded connection pool
// against a PostgreSQL server.
type PostgresAdapter struct {
	cfg    PostgresConfig
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAdapter creates an unconnected networked adapter
func NewPostgresAdapter(cfg PostgresConfig, logger *zap.Logger) *PostgresAdapter {
	return &PostgresAdapter{cfg: cfg, logger: logger}
}

// NewPostgresAdapterWithDB wraps an existing connection, used by tests
// to substitute a mocked *sql.DB.
func NewPostgresAdapterWithDB(db *sql.DB, logger *zap.Logger) *PostgresAdapter {
	return &PostgresAdapter{db: db, logger: logger}
}

// Connect opens the pool and verifies the server is reachable
func (a *PostgresAdapter) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", a.cfg.DSN())
	if err != nil {
		return classifyPostgresError(err)
	}
	db.SetMaxOpenConns(a.cfg.MaxOpenConns)
	db.SetMaxIdleConns(a.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(a.cfg.ConnMaxLifetime) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(a.cfg.ConnMaxIdleTime) * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return classifyPostgresError(err)
	}
	a.db = db
	a.logger.Info("connected to postgres",
		zap.String("host", a.cfg.Host),
		zap.String("database", a.cfg.DBName),
		zap.Int("max_open_conns", a.cfg.MaxOpenConns),
	)
	return nil
}

// Disconnect closes the pool
func (a *PostgresAdapter) Disconnect() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Initialize bootstraps the schema and seeds defaults
func (a *PostgresAdapter) Initialize(ctx context.Context) error {
	if a.db == nil {
		return ErrNotConnected
	}
	return initializeSchema(ctx, a, a.logger)
}

// IsConnected reports whether the pool is open and the server responds
func (a *PostgresAdapter) IsConnected() bool {
	if a.db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return a.db.PingContext(ctx) == nil
}

// Query runs a select spec against the pool
func (a *PostgresAdapter) Query(ctx context.Context, spec QuerySpec) ([]Row, error) {
	if a.db == nil {
		return nil, ErrNotConnected
	}
	return executor{db: a.db, dialect: PostgresDialect{}}.Query(ctx, spec)
}

// Execute runs a mutation spec against the pool
func (a *PostgresAdapter) Execute(ctx context.Context, spec ExecSpec) (ExecResult, error) {
	if a.db == nil {
		return ExecResult{}, ErrNotConnected
	}
	return executor{db: a.db, dialect: PostgresDialect{}}.Execute(ctx, spec)
}

// Transaction runs fn with all-or-nothing semantics
func (a *PostgresAdapter) Transaction(ctx context.Context, fn func(tx Queryer) error) error {
	if a.db == nil {
		return ErrNotConnected
	}
	return runInTransaction(ctx, a.db, PostgresDialect{}, fn)
}

// Dialect returns the postgres dialect
func (a *PostgresAdapter) Dialect() Dialect { return PostgresDialect{} }

// classifyPostgresError maps driver failures to a typed ConnectError
// with an operator-readable hint.
func classifyPostgresError(err error) *ConnectError {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "28P01", "28000":
			return &ConnectError{Kind: ConnectAuthFailed, Err: err,
				Hint: "authentication failed; check the database user and password"}
		case "3D000":
			return &ConnectError{Kind: ConnectDatabaseMissing, Err: err,
				Hint: "database does not exist; create it or fix the configured name"}
		}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ConnectError{Kind: ConnectHostNotFound, Err: err,
			Hint: "host not found; check the configured database host"}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ConnectError{Kind: ConnectTimeout, Err: err,
			Hint: "connection timed out; check network connectivity and firewall rules"}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &ConnectError{Kind: ConnectRefused, Err: err,
			Hint: "connection refused; check that the server is running and the port is correct"}
	}
	return &ConnectError{Kind: ConnectUnknown, Err: err,
		Hint: "could not connect to the database server"}
}

// Ensure PostgresAdapter implements Adapter
var _ Adapter = (*PostgresAdapter)(nil)
