package persistence

import (
	"context"
	"fmt"
)

// Row is one result row keyed by column name. Values carry the driver's
// native types; the converters in rowmap.go normalize them.
type Row map[string]any

// Queryer is the query surface shared by an adapter and its
// transaction-scoped handle, so calling code is backend-agnostic and
// transaction-agnostic.
type Queryer interface {
	// Query runs a select spec and returns the matching rows
	Query(ctx context.Context, spec QuerySpec) ([]Row, error)

	// Execute runs an insert/update/delete spec
	Execute(ctx context.Context, spec ExecSpec) (ExecResult, error)
}

// Adapter is the uniform contract over the embedded-file and
// networked-pool backends. Exactly one adapter is active at a time;
// Connect is not retried internally.
type Adapter interface {
	Queryer

	// Connect establishes the connection (or pool). Failures are returned
	// as *ConnectError with a classified kind and a human-readable hint.
	Connect(ctx context.Context) error

	// Disconnect releases the connection. Safe to call when not connected.
	Disconnect() error

	// Initialize bootstraps the schema and seeds defaults. Idempotent.
	Initialize(ctx context.Context) error

	// IsConnected reports whether the backend is currently reachable
	IsConnected() bool

	// Transaction runs fn against a transaction-scoped handle with
	// all-or-nothing semantics: any error (or panic) rolls back every
	// write issued through the handle.
	Transaction(ctx context.Context, fn func(tx Queryer) error) error

	// Dialect returns the SQL dialect of this backend
	Dialect() Dialect
}

// ConnectKind classifies why a connection attempt failed
type ConnectKind int

const (
	ConnectUnknown ConnectKind = iota
	ConnectRefused
	ConnectAuthFailed
	ConnectDatabaseMissing
	ConnectHostNotFound
	ConnectTimeout
)

// ConnectError is a classified connection failure with an operator hint
type ConnectError struct {
	Kind ConnectKind
	Hint string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect failed: %v (%s)", e.Err, e.Hint)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SchemaError means local bootstrap failed; the adapter instance must
// not serve business operations.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string { return fmt.Sprintf("schema bootstrap failed: %v", e.Err) }
func (e *SchemaError) Unwrap() error { return e.Err }

// TransactionError wraps any error raised inside a transaction callback
// after the rollback has been performed.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string { return fmt.Sprintf("transaction rolled back: %v", e.Err) }
func (e *TransactionError) Unwrap() error { return e.Err }

// ErrNotConnected is returned when an operation is issued before Connect
var ErrNotConnected = fmt.Errorf("database adapter is not connected")
