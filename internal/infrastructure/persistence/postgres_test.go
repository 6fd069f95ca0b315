package persistence

import (
	"context"
	"errors"
	"net"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockAdapter(t *testing.T) (*PostgresAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresAdapterWithDB(db, zap.NewNop()), mock
}

func TestPostgresDSNEscaping(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "medi track",
		Password: "p@ss/word",
		DBName:   "meditrack",
		SSLMode:  "require",
	}
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "medi%20track")
	assert.Contains(t, dsn, "p%40ss%2Fword")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestPostgresQueryUsesNumberedPlaceholders(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM medicines WHERE (branch_id = $1) AND (name ILIKE $2 ESCAPE '\')`)).
		WithArgs("b1", "%para%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("m1", "Paracetamol"))

	rows, err := adapter.Query(context.Background(), QuerySpec{
		Table: "medicines",
		Where: And(Eq("branch_id", "b1"), Contains("name", "para")),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Paracetamol", Str(rows[0], "name"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertNativeReturning(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO branches (code, id) VALUES ($1, $2) RETURNING *`)).
		WithArgs("MAIN", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow("b1", "MAIN"))

	res, err := adapter.Execute(context.Background(), ExecSpec{
		Kind:      ExecInsert,
		Table:     "branches",
		Values:    map[string]any{"id": "b1", "code": "MAIN"},
		Returning: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Returned, 1)
	assert.Equal(t, "MAIN", Str(res.Returned[0], "code"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransactionRollback(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM outbox WHERE status = $1`)).
		WithArgs("SYNCED").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := adapter.Transaction(context.Background(), func(tx Queryer) error {
		_, execErr := tx.Execute(context.Background(), ExecSpec{
			Kind:  ExecDelete,
			Table: "outbox",
			Where: Eq("status", "SYNCED"),
		})
		require.NoError(t, execErr)
		return boom
	})

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyPostgresError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ConnectKind
	}{
		{"bad password", &pq.Error{Code: "28P01"}, ConnectAuthFailed},
		{"missing database", &pq.Error{Code: "3D000"}, ConnectDatabaseMissing},
		{"unknown host", &net.DNSError{Name: "nowhere.invalid", IsNotFound: true}, ConnectHostNotFound},
		{"refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ConnectRefused},
		{"other", errors.New("something else"), ConnectUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := classifyPostgresError(tt.err)
			assert.Equal(t, tt.kind, ce.Kind)
			assert.NotEmpty(t, ce.Hint)
			assert.ErrorIs(t, ce, tt.err)
		})
	}
}
