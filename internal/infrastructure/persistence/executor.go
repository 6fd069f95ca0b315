package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// executor implements Queryer over a *sql.DB or *sql.Tx. Both adapters
// and their transaction handles share this, which is what makes the
// scoped handle expose the exact same surface as the outer adapter.
type executor struct {
	db      dbtx
	dialect Dialect
}

func (e executor) Query(ctx context.Context, spec QuerySpec) ([]Row, error) {
	query, args := translator{e.dialect}.selectSQL(spec)
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.Table, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (e executor) Execute(ctx context.Context, spec ExecSpec) (ExecResult, error) {
	t := translator{e.dialect}
	switch spec.Kind {
	case ExecInsert:
		return e.execInsert(ctx, t, spec)
	case ExecUpdate:
		return e.execUpdate(ctx, t, spec)
	case ExecDelete:
		query, args := t.deleteSQL(spec)
		return e.execPlain(ctx, query, args, spec.Table)
	}
	return ExecResult{}, fmt.Errorf("unsupported exec kind %d", spec.Kind)
}

func (e executor) execInsert(ctx context.Context, t translator, spec ExecSpec) (ExecResult, error) {
	query, args := t.insertSQL(spec)
	if spec.Returning && e.dialect.SupportsReturning() {
		return e.queryReturning(ctx, query, args, spec.Table)
	}
	res, err := e.execPlain(ctx, query, args, spec.Table)
	if err != nil || !spec.Returning {
		return res, err
	}
	// RETURNING emulation: re-select the inserted row by primary key.
	id, ok := spec.Values["id"]
	if !ok {
		return res, nil
	}
	returned, err := e.Query(ctx, QuerySpec{Table: spec.Table, Where: Eq("id", id)})
	if err != nil {
		return res, err
	}
	res.Returned = returned
	return res, nil
}

func (e executor) execUpdate(ctx context.Context, t translator, spec ExecSpec) (ExecResult, error) {
	query, args := t.updateSQL(spec)
	if spec.Returning && e.dialect.SupportsReturning() {
		return e.queryReturning(ctx, query, args, spec.Table)
	}
	// RETURNING emulation: the filter may reference a column the update
	// itself rewrites, so capture the matched row keys before the UPDATE
	// and re-read by key afterwards. rowid is stable across an UPDATE
	// and exists on every table regardless of its declared primary key.
	// Rows deleted between the update and the re-read are absent from
	// Returned.
	var keys []any
	if spec.Returning {
		matched, err := e.Query(ctx, QuerySpec{Table: spec.Table, Columns: []string{"rowid"}, Where: spec.Where})
		if err != nil {
			return ExecResult{}, err
		}
		for _, row := range matched {
			keys = append(keys, row["rowid"])
		}
	}
	res, err := e.execPlain(ctx, query, args, spec.Table)
	if err != nil || !spec.Returning || len(keys) == 0 {
		return res, err
	}
	returned, err := e.Query(ctx, QuerySpec{Table: spec.Table, Where: In("rowid", keys...)})
	if err != nil {
		return res, err
	}
	res.Returned = returned
	return res, nil
}

func (e executor) execPlain(ctx context.Context, query string, args []any, table string) (ExecResult, error) {
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, fmt.Errorf("execute %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return ExecResult{}, fmt.Errorf("rows affected %s: %w", table, err)
	}
	return ExecResult{RowsAffected: affected}, nil
}

func (e executor) queryReturning(ctx context.Context, query string, args []any, table string) (ExecResult, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, fmt.Errorf("execute %s: %w", table, err)
	}
	defer rows.Close()
	returned, err := scanRows(rows)
	if err != nil {
		return ExecResult{}, err
	}
	return ExecResult{RowsAffected: int64(len(returned)), Returned: returned}, nil
}

// scanRows reads all rows into column-keyed maps
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// runInTransaction provides the shared all-or-nothing transaction flow
func runInTransaction(ctx context.Context, db *sql.DB, dialect Dialect, fn func(tx Queryer) error) (err error) {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()
	if err := fn(executor{db: sqlTx, dialect: dialect}); err != nil {
		_ = sqlTx.Rollback()
		return &TransactionError{Err: err}
	}
	if err := sqlTx.Commit(); err != nil {
		return &TransactionError{Err: err}
	}
	return nil
}
