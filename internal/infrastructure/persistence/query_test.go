package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSQLPlaceholders(t *testing.T) {
	spec := QuerySpec{
		Table: "medicines",
		Where: And(Eq("branch_id", "b1"), Gt("quantity", 0)),
	}

	sql, args := translator{dialect: PostgresDialect{}}.selectSQL(spec)
	assert.Equal(t, "SELECT * FROM medicines WHERE (branch_id = $1) AND (quantity > $2)", sql)
	assert.Equal(t, []any{"b1", 0}, args)

	sql, args = translator{dialect: SQLiteDialect{}}.selectSQL(spec)
	assert.Equal(t, "SELECT * FROM medicines WHERE (branch_id = ?) AND (quantity > ?)", sql)
	assert.Equal(t, []any{"b1", 0}, args)
}

func TestSelectSQLColumnsOrderLimitOffset(t *testing.T) {
	spec := QuerySpec{
		Table:   "sales",
		Columns: []string{"id", "invoice_no"},
		OrderBy: []Order{{Column: "sold_at", Desc: true}, {Column: "id"}},
		Limit:   20,
		Offset:  40,
	}

	sql, args := translator{dialect: PostgresDialect{}}.selectSQL(spec)
	assert.Equal(t, "SELECT id, invoice_no FROM sales ORDER BY sold_at DESC, id ASC LIMIT $1 OFFSET $2", sql)
	assert.Equal(t, []any{20, 40}, args)
}

func TestSelectSQLContains(t *testing.T) {
	spec := QuerySpec{
		Table: "medicines",
		Where: Contains("name", "para"),
	}

	sql, args := translator{dialect: PostgresDialect{}}.selectSQL(spec)
	assert.Equal(t, `SELECT * FROM medicines WHERE name ILIKE $1 ESCAPE '\'`, sql)
	assert.Equal(t, []any{"%para%"}, args)

	sql, args = translator{dialect: SQLiteDialect{}}.selectSQL(spec)
	assert.Equal(t, `SELECT * FROM medicines WHERE name LIKE ? ESCAPE '\'`, sql)
	assert.Equal(t, []any{"%para%"}, args)
}

func TestSelectSQLLikeEscaping(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want any
	}{
		{"percent", Contains("name", "50%"), `%50\%%`},
		{"underscore", StartsWith("name", "a_b"), `a\_b%`},
		{"backslash", EndsWith("name", `c\d`), `%c\\d`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, args := translator{dialect: SQLiteDialect{}}.selectSQL(QuerySpec{Table: "t", Where: tt.pred})
			require.Len(t, args, 1)
			assert.Equal(t, tt.want, args[0])
		})
	}
}

func TestSelectSQLInSet(t *testing.T) {
	sql, args := translator{dialect: PostgresDialect{}}.selectSQL(QuerySpec{
		Table: "outbox",
		Where: In("id", "a", "b", "c"),
	})
	assert.Equal(t, "SELECT * FROM outbox WHERE id IN ($1, $2, $3)", sql)
	assert.Equal(t, []any{"a", "b", "c"}, args)
}

func TestSelectSQLEmptyIn(t *testing.T) {
	sql, args := translator{dialect: SQLiteDialect{}}.selectSQL(QuerySpec{
		Table: "outbox",
		Where: In("id"),
	})
	assert.Equal(t, "SELECT * FROM outbox WHERE 1 = 0", sql)
	assert.Empty(t, args)

	sql, _ = translator{dialect: SQLiteDialect{}}.selectSQL(QuerySpec{
		Table: "outbox",
		Where: NotIn("id"),
	})
	assert.Equal(t, "SELECT * FROM outbox WHERE 1 = 1", sql)
}

func TestSelectSQLColumnReference(t *testing.T) {
	sql, args := translator{dialect: PostgresDialect{}}.selectSQL(QuerySpec{
		Table: "medicines",
		Where: Lte("quantity", Col("reorder_level")),
	})
	assert.Equal(t, "SELECT * FROM medicines WHERE quantity <= reorder_level", sql)
	assert.Empty(t, args)
}

func TestSelectSQLNullAndNot(t *testing.T) {
	sql, args := translator{dialect: SQLiteDialect{}}.selectSQL(QuerySpec{
		Table: "medicines",
		Where: And(NotNull("barcode"), Not(Eq("status", "DISCONTINUED"))),
	})
	assert.Equal(t, "SELECT * FROM medicines WHERE (barcode IS NOT NULL) AND (NOT (status = ?))", sql)
	assert.Equal(t, []any{"DISCONTINUED"}, args)
}

func TestSelectSQLAggregates(t *testing.T) {
	sql, args := translator{dialect: PostgresDialect{}}.selectSQL(QuerySpec{
		Table:   "sales",
		Where:   Eq("branch_id", "b1"),
		GroupBy: []string{"branch_id"},
		Aggregates: []Aggregate{
			{Func: AggCount, Column: "*", Alias: "n"},
			{Func: AggSum, Column: "total", Alias: "revenue"},
		},
	})
	assert.Equal(t, "SELECT branch_id, COUNT(*) AS n, SUM(total) AS revenue FROM sales WHERE branch_id = $1 GROUP BY branch_id", sql)
	assert.Equal(t, []any{"b1"}, args)
}

func TestInsertSQL(t *testing.T) {
	spec := ExecSpec{
		Kind:  ExecInsert,
		Table: "settings",
		Values: map[string]any{
			"value": "x",
			"key":   "k",
		},
	}

	sql, args := translator{dialect: SQLiteDialect{}}.insertSQL(spec)
	assert.Equal(t, "INSERT INTO settings (key, value) VALUES (?, ?)", sql)
	assert.Equal(t, []any{"k", "x"}, args)
}

func TestInsertSQLReturning(t *testing.T) {
	spec := ExecSpec{
		Kind:      ExecInsert,
		Table:     "branches",
		Values:    map[string]any{"id": "b1"},
		Returning: true,
	}

	sql, _ := translator{dialect: PostgresDialect{}}.insertSQL(spec)
	assert.Equal(t, "INSERT INTO branches (id) VALUES ($1) RETURNING *", sql)

	// The embedded backend emulates RETURNING with a follow-up read.
	sql, _ = translator{dialect: SQLiteDialect{}}.insertSQL(spec)
	assert.Equal(t, "INSERT INTO branches (id) VALUES (?)", sql)
}

func TestUpdateSQLMutations(t *testing.T) {
	spec := ExecSpec{
		Kind:  ExecUpdate,
		Table: "outbox",
		Set:   map[string]any{"error_message": "boom"},
		Mutations: []Mutation{
			{Column: "attempts", Op: MutIncrement, Value: 1},
		},
		Where: In("id", "o1", "o2"),
	}

	sql, args := translator{dialect: PostgresDialect{}}.updateSQL(spec)
	assert.Equal(t, "UPDATE outbox SET error_message = $1, attempts = attempts + $2 WHERE id IN ($3, $4)", sql)
	assert.Equal(t, []any{"boom", 1, "o1", "o2"}, args)
}

func TestUpdateSQLMutatorOperators(t *testing.T) {
	for op, frag := range map[MutationOp]string{
		MutIncrement: "quantity = quantity + ?",
		MutDecrement: "quantity = quantity - ?",
		MutMultiply:  "quantity = quantity * ?",
		MutDivide:    "quantity = quantity / ?",
	} {
		sql, _ := translator{dialect: SQLiteDialect{}}.updateSQL(ExecSpec{
			Kind:      ExecUpdate,
			Table:     "medicines",
			Mutations: []Mutation{{Column: "quantity", Op: op, Value: 2}},
		})
		assert.Equal(t, "UPDATE medicines SET "+frag, sql)
	}
}

func TestDeleteSQL(t *testing.T) {
	sql, args := translator{dialect: PostgresDialect{}}.deleteSQL(ExecSpec{
		Kind:  ExecDelete,
		Table: "outbox",
		Where: And(Eq("status", "SYNCED"), Lt("synced_at", "cutoff")),
	})
	assert.Equal(t, "DELETE FROM outbox WHERE (status = $1) AND (synced_at < $2)", sql)
	assert.Equal(t, []any{"SYNCED", "cutoff"}, args)
}

func TestOrPredicate(t *testing.T) {
	sql, args := translator{dialect: SQLiteDialect{}}.selectSQL(QuerySpec{
		Table: "medicines",
		Where: Or(Eq("barcode", "123"), Contains("name", "123")),
	})
	assert.Equal(t, `SELECT * FROM medicines WHERE (barcode = ?) OR (name LIKE ? ESCAPE '\')`, sql)
	assert.Equal(t, []any{"123", "%123%"}, args)
}
