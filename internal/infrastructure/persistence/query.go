package persistence

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect captures the differences between the embedded and networked
// SQL renderings: placeholder style, case-insensitive match operator and
// native RETURNING support.
type Dialect interface {
	// Name returns the dialect name ("postgres" or "sqlite")
	Name() string
	// Placeholder returns the placeholder for the n-th parameter (1-based)
	Placeholder(n int) string
	// CaseInsensitiveLike returns the operator used for contains/startsWith/endsWith
	CaseInsensitiveLike() string
	// SupportsReturning reports whether INSERT/UPDATE ... RETURNING works natively
	SupportsReturning() bool
}

// PostgresDialect renders $n placeholders and ILIKE
type PostgresDialect struct{}

func (PostgresDialect) Name() string               { return "postgres" }
func (PostgresDialect) Placeholder(n int) string   { return fmt.Sprintf("$%d", n) }
func (PostgresDialect) CaseInsensitiveLike() string { return "ILIKE" }
func (PostgresDialect) SupportsReturning() bool    { return true }

// SQLiteDialect renders ordinal ? placeholders. LIKE here is
// case-insensitive only for ASCII, so contains/startsWith/endsWith can
// diverge from the networked backend on non-ASCII data.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string               { return "sqlite" }
func (SQLiteDialect) Placeholder(int) string     { return "?" }
func (SQLiteDialect) CaseInsensitiveLike() string { return "LIKE" }
func (SQLiteDialect) SupportsReturning() bool    { return false }

// Predicate is a node in a where-clause tree. Implementations are the
// tagged condition types below; they render themselves against a dialect.
type Predicate interface {
	render(d Dialect, args *[]any) string
}

// CondOp enumerates leaf comparison operators
type CondOp int

const (
	OpEq CondOp = iota
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
	OpNotIn
	OpContains
	OpStartsWith
	OpEndsWith
	OpIsNull
	OpNotNull
)

// Col marks a comparison value as a column reference rather than a
// bound parameter, e.g. Lte("quantity", Col("reorder_level")).
type Col string

// Cond is a single column comparison
type Cond struct {
	Column string
	Op     CondOp
	Value  any
	Values []any // for OpIn / OpNotIn
}

type andPred struct{ children []Predicate }
type orPred struct{ children []Predicate }
type notPred struct{ child Predicate }

// Eq builds an equality condition
func Eq(column string, value any) Predicate { return Cond{Column: column, Op: OpEq, Value: value} }

// Neq builds an inequality condition
func Neq(column string, value any) Predicate { return Cond{Column: column, Op: OpNeq, Value: value} }

// Gt builds a greater-than condition
func Gt(column string, value any) Predicate { return Cond{Column: column, Op: OpGt, Value: value} }

// Gte builds a greater-or-equal condition
func Gte(column string, value any) Predicate { return Cond{Column: column, Op: OpGte, Value: value} }

// Lt builds a less-than condition
func Lt(column string, value any) Predicate { return Cond{Column: column, Op: OpLt, Value: value} }

// Lte builds a less-or-equal condition
func Lte(column string, value any) Predicate { return Cond{Column: column, Op: OpLte, Value: value} }

// In builds a set membership condition
func In(column string, values ...any) Predicate {
	return Cond{Column: column, Op: OpIn, Values: values}
}

// NotIn builds a negated set membership condition
func NotIn(column string, values ...any) Predicate {
	return Cond{Column: column, Op: OpNotIn, Values: values}
}

// Contains builds a substring match (case behavior is dialect-dependent, see Dialect)
func Contains(column, value string) Predicate {
	return Cond{Column: column, Op: OpContains, Value: value}
}

// StartsWith builds a prefix match
func StartsWith(column, value string) Predicate {
	return Cond{Column: column, Op: OpStartsWith, Value: value}
}

// EndsWith builds a suffix match
func EndsWith(column, value string) Predicate {
	return Cond{Column: column, Op: OpEndsWith, Value: value}
}

// IsNull matches rows where the column is NULL
func IsNull(column string) Predicate { return Cond{Column: column, Op: OpIsNull} }

// NotNull matches rows where the column is not NULL
func NotNull(column string) Predicate { return Cond{Column: column, Op: OpNotNull} }

// And combines predicates conjunctively
func And(preds ...Predicate) Predicate { return andPred{children: preds} }

// Or combines predicates disjunctively
func Or(preds ...Predicate) Predicate { return orPred{children: preds} }

// Not negates a predicate
func Not(pred Predicate) Predicate { return notPred{child: pred} }

func (c Cond) render(d Dialect, args *[]any) string {
	ph := func(v any) string {
		if col, ok := v.(Col); ok {
			return string(col)
		}
		*args = append(*args, v)
		return d.Placeholder(len(*args))
	}
	switch c.Op {
	case OpEq:
		return fmt.Sprintf("%s = %s", c.Column, ph(c.Value))
	case OpNeq:
		return fmt.Sprintf("%s <> %s", c.Column, ph(c.Value))
	case OpGt:
		return fmt.Sprintf("%s > %s", c.Column, ph(c.Value))
	case OpGte:
		return fmt.Sprintf("%s >= %s", c.Column, ph(c.Value))
	case OpLt:
		return fmt.Sprintf("%s < %s", c.Column, ph(c.Value))
	case OpLte:
		return fmt.Sprintf("%s <= %s", c.Column, ph(c.Value))
	case OpIn, OpNotIn:
		if len(c.Values) == 0 {
			// Empty IN matches nothing; empty NOT IN matches everything.
			if c.Op == OpIn {
				return "1 = 0"
			}
			return "1 = 1"
		}
		phs := make([]string, len(c.Values))
		for i, v := range c.Values {
			phs[i] = ph(v)
		}
		op := "IN"
		if c.Op == OpNotIn {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", c.Column, op, strings.Join(phs, ", "))
	case OpContains:
		return fmt.Sprintf(`%s %s %s ESCAPE '\'`, c.Column, d.CaseInsensitiveLike(), ph("%"+escapeLike(fmt.Sprint(c.Value))+"%"))
	case OpStartsWith:
		return fmt.Sprintf(`%s %s %s ESCAPE '\'`, c.Column, d.CaseInsensitiveLike(), ph(escapeLike(fmt.Sprint(c.Value))+"%"))
	case OpEndsWith:
		return fmt.Sprintf(`%s %s %s ESCAPE '\'`, c.Column, d.CaseInsensitiveLike(), ph("%"+escapeLike(fmt.Sprint(c.Value))))
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", c.Column)
	case OpNotNull:
		return fmt.Sprintf("%s IS NOT NULL", c.Column)
	}
	return "1 = 0"
}

func (p andPred) render(d Dialect, args *[]any) string {
	return renderComposite(p.children, "AND", d, args)
}

func (p orPred) render(d Dialect, args *[]any) string {
	return renderComposite(p.children, "OR", d, args)
}

func (p notPred) render(d Dialect, args *[]any) string {
	return fmt.Sprintf("NOT (%s)", p.child.render(d, args))
}

func renderComposite(children []Predicate, op string, d Dialect, args *[]any) string {
	if len(children) == 0 {
		return "1 = 1"
	}
	if len(children) == 1 {
		return children[0].render(d, args)
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = "(" + c.render(d, args) + ")"
	}
	return strings.Join(parts, " "+op+" ")
}

// escapeLike escapes LIKE wildcards in user-supplied match values
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// AggFunc enumerates supported aggregate functions
type AggFunc string

const (
	AggSum   AggFunc = "SUM"
	AggCount AggFunc = "COUNT"
	AggAvg   AggFunc = "AVG"
	AggMin   AggFunc = "MIN"
	AggMax   AggFunc = "MAX"
)

// Aggregate selects an aggregate expression with an output alias
type Aggregate struct {
	Func   AggFunc
	Column string // "*" allowed for COUNT
	Alias  string
}

// Order specifies a sort column
type Order struct {
	Column string
	Desc   bool
}

// QuerySpec is the declarative query shape translated to backend SQL.
// When Aggregates is set the select list becomes GroupBy + aggregates.
type QuerySpec struct {
	Table      string
	Columns    []string // empty means *
	Where      Predicate
	OrderBy    []Order
	Limit      int
	Offset     int
	GroupBy    []string
	Aggregates []Aggregate
}

// MutationOp enumerates atomic column mutators
type MutationOp string

const (
	MutIncrement MutationOp = "increment"
	MutDecrement MutationOp = "decrement"
	MutMultiply  MutationOp = "multiply"
	MutDivide    MutationOp = "divide"
)

// Mutation applies an arithmetic update relative to the current column
// value, so concurrent writers do not race through read-modify-write.
type Mutation struct {
	Column string
	Op     MutationOp
	Value  any
}

// ExecKind tags an ExecSpec
type ExecKind int

const (
	ExecInsert ExecKind = iota
	ExecUpdate
	ExecDelete
)

// ExecSpec is the declarative mutation shape. Set carries plain
// assignments, Mutations the atomic arithmetic ones. Returning asks for
// the affected rows back (native on postgres, emulated on sqlite).
type ExecSpec struct {
	Kind      ExecKind
	Table     string
	Values    map[string]any // insert column values
	Set       map[string]any // update assignments
	Mutations []Mutation
	Where     Predicate
	Returning bool
}

// ExecResult reports a completed mutation
type ExecResult struct {
	RowsAffected int64
	Returned     []Row
}

// translator renders specs to SQL for one dialect
type translator struct {
	dialect Dialect
}

// selectSQL renders a QuerySpec to SQL and its argument list
func (t translator) selectSQL(spec QuerySpec) (string, []any) {
	var args []any
	var sb strings.Builder

	sb.WriteString("SELECT ")
	switch {
	case len(spec.Aggregates) > 0:
		parts := make([]string, 0, len(spec.GroupBy)+len(spec.Aggregates))
		parts = append(parts, spec.GroupBy...)
		for _, a := range spec.Aggregates {
			parts = append(parts, fmt.Sprintf("%s(%s) AS %s", a.Func, a.Column, a.Alias))
		}
		sb.WriteString(strings.Join(parts, ", "))
	case len(spec.Columns) > 0:
		sb.WriteString(strings.Join(spec.Columns, ", "))
	default:
		sb.WriteString("*")
	}
	sb.WriteString(" FROM ")
	sb.WriteString(spec.Table)

	if spec.Where != nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(spec.Where.render(t.dialect, &args))
	}
	if len(spec.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(spec.GroupBy, ", "))
	}
	if len(spec.OrderBy) > 0 {
		parts := make([]string, len(spec.OrderBy))
		for i, o := range spec.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = o.Column + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	if spec.Limit > 0 {
		args = append(args, spec.Limit)
		sb.WriteString(" LIMIT " + t.dialect.Placeholder(len(args)))
	}
	if spec.Offset > 0 {
		args = append(args, spec.Offset)
		sb.WriteString(" OFFSET " + t.dialect.Placeholder(len(args)))
	}
	return sb.String(), args
}

// insertSQL renders an insert. Column order is sorted for stable output.
func (t translator) insertSQL(spec ExecSpec) (string, []any) {
	cols := sortedKeys(spec.Values)
	var args []any
	phs := make([]string, len(cols))
	for i, c := range cols {
		args = append(args, spec.Values[c])
		phs[i] = t.dialect.Placeholder(len(args))
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		spec.Table, strings.Join(cols, ", "), strings.Join(phs, ", "))
	if spec.Returning && t.dialect.SupportsReturning() {
		sql += " RETURNING *"
	}
	return sql, args
}

// updateSQL renders an update with plain assignments and atomic mutators
func (t translator) updateSQL(spec ExecSpec) (string, []any) {
	var args []any
	sets := make([]string, 0, len(spec.Set)+len(spec.Mutations))
	for _, c := range sortedKeys(spec.Set) {
		args = append(args, spec.Set[c])
		sets = append(sets, fmt.Sprintf("%s = %s", c, t.dialect.Placeholder(len(args))))
	}
	for _, m := range spec.Mutations {
		args = append(args, m.Value)
		ph := t.dialect.Placeholder(len(args))
		switch m.Op {
		case MutIncrement:
			sets = append(sets, fmt.Sprintf("%s = %s + %s", m.Column, m.Column, ph))
		case MutDecrement:
			sets = append(sets, fmt.Sprintf("%s = %s - %s", m.Column, m.Column, ph))
		case MutMultiply:
			sets = append(sets, fmt.Sprintf("%s = %s * %s", m.Column, m.Column, ph))
		case MutDivide:
			sets = append(sets, fmt.Sprintf("%s = %s / %s", m.Column, m.Column, ph))
		}
	}
	sql := fmt.Sprintf("UPDATE %s SET %s", spec.Table, strings.Join(sets, ", "))
	if spec.Where != nil {
		sql += " WHERE " + spec.Where.render(t.dialect, &args)
	}
	if spec.Returning && t.dialect.SupportsReturning() {
		sql += " RETURNING *"
	}
	return sql, args
}

// deleteSQL renders a delete
func (t translator) deleteSQL(spec ExecSpec) (string, []any) {
	var args []any
	sql := "DELETE FROM " + spec.Table
	if spec.Where != nil {
		sql += " WHERE " + spec.Where.render(t.dialect, &args)
	}
	return sql, args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
