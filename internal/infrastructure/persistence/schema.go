package persistence

import (
	"context"
	"fmt"

	"github.com/meditrack/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// sentinelTable is the existence check that gates bootstrap. If it is
// present the full schema is assumed present; there is no migration
// ledger and schema evolution is out of scope.
const sentinelTable = "settings"

// Default administrator seeded on first run. The password must be
// changed after the first login; a warning is logged on every seed.
const (
	defaultAdminName     = "Administrator"
	defaultAdminEmail    = "admin@meditrack.local"
	defaultAdminPassword = "admin123"
	defaultBranchCode    = "MAIN"
	defaultBranchName    = "Main Branch"
)

// schemaTarget is the surface bootstrap needs from an adapter. rawExec
// stays package-private so DDL strings cannot be issued by calling code.
type schemaTarget interface {
	Queryer
	Dialect() Dialect
	rawExec(ctx context.Context, stmt string) error
}

func (a *PostgresAdapter) rawExec(ctx context.Context, stmt string) error {
	_, err := a.db.ExecContext(ctx, stmt)
	return err
}

func (a *SQLiteAdapter) rawExec(ctx context.Context, stmt string) error {
	_, err := a.db.ExecContext(ctx, stmt)
	return err
}

// initializeSchema bootstraps the table set when the sentinel is absent
// and then seeds defaults. Safe to call on every startup.
func initializeSchema(ctx context.Context, target schemaTarget, logger *zap.Logger) error {
	exists, err := sentinelExists(ctx, target)
	if err != nil {
		return &SchemaError{Err: err}
	}
	if !exists {
		logger.Info("bootstrapping database schema", zap.String("dialect", target.Dialect().Name()))
		for _, stmt := range schemaStatements(target.Dialect()) {
			if err := target.rawExec(ctx, stmt); err != nil {
				return &SchemaError{Err: fmt.Errorf("creating schema: %w", err)}
			}
		}
	}
	if err := seedDefaults(ctx, target, logger); err != nil {
		return &SchemaError{Err: fmt.Errorf("seeding defaults: %w", err)}
	}
	return nil
}

func sentinelExists(ctx context.Context, target schemaTarget) (bool, error) {
	var spec QuerySpec
	if target.Dialect().Name() == "postgres" {
		spec = QuerySpec{
			Table:   "information_schema.tables",
			Columns: []string{"table_name"},
			Where: And(
				Eq("table_schema", "public"),
				Eq("table_name", sentinelTable),
			),
		}
	} else {
		spec = QuerySpec{
			Table:   "sqlite_master",
			Columns: []string{"name"},
			Where: And(
				Eq("type", "table"),
				Eq("name", sentinelTable),
			),
		}
	}
	rows, err := target.Query(ctx, spec)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// columnTypes holds the dialect-specific type names used in the DDL
type columnTypes struct {
	integer   string
	numeric   string
	timestamp string
	boolean   string
}

func typesFor(d Dialect) columnTypes {
	if d.Name() == "postgres" {
		return columnTypes{integer: "BIGINT", numeric: "NUMERIC(18,4)", timestamp: "TIMESTAMPTZ", boolean: "BOOLEAN"}
	}
	return columnTypes{integer: "INTEGER", numeric: "NUMERIC", timestamp: "TEXT", boolean: "INTEGER"}
}

func schemaStatements(d Dialect) []string {
	t := typesFor(d)
	return []string{
		`CREATE TABLE IF NOT EXISTS branches (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			is_main ` + t.boolean + ` NOT NULL DEFAULT ` + boolLit(d, false) + `,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			branch_id TEXT REFERENCES branches(id),
			status TEXT NOT NULL DEFAULT 'active',
			last_login_at ` + t.timestamp + `,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			contact_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			balance ` + t.numeric + ` NOT NULL DEFAULT 0,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS medicines (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			generic_name TEXT NOT NULL DEFAULT '',
			batch_no TEXT NOT NULL,
			barcode TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			manufacturer TEXT NOT NULL DEFAULT '',
			supplier_id TEXT REFERENCES suppliers(id),
			branch_id TEXT REFERENCES branches(id),
			quantity ` + t.integer + ` NOT NULL DEFAULT 0,
			reorder_level ` + t.integer + ` NOT NULL DEFAULT 0,
			cost_price ` + t.numeric + ` NOT NULL DEFAULT 0,
			selling_price ` + t.numeric + ` NOT NULL DEFAULT 0,
			expiry_date ` + t.timestamp + `,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL,
			UNIQUE (name, batch_no)
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			branch_id TEXT REFERENCES branches(id),
			loyalty_points ` + t.integer + ` NOT NULL DEFAULT 0,
			credit_balance ` + t.numeric + ` NOT NULL DEFAULT 0,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			invoice_no TEXT NOT NULL UNIQUE,
			branch_id TEXT REFERENCES branches(id),
			user_id TEXT REFERENCES users(id),
			customer_id TEXT REFERENCES customers(id),
			subtotal ` + t.numeric + ` NOT NULL DEFAULT 0,
			discount ` + t.numeric + ` NOT NULL DEFAULT 0,
			tax ` + t.numeric + ` NOT NULL DEFAULT 0,
			total ` + t.numeric + ` NOT NULL DEFAULT 0,
			payment_method TEXT NOT NULL DEFAULT 'cash',
			status TEXT NOT NULL DEFAULT 'completed',
			sold_at ` + t.timestamp + ` NOT NULL,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			id TEXT PRIMARY KEY,
			sale_id TEXT NOT NULL REFERENCES sales(id),
			medicine_id TEXT NOT NULL REFERENCES medicines(id),
			quantity ` + t.integer + ` NOT NULL,
			unit_price ` + t.numeric + ` NOT NULL,
			total ` + t.numeric + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS purchase_orders (
			id TEXT PRIMARY KEY,
			order_no TEXT NOT NULL UNIQUE,
			supplier_id TEXT REFERENCES suppliers(id),
			branch_id TEXT REFERENCES branches(id),
			status TEXT NOT NULL DEFAULT 'draft',
			total ` + t.numeric + ` NOT NULL DEFAULT 0,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS purchase_order_items (
			id TEXT PRIMARY KEY,
			purchase_order_id TEXT NOT NULL REFERENCES purchase_orders(id),
			medicine_id TEXT NOT NULL REFERENCES medicines(id),
			quantity ` + t.integer + ` NOT NULL,
			unit_cost ` + t.numeric + ` NOT NULL,
			total ` + t.numeric + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS goods_received_notes (
			id TEXT PRIMARY KEY,
			grn_no TEXT NOT NULL UNIQUE,
			purchase_order_id TEXT REFERENCES purchase_orders(id),
			supplier_id TEXT REFERENCES suppliers(id),
			branch_id TEXT REFERENCES branches(id),
			received_at ` + t.timestamp + ` NOT NULL,
			total ` + t.numeric + ` NOT NULL DEFAULT 0,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS grn_items (
			id TEXT PRIMARY KEY,
			grn_id TEXT NOT NULL REFERENCES goods_received_notes(id),
			medicine_id TEXT NOT NULL REFERENCES medicines(id),
			quantity ` + t.integer + ` NOT NULL,
			unit_cost ` + t.numeric + ` NOT NULL,
			batch_no TEXT NOT NULL DEFAULT '',
			expiry_date ` + t.timestamp + `
		)`,
		`CREATE TABLE IF NOT EXISTS loyalty_transactions (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL REFERENCES customers(id),
			sale_id TEXT REFERENCES sales(id),
			type TEXT NOT NULL,
			points ` + t.integer + ` NOT NULL DEFAULT 0,
			amount ` + t.numeric + ` NOT NULL DEFAULT 0,
			created_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'PENDING',
			attempts ` + t.integer + ` NOT NULL DEFAULT 0,
			last_attempt_at ` + t.timestamp + `,
			error_message TEXT NOT NULL DEFAULT '',
			synced_at ` + t.timestamp + `,
			created_at ` + t.timestamp + ` NOT NULL,
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_status_created ON outbox (status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_medicines_barcode ON medicines (barcode)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers (phone)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_invoice_no ON sales (invoice_no)`,
		// Sentinel last: a crash mid-bootstrap re-runs the DDL next start.
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT '',
			updated_at ` + t.timestamp + ` NOT NULL
		)`,
	}
}

func boolLit(d Dialect, v bool) string {
	if d.Name() == "postgres" {
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	if v {
		return "1"
	}
	return "0"
}

// seedDefaults creates the default administrator, main branch and
// settings rows. Each step checks before writing, so the whole pass is
// idempotent and runs on every Initialize.
func seedDefaults(ctx context.Context, target schemaTarget, logger *zap.Logger) error {
	branchRepo := NewBranchRepository(target)
	userRepo := NewUserRepository(target)
	settingsRepo := NewSettingsRepository(target)

	branchCount, err := branchRepo.Count(ctx)
	if err != nil {
		return err
	}
	if branchCount == 0 {
		branch, err := identity.NewBranch(defaultBranchCode, defaultBranchName)
		if err != nil {
			return err
		}
		branch.IsMain = true
		if err := branchRepo.Create(ctx, branch); err != nil {
			return err
		}
		logger.Info("seeded main branch", zap.String("code", branch.Code))
	}

	adminCount, err := userRepo.CountByRole(ctx, identity.RoleAdmin)
	if err != nil {
		return err
	}
	if adminCount == 0 {
		admin, err := identity.NewUser(defaultAdminName, defaultAdminEmail, defaultAdminPassword, identity.RoleAdmin)
		if err != nil {
			return err
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			return err
		}
		logger.Warn("seeded default administrator with a well-known password; change it",
			zap.String("email", defaultAdminEmail))
	}

	empty, err := settingsRepo.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if empty {
		defaults := map[string]string{
			"currency":                "USD",
			"tax_rate":                "0",
			"low_stock_threshold":     "10",
			"loyalty_points_per_unit": "1",
		}
		for k, v := range defaults {
			if err := settingsRepo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		logger.Info("seeded default settings", zap.Int("count", len(defaults)))
	}

	return nil
}
