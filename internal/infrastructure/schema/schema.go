package schema

import (
	"context"
	"database/sql"
	"fmt"

	"foodstand/internal/config"
)

var mysqlStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT NOT NULL PRIMARY KEY,
		position INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		stock INT NOT NULL DEFAULT 0,
		is_ingredient TINYINT(1) NOT NULL DEFAULT 0,
		unit VARCHAR(50) NOT NULL DEFAULT 'pieces',
		is_visible TINYINT(1) NOT NULL DEFAULT 1,
		recipe TEXT NULL,
		INDEX idx_products_position (position)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sales (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		timestamp_ms BIGINT NOT NULL,
		sale_date CHAR(10) NOT NULL,
		items TEXT NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL,
		INDEX idx_sales_date (sale_date),
		INDEX idx_sales_timestamp (timestamp_ms)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS inventory_version (
		id INT NOT NULL PRIMARY KEY,
		version BIGINT NOT NULL
	)`,
	`INSERT IGNORE INTO inventory_version (id, version) VALUES (1, 0)`,
}

var sqliteStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER NOT NULL PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		price TEXT NOT NULL DEFAULT '0',
		stock INTEGER NOT NULL DEFAULT 0,
		is_ingredient INTEGER NOT NULL DEFAULT 0,
		unit TEXT NOT NULL DEFAULT 'pieces',
		is_visible INTEGER NOT NULL DEFAULT 1,
		recipe TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_position ON products(position)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id TEXT NOT NULL PRIMARY KEY,
		timestamp_ms INTEGER NOT NULL,
		sale_date TEXT NOT NULL,
		items TEXT NOT NULL,
		total_amount TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_timestamp ON sales(timestamp_ms)`,
	`CREATE TABLE IF NOT EXISTS inventory_version (
		id INTEGER NOT NULL PRIMARY KEY,
		version INTEGER NOT NULL
	)`,
	`INSERT OR IGNORE INTO inventory_version (id, version) VALUES (1, 0)`,
}

// Ensure creates the inventory, ledger and version tables when missing. It
// is safe to run on every start.
func Ensure(ctx context.Context, db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case config.DriverMySQL:
		statements = mysqlStatements
	case config.DriverSQLite:
		statements = sqliteStatements
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// Reset empties every table and rewinds the inventory version. Used by
// integration tests.
func Reset(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{
		`DELETE FROM sales`,
		`DELETE FROM products`,
		`UPDATE inventory_version SET version = 0 WHERE id = 1`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("resetting schema: %w", err)
		}
	}
	return nil
}
