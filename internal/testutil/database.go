package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"foodstand/internal/config"
	"foodstand/internal/infrastructure/schema"
	"foodstand/internal/infrastructure/sqlite"
)

var dbSeq atomic.Int64

// SetupTestDB returns an isolated in-memory SQLite store with the schema
// applied. The database lives until the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	n := dbSeq.Add(1)
	db, err := sqlite.Open(sqlite.DSN(fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := schema.Ensure(context.Background(), db, config.DriverSQLite); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	return db
}

// SetupMySQLTestDB connects to the database named by TEST_MYSQL_DSN, applies
// the schema and empties it. The test is skipped when no server is configured.
func SetupMySQLTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := schema.Ensure(ctx, db, config.DriverMySQL); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}
	if err := schema.Reset(ctx, db); err != nil {
		t.Fatalf("failed to clean test database: %v", err)
	}

	return db
}
