package postgres

import (
	"context"
	"os"
	"testing"

	"physquiz/internal/adapter/storetest"
	"physquiz/internal/domain"
)

// openTestDB connects to PHYSQUIZ_TEST_DATABASE_URL and empties the tables.
// The test is skipped when the variable is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("PHYSQUIZ_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PHYSQUIZ_TEST_DATABASE_URL not set")
	}
	d, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := d.sql.ExecContext(context.Background(), "TRUNCATE game_sessions, users RESTART IDENTITY CASCADE"); err != nil {
		_ = d.Close()
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store { return openTestDB(t) })
}

func TestMigrateIsRepeatable(t *testing.T) {
	d := openTestDB(t)
	if err := d.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
