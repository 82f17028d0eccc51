package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"physquiz/internal/adapter/storetest"
	"physquiz/internal/domain"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "physquiz.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store { return openTempStore(t) })
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCloseNilSafe(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestReopenKeepsDataAndSkipsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physquiz.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	u, err := s.CreateUser(context.Background(), "nia", "cred", time.Now())
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.GetUserByID(context.Background(), u.ID)
	if err != nil || got == nil || got.Username != "nia" {
		t.Fatalf("expected persisted user, got %+v err=%v", got, err)
	}

	var applied int
	if err := s.sqlDB.QueryRow("SELECT COUNT(1) FROM " + migrationTable).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected one applied migration, got %d", applied)
	}
}

func TestSchemaRejectsInvalidRows(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	u, err := s.CreateUser(ctx, "oz", "cred", time.Now())
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	bad := []string{
		"INSERT INTO game_sessions (user_id, mode, started_at) VALUES (?, 'CHESS', 0)",
		"INSERT INTO game_sessions (user_id, mode, started_at, strikes) VALUES (?, 'BASICS', 0, 4)",
		"INSERT INTO game_sessions (user_id, mode, started_at, score) VALUES (?, 'BASICS', 0, -1)",
		"INSERT INTO game_sessions (user_id, mode, started_at, completed) VALUES (?, 'BASICS', 0, 1)",
		"INSERT INTO game_sessions (user_id, mode, started_at, ended_at) VALUES (?, 'BASICS', 10, 5)",
	}
	for _, stmt := range bad {
		if _, err := s.sqlDB.ExecContext(ctx, stmt, u.ID); err == nil {
			t.Fatalf("expected constraint violation for %q", stmt)
		}
	}
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE t (x INT);\n-- +migrate Down\nDROP TABLE t;\n")
	if got != "\nCREATE TABLE t (x INT);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
}
