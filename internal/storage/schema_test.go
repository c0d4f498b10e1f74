package storage

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenDB_CreatesTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"schema_version", "alert_observations", "poll_log", "reports", "poll_daily"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	version, err := schemaVersion(db)
	if err != nil {
		t.Fatalf("schemaVersion failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version: want %d, got %d", currentSchemaVersion, version)
	}
}

func TestOpenDB_WALMode(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode: want wal, got %s", mode)
	}
}

func TestOpenDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("first OpenDB failed: %v", err)
	}
	_ = db.Close()

	db, err = OpenDB(dbPath)
	if err != nil {
		t.Fatalf("second OpenDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rows != 1 {
		t.Errorf("schema_version should hold one row, got %d", rows)
	}
}

func TestOpenDB_UpgradesV1(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	if _, err := db.Exec("DROP TABLE poll_daily"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 1"); err != nil {
		t.Fatalf("downgrade failed: %v", err)
	}
	_ = db.Close()

	db, err = OpenDB(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var name string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='poll_daily'").Scan(&name); err != nil {
		t.Errorf("poll_daily not recreated: %v", err)
	}
}

func TestOpenDB_NewerSchemaRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	_ = db.Close()

	_, err = OpenDB(dbPath)
	if err == nil {
		t.Fatal("expected error for newer schema")
	}
	if !strings.Contains(err.Error(), "newer than this mission-control supports") {
		t.Errorf("unexpected error: %v", err)
	}
}
