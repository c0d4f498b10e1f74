package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 2

func OpenDB(dbPath string) (*sql.DB, error) {
	parentDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return nil, fmt.Errorf("creating parent directories: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := migrateSchema(db, dbPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func schemaVersion(db *sql.DB) (int, error) {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("checking schema_version table: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func migrateSchema(db *sql.DB, dbPath string) error {
	currentVersion, err := schemaVersion(db)
	if err != nil {
		return err
	}

	if currentVersion > currentSchemaVersion {
		return fmt.Errorf(
			"journal schema version %d is newer than this mission-control supports (max: %d); upgrade mission-control or delete %s to start fresh",
			currentVersion, currentSchemaVersion, dbPath,
		)
	}

	if currentVersion < currentSchemaVersion {
		if err := applyMigrations(db, currentVersion); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
	}

	return nil
}

func applyMigrations(db *sql.DB, fromVersion int) error {
	if fromVersion < 1 {
		if err := migrateV0ToV1(db); err != nil {
			return fmt.Errorf("migration v0→v1: %w", err)
		}
	}
	if fromVersion < 2 {
		if err := migrateV1ToV2(db); err != nil {
			return fmt.Errorf("migration v1→v2: %w", err)
		}
	}
	return nil
}

func execAll(tx *sql.Tx, stmts []struct{ name, sql string }) error {
	for _, st := range stmts {
		if _, err := tx.Exec(st.sql); err != nil {
			return fmt.Errorf("creating %s: %w", st.name, err)
		}
	}
	return nil
}

func migrateV0ToV1(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = execAll(tx, []struct{ name, sql string }{
		{"schema_version table", `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`},
		{"alert_observations table", `
			CREATE TABLE IF NOT EXISTS alert_observations (
				severity TEXT NOT NULL,
				message TEXT NOT NULL,
				last_id TEXT,
				first_seen TEXT NOT NULL,
				last_seen TEXT NOT NULL,
				times_seen INTEGER NOT NULL DEFAULT 1,
				PRIMARY KEY (severity, message)
			)`},
		{"poll_log table", `
			CREATE TABLE IF NOT EXISTS poll_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				polled_at TEXT NOT NULL,
				ok INTEGER NOT NULL,
				stale INTEGER NOT NULL DEFAULT 0,
				kept INTEGER NOT NULL DEFAULT 0,
				expired INTEGER NOT NULL DEFAULT 0,
				duration_ms REAL NOT NULL DEFAULT 0,
				error TEXT
			)`},
		{"reports table", `
			CREATE TABLE IF NOT EXISTS reports (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				reported_at TEXT NOT NULL,
				alert_id TEXT NOT NULL,
				severity TEXT NOT NULL,
				message TEXT NOT NULL,
				source TEXT,
				submitted INTEGER NOT NULL,
				error TEXT
			)`},
		{"idx_observations_last_seen", "CREATE INDEX IF NOT EXISTS idx_observations_last_seen ON alert_observations(last_seen)"},
		{"idx_poll_log_ts", "CREATE INDEX IF NOT EXISTS idx_poll_log_ts ON poll_log(polled_at)"},
		{"idx_reports_ts", "CREATE INDEX IF NOT EXISTS idx_reports_ts ON reports(reported_at)"},
	})
	if err != nil {
		return err
	}

	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
		return fmt.Errorf("inserting schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// migrateV1ToV2 adds the daily poll rollup kept beyond raw retention.
func migrateV1ToV2(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = execAll(tx, []struct{ name, sql string }{
		{"poll_daily table", `
			CREATE TABLE IF NOT EXISTS poll_daily (
				date TEXT PRIMARY KEY,
				polls INTEGER NOT NULL,
				failures INTEGER NOT NULL,
				avg_duration_ms REAL NOT NULL,
				max_kept INTEGER NOT NULL
			)`},
	})
	if err != nil {
		return err
	}

	if _, err := tx.Exec("UPDATE schema_version SET version = 2"); err != nil {
		return fmt.Errorf("updating schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
