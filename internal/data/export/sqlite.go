package export

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/plcscope/plcscope/internal/util"
)

// SQLiteWriter exports log windows into a SQLite database. Repeated exports
// into the same database append, so several windows or several source files
// can share one file.
type SQLiteWriter struct {
	db *sql.DB
}

func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteWriter{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			device_id TEXT NOT NULL,
			signal_name TEXT NOT NULL,
			value TEXT NOT NULL,
			value_type TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_lookup
			ON entries(device_id, signal_name, timestamp);
		CREATE TABLE IF NOT EXISTS signal_states (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			signal_key TEXT NOT NULL,
			value TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_states_lookup
			ON signal_states(signal_key, start_time);
		CREATE TABLE IF NOT EXISTS violations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			rule_name TEXT NOT NULL,
			severity TEXT NOT NULL,
			device_id TEXT NOT NULL,
			signal_name TEXT NOT NULL,
			message TEXT NOT NULL,
			expected TEXT,
			actual TEXT,
			timestamp DATETIME
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// ExportWindow writes the window's entries, signal states and violations in
// one transaction.
func (w *SQLiteWriter) ExportWindow(win *Window) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := insertEntries(tx, win); err != nil {
		tx.Rollback()
		return err
	}
	if err := insertStates(tx, win); err != nil {
		tx.Rollback()
		return err
	}
	if err := insertViolations(tx, win); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	util.LogDebugf("Exported %d entries, %d signals, %d violations from %s",
		len(win.Entries), len(win.Signals), len(win.Violations), win.Source)
	return nil
}

func insertEntries(tx *sql.Tx, win *Window) error {
	stmt, err := tx.Prepare(
		`INSERT INTO entries (source, device_id, signal_name, value, value_type, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entries: %w", err)
	}
	defer stmt.Close()

	for _, e := range win.Entries {
		_, err := stmt.Exec(win.Source, e.DeviceID, e.SignalName, e.Value.String(), string(e.SignalType()), e.Timestamp)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	return nil
}

func insertStates(tx *sql.Tx, win *Window) error {
	stmt, err := tx.Prepare(
		`INSERT INTO signal_states (source, signal_key, value, start_time, end_time, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare states: %w", err)
	}
	defer stmt.Close()

	for _, rec := range flattenStates(win.Signals) {
		_, err := stmt.Exec(win.Source, rec.SignalKey, rec.Value.String(), rec.Start, rec.End, rec.DurationMS)
		if err != nil {
			return fmt.Errorf("insert state: %w", err)
		}
	}
	return nil
}

func insertViolations(tx *sql.Tx, win *Window) error {
	stmt, err := tx.Prepare(
		`INSERT INTO violations (source, rule_name, severity, device_id, signal_name, message, expected, actual, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare violations: %w", err)
	}
	defer stmt.Close()

	for _, v := range win.Violations {
		var ts any
		if !v.Timestamp.IsZero() {
			ts = v.Timestamp
		}
		_, err := stmt.Exec(win.Source, v.RuleName, v.Severity, v.DeviceID, v.SignalName, v.Message, v.Expected, v.Actual, ts)
		if err != nil {
			return fmt.Errorf("insert violation: %w", err)
		}
	}
	return nil
}

func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
