package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. ":memory:" opens an in-process database (used by tests).
func Open(path string) (*sql.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the engine's tables when they do not exist yet.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS achievement_records (
            project_id           TEXT NOT NULL,
            stat_date            TEXT NOT NULL,
            actor_id             TEXT NOT NULL DEFAULT '',
            focus_sessions       INTEGER NOT NULL DEFAULT 0,
            break_sessions       INTEGER NOT NULL DEFAULT 0,
            tasks_completed      INTEGER NOT NULL DEFAULT 0,
            tasks_created        INTEGER NOT NULL DEFAULT 0,
            total_session_time   REAL NOT NULL DEFAULT 0,
            focused_alerts       INTEGER NOT NULL DEFAULT 0,
            deviated_alerts      INTEGER NOT NULL DEFAULT 0,
            break_time           REAL NOT NULL DEFAULT 0,
            deviation_time       REAL NOT NULL DEFAULT 0,
            focus_time           REAL NOT NULL DEFAULT 0,
            long_break_time      REAL NOT NULL DEFAULT 0,
            current_streak       INTEGER NOT NULL DEFAULT 0,
            longest_streak       INTEGER NOT NULL DEFAULT 0,
            planned_hours        REAL NOT NULL DEFAULT 0,
            completed_hours      REAL NOT NULL DEFAULT 0,
            target_tasks_created INTEGER NOT NULL DEFAULT 0,
            updated_at           TIMESTAMP NOT NULL,
            PRIMARY KEY (project_id, stat_date, actor_id)
        )`,
		`CREATE TABLE IF NOT EXISTS session_entries (
            entry_id         TEXT PRIMARY KEY,
            project_id       TEXT NOT NULL,
            task_id          TEXT,
            task_title       TEXT NOT NULL DEFAULT '',
            stat_date        TEXT NOT NULL,
            start_time       TEXT NOT NULL DEFAULT '',
            end_time         TEXT NOT NULL DEFAULT '',
            duration_minutes INTEGER NOT NULL DEFAULT 0,
            session_type     TEXT NOT NULL,
            completed        INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE INDEX IF NOT EXISTS idx_session_entries_project_date
            ON session_entries (project_id, stat_date)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
