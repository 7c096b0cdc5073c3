package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/flowtide/progress/internal/model"
	"github.com/flowtide/progress/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
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
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS achievement_records (
            project_id           TEXT NOT NULL,
            stat_date            DATE NOT NULL,
            actor_id             TEXT NOT NULL DEFAULT '',
            focus_sessions       INTEGER NOT NULL DEFAULT 0,
            break_sessions       INTEGER NOT NULL DEFAULT 0,
            tasks_completed      INTEGER NOT NULL DEFAULT 0,
            tasks_created        INTEGER NOT NULL DEFAULT 0,
            total_session_time   DOUBLE PRECISION NOT NULL DEFAULT 0,
            focused_alerts       INTEGER NOT NULL DEFAULT 0,
            deviated_alerts      INTEGER NOT NULL DEFAULT 0,
            break_time           DOUBLE PRECISION NOT NULL DEFAULT 0,
            deviation_time       DOUBLE PRECISION NOT NULL DEFAULT 0,
            focus_time           DOUBLE PRECISION NOT NULL DEFAULT 0,
            long_break_time      DOUBLE PRECISION NOT NULL DEFAULT 0,
            current_streak       INTEGER NOT NULL DEFAULT 0,
            longest_streak       INTEGER NOT NULL DEFAULT 0,
            planned_hours        DOUBLE PRECISION NOT NULL DEFAULT 0,
            completed_hours      DOUBLE PRECISION NOT NULL DEFAULT 0,
            target_tasks_created INTEGER NOT NULL DEFAULT 0,
            updated_at           TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (project_id, stat_date, actor_id)
        )`,
		`CREATE TABLE IF NOT EXISTS session_entries (
            entry_id         UUID PRIMARY KEY,
            project_id       TEXT NOT NULL,
            task_id          TEXT,
            task_title       TEXT NOT NULL DEFAULT '',
            stat_date        DATE NOT NULL,
            start_time       TEXT NOT NULL DEFAULT '',
            end_time         TEXT NOT NULL DEFAULT '',
            duration_minutes INTEGER NOT NULL DEFAULT 0,
            session_type     TEXT NOT NULL,
            completed        BOOLEAN NOT NULL DEFAULT FALSE
        )`,
		`CREATE INDEX IF NOT EXISTS idx_session_entries_project_date
            ON session_entries (project_id, stat_date)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// New opens a Postgres-backed store and bootstraps the schema.
func New(ctx context.Context, dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Records() store.Records   { return &records{db: s.db} }
func (s *pgStore) Sessions() store.Sessions { return &sessions{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Records ---

type records struct{ db *sql.DB }

const recordColumns = `project_id, to_char(stat_date,'YYYY-MM-DD'), actor_id,
    focus_sessions, break_sessions, tasks_completed, tasks_created,
    total_session_time, focused_alerts, deviated_alerts,
    break_time, deviation_time, focus_time, long_break_time,
    current_streak, longest_streak,
    planned_hours, completed_hours, target_tasks_created, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*model.AchievementRecord, error) {
	var rec model.AchievementRecord
	err := row.Scan(
		&rec.ProjectID, &rec.Date, &rec.ActorID,
		&rec.FocusSessions, &rec.BreakSessions, &rec.TasksCompleted, &rec.TasksCreated,
		&rec.TotalSessionTime, &rec.FocusedAlerts, &rec.DeviatedAlerts,
		&rec.BreakTime, &rec.DeviationTime, &rec.FocusTime, &rec.LongBreakTime,
		&rec.CurrentStreak, &rec.LongestStreak,
		&rec.PlannedHours, &rec.CompletedHours, &rec.TargetTasksCreated, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *records) Upsert(ctx context.Context, rec *model.AchievementRecord) (*model.AchievementRecord, error) {
	out := *rec
	out.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO achievement_records (
            project_id, stat_date, actor_id,
            focus_sessions, break_sessions, tasks_completed, tasks_created,
            total_session_time, focused_alerts, deviated_alerts,
            break_time, deviation_time, focus_time, long_break_time,
            current_streak, longest_streak,
            planned_hours, completed_hours, target_tasks_created, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
        ON CONFLICT (project_id, stat_date, actor_id) DO UPDATE SET
            focus_sessions=EXCLUDED.focus_sessions,
            break_sessions=EXCLUDED.break_sessions,
            tasks_completed=EXCLUDED.tasks_completed,
            tasks_created=EXCLUDED.tasks_created,
            total_session_time=EXCLUDED.total_session_time,
            focused_alerts=EXCLUDED.focused_alerts,
            deviated_alerts=EXCLUDED.deviated_alerts,
            break_time=EXCLUDED.break_time,
            deviation_time=EXCLUDED.deviation_time,
            focus_time=EXCLUDED.focus_time,
            long_break_time=EXCLUDED.long_break_time,
            current_streak=EXCLUDED.current_streak,
            longest_streak=EXCLUDED.longest_streak,
            planned_hours=EXCLUDED.planned_hours,
            completed_hours=EXCLUDED.completed_hours,
            target_tasks_created=EXCLUDED.target_tasks_created,
            updated_at=EXCLUDED.updated_at
    `,
		out.ProjectID, out.Date, out.ActorID,
		out.FocusSessions, out.BreakSessions, out.TasksCompleted, out.TasksCreated,
		out.TotalSessionTime, out.FocusedAlerts, out.DeviatedAlerts,
		out.BreakTime, out.DeviationTime, out.FocusTime, out.LongBreakTime,
		out.CurrentStreak, out.LongestStreak,
		out.PlannedHours, out.CompletedHours, out.TargetTasksCreated, out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *records) Get(ctx context.Context, projectID, date, actorID string) (*model.AchievementRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+recordColumns+` FROM achievement_records
        WHERE project_id=$1 AND stat_date=$2 AND actor_id=$3
    `, projectID, date, actorID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *records) ListRange(ctx context.Context, req model.ListRangeRequest) ([]*model.AchievementRecord, error) {
	query := `
        SELECT ` + recordColumns + ` FROM achievement_records
        WHERE project_id=$1 AND stat_date>=$2 AND stat_date<=$3`
	args := []any{req.ProjectID, req.From, req.To}
	if req.ActorID == model.AnonymousActor {
		query += ` AND actor_id=''`
	} else {
		query += ` AND actor_id IN ($4, '')`
		args = append(args, req.ActorID)
	}
	query += ` ORDER BY stat_date ASC, actor_id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.AchievementRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *records) EarliestDate(ctx context.Context, projectID, actorID string) (string, error) {
	query := `SELECT to_char(MIN(stat_date),'YYYY-MM-DD') FROM achievement_records WHERE project_id=$1`
	args := []any{projectID}
	if actorID == model.AnonymousActor {
		query += ` AND actor_id=''`
	} else {
		query += ` AND actor_id IN ($2, '')`
		args = append(args, actorID)
	}
	var earliest sql.NullString
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&earliest); err != nil {
		return "", err
	}
	if !earliest.Valid {
		return "", model.ErrNotFound
	}
	return earliest.String, nil
}

func (r *records) Delete(ctx context.Context, req model.DeleteRequest) error {
	if req.All {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM achievement_records WHERE project_id=$1 AND actor_id=$2`,
			req.ProjectID, req.ActorID)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM achievement_records WHERE project_id=$1 AND stat_date=$2 AND actor_id=$3`,
		req.ProjectID, req.Date, req.ActorID)
	return err
}

// --- Sessions ---

type sessions struct{ db *sql.DB }

func (s *sessions) Append(ctx context.Context, entries []*model.SessionEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		id := e.EntryID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO session_entries
                (entry_id, project_id, task_id, task_title, stat_date, start_time, end_time, duration_minutes, session_type, completed)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        `, id, e.ProjectID, e.TaskID, e.TaskTitle, e.Date, e.StartTime, e.EndTime, e.DurationMinutes, e.SessionType, e.Completed); err != nil {
			return fmt.Errorf("append session entry: %w", err)
		}
	}
	return tx.Commit()
}
