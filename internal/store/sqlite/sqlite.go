package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowtide/progress/internal/model"
	"github.com/flowtide/progress/internal/store"
)

// New opens (or creates) a SQLite-backed store at the given path.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wires the store over an existing connection (used by tests and
// the factory). The schema must already be in place.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Records() store.Records   { return &records{db: s.db} }
func (s *sqliteStore) Sessions() store.Sessions { return &sessions{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Records ---

type records struct{ db *sql.DB }

const recordColumns = `project_id, stat_date, actor_id,
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
        INSERT INTO achievement_records (`+recordColumns+`)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT (project_id, stat_date, actor_id) DO UPDATE SET
            focus_sessions=excluded.focus_sessions,
            break_sessions=excluded.break_sessions,
            tasks_completed=excluded.tasks_completed,
            tasks_created=excluded.tasks_created,
            total_session_time=excluded.total_session_time,
            focused_alerts=excluded.focused_alerts,
            deviated_alerts=excluded.deviated_alerts,
            break_time=excluded.break_time,
            deviation_time=excluded.deviation_time,
            focus_time=excluded.focus_time,
            long_break_time=excluded.long_break_time,
            current_streak=excluded.current_streak,
            longest_streak=excluded.longest_streak,
            planned_hours=excluded.planned_hours,
            completed_hours=excluded.completed_hours,
            target_tasks_created=excluded.target_tasks_created,
            updated_at=excluded.updated_at
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
        WHERE project_id=? AND stat_date=? AND actor_id=?
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
        WHERE project_id=? AND stat_date>=? AND stat_date<=?`
	args := []any{req.ProjectID, req.From, req.To}
	if req.ActorID == model.AnonymousActor {
		query += ` AND actor_id=''`
	} else {
		query += ` AND actor_id IN (?, '')`
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
	query := `SELECT MIN(stat_date) FROM achievement_records WHERE project_id=?`
	args := []any{projectID}
	if actorID == model.AnonymousActor {
		query += ` AND actor_id=''`
	} else {
		query += ` AND actor_id IN (?, '')`
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
			`DELETE FROM achievement_records WHERE project_id=? AND actor_id=?`,
			req.ProjectID, req.ActorID)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM achievement_records WHERE project_id=? AND stat_date=? AND actor_id=?`,
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
            VALUES (?,?,?,?,?,?,?,?,?,?)
        `, id, e.ProjectID, e.TaskID, e.TaskTitle, e.Date, e.StartTime, e.EndTime, e.DurationMinutes, e.SessionType, boolToInt(e.Completed)); err != nil {
			return fmt.Errorf("append session entry: %w", err)
		}
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
