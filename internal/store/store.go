package store

import (
	"context"

	"github.com/flowtide/progress/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite).
type Store interface {
	Records() Records
	Sessions() Sessions
}

// Records is the durable table of per-day achievement snapshots, addressed
// by (project, date, actor). Upsert is a full-row write: the reconciler
// computes the final field values before calling it.
type Records interface {
	// Upsert creates or fully overwrites the row for the record's key.
	Upsert(ctx context.Context, rec *model.AchievementRecord) (*model.AchievementRecord, error)
	// Get fetches the row for the exact (project, date, actor) key.
	// Returns model.ErrNotFound when no row exists.
	Get(ctx context.Context, projectID, date, actorID string) (*model.AchievementRecord, error)
	// ListRange returns the caller-visible rows with From <= date <= To,
	// ordered by date ascending. Visibility is the union of rows owned by
	// req.ActorID and anonymous rows; anonymous callers see anonymous rows
	// only.
	ListRange(ctx context.Context, req model.ListRangeRequest) ([]*model.AchievementRecord, error)
	// EarliestDate returns the smallest caller-visible date for the project,
	// or model.ErrNotFound when the project has no visible rows.
	EarliestDate(ctx context.Context, projectID, actorID string) (string, error)
	// Delete removes records per the request scope. Deleting rows that do
	// not exist is a no-op success.
	Delete(ctx context.Context, req model.DeleteRequest) error
}

// Sessions is the append-only session log. It is written alongside record
// writes and never read back by the engine.
type Sessions interface {
	Append(ctx context.Context, entries []*model.SessionEntry) error
}
