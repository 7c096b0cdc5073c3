package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/flowtide/progress/internal/auth"
	"github.com/flowtide/progress/internal/model"
	"github.com/flowtide/progress/internal/store"
)

// WriteRequest addresses one record and carries the payload for a Replace or
// Merge operation. Sessions, when present, are appended to the session log
// best-effort after the record write.
type WriteRequest struct {
	ProjectID string
	Date      string
	Identity  auth.Identity
	Patch     model.RecordPatch
	Sessions  []*model.SessionEntry
}

// Reconciler applies the three write policies (replace, accumulate-or-reset,
// delete) against the record store. All writes for a given key are
// serialized through a striped lock so same-day accumulation never loses
// increments to a read-modify-write race.
type Reconciler struct {
	store store.Store
	log   zerolog.Logger
	locks keyLock

	// now supplies the authoritative server clock; overridden in tests.
	now func() time.Time
}

func NewReconciler(s store.Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: s, log: log, now: time.Now}
}

// WithClock overrides the server clock. Intended for tests.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// today returns the server's calendar date. The client's idea of "today" is
// never trusted for the merge-vs-reset branch.
func (r *Reconciler) today() string {
	return model.FormatDate(r.now())
}

func (r *Reconciler) validate(req *WriteRequest) error {
	if req.ProjectID == "" {
		return fmt.Errorf("%w: projectId is required", model.ErrValidation)
	}
	if _, err := model.ParseDate(req.Date); err != nil {
		return fmt.Errorf("%w: invalid date %q", model.ErrValidation, req.Date)
	}
	return nil
}

// Replace unconditionally overwrites every field of the addressed record,
// defaulting omitted fields to zero. Replaying the same payload is
// idempotent.
func (r *Reconciler) Replace(ctx context.Context, req WriteRequest) (*model.AchievementRecord, error) {
	if err := r.validate(&req); err != nil {
		return nil, err
	}

	mu := r.locks.lock(recordKey(req.ProjectID, req.Date, req.Identity.ActorID))
	defer mu.Unlock()

	rec := &model.AchievementRecord{ProjectID: req.ProjectID, Date: req.Date, ActorID: req.Identity.ActorID}
	req.Patch.ApplyReplace(rec)

	out, err := r.store.Records().Upsert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("reconcile replace: %w", err)
	}

	r.appendSessions(ctx, req.ProjectID, req.Date, req.Sessions)
	return out, nil
}

// Merge branches on whether the target date is the server's current calendar
// day. For today, counters accumulate on top of the stored record, watermark
// fields keep their maximum, and streak snapshots apply only when explicitly
// supplied. For any past (or future) date the stored values are discarded
// and the payload is taken as the day's absolute totals.
func (r *Reconciler) Merge(ctx context.Context, req WriteRequest) (*model.AchievementRecord, error) {
	if err := r.validate(&req); err != nil {
		return nil, err
	}

	mu := r.locks.lock(recordKey(req.ProjectID, req.Date, req.Identity.ActorID))
	defer mu.Unlock()

	rec := &model.AchievementRecord{ProjectID: req.ProjectID, Date: req.Date, ActorID: req.Identity.ActorID}

	if req.Date == r.today() {
		existing, err := r.store.Records().Get(ctx, req.ProjectID, req.Date, req.Identity.ActorID)
		switch {
		case err == nil:
			*rec = *existing
		case errors.Is(err, model.ErrNotFound):
			// absent record accumulates from zero
		default:
			return nil, fmt.Errorf("reconcile merge read: %w", err)
		}
		req.Patch.ApplyAccumulate(rec)
	} else {
		// Retroactive edits must not compound with partial history; the
		// caller submits the day's final totals.
		req.Patch.ApplyReplace(rec)
	}

	out, err := r.store.Records().Upsert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("reconcile merge: %w", err)
	}

	r.appendSessions(ctx, req.ProjectID, req.Date, req.Sessions)
	return out, nil
}

// Delete removes the record for a (project, date) pair, or every record the
// identity owns in the project when All is set. Deleting a record that does
// not exist is a no-op success.
func (r *Reconciler) Delete(ctx context.Context, projectID, date string, identity auth.Identity, all bool) error {
	if projectID == "" {
		return fmt.Errorf("%w: projectId is required", model.ErrValidation)
	}
	if !all {
		if _, err := model.ParseDate(date); err != nil {
			return fmt.Errorf("%w: invalid date %q", model.ErrValidation, date)
		}
	}
	err := r.store.Records().Delete(ctx, model.DeleteRequest{
		ProjectID: projectID,
		Date:      date,
		ActorID:   identity.ActorID,
		All:       all,
	})
	if err != nil {
		return fmt.Errorf("reconcile delete: %w", err)
	}
	return nil
}

// AppendSessions writes session log entries on their own, outside a record
// write. Callers get the store error back; the handler decides how loudly to
// fail.
func (r *Reconciler) AppendSessions(ctx context.Context, projectID, date string, entries []*model.SessionEntry) error {
	if projectID == "" {
		return fmt.Errorf("%w: projectId is required", model.ErrValidation)
	}
	stamp(projectID, date, entries)
	return r.store.Sessions().Append(ctx, entries)
}

// appendSessions is the best-effort variant used inside record writes: a
// session log failure is logged and swallowed, never rolling back or failing
// the record write.
func (r *Reconciler) appendSessions(ctx context.Context, projectID, date string, entries []*model.SessionEntry) {
	if len(entries) == 0 {
		return
	}
	stamp(projectID, date, entries)
	if err := r.store.Sessions().Append(ctx, entries); err != nil {
		r.log.Warn().Err(err).
			Str("project", projectID).
			Str("date", date).
			Int("entries", len(entries)).
			Msg("session log append failed; record write kept")
	}
}

func stamp(projectID, date string, entries []*model.SessionEntry) {
	for _, e := range entries {
		if e.ProjectID == "" {
			e.ProjectID = projectID
		}
		if e.Date == "" {
			e.Date = date
		}
	}
}
