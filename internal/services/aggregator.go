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

// yearlyFloorDays bounds the yearly window when a project has no visible
// records to anchor it.
const yearlyFloorDays = 365

// Aggregator serves multi-granularity rollups over the record store.
type Aggregator struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewAggregator(s store.Store, log zerolog.Logger) *Aggregator {
	return &Aggregator{store: s, log: log, now: time.Now}
}

// WithClock overrides the server clock. Intended for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Daily returns exactly 7 entries, one per calendar day for the trailing
// week ending today, oldest first. Days without a stored record come back as
// zero-valued entries carrying the correct date; these are synthesized, never
// persisted.
func (a *Aggregator) Daily(ctx context.Context, projectID string, identity auth.Identity) ([]*model.AchievementRecord, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", model.ErrValidation)
	}

	today := model.FormatDate(a.now())
	from := model.AddDays(today, -6)

	recs, err := a.store.Records().ListRange(ctx, model.ListRangeRequest{
		ProjectID: projectID,
		ActorID:   identity.ActorID,
		From:      from,
		To:        today,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate daily: %w", err)
	}

	byDate := foldByDate(recs)
	out := make([]*model.AchievementRecord, 0, 7)
	for i := -6; i <= 0; i++ {
		date := model.AddDays(today, i)
		if rec, ok := byDate[date]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, &model.AchievementRecord{ProjectID: projectID, Date: date, ActorID: identity.ActorID})
	}
	return out, nil
}

// Window returns a single rollup over the trailing window for the given
// granularity (7 days for weekly, 30 for monthly, since-first-activity for
// yearly). Empty windows yield an all-zero rollup.
func (a *Aggregator) Window(ctx context.Context, projectID string, identity auth.Identity, g model.Granularity) (*model.Rollup, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", model.ErrValidation)
	}

	today := model.FormatDate(a.now())
	var from string
	switch g {
	case model.GranularityWeekly:
		from = model.AddDays(today, -6)
	case model.GranularityMonthly:
		from = model.AddDays(today, -29)
	case model.GranularityYearly:
		earliest, err := a.store.Records().EarliestDate(ctx, projectID, identity.ActorID)
		switch {
		case err == nil:
			from = earliest
		case errors.Is(err, model.ErrNotFound):
			from = model.AddDays(today, -yearlyFloorDays)
		default:
			return nil, fmt.Errorf("aggregate yearly anchor: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: granularity %q has no window rollup", model.ErrValidation, g)
	}

	recs, err := a.store.Records().ListRange(ctx, model.ListRangeRequest{
		ProjectID: projectID,
		ActorID:   identity.ActorID,
		From:      from,
		To:        today,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", g, err)
	}

	// Fold the union first so an owned row and an anonymous row on the same
	// date cannot double-count that day's watermark fields.
	roll := &model.Rollup{ProjectID: projectID, From: from, To: today}
	for _, rec := range foldByDate(recs) {
		roll.FocusSessions += rec.FocusSessions
		roll.BreakSessions += rec.BreakSessions
		roll.TasksCompleted += rec.TasksCompleted
		roll.TasksCreated += rec.TasksCreated
		roll.TotalSessionTime += rec.TotalSessionTime
		roll.FocusedAlerts += rec.FocusedAlerts
		roll.DeviatedAlerts += rec.DeviatedAlerts
		roll.BreakTime += rec.BreakTime
		roll.DeviationTime += rec.DeviationTime
		roll.FocusTime += rec.FocusTime
		roll.LongBreakTime += rec.LongBreakTime
		roll.PlannedHours += rec.PlannedHours
		roll.CompletedHours += rec.CompletedHours
		roll.TargetTasksCreated += rec.TargetTasksCreated

		// Streaks are point-in-time snapshots; the window keeps the maximum
		// observed, never a sum or the latest value.
		if rec.CurrentStreak > roll.CurrentStreak {
			roll.CurrentStreak = rec.CurrentStreak
		}
		if rec.LongestStreak > roll.LongestStreak {
			roll.LongestStreak = rec.LongestStreak
		}
	}
	return roll, nil
}

// foldByDate collapses a visibility union (an owned row plus an anonymous
// row for the same day) into one entry per date: counters sum, streaks and
// watermark fields keep the maximum.
func foldByDate(recs []*model.AchievementRecord) map[string]*model.AchievementRecord {
	byDate := make(map[string]*model.AchievementRecord, len(recs))
	for _, rec := range recs {
		cur, ok := byDate[rec.Date]
		if !ok {
			cp := *rec
			byDate[rec.Date] = &cp
			continue
		}
		cur.FocusSessions += rec.FocusSessions
		cur.BreakSessions += rec.BreakSessions
		cur.TasksCompleted += rec.TasksCompleted
		cur.TasksCreated += rec.TasksCreated
		cur.TotalSessionTime += rec.TotalSessionTime
		cur.FocusedAlerts += rec.FocusedAlerts
		cur.DeviatedAlerts += rec.DeviatedAlerts
		cur.BreakTime += rec.BreakTime
		cur.DeviationTime += rec.DeviationTime
		cur.FocusTime += rec.FocusTime
		cur.LongBreakTime += rec.LongBreakTime
		if rec.CurrentStreak > cur.CurrentStreak {
			cur.CurrentStreak = rec.CurrentStreak
		}
		if rec.LongestStreak > cur.LongestStreak {
			cur.LongestStreak = rec.LongestStreak
		}
		if rec.PlannedHours > cur.PlannedHours {
			cur.PlannedHours = rec.PlannedHours
		}
		if rec.CompletedHours > cur.CompletedHours {
			cur.CompletedHours = rec.CompletedHours
		}
		if rec.TargetTasksCreated > cur.TargetTasksCreated {
			cur.TargetTasksCreated = rec.TargetTasksCreated
		}
		if rec.UpdatedAt.After(cur.UpdatedAt) {
			cur.UpdatedAt = rec.UpdatedAt
		}
	}
	return byDate
}
