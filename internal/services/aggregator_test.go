package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/flowtide/progress/internal/auth"
	"github.com/flowtide/progress/internal/model"
)

func newTestAggregator(st *memStore) *Aggregator {
	return NewAggregator(st, zerolog.Nop()).WithClock(fixedClock)
}

func seed(t *testing.T, st *memStore, date, actorID string, patch model.RecordPatch) {
	t.Helper()
	rec := &model.AchievementRecord{ProjectID: "p1", Date: date, ActorID: actorID}
	patch.ApplyReplace(rec)
	if _, err := st.Records().Upsert(context.Background(), rec); err != nil {
		t.Fatalf("seed %s: %v", date, err)
	}
}

func TestDailyFillsGaps(t *testing.T) {
	st := newMemStore()
	agg := newTestAggregator(st)
	id := auth.Identity{ActorID: "u1"}

	// Records on days 1 and 4 of the 7-day window only.
	seed(t, st, "2024-06-09", "u1", model.RecordPatch{FocusSessions: iptr(2)})
	seed(t, st, "2024-06-12", "u1", model.RecordPatch{FocusSessions: iptr(5)})

	out, err := agg.Daily(context.Background(), "p1", id)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(out) != 7 {
		t.Fatalf("entries = %d, want 7", len(out))
	}
	// Oldest first, every calendar day present.
	want := []string{"2024-06-09", "2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14", "2024-06-15"}
	for i, rec := range out {
		if rec.Date != want[i] {
			t.Fatalf("entry %d date = %s, want %s", i, rec.Date, want[i])
		}
	}
	if out[0].FocusSessions != 2 || out[3].FocusSessions != 5 {
		t.Fatalf("stored days wrong: %+v %+v", out[0], out[3])
	}
	for _, i := range []int{1, 2, 4, 5, 6} {
		if out[i].FocusSessions != 0 {
			t.Fatalf("gap day %s not zero-valued", out[i].Date)
		}
	}
}

func TestVisibilityUnion(t *testing.T) {
	st := newMemStore()
	agg := newTestAggregator(st)

	seed(t, st, "2024-06-14", model.AnonymousActor, model.RecordPatch{TasksCompleted: iptr(3)})
	seed(t, st, "2024-06-14", "userA", model.RecordPatch{TasksCompleted: iptr(4)})

	// Anonymous caller sees only the anonymous record.
	roll, err := agg.Window(context.Background(), "p1", auth.Anonymous, model.GranularityWeekly)
	if err != nil {
		t.Fatalf("window anon: %v", err)
	}
	if roll.TasksCompleted != 3 {
		t.Fatalf("anonymous rollup tasksCompleted = %d, want 3", roll.TasksCompleted)
	}

	// User A sees the union of own and anonymous records.
	roll, err = agg.Window(context.Background(), "p1", auth.Identity{ActorID: "userA"}, model.GranularityWeekly)
	if err != nil {
		t.Fatalf("window userA: %v", err)
	}
	if roll.TasksCompleted != 7 {
		t.Fatalf("userA rollup tasksCompleted = %d, want 7", roll.TasksCompleted)
	}

	// User B never sees user A's record.
	roll, err = agg.Window(context.Background(), "p1", auth.Identity{ActorID: "userB"}, model.GranularityWeekly)
	if err != nil {
		t.Fatalf("window userB: %v", err)
	}
	if roll.TasksCompleted != 3 {
		t.Fatalf("userB rollup tasksCompleted = %d, want 3", roll.TasksCompleted)
	}
}

func TestDailyFoldsUnionRows(t *testing.T) {
	st := newMemStore()
	agg := newTestAggregator(st)

	seed(t, st, "2024-06-15", model.AnonymousActor, model.RecordPatch{FocusSessions: iptr(1), CurrentStreak: iptr(2)})
	seed(t, st, "2024-06-15", "u1", model.RecordPatch{FocusSessions: iptr(2), CurrentStreak: iptr(5)})

	out, err := agg.Daily(context.Background(), "p1", auth.Identity{ActorID: "u1"})
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	last := out[6]
	if last.Date != "2024-06-15" {
		t.Fatalf("last entry date = %s", last.Date)
	}
	if last.FocusSessions != 3 {
		t.Fatalf("folded focusSessions = %d, want 3", last.FocusSessions)
	}
	if last.CurrentStreak != 5 {
		t.Fatalf("folded currentStreak = %d, want max 5", last.CurrentStreak)
	}
}

func TestWindowEmptyIsAllZero(t *testing.T) {
	agg := newTestAggregator(newMemStore())

	roll, err := agg.Window(context.Background(), "p1", auth.Anonymous, model.GranularityMonthly)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if roll == nil {
		t.Fatal("expected zero-valued rollup, got nil")
	}
	if roll.TasksCompleted != 0 || roll.FocusTime != 0 || roll.CurrentStreak != 0 {
		t.Fatalf("empty window not zero: %+v", roll)
	}
	if roll.From != "2024-05-17" || roll.To != "2024-06-15" {
		t.Fatalf("monthly bounds = %s..%s", roll.From, roll.To)
	}
}

func TestWindowStreakIsMaximum(t *testing.T) {
	st := newMemStore()
	agg := newTestAggregator(st)
	id := auth.Identity{ActorID: "u1"}

	seed(t, st, "2024-06-13", "u1", model.RecordPatch{CurrentStreak: iptr(6), LongestStreak: iptr(9)})
	seed(t, st, "2024-06-15", "u1", model.RecordPatch{CurrentStreak: iptr(2), LongestStreak: iptr(9)})

	roll, err := agg.Window(context.Background(), "p1", id, model.GranularityWeekly)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if roll.CurrentStreak != 6 {
		t.Fatalf("currentStreak = %d, want window max 6, not latest", roll.CurrentStreak)
	}
	if roll.LongestStreak != 9 {
		t.Fatalf("longestStreak = %d", roll.LongestStreak)
	}
}

func TestYearlyAnchorsOnEarliestRecord(t *testing.T) {
	st := newMemStore()
	agg := newTestAggregator(st)
	id := auth.Identity{ActorID: "u1"}

	seed(t, st, "2023-11-02", "u1", model.RecordPatch{TasksCompleted: iptr(1)})
	seed(t, st, "2024-06-10", "u1", model.RecordPatch{TasksCompleted: iptr(2)})

	roll, err := agg.Window(context.Background(), "p1", id, model.GranularityYearly)
	if err != nil {
		t.Fatalf("yearly: %v", err)
	}
	if roll.From != "2023-11-02" || roll.To != "2024-06-15" {
		t.Fatalf("yearly bounds = %s..%s", roll.From, roll.To)
	}
	if roll.TasksCompleted != 3 {
		t.Fatalf("yearly tasksCompleted = %d, want 3", roll.TasksCompleted)
	}
}

func TestYearlyFloorWhenNoRecords(t *testing.T) {
	agg := newTestAggregator(newMemStore())

	roll, err := agg.Window(context.Background(), "p1", auth.Anonymous, model.GranularityYearly)
	if err != nil {
		t.Fatalf("yearly: %v", err)
	}
	if roll.From != "2023-06-16" {
		t.Fatalf("yearly floor = %s, want 365 days back", roll.From)
	}
}

// Full write-then-read scenario: same-day merges accumulate counters, keep
// the streak snapshot, and the weekly rollup reports the summed total with
// the streak as window maximum.
func TestMergeThenWeeklyScenario(t *testing.T) {
	st := newMemStore()
	rec := newTestReconciler(st)
	agg := newTestAggregator(st)
	ctx := context.Background()
	id := auth.Identity{ActorID: "u1"}

	if _, err := rec.Merge(ctx, WriteRequest{ProjectID: "p1", Date: testToday, Identity: id,
		Patch: model.RecordPatch{TasksCompleted: iptr(1), CurrentStreak: iptr(1)}}); err != nil {
		t.Fatalf("merge 1: %v", err)
	}
	out, err := rec.Merge(ctx, WriteRequest{ProjectID: "p1", Date: testToday, Identity: id,
		Patch: model.RecordPatch{TasksCompleted: iptr(1)}})
	if err != nil {
		t.Fatalf("merge 2: %v", err)
	}
	if out.TasksCompleted != 2 || out.CurrentStreak != 1 {
		t.Fatalf("merged record = %+v, want tasksCompleted 2, currentStreak 1", out)
	}

	roll, err := agg.Window(ctx, "p1", id, model.GranularityWeekly)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if roll.TasksCompleted != 2 {
		t.Fatalf("weekly tasksCompleted = %d, want 2", roll.TasksCompleted)
	}
	if roll.CurrentStreak != 1 {
		t.Fatalf("weekly currentStreak = %d, want 1", roll.CurrentStreak)
	}
}
