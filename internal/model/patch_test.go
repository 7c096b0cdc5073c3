package model

import "testing"

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }

func TestApplyReplaceDefaultsOmittedToZero(t *testing.T) {
	rec := AchievementRecord{TasksCompleted: 9, PlannedHours: 8, CurrentStreak: 4}
	p := RecordPatch{FocusSessions: iptr(2)}
	p.ApplyReplace(&rec)

	if rec.FocusSessions != 2 {
		t.Fatalf("focusSessions = %d, want 2", rec.FocusSessions)
	}
	if rec.TasksCompleted != 0 || rec.PlannedHours != 0 || rec.CurrentStreak != 0 {
		t.Fatalf("omitted fields not zeroed: %+v", rec)
	}
}

func TestApplyReplaceIdempotent(t *testing.T) {
	p := RecordPatch{FocusSessions: iptr(3), FocusTime: fptr(75.5)}
	var a, b AchievementRecord
	p.ApplyReplace(&a)
	p.ApplyReplace(&b)
	p.ApplyReplace(&b)
	if a != b {
		t.Fatalf("replayed replace diverged: %+v vs %+v", a, b)
	}
}

func TestApplyAccumulateCounters(t *testing.T) {
	rec := AchievementRecord{FocusSessions: 2, FocusTime: 50}
	p := RecordPatch{FocusSessions: iptr(3), FocusTime: fptr(25)}
	p.ApplyAccumulate(&rec)
	if rec.FocusSessions != 5 {
		t.Fatalf("focusSessions = %d, want 5", rec.FocusSessions)
	}
	if rec.FocusTime != 75 {
		t.Fatalf("focusTime = %v, want 75", rec.FocusTime)
	}
}

func TestApplyAccumulateStreaksAreAbsolute(t *testing.T) {
	rec := AchievementRecord{CurrentStreak: 4, LongestStreak: 7}

	// Explicit value wins outright, it is never summed.
	p := RecordPatch{CurrentStreak: iptr(1)}
	p.ApplyAccumulate(&rec)
	if rec.CurrentStreak != 1 {
		t.Fatalf("currentStreak = %d, want 1", rec.CurrentStreak)
	}

	// Absent streak fields leave the stored snapshot untouched.
	q := RecordPatch{TasksCompleted: iptr(1)}
	q.ApplyAccumulate(&rec)
	if rec.CurrentStreak != 1 || rec.LongestStreak != 7 {
		t.Fatalf("streaks changed without input: %+v", rec)
	}
}

func TestApplyAccumulateHighWatermarks(t *testing.T) {
	rec := AchievementRecord{PlannedHours: 6, TargetTasksCreated: 10}
	p := RecordPatch{PlannedHours: fptr(4), TargetTasksCreated: iptr(12)}
	p.ApplyAccumulate(&rec)
	if rec.PlannedHours != 6 {
		t.Fatalf("plannedHours = %v, want max 6", rec.PlannedHours)
	}
	if rec.TargetTasksCreated != 12 {
		t.Fatalf("targetTasksCreated = %d, want max 12", rec.TargetTasksCreated)
	}
}

func TestAddDays(t *testing.T) {
	if got := AddDays("2024-03-01", -1); got != "2024-02-29" {
		t.Fatalf("AddDays leap = %s", got)
	}
	if got := AddDays("2024-01-01", 6); got != "2024-01-07" {
		t.Fatalf("AddDays = %s", got)
	}
}
