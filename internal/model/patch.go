package model

// RecordPatch is the write payload for both Replace and Merge operations.
// Every field is a pointer so an absent field is distinguishable from an
// explicit zero; the defaults documented per operation apply in the Apply*
// methods below, keeping the accumulate-vs-replace contract in one place.
type RecordPatch struct {
	FocusSessions    *int     `json:"focusSessions,omitempty"`
	BreakSessions    *int     `json:"breakSessions,omitempty"`
	TasksCompleted   *int     `json:"tasksCompleted,omitempty"`
	TasksCreated     *int     `json:"tasksCreated,omitempty"`
	TotalSessionTime *float64 `json:"totalSessionTime,omitempty"`
	FocusedAlerts    *int     `json:"focusedAlerts,omitempty"`
	DeviatedAlerts   *int     `json:"deviatedAlerts,omitempty"`
	BreakTime        *float64 `json:"breakTime,omitempty"`
	DeviationTime    *float64 `json:"deviationTime,omitempty"`
	FocusTime        *float64 `json:"focusTime,omitempty"`
	LongBreakTime    *float64 `json:"longBreakTime,omitempty"`

	CurrentStreak *int `json:"currentStreak,omitempty"`
	LongestStreak *int `json:"longestStreak,omitempty"`

	PlannedHours       *float64 `json:"plannedHours,omitempty"`
	CompletedHours     *float64 `json:"completedHours,omitempty"`
	TargetTasksCreated *int     `json:"targetTasksCreated,omitempty"`
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ApplyReplace overwrites every field of rec with the patch values, omitted
// fields defaulting to zero. Replaying the same patch is idempotent.
func (p *RecordPatch) ApplyReplace(rec *AchievementRecord) {
	rec.FocusSessions = intOrZero(p.FocusSessions)
	rec.BreakSessions = intOrZero(p.BreakSessions)
	rec.TasksCompleted = intOrZero(p.TasksCompleted)
	rec.TasksCreated = intOrZero(p.TasksCreated)
	rec.TotalSessionTime = floatOrZero(p.TotalSessionTime)
	rec.FocusedAlerts = intOrZero(p.FocusedAlerts)
	rec.DeviatedAlerts = intOrZero(p.DeviatedAlerts)
	rec.BreakTime = floatOrZero(p.BreakTime)
	rec.DeviationTime = floatOrZero(p.DeviationTime)
	rec.FocusTime = floatOrZero(p.FocusTime)
	rec.LongBreakTime = floatOrZero(p.LongBreakTime)
	rec.CurrentStreak = intOrZero(p.CurrentStreak)
	rec.LongestStreak = intOrZero(p.LongestStreak)
	rec.PlannedHours = floatOrZero(p.PlannedHours)
	rec.CompletedHours = floatOrZero(p.CompletedHours)
	rec.TargetTasksCreated = intOrZero(p.TargetTasksCreated)
}

// ApplyAccumulate folds the patch into rec with the same-day merge policy:
// counters add, high-watermark fields keep the maximum, streak snapshots are
// taken verbatim when present and left untouched when absent.
func (p *RecordPatch) ApplyAccumulate(rec *AchievementRecord) {
	rec.FocusSessions += intOrZero(p.FocusSessions)
	rec.BreakSessions += intOrZero(p.BreakSessions)
	rec.TasksCompleted += intOrZero(p.TasksCompleted)
	rec.TasksCreated += intOrZero(p.TasksCreated)
	rec.TotalSessionTime += floatOrZero(p.TotalSessionTime)
	rec.FocusedAlerts += intOrZero(p.FocusedAlerts)
	rec.DeviatedAlerts += intOrZero(p.DeviatedAlerts)
	rec.BreakTime += floatOrZero(p.BreakTime)
	rec.DeviationTime += floatOrZero(p.DeviationTime)
	rec.FocusTime += floatOrZero(p.FocusTime)
	rec.LongBreakTime += floatOrZero(p.LongBreakTime)

	if p.CurrentStreak != nil {
		rec.CurrentStreak = *p.CurrentStreak
	}
	if p.LongestStreak != nil {
		rec.LongestStreak = *p.LongestStreak
	}

	rec.PlannedHours = maxFloat(rec.PlannedHours, floatOrZero(p.PlannedHours))
	rec.CompletedHours = maxFloat(rec.CompletedHours, floatOrZero(p.CompletedHours))
	rec.TargetTasksCreated = maxInt(rec.TargetTasksCreated, intOrZero(p.TargetTasksCreated))
}
