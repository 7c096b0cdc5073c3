package model

import "time"

// AnonymousActor is the explicit "no authenticated user" marker used as the
// actor component of a record key. It is a valid owner, not an error state.
const AnonymousActor = ""

// Session types recorded in the session log.
const (
	SessionFocus      = "focus"
	SessionShortBreak = "short_break"
	SessionLongBreak  = "long_break"
)

// AchievementRecord is the per-day metric snapshot for one project and one
// identity. Exactly one row exists per (ProjectID, Date, ActorID); writes for
// the same key mutate the row in place.
type AchievementRecord struct {
	ProjectID string `json:"projectId"`
	// Date is the calendar day the snapshot describes, YYYY-MM-DD, no timezone.
	Date string `json:"date"`
	// ActorID identifies the owner; AnonymousActor for anonymous records.
	ActorID string `json:"actorId,omitempty"`

	// Accumulating counters.
	FocusSessions    int     `json:"focusSessions"`
	BreakSessions    int     `json:"breakSessions"`
	TasksCompleted   int     `json:"tasksCompleted"`
	TasksCreated     int     `json:"tasksCreated"`
	TotalSessionTime float64 `json:"totalSessionTime"`
	FocusedAlerts    int     `json:"focusedAlerts"`
	DeviatedAlerts   int     `json:"deviatedAlerts"`
	BreakTime        float64 `json:"breakTime"`
	DeviationTime    float64 `json:"deviationTime"`
	FocusTime        float64 `json:"focusTime"`
	LongBreakTime    float64 `json:"longBreakTime"`

	// Monotonic snapshots supplied by the client, never summed server-side.
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`

	// High-watermark fields: same-day updates keep the maximum seen so far.
	PlannedHours       float64 `json:"plannedHours"`
	CompletedHours     float64 `json:"completedHours"`
	TargetTasksCreated int     `json:"targetTasksCreated"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionEntry is an append-only row in the session log. Entries are written
// alongside record writes but never read back by the aggregation engine.
type SessionEntry struct {
	EntryID         string  `json:"entryId"`
	ProjectID       string  `json:"projectId"`
	TaskID          *string `json:"taskId,omitempty"`
	TaskTitle       string  `json:"taskTitle"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	DurationMinutes int     `json:"durationMinutes"`
	SessionType     string  `json:"sessionType"`
	Completed       bool    `json:"completed"`
}

// Rollup is an aggregate over a date window. Counters and watermark fields
// are sums across the window; streak fields are the window maximum.
type Rollup struct {
	ProjectID string `json:"projectId"`
	From      string `json:"from"`
	To        string `json:"to"`

	FocusSessions    int     `json:"focusSessions"`
	BreakSessions    int     `json:"breakSessions"`
	TasksCompleted   int     `json:"tasksCompleted"`
	TasksCreated     int     `json:"tasksCreated"`
	TotalSessionTime float64 `json:"totalSessionTime"`
	FocusedAlerts    int     `json:"focusedAlerts"`
	DeviatedAlerts   int     `json:"deviatedAlerts"`
	BreakTime        float64 `json:"breakTime"`
	DeviationTime    float64 `json:"deviationTime"`
	FocusTime        float64 `json:"focusTime"`
	LongBreakTime    float64 `json:"longBreakTime"`

	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`

	PlannedHours       float64 `json:"plannedHours"`
	CompletedHours     float64 `json:"completedHours"`
	TargetTasksCreated int     `json:"targetTasksCreated"`
}

// Granularity selects the read-aggregation window.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly, GranularityYearly:
		return true
	}
	return false
}

// DeleteRequest scopes a record deletion. Date is ignored when All is set.
type DeleteRequest struct {
	ProjectID string
	Date      string
	ActorID   string
	All       bool
}

// ListRangeRequest captures the filters for a visibility-scoped range scan.
// The scan returns rows owned by ActorID plus anonymous rows for the project;
// an anonymous caller sees anonymous rows only.
type ListRangeRequest struct {
	ProjectID string
	ActorID   string
	From      string
	To        string
}
