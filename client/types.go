package client

// Record is the per-day metric snapshot returned by the service for one
// project and one calendar date.
type Record struct {
	ProjectID string `json:"projectId"`
	Date      string `json:"date"`
	ActorID   string `json:"actorId,omitempty"`

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

// Patch is the write payload for Replace and Merge. Fields left nil are
// omitted from the request; the server applies the per-operation defaults.
type Patch struct {
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

	Sessions []SessionEntry `json:"sessions,omitempty"`
}

// SessionEntry is one session-log row attached to a write.
type SessionEntry struct {
	TaskID          *string `json:"taskId,omitempty"`
	TaskTitle       string  `json:"taskTitle"`
	Date            string  `json:"date,omitempty"`
	StartTime       string  `json:"startTime,omitempty"`
	EndTime         string  `json:"endTime,omitempty"`
	DurationMinutes int     `json:"durationMinutes"`
	SessionType     string  `json:"sessionType"`
	Completed       bool    `json:"completed"`
}

// Rollup is the aggregate the service returns for weekly, monthly and
// yearly reads.
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

// DailyResponse is the gap-filled trailing week for a project.
type DailyResponse struct {
	Entries []Record `json:"entries"`
	Count   int      `json:"count"`
}
