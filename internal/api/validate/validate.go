package validate

import (
	"fmt"
	"regexp"

	"github.com/flowtide/progress/internal/model"
)

// projectIdRx allows letters, digits, hyphen and underscore, 1-64 chars.
// Project IDs come from the client's local task store and are opaque here.
var projectIdRx = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ProjectID validates the path component that scopes every record.
func ProjectID(v string) error {
	if v == "" {
		return fmt.Errorf("projectId is required")
	}
	if !projectIdRx.MatchString(v) {
		return fmt.Errorf("projectId must match %s", projectIdRx.String())
	}
	return nil
}

// Date validates a YYYY-MM-DD calendar date. Parsing is strict: "2024-6-05"
// and out-of-range days are rejected.
func Date(v string) error {
	if v == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := model.ParseDate(v); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %v", err)
	}
	return nil
}

// Granularity validates the read-aggregation window selector.
func Granularity(v string) error {
	if v == "" {
		return fmt.Errorf("granularity is required")
	}
	if !model.Granularity(v).Valid() {
		return fmt.Errorf("granularity must be one of daily, weekly, monthly, yearly")
	}
	return nil
}

// SessionEntry validates one session-log row from a write payload.
func SessionEntry(e model.SessionEntry) error {
	switch e.SessionType {
	case model.SessionFocus, model.SessionShortBreak, model.SessionLongBreak:
	default:
		return fmt.Errorf("sessionType must be one of focus, short_break, long_break")
	}
	if e.DurationMinutes < 0 {
		return fmt.Errorf("durationMinutes must not be negative")
	}
	if e.Date != "" {
		if err := Date(e.Date); err != nil {
			return err
		}
	}
	return nil
}

// SessionEntries validates a batch, reporting the index of the first bad row.
func SessionEntries(entries []*model.SessionEntry) error {
	for i, e := range entries {
		if e == nil {
			return fmt.Errorf("sessions[%d]: entry must not be null", i)
		}
		if err := SessionEntry(*e); err != nil {
			return fmt.Errorf("sessions[%d]: %w", i, err)
		}
	}
	return nil
}
