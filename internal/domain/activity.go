package domain

import "time"

type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
	ActionSync   ActionType = "sync"
)

// TimestampLayout is the fixed-width UTC layout used for stored timestamps,
// so that string comparison orders them chronologically.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// SystemActor is recorded when no authenticated user triggered the change.
const SystemActor = "system"

// ActivityLogEntry is an append-only audit record.
type ActivityLogEntry struct {
	ID          string         `json:"log_id"`
	Timestamp   time.Time      `json:"timestamp"`
	Collection  string         `json:"collection"`
	ActionType  ActionType     `json:"action_type"`
	ActorID     string         `json:"actor_id"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
}

type DateRange string

const (
	DateRangeToday DateRange = "today"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
	DateRangeAll   DateRange = "all"
)

// Since returns the inclusive lower bound of r relative to now. The zero
// time means unbounded.
func (r DateRange) Since(now time.Time) time.Time {
	now = now.UTC()
	switch r {
	case DateRangeToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case DateRangeWeek:
		return now.AddDate(0, 0, -7)
	case DateRangeMonth:
		return now.AddDate(0, -1, 0)
	}
	return time.Time{}
}

// ParseDateRange defaults to all for an empty value.
func ParseDateRange(v string) (DateRange, error) {
	switch r := DateRange(v); r {
	case "":
		return DateRangeAll, nil
	case DateRangeToday, DateRangeWeek, DateRangeMonth, DateRangeAll:
		return r, nil
	}
	return "", NewValidationError("dateRange", "must be one of today, week, month, all")
}

// ActivityFilter selects entries for ActivityLogger.Query.
type ActivityFilter struct {
	DateRange  DateRange
	ActionType ActionType
	Collection string
	Limit      int
}
