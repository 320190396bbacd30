// Package timeliness classifies a check-in as on time or late.
package timeliness

import (
	"time"

	"eventcheckin/internal/domain"
)

// EventStart combines a calendar date and a time of day into one instant in
// loc. Only the year, month and day of date are used.
func EventStart(date time.Time, start domain.TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, start.Hour, start.Minute, start.Second, 0, loc)
}

// Classify returns late iff now is strictly after the event start.
func Classify(now, date time.Time, start domain.TimeOfDay, loc *time.Location) domain.AttendanceStatus {
	if now.After(EventStart(date, start, loc)) {
		return domain.StatusLate
	}
	return domain.StatusPresent
}
