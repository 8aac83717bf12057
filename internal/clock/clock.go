// Package clock provides the wall-clock abstraction used to decide what
// "today" is for visit tracking and sales totals.
package clock

import "time"

// DateLayout is the calendar-date format stored in activity logs and settings.
const DateLayout = "2006-01-02"

// TimestampLayout is the local timestamp format stored in created_at columns.
// Its first ten characters are the calendar date, which the sales queries rely on.
const TimestampLayout = "2006-01-02 15:04:05"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock in the local time zone.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Today returns c's current calendar date as YYYY-MM-DD.
func Today(c Clock) string {
	return c.Now().Format(DateLayout)
}

// Timestamp returns c's current time formatted with TimestampLayout.
func Timestamp(c Clock) string {
	return c.Now().Format(TimestampLayout)
}
