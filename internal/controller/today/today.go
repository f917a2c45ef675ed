// Package today remembers the calendar event type observed during the current day.
package today

import (
	"log/slog"
	"time"
)

// None is the event type of a day without a calendar event.
const None = ""

// Tracker holds the event type observed today. Once an event type is observed, it is kept for the rest of the day,
// even after the event itself ends. A Tracker is not safe for concurrent use.
type Tracker struct {
	date      date
	todayType string
}

type date struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) date {
	y, m, d := t.Date()
	return date{year: y, month: m, day: d}
}

// Rollover resets the event type to None if now falls on a different date than the previous call.
// It returns true if the date changed.
func (t *Tracker) Rollover(now time.Time) bool {
	today := dateOf(now)
	if today == t.date {
		return false
	}
	t.date = today
	t.todayType = None
	return true
}

// Observe records the event type seen during the current tick. None does not erase a previously observed type.
func (t *Tracker) Observe(todayType string) {
	if todayType != None {
		t.todayType = todayType
	}
}

// Type returns the event type observed today, or None.
func (t *Tracker) Type() string {
	return t.todayType
}

func (t *Tracker) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", t.todayType),
		slog.String("date", time.Date(t.date.year, t.date.month, t.date.day, 0, 0, 0, 0, time.Local).Format(time.DateOnly)),
	)
}
