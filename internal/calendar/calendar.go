// Package calendar interprets the state of a calendar entity.
package calendar

import (
	"log/slog"
	"time"
)

// MiddayHour separates morning events from afternoon events.
const MiddayHour = 13

// TimeFormat is the layout of an event's start and end time, in naive local time.
const TimeFormat = "2006-01-02 15:04:05"

// Period classifies the time window of an event.
type Period string

const (
	AllDay    Period = "all_day"
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
)

// Classify determines whether an event covers the whole day, the morning or the afternoon.
//
// Events that start and end at midnight are all-day events (single- or multi-day). Other events are morning events
// if they end at or before MiddayHour on the hour, afternoon events if they start at or after MiddayHour, and
// all-day events otherwise. Unparseable timestamps yield AllDay.
func Classify(start, end string) Period {
	startTime, err := time.Parse(TimeFormat, start)
	if err != nil {
		return AllDay
	}
	endTime, err := time.Parse(TimeFormat, end)
	if err != nil {
		return AllDay
	}

	if isMidnight(startTime) && isMidnight(endTime) {
		return AllDay
	}
	if endTime.Hour() <= MiddayHour && endTime.Minute() == 0 {
		return Morning
	}
	if startTime.Hour() >= MiddayHour {
		return Afternoon
	}
	return AllDay
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0
}

// Event is the state of a calendar entity.
type Event struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
	Start   string `json:"start_time,omitempty"`
	End     string `json:"end_time,omitempty"`
}

// StateOn is the state of a calendar with an ongoing event.
const StateOn = "on"

// Active reports whether the calendar currently has an event.
func (e Event) Active() bool {
	return e.State == StateOn && e.Message != ""
}

// Period classifies the event's time window.
func (e Event) Period() Period {
	return Classify(e.Start, e.End)
}

func (e Event) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("state", e.State),
		slog.String("message", e.Message),
		slog.String("start", e.Start),
		slog.String("end", e.End),
	)
}
