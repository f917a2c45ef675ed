package controller

import (
	"log/slog"
	"time"

	"github.com/clambin/homeshift/internal/controller/rules"
	"github.com/clambin/homeshift/internal/controller/schedulers"
	"github.com/clambin/homeshift/internal/modes"
)

// Configuration holds the parsed configuration of one household.
type Configuration struct {
	Name             string
	Calendar         string
	HolidayCalendar  string
	DayModes         modes.ModeMap
	ThermostatModes  modes.ModeMap
	ThermostatOffKey string
	Events           modes.EventModeMap
	ModeDefault      string
	ModeWeekend      string
	ModeHoliday      string
	ModeAbsence      string
	Schedulers       schedulers.Assignments
	ScanInterval     time.Duration
	OverrideDuration int
}

// Rules returns the configuration of the household's day mode rules.
func (c Configuration) Rules() rules.Configuration {
	return rules.Configuration{
		Events:  c.Events,
		Weekend: c.ModeWeekend,
		Holiday: c.ModeHoliday,
		Default: c.ModeDefault,
	}
}

// TodayType returns the event type of an active calendar event: the first configured keyword found in its message,
// or the message itself if no keyword matches.
func (c Configuration) TodayType(message string) string {
	if keyword, ok := c.Events.Match(message); ok {
		return keyword
	}
	return message
}

// initialDayMode returns the default day mode, if configured, or the first configured day mode.
func (c Configuration) initialDayMode() string {
	if label, ok := c.DayModes.Resolve(c.ModeDefault); ok {
		return label
	}
	label, _ := c.DayModes.First()
	return label
}

// absenceMode returns the label of the absence mode, or false if no (valid) absence mode is configured.
func (c Configuration) absenceMode() (string, bool) {
	if c.ModeAbsence == "" {
		return "", false
	}
	return c.DayModes.Resolve(c.ModeAbsence)
}

func (c Configuration) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", c.Name),
		slog.String("calendar", c.Calendar),
		slog.String("holidays", c.HolidayCalendar),
		slog.Any("dayModes", c.DayModes),
		slog.Any("thermostatModes", c.ThermostatModes),
		slog.Any("events", c.Events),
		slog.Duration("interval", c.ScanInterval),
		slog.Int("override", c.OverrideDuration),
	)
}
