package controller

import (
	"log/slog"
	"time"

	"github.com/clambin/homeshift/internal/calendar"
)

// Snapshot is the state of a household after an update.
type Snapshot struct {
	Household         string          `json:"household"`
	TodayType         string          `json:"today_type,omitempty"`
	CurrentEvent      string          `json:"current_event,omitempty"`
	EventPeriod       calendar.Period `json:"event_period,omitempty"`
	DayMode           string          `json:"day_mode"`
	DayModeKey        string          `json:"day_mode_key"`
	ThermostatMode    string          `json:"thermostat_mode"`
	ThermostatModeKey string          `json:"thermostat_mode_key"`
	OverrideUntil     *time.Time      `json:"override_until,omitempty"`
	OverrideDuration  int             `json:"override_duration"`
	DayModes          []string        `json:"day_modes"`
	ThermostatModes   []string        `json:"thermostat_modes"`
	Updated           time.Time       `json:"updated"`
}

// OverrideRemaining returns how long automatic day mode changes remain suspended.
func (s Snapshot) OverrideRemaining(now time.Time) time.Duration {
	if s.OverrideUntil == nil || !now.Before(*s.OverrideUntil) {
		return 0
	}
	return s.OverrideUntil.Sub(now)
}

func (s Snapshot) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("household", s.Household),
		slog.String("dayMode", s.DayMode),
		slog.String("thermostatMode", s.ThermostatMode),
	}
	if s.TodayType != "" {
		attrs = append(attrs, slog.String("todayType", s.TodayType))
	}
	if s.CurrentEvent != "" {
		attrs = append(attrs, slog.String("event", s.CurrentEvent), slog.String("period", string(s.EventPeriod)))
	}
	if s.OverrideUntil != nil {
		attrs = append(attrs, slog.Time("overrideUntil", *s.OverrideUntil))
	}
	return slog.GroupValue(attrs...)
}
