// Package rules determines the day mode that should be active, given the day's event type, the weekday and the
// holiday calendar.
package rules

import (
	"log/slog"
	"time"

	"github.com/clambin/homeshift/internal/modes"
)

// State is the input for a Rule.
type State struct {
	// TodayType is the event keyword observed today. Empty if no event was observed.
	TodayType string
	Weekend   bool
	Holiday   bool
}

// StateAt returns the State for a moment in time.
func StateAt(now time.Time, todayType string, holiday bool) State {
	return State{
		TodayType: todayType,
		Weekend:   IsWeekend(now),
		Holiday:   holiday,
	}
}

// IsWeekend reports whether t falls on a Saturday or a Sunday.
func IsWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}

func (s State) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("todayType", s.TodayType),
		slog.Bool("weekend", s.Weekend),
		slog.Bool("holiday", s.Holiday),
	)
}

// Action is the outcome of a Rule: the day mode that should be active and why.
// Mode is the day mode as configured (a key or a label); the caller resolves it against the configured day modes.
type Action struct {
	Mode   string
	Reason string
}

func (a Action) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", a.Mode),
		slog.String("reason", a.Reason),
	)
}

// A Rule evaluates the State. If the rule applies, it returns the Action and true.
type Rule interface {
	Evaluate(State) (Action, bool)
}

// Configuration holds the modes used by the rules.
type Configuration struct {
	Events  modes.EventModeMap
	Weekend string
	Holiday string
	Default string
}

// Rules evaluates its rules in order. The first rule that applies determines the Action.
type Rules []Rule

// New returns the rules for a Configuration, in order of priority: calendar event, weekend, holiday, default.
func New(cfg Configuration) Rules {
	return Rules{
		eventRule{events: cfg.Events},
		weekendRule{mode: cfg.Weekend},
		holidayRule{mode: cfg.Holiday},
		defaultRule{mode: cfg.Default},
	}
}

// Evaluate returns the Action of the first rule that applies.
func (r Rules) Evaluate(s State) (Action, bool) {
	for _, rule := range r {
		if a, ok := rule.Evaluate(s); ok {
			return a, true
		}
	}
	return Action{}, false
}

// Resolve evaluates the default rule set for a Configuration.
func Resolve(s State, cfg Configuration) Action {
	a, _ := New(cfg).Evaluate(s)
	return a
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

type eventRule struct {
	events modes.EventModeMap
}

func (r eventRule) Evaluate(s State) (Action, bool) {
	if s.TodayType == "" {
		return Action{}, false
	}
	mode, ok := r.events.Lookup(s.TodayType)
	if !ok {
		return Action{}, false
	}
	return Action{Mode: mode, Reason: "calendar event: " + s.TodayType}, true
}

type weekendRule struct {
	mode string
}

func (r weekendRule) Evaluate(s State) (Action, bool) {
	if !s.Weekend || r.mode == "" {
		return Action{}, false
	}
	return Action{Mode: r.mode, Reason: "weekend"}, true
}

type holidayRule struct {
	mode string
}

func (r holidayRule) Evaluate(s State) (Action, bool) {
	if !s.Holiday || r.mode == "" {
		return Action{}, false
	}
	return Action{Mode: r.mode, Reason: "holiday"}, true
}

type defaultRule struct {
	mode string
}

func (r defaultRule) Evaluate(_ State) (Action, bool) {
	if r.mode == "" {
		return Action{}, false
	}
	return Action{Mode: r.mode, Reason: "regular day"}, true
}
