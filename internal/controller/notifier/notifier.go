// Package notifier informs the user of day mode, thermostat mode and override changes.
package notifier

import (
	"context"
	"log/slog"
	"time"
)

// Kind identifies what changed.
type Kind string

const (
	DayMode          Kind = "day_mode"
	ThermostatMode   Kind = "thermostat_mode"
	OverrideDuration Kind = "override_duration"
)

func (k Kind) String() string {
	switch k {
	case DayMode:
		return "day mode"
	case ThermostatMode:
		return "thermostat mode"
	case OverrideDuration:
		return "override duration"
	default:
		return string(k)
	}
}

// Change describes an accepted change to a household's state.
type Change struct {
	Household string
	Kind      Kind
	From      string
	To        string
	Reason    string
	Manual    bool
	At        time.Time
}

// Title returns a one-line description of the change.
func (c Change) Title() string {
	return c.Household + ": " + c.Kind.String() + " changed from " + c.From + " to " + c.To
}

// Text returns why the change happened.
func (c Change) Text() string {
	if c.Manual {
		return "manual change"
	}
	return c.Reason
}

func (c Change) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("household", c.Household),
		slog.String("kind", string(c.Kind)),
		slog.String("from", c.From),
		slog.String("to", c.To),
		slog.String("reason", c.Reason),
		slog.Bool("manual", c.Manual),
	)
}

type Notifier interface {
	Notify(context.Context, Change)
}

type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, change Change) {
	for _, l := range n {
		l.Notify(ctx, change)
	}
}
