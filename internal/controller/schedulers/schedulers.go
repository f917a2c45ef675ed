// Package schedulers determines which scheduler switches should be turned on and off for the active day mode
// and thermostat mode.
package schedulers

import (
	"context"
	"log/slog"

	"github.com/clambin/go-common/set"
	"github.com/clambin/homeshift/internal/modes"
)

// Assignments maps a day mode label to the scheduler switches that should be on in that mode.
type Assignments map[string][]string

// TagReader returns the tags of a scheduler switch. Unknown switches have no tags.
type TagReader interface {
	GetTags(ctx context.Context, entityID string) ([]string, error)
}

// Actuator turns a set of switches on or off.
type Actuator interface {
	SetState(ctx context.Context, entityIDs []string, on bool) error
}

// Input holds everything needed to compute a Diff.
type Input struct {
	Assignments     Assignments
	DayMode         string
	ThermostatKey   string
	OffKey          string
	ThermostatModes modes.ModeMap
}

// Diff lists the switches to turn on and off. Both lists are sorted.
type Diff struct {
	Enable  []string
	Disable []string
}

// Empty reports whether the Diff requires no action.
func (d Diff) Empty() bool {
	return len(d.Enable) == 0 && len(d.Disable) == 0
}

func (d Diff) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("enable", d.Enable),
		slog.Any("disable", d.Disable),
	)
}

// Plan computes the Diff for the active day mode:
//
//   - switches assigned to the active day mode are enabled;
//   - switches assigned to any other mode are disabled, unless they are also assigned to the active mode;
//   - if the thermostat is off, switches tagged with any thermostat mode label are disabled, whatever their assignment.
//
// Tags are only read when the thermostat is off. A switch whose tags can't be read has no tags.
func Plan(ctx context.Context, in Input, tags TagReader, logger *slog.Logger) Diff {
	if len(in.Assignments) == 0 {
		return Diff{}
	}

	enable := set.New[string]()
	for _, entityID := range in.Assignments[in.DayMode] {
		enable.Add(entityID)
	}

	disable := set.New[string]()
	for mode, entityIDs := range in.Assignments {
		if mode == in.DayMode {
			continue
		}
		for _, entityID := range entityIDs {
			if !enable.Contains(entityID) {
				disable.Add(entityID)
			}
		}
	}

	if in.OffKey != "" && in.ThermostatKey == in.OffKey && in.ThermostatModes.Len() > 0 && tags != nil {
		thermostatLabels := set.New[string](in.ThermostatModes.Labels()...)
		for _, entityID := range allAssigned(in.Assignments) {
			entityTags, err := tags.GetTags(ctx, entityID)
			if err != nil {
				logger.Debug("no tags for scheduler", "entity", entityID, "err", err)
				continue
			}
			if hasAny(thermostatLabels, entityTags) {
				enable.Remove(entityID)
				disable.Add(entityID)
			}
		}
	}

	return Diff{
		Enable:  enable.ListOrdered(),
		Disable: disable.ListOrdered(),
	}
}

func allAssigned(assignments Assignments) []string {
	all := set.New[string]()
	for _, entityIDs := range assignments {
		for _, entityID := range entityIDs {
			all.Add(entityID)
		}
	}
	return all.ListOrdered()
}

func hasAny(s set.Set[string], values []string) bool {
	for _, value := range values {
		if s.Contains(value) {
			return true
		}
	}
	return false
}

// Apply turns off the switches to disable, and then turns on the switches to enable. Empty lists are skipped.
// Errors are logged: a failed command leaves the current day mode in place.
func Apply(ctx context.Context, d Diff, actuator Actuator, logger *slog.Logger) {
	if len(d.Disable) > 0 {
		if err := actuator.SetState(ctx, d.Disable, false); err != nil {
			logger.Warn("failed to disable schedulers", "entities", d.Disable, "err", err)
		}
	}
	if len(d.Enable) > 0 {
		if err := actuator.SetState(ctx, d.Enable, true); err != nil {
			logger.Warn("failed to enable schedulers", "entities", d.Enable, "err", err)
		}
	}
}
