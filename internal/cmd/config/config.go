package config

import (
	"log/slog"

	"github.com/clambin/homeshift/internal/configuration"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var Cmd = cobra.Command{
	Use:   "config",
	Short: "show the parsed configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configuration.Load(viper.GetViper())
		if err != nil {
			return err
		}
		e := yaml.NewEncoder(cmd.OutOrStdout())
		defer func() { _ = e.Close() }()
		return ShowConfig(cfg, e, cfg.Logger(cmd.ErrOrStderr()))
	},
}

type Encoder interface {
	Encode(any) error
}

type mode struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

type household struct {
	Name             string              `yaml:"name" json:"name"`
	Calendar         string              `yaml:"calendar,omitempty" json:"calendar,omitempty"`
	HolidayCalendar  string              `yaml:"holidayCalendar,omitempty" json:"holidayCalendar,omitempty"`
	DayModes         []mode              `yaml:"dayModes" json:"dayModes"`
	ThermostatModes  []mode              `yaml:"thermostatModes" json:"thermostatModes"`
	ThermostatOff    string              `yaml:"thermostatOff,omitempty" json:"thermostatOff,omitempty"`
	Events           map[string]string   `yaml:"events,omitempty" json:"events,omitempty"`
	Modes            map[string]string   `yaml:"modes" json:"modes"`
	Schedulers       map[string][]string `yaml:"schedulers,omitempty" json:"schedulers,omitempty"`
	ScanInterval     string              `yaml:"scanInterval" json:"scanInterval"`
	OverrideDuration int                 `yaml:"overrideDuration" json:"overrideDuration"`
}

type report struct {
	Settings  configuration.Configuration `yaml:"settings" json:"settings"`
	Effective []household                 `yaml:"effective" json:"effective"`
}

// ShowConfig encodes the configuration, without secrets, followed by the effective configuration of each household,
// i.e. as homeshift interprets it: mode maps, the day mode used in each situation and scheduler assignments.
func ShowConfig(cfg configuration.Configuration, e Encoder, logger *slog.Logger) error {
	r := report{Settings: cfg.Redacted()}

	for _, h := range cfg.Households {
		c := h.Controller(logger)
		entry := household{
			Name:             c.Name,
			Calendar:         c.Calendar,
			HolidayCalendar:  c.HolidayCalendar,
			DayModes:         []mode{},
			ThermostatModes:  []mode{},
			Modes:            make(map[string]string),
			Schedulers:       c.Schedulers,
			ScanInterval:     c.ScanInterval.String(),
			OverrideDuration: c.OverrideDuration,
		}
		for _, key := range c.DayModes.Keys() {
			label, _ := c.DayModes.Label(key)
			entry.DayModes = append(entry.DayModes, mode{Key: key, Label: label})
		}
		for _, key := range c.ThermostatModes.Keys() {
			label, _ := c.ThermostatModes.Label(key)
			entry.ThermostatModes = append(entry.ThermostatModes, mode{Key: key, Label: label})
		}
		if label, ok := c.ThermostatModes.Label(c.ThermostatOffKey); ok {
			entry.ThermostatOff = label
		}
		for _, keyword := range c.Events.Keywords() {
			if key, ok := c.Events.Lookup(keyword); ok {
				label, ok := c.DayModes.Resolve(key)
				if !ok {
					label = key + " (unknown)"
				}
				if entry.Events == nil {
					entry.Events = make(map[string]string)
				}
				entry.Events[keyword] = label
			}
		}
		for situation, value := range map[string]string{
			"default": c.ModeDefault,
			"weekend": c.ModeWeekend,
			"holiday": c.ModeHoliday,
			"absence": c.ModeAbsence,
		} {
			if value == "" {
				continue
			}
			label, ok := c.DayModes.Resolve(value)
			if !ok {
				label = value + " (unknown)"
			}
			entry.Modes[situation] = label
		}
		r.Effective = append(r.Effective, entry)
	}
	return e.Encode(r)
}
