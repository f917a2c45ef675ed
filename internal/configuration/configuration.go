// Package configuration loads the homeshift configuration.
package configuration

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/clambin/homeshift/internal/controller"
	"github.com/clambin/homeshift/internal/controller/override"
	"github.com/clambin/homeshift/internal/controller/schedulers"
	"github.com/clambin/homeshift/internal/modes"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DefaultDayModes         = "Maison, Travail, Télétravail, Absence"
	DefaultThermostatModes  = "Off:Eteint, Heating:Chauffage, Cooling:Climatisation, Ventilation:Ventilation"
	DefaultThermostatOffKey = "Off"
	DefaultEvents           = "Vacances:Maison, Télétravail:Télétravail"
	DefaultModeDefault      = "Travail"
	DefaultModeWeekend      = "Maison"
	DefaultModeHoliday      = "Maison"
	DefaultModeAbsence      = "Absence"
	// DefaultScanInterval is the interval between two updates, in minutes.
	DefaultScanInterval = 60
	// DefaultOverrideDuration disables the override.
	DefaultOverrideDuration = 0
)

const redacted = "********"

// Configuration of homeshift
type Configuration struct {
	Debug         bool                       `mapstructure:"debug" yaml:"debug"`
	Log           LogConfiguration           `mapstructure:"log" yaml:"log"`
	Addr          string                     `mapstructure:"addr" yaml:"addr" validate:"required"`
	HomeAssistant HomeAssistantConfiguration `mapstructure:"hass" yaml:"hass"`
	Store         StoreConfiguration         `mapstructure:"store" yaml:"store"`
	MQTT          MQTTConfiguration          `mapstructure:"mqtt" yaml:"mqtt"`
	Kafka         KafkaConfiguration         `mapstructure:"kafka" yaml:"kafka"`
	Slack         SlackConfiguration         `mapstructure:"slack" yaml:"slack"`
	Households    []Household                `mapstructure:"households" yaml:"households" validate:"required,min=1,unique=Name,dive"`
}

type LogConfiguration struct {
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

type HomeAssistantConfiguration struct {
	URL     string        `mapstructure:"url" yaml:"url" validate:"required,url"`
	Token   string        `mapstructure:"token" yaml:"token" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type StoreConfiguration struct {
	// Path of the sqlite database. Empty disables persistence.
	Path string `mapstructure:"path" yaml:"path"`
}

type MQTTConfiguration struct {
	Broker   string `mapstructure:"broker" yaml:"broker" validate:"omitempty,url"`
	ClientID string `mapstructure:"clientID" yaml:"clientID"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix" validate:"required_with=Broker"`
}

type KafkaConfiguration struct {
	Brokers []string `mapstructure:"brokers" yaml:"brokers" validate:"dive,hostname_port"`
	Topic   string   `mapstructure:"topic" yaml:"topic" validate:"required_with=Brokers"`
}

type SlackConfiguration struct {
	Token string `mapstructure:"token" yaml:"token"`
}

// Household configures one household.
//
// Mode maps are comma-separated lists: DayModes and ThermostatModes take Key:Label pairs (or plain labels for
// DayModes), Events takes keyword:mode pairs. ScanInterval and OverrideDuration are in minutes.
type Household struct {
	Name             string      `mapstructure:"name" yaml:"name" validate:"required"`
	Calendar         string      `mapstructure:"calendar" yaml:"calendar"`
	HolidayCalendar  string      `mapstructure:"holidayCalendar" yaml:"holidayCalendar"`
	DayModes         string      `mapstructure:"dayModes" yaml:"dayModes"`
	ThermostatModes  string      `mapstructure:"thermostatModes" yaml:"thermostatModes"`
	ThermostatOffKey string      `mapstructure:"thermostatOffKey" yaml:"thermostatOffKey"`
	Events           string      `mapstructure:"events" yaml:"events"`
	Modes            Modes       `mapstructure:"modes" yaml:"modes"`
	Schedulers       []Scheduler `mapstructure:"schedulers" yaml:"schedulers" validate:"dive"`
	ScanInterval     string      `mapstructure:"scanInterval" yaml:"scanInterval"`
	OverrideDuration string      `mapstructure:"overrideDuration" yaml:"overrideDuration"`
}

// Modes names the day mode (key or label) to use in each situation.
type Modes struct {
	Default string `mapstructure:"default" yaml:"default"`
	Weekend string `mapstructure:"weekend" yaml:"weekend"`
	Holiday string `mapstructure:"holiday" yaml:"holiday"`
	Absence string `mapstructure:"absence" yaml:"absence"`
}

// Scheduler lists the scheduler switches that are on in a day mode.
type Scheduler struct {
	Mode     string   `mapstructure:"mode" yaml:"mode" validate:"required"`
	Switches []string `mapstructure:"switches" yaml:"switches" validate:"required,dive,required"`
}

// Load decodes and validates the configuration held by v. Missing household settings get their default value.
func Load(v *viper.Viper) (Configuration, error) {
	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return Configuration{}, fmt.Errorf("decode configuration: %w", err)
	}
	for i := range cfg.Households {
		cfg.Households[i].setDefaults()
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Configuration{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Redacted returns a copy of the configuration without secrets.
func (c Configuration) Redacted() Configuration {
	for _, secret := range []*string{&c.HomeAssistant.Token, &c.MQTT.Password, &c.Slack.Token} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return c
}

func (h *Household) setDefaults() {
	for _, field := range []struct {
		value    *string
		fallback string
	}{
		{&h.DayModes, DefaultDayModes},
		{&h.ThermostatModes, DefaultThermostatModes},
		{&h.ThermostatOffKey, DefaultThermostatOffKey},
		{&h.Events, DefaultEvents},
		{&h.Modes.Default, DefaultModeDefault},
		{&h.Modes.Weekend, DefaultModeWeekend},
		{&h.Modes.Holiday, DefaultModeHoliday},
		{&h.Modes.Absence, DefaultModeAbsence},
		{&h.ScanInterval, strconv.Itoa(DefaultScanInterval)},
		{&h.OverrideDuration, strconv.Itoa(DefaultOverrideDuration)},
	} {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
	}
}

// Controller returns the configuration of the household's controller.Coordinator. Invalid numeric settings fall
// back to their default value. Scheduler modes may be given as a key or as a label.
func (h Household) Controller(logger *slog.Logger) controller.Configuration {
	logger = logger.With(slog.String("household", h.Name))

	cfg := controller.Configuration{
		Name:             h.Name,
		Calendar:         h.Calendar,
		HolidayCalendar:  h.HolidayCalendar,
		DayModes:         ParseDayModes(h.DayModes),
		ThermostatModes:  modes.Parse(h.ThermostatModes),
		ThermostatOffKey: h.ThermostatOffKey,
		Events:           modes.ParseEventModeMap(h.Events),
		ModeDefault:      h.Modes.Default,
		ModeWeekend:      h.Modes.Weekend,
		ModeHoliday:      h.Modes.Holiday,
		ModeAbsence:      h.Modes.Absence,
	}

	scanInterval := parseMinutes(h.ScanInterval, DefaultScanInterval, "scanInterval", logger)
	if scanInterval <= 0 {
		logger.Warn("invalid scan interval. using default", "scanInterval", scanInterval, "default", DefaultScanInterval)
		scanInterval = DefaultScanInterval
	}
	cfg.ScanInterval = time.Duration(scanInterval) * time.Minute
	cfg.OverrideDuration = override.New(parseMinutes(h.OverrideDuration, DefaultOverrideDuration, "overrideDuration", logger)).Duration()

	if len(h.Schedulers) > 0 {
		cfg.Schedulers = make(schedulers.Assignments, len(h.Schedulers))
		for _, s := range h.Schedulers {
			mode, ok := cfg.DayModes.Resolve(s.Mode)
			if !ok {
				logger.Warn("schedulers assigned to unknown day mode", "mode", s.Mode, "valid", cfg.DayModes)
				mode = s.Mode
			}
			cfg.Schedulers[mode] = append(cfg.Schedulers[mode], s.Switches...)
		}
	}
	return cfg
}

// ParseDayModes parses a day mode map. A list without any Key:Label pair is a plain list of labels,
// each label being its own key.
func ParseDayModes(raw string) modes.ModeMap {
	if strings.Contains(raw, ":") {
		return modes.Parse(raw)
	}
	return modes.FromList(strings.Split(raw, ","))
}

func parseMinutes(raw string, fallback int, name string, logger *slog.Logger) int {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn("invalid number. using default", "field", name, "value", raw, "default", fallback)
		return fallback
	}
	return minutes
}
