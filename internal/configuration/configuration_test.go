package configuration_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/clambin/homeshift/internal/configuration"
	"github.com/clambin/homeshift/internal/controller/schedulers"
	"github.com/clambin/homeshift/internal/controller/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const fullConfiguration = `
debug: true
addr: :8080
log:
  format: json
hass:
  url: http://homeassistant:8123
  token: secret-token
  timeout: 5s
store:
  path: /data/homeshift.db
mqtt:
  broker: tcp://mosquitto:1883
  prefix: homeshift
kafka:
  brokers: [ "kafka:9092" ]
  topic: homeshift.mode-changes
households:
  - name: maison
    calendar: calendar.family
    holidayCalendar: calendar.holidays
    dayModes: "Home:Maison, Work:Travail, Remote:Télétravail, Away:Absence"
    thermostatModes: "Off:Eteint, Heating:Chauffage"
    events: "Vacances:Home"
    modes:
      default: Work
      weekend: Home
      holiday: Home
      absence: Away
    schedulers:
      - mode: Home
        switches: [ switch.home_heating, switch.lights ]
      - mode: Travail
        switches: [ switch.office ]
    scanInterval: 15
    overrideDuration: 90
  - name: chalet
`

func load(t *testing.T, content string) (configuration.Configuration, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(content)))
	return configuration.Load(v)
}

func TestLoad(t *testing.T) {
	cfg, err := load(t, fullConfiguration)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://homeassistant:8123", cfg.HomeAssistant.URL)
	assert.Equal(t, 5*time.Second, cfg.HomeAssistant.Timeout)
	assert.Equal(t, "/data/homeshift.db", cfg.Store.Path)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	require.Len(t, cfg.Households, 2)

	maison := cfg.Households[0].Controller(slog.New(slog.DiscardHandler))
	assert.Equal(t, "maison", maison.Name)
	assert.Equal(t, "calendar.family", maison.Calendar)
	assert.Equal(t, "calendar.holidays", maison.HolidayCalendar)
	assert.Equal(t, []string{"Maison", "Travail", "Télétravail", "Absence"}, maison.DayModes.Labels())
	assert.Equal(t, []string{"Home", "Work", "Remote", "Away"}, maison.DayModes.Keys())
	assert.Equal(t, []string{"Eteint", "Chauffage"}, maison.ThermostatModes.Labels())
	assert.Equal(t, "Off", maison.ThermostatOffKey)
	assert.Equal(t, 1, maison.Events.Len())
	assert.Equal(t, "Work", maison.ModeDefault)
	assert.Equal(t, "Away", maison.ModeAbsence)
	assert.Equal(t, schedulers.Assignments{
		"Maison":  {"switch.home_heating", "switch.lights"},
		"Travail": {"switch.office"},
	}, maison.Schedulers)
	assert.Equal(t, 15*time.Minute, maison.ScanInterval)
	assert.Equal(t, 90, maison.OverrideDuration)

	chalet := cfg.Households[1].Controller(slog.New(slog.DiscardHandler))
	assert.Equal(t, []string{"Maison", "Travail", "Télétravail", "Absence"}, chalet.DayModes.Labels())
	assert.Equal(t, []string{"Maison", "Travail", "Télétravail", "Absence"}, chalet.DayModes.Keys())
	assert.Equal(t, []string{"Eteint", "Chauffage", "Climatisation", "Ventilation"}, chalet.ThermostatModes.Labels())
	assert.Equal(t, 2, chalet.Events.Len())
	assert.Equal(t, "Travail", chalet.ModeDefault)
	assert.Equal(t, "Maison", chalet.ModeWeekend)
	assert.Equal(t, "Maison", chalet.ModeHoliday)
	assert.Equal(t, "Absence", chalet.ModeAbsence)
	assert.Empty(t, chalet.Schedulers)
	assert.Equal(t, time.Hour, chalet.ScanInterval)
	assert.Zero(t, chalet.OverrideDuration)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "no households",
			content: "addr: :8080\nhass:\n  url: http://hass:8123\n  token: x\n",
		},
		{
			name:    "duplicate households",
			content: "addr: :8080\nhass:\n  url: http://hass:8123\n  token: x\nhouseholds:\n  - name: maison\n  - name: maison\n",
		},
		{
			name:    "missing household name",
			content: "addr: :8080\nhass:\n  url: http://hass:8123\n  token: x\nhouseholds:\n  - calendar: calendar.family\n",
		},
		{
			name:    "missing token",
			content: "addr: :8080\nhass:\n  url: http://hass:8123\nhouseholds:\n  - name: maison\n",
		},
		{
			name:    "invalid log format",
			content: "addr: :8080\nlog:\n  format: xml\nhass:\n  url: http://hass:8123\n  token: x\nhouseholds:\n  - name: maison\n",
		},
		{
			name:    "scheduler without switches",
			content: "addr: :8080\nhass:\n  url: http://hass:8123\n  token: x\nhouseholds:\n  - name: maison\n    schedulers:\n      - mode: Maison\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.content)
			assert.Error(t, err)
		})
	}
}

func TestHousehold_Controller_Fallbacks(t *testing.T) {
	tests := []struct {
		name             string
		household        configuration.Household
		wantScanInterval time.Duration
		wantOverride     int
		wantLog          []string
	}{
		{
			name:             "valid",
			household:        configuration.Household{Name: "maison", ScanInterval: " 5 ", OverrideDuration: "30"},
			wantScanInterval: 5 * time.Minute,
			wantOverride:     30,
		},
		{
			name:             "not a number",
			household:        configuration.Household{Name: "maison", ScanInterval: "hourly", OverrideDuration: "soon"},
			wantScanInterval: time.Hour,
			wantOverride:     0,
			wantLog: []string{
				`level=WARN msg="invalid number. using default" household=maison field=scanInterval value=hourly default=60`,
				`level=WARN msg="invalid number. using default" household=maison field=overrideDuration value=soon default=0`,
			},
		},
		{
			name:             "out of range",
			household:        configuration.Household{Name: "maison", ScanInterval: "0", OverrideDuration: "5000"},
			wantScanInterval: time.Hour,
			wantOverride:     1440,
			wantLog: []string{
				`level=WARN msg="invalid scan interval. using default" household=maison scanInterval=0 default=60`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg := tt.household.Controller(testutil.NewBufferLogger(&out))
			assert.Equal(t, tt.wantScanInterval, cfg.ScanInterval)
			assert.Equal(t, tt.wantOverride, cfg.OverrideDuration)
			for _, line := range tt.wantLog {
				assert.Contains(t, out.String(), line)
			}
		})
	}
}

func TestHousehold_Controller_UnknownSchedulerMode(t *testing.T) {
	var out bytes.Buffer
	cfg := configuration.Household{
		Name:       "maison",
		DayModes:   "Maison, Travail",
		Schedulers: []configuration.Scheduler{{Mode: "Chalet", Switches: []string{"switch.chalet"}}},
	}.Controller(testutil.NewBufferLogger(&out))
	assert.Equal(t, schedulers.Assignments{"Chalet": {"switch.chalet"}}, cfg.Schedulers)
	assert.Contains(t, out.String(), `msg="schedulers assigned to unknown day mode" household=maison mode=Chalet`)
}

func TestParseDayModes(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantKeys   []string
		wantLabels []string
	}{
		{name: "plain list", raw: "Maison, Travail,,Absence ", wantKeys: []string{"Maison", "Travail", "Absence"}, wantLabels: []string{"Maison", "Travail", "Absence"}},
		{name: "map", raw: "Home:Maison, Work:Travail", wantKeys: []string{"Home", "Work"}, wantLabels: []string{"Maison", "Travail"}},
		{name: "empty", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := configuration.ParseDayModes(tt.raw)
			if len(tt.wantKeys) == 0 {
				assert.Zero(t, m.Len())
				return
			}
			assert.Equal(t, tt.wantKeys, m.Keys())
			assert.Equal(t, tt.wantLabels, m.Labels())
		})
	}
}

func TestConfiguration_Redacted(t *testing.T) {
	cfg, err := load(t, fullConfiguration)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, yaml.NewEncoder(&out).Encode(cfg.Redacted()))
	assert.NotContains(t, out.String(), "secret-token")
	assert.Contains(t, out.String(), "********")
	assert.Equal(t, "secret-token", cfg.HomeAssistant.Token)
}
