package modes_test

import (
	"testing"

	"github.com/clambin/homeshift/internal/modes"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantKeys   []string
		wantLabels []string
		wantString string
	}{
		{
			name:       "empty",
			raw:        "",
			wantKeys:   []string{},
			wantLabels: []string{},
			wantString: "",
		},
		{
			name:       "well-formed",
			raw:        "Off:Eteint, Heating:Chauffage",
			wantKeys:   []string{"Off", "Heating"},
			wantLabels: []string{"Eteint", "Chauffage"},
			wantString: "Off:Eteint, Heating:Chauffage",
		},
		{
			name:       "whitespace is trimmed",
			raw:        "  Off :  Eteint ,Heating:Chauffage  ",
			wantKeys:   []string{"Off", "Heating"},
			wantLabels: []string{"Eteint", "Chauffage"},
			wantString: "Off:Eteint, Heating:Chauffage",
		},
		{
			name:       "malformed entries are dropped",
			raw:        "Off:Eteint, Heating, :Climatisation, Cooling:, Ventilation:Ventilation",
			wantKeys:   []string{"Off", "Ventilation"},
			wantLabels: []string{"Eteint", "Ventilation"},
			wantString: "Off:Eteint, Ventilation:Ventilation",
		},
		{
			name:       "split on first colon",
			raw:        "Night:22:00 mode",
			wantKeys:   []string{"Night"},
			wantLabels: []string{"22:00 mode"},
			wantString: "Night:22:00 mode",
		},
		{
			name:       "duplicate key keeps first position",
			raw:        "Off:Eteint, Heating:Chauffage, Off:Arrêt",
			wantKeys:   []string{"Off", "Heating"},
			wantLabels: []string{"Arrêt", "Chauffage"},
			wantString: "Off:Arrêt, Heating:Chauffage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := modes.Parse(tt.raw)
			assert.Equal(t, tt.wantKeys, m.Keys())
			assert.Equal(t, tt.wantLabels, m.Labels())
			assert.Equal(t, tt.wantString, m.String())
			assert.Equal(t, len(tt.wantKeys), m.Len())
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	const raw = "Home:Maison, Work:Travail, Remote:Télétravail, Absence:Absence"
	m := modes.Parse(raw)
	assert.Equal(t, raw, m.String())
	assert.Equal(t, m, modes.Parse(m.String()))
}

func TestModeMap_Resolve(t *testing.T) {
	m := modes.Parse("Off:Eteint, Heating:Chauffage, Cooling:Climatisation")

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK assert.BoolAssertionFunc
	}{
		{name: "label", input: "Chauffage", want: "Chauffage", wantOK: assert.True},
		{name: "exact key", input: "Heating", want: "Chauffage", wantOK: assert.True},
		{name: "key, different case", input: "heating", want: "Chauffage", wantOK: assert.True},
		{name: "key, upper case", input: "COOLING", want: "Climatisation", wantOK: assert.True},
		{name: "label is case-sensitive", input: "chauffage", want: "", wantOK: assert.False},
		{name: "unknown", input: "Turbo", want: "", wantOK: assert.False},
		{name: "empty", input: "", want: "", wantOK: assert.False},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := m.Resolve(tt.input)
			tt.wantOK(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeMap_Lookups(t *testing.T) {
	m := modes.Parse("Off:Eteint, Heating:Chauffage")

	key, ok := m.Key("Chauffage")
	assert.True(t, ok)
	assert.Equal(t, "Heating", key)

	_, ok = m.Key("Heating")
	assert.False(t, ok)

	label, ok := m.Label("Off")
	assert.True(t, ok)
	assert.Equal(t, "Eteint", label)

	first, ok := m.First()
	assert.True(t, ok)
	assert.Equal(t, "Eteint", first)

	_, ok = modes.ModeMap{}.First()
	assert.False(t, ok)
}

func TestFromList(t *testing.T) {
	m := modes.FromList([]string{"Maison", " Travail ", "", "Absence"})
	assert.Equal(t, []string{"Maison", "Travail", "Absence"}, m.Keys())
	assert.Equal(t, []string{"Maison", "Travail", "Absence"}, m.Labels())

	label, ok := m.Resolve("travail")
	assert.True(t, ok)
	assert.Equal(t, "Travail", label)
}

func TestEventModeMap(t *testing.T) {
	m := modes.ParseEventModeMap("Vacances:Maison, Télétravail:Remote, broken, :Work")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"Vacances", "Télétravail"}, m.Keywords())
	assert.Equal(t, "Vacances:Maison, Télétravail:Remote", m.String())

	mode, ok := m.Lookup("télétravail")
	assert.True(t, ok)
	assert.Equal(t, "Remote", mode)

	_, ok = m.Lookup("Réunion")
	assert.False(t, ok)

	keyword, ok := m.Match("Télétravail (matin)")
	assert.True(t, ok)
	assert.Equal(t, "Télétravail", keyword)

	keyword, ok = m.Match("VACANCES d'été")
	assert.True(t, ok)
	assert.Equal(t, "Vacances", keyword)

	_, ok = m.Match("Dentist")
	assert.False(t, ok)
}
