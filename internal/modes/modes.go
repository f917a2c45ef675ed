// Package modes holds the key/label dictionaries for day modes and thermostat modes.
//
// A mode has a stable internal key (e.g. "Work"), used by automations and configuration, and a display label
// (e.g. "Travail"), shown to the user and used as a scheduler tag. Both are accepted as input.
package modes

import (
	"log/slog"
	"strings"
)

// A ModeMap is an ordered mapping of internal key to display label. The zero value is an empty map.
// A ModeMap is built once, when the configuration is loaded, and is never modified afterward.
type ModeMap struct {
	keys   []string
	labels map[string]string
}

// Parse parses a "Key1:Label1, Key2:Label2" string. Each pair is split on its first colon and both halves are trimmed.
// Pairs without a colon, or with an empty key or label, are dropped. Order is preserved. If a key appears more
// than once, the last label wins, but the key keeps its first position.
func Parse(raw string) ModeMap {
	var m ModeMap
	for _, pair := range strings.Split(raw, ",") {
		key, label, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		m.add(strings.TrimSpace(key), strings.TrimSpace(label))
	}
	return m
}

// FromList builds a ModeMap where every key is its own label.
func FromList(labels []string) ModeMap {
	var m ModeMap
	for _, label := range labels {
		label = strings.TrimSpace(label)
		m.add(label, label)
	}
	return m
}

func (m *ModeMap) add(key, label string) {
	if key == "" || label == "" {
		return
	}
	if m.labels == nil {
		m.labels = make(map[string]string)
	}
	if _, ok := m.labels[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.labels[key] = label
}

// Len returns the number of modes.
func (m ModeMap) Len() int {
	return len(m.keys)
}

// Keys returns the internal keys, in configured order.
func (m ModeMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Labels returns the display labels, in configured order. This is "the list of configured modes".
func (m ModeMap) Labels() []string {
	labels := make([]string, 0, len(m.keys))
	for _, key := range m.keys {
		labels = append(labels, m.labels[key])
	}
	return labels
}

// Label returns the display label for an (exact) internal key.
func (m ModeMap) Label(key string) (string, bool) {
	label, ok := m.labels[key]
	return label, ok
}

// Key returns the internal key of a display label. If several keys share the label, the first one is returned.
func (m ModeMap) Key(label string) (string, bool) {
	for _, key := range m.keys {
		if m.labels[key] == label {
			return key, true
		}
	}
	return "", false
}

// Contains reports whether label is one of the configured display labels.
func (m ModeMap) Contains(label string) bool {
	_, ok := m.Key(label)
	return ok
}

// Resolve maps an input to a display label. An input that is already a display label is returned unchanged.
// Otherwise, the input is matched case-insensitively against the internal keys.
func (m ModeMap) Resolve(input string) (string, bool) {
	if m.Contains(input) {
		return input, true
	}
	for _, key := range m.keys {
		if strings.EqualFold(key, input) {
			return m.labels[key], true
		}
	}
	return "", false
}

// First returns the label of the first configured mode.
func (m ModeMap) First() (string, bool) {
	if len(m.keys) == 0 {
		return "", false
	}
	return m.labels[m.keys[0]], true
}

// String serializes the map back to its "Key1:Label1, Key2:Label2" form.
func (m ModeMap) String() string {
	pairs := make([]string, 0, len(m.keys))
	for _, key := range m.keys {
		pairs = append(pairs, key+":"+m.labels[key])
	}
	return strings.Join(pairs, ", ")
}

func (m ModeMap) LogValue() slog.Value {
	return slog.StringValue(m.String())
}

// MarshalYAML renders the map in its configuration form.
func (m ModeMap) MarshalYAML() (any, error) {
	return m.String(), nil
}
