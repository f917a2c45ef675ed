package modes

import (
	"log/slog"
	"strings"
)

// An EventModeMap maps a calendar event keyword to the day mode it implies. Keywords are matched case-insensitively.
type EventModeMap struct {
	keywords []string          // as configured, in order
	modes    map[string]string // lower-cased keyword -> day mode
}

// ParseEventModeMap parses a "Keyword1:Mode1, Keyword2:Mode2" string, using the same rules as Parse.
func ParseEventModeMap(raw string) EventModeMap {
	var m EventModeMap
	for _, pair := range strings.Split(raw, ",") {
		keyword, mode, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		keyword, mode = strings.TrimSpace(keyword), strings.TrimSpace(mode)
		if keyword == "" || mode == "" {
			continue
		}
		if m.modes == nil {
			m.modes = make(map[string]string)
		}
		lower := strings.ToLower(keyword)
		if _, ok = m.modes[lower]; !ok {
			m.keywords = append(m.keywords, keyword)
		}
		m.modes[lower] = mode
	}
	return m
}

// Len returns the number of configured keywords.
func (m EventModeMap) Len() int {
	return len(m.keywords)
}

// Keywords returns the configured keywords, in their configured spelling and order.
func (m EventModeMap) Keywords() []string {
	keywords := make([]string, len(m.keywords))
	copy(keywords, m.keywords)
	return keywords
}

// Lookup returns the day mode configured for a keyword.
func (m EventModeMap) Lookup(keyword string) (string, bool) {
	mode, ok := m.modes[strings.ToLower(keyword)]
	return mode, ok
}

// Match returns the first configured keyword that occurs (case-insensitively) in an event message.
func (m EventModeMap) Match(message string) (string, bool) {
	message = strings.ToLower(message)
	for _, keyword := range m.keywords {
		if strings.Contains(message, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}

// String serializes the map back to its configuration form.
func (m EventModeMap) String() string {
	pairs := make([]string, 0, len(m.keywords))
	for _, keyword := range m.keywords {
		pairs = append(pairs, keyword+":"+m.modes[strings.ToLower(keyword)])
	}
	return strings.Join(pairs, ", ")
}

func (m EventModeMap) LogValue() slog.Value {
	return slog.StringValue(m.String())
}

func (m EventModeMap) MarshalYAML() (any, error) {
	return m.String(), nil
}
