// Package override suspends automatic day-mode resolution for a while after a manual day-mode change.
package override

import (
	"log/slog"
	"time"
)

// MaxDuration is the longest supported override, in minutes.
const MaxDuration = 1440

// Timer holds the override deadline. A Timer is not safe for concurrent use: the owner serializes access.
type Timer struct {
	duration int
	until    time.Time
}

// New returns a Timer with the given duration, in minutes. A duration of zero disables the override.
func New(minutes int) *Timer {
	var t Timer
	t.SetDuration(minutes)
	return &t
}

// SetDuration sets the override duration, in minutes, clamped to [0, MaxDuration]. It only affects future calls to Arm:
// an override that is already armed keeps its deadline. SetDuration returns the duration that was set.
func (t *Timer) SetDuration(minutes int) int {
	t.duration = min(max(minutes, 0), MaxDuration)
	return t.duration
}

// Duration returns the override duration, in minutes.
func (t *Timer) Duration() int {
	return t.duration
}

// Arm starts the override at now. If the duration is zero, any pending override is cleared.
// Arm returns the new deadline and true, or false if no override is armed.
func (t *Timer) Arm(now time.Time) (time.Time, bool) {
	if t.duration <= 0 {
		t.until = time.Time{}
		return time.Time{}, false
	}
	t.until = now.Add(time.Duration(t.duration) * time.Minute)
	return t.until, true
}

// IsActive reports whether the override is armed and its deadline lies after now.
func (t *Timer) IsActive(now time.Time) bool {
	return !t.until.IsZero() && now.Before(t.until)
}

// Expire clears the override if its deadline has passed. It returns true if the override was cleared.
func (t *Timer) Expire(now time.Time) bool {
	if t.until.IsZero() || now.Before(t.until) {
		return false
	}
	t.until = time.Time{}
	return true
}

// Until returns the override deadline, or false if no override is armed.
func (t *Timer) Until() (time.Time, bool) {
	return t.until, !t.until.IsZero()
}

func (t *Timer) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int("duration", t.duration)}
	if !t.until.IsZero() {
		attrs = append(attrs, slog.Time("until", t.until))
	}
	return slog.GroupValue(attrs...)
}
