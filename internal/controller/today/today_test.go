package today_test

import (
	"testing"
	"time"

	"github.com/clambin/homeshift/internal/controller/today"
	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	var tracker today.Tracker

	morning := time.Date(2026, time.March, 12, 8, 0, 0, 0, time.Local)
	assert.True(t, tracker.Rollover(morning))
	assert.Equal(t, today.None, tracker.Type())

	tracker.Observe("Télétravail")
	assert.Equal(t, "Télétravail", tracker.Type())

	// same day, event has ended
	afternoon := time.Date(2026, time.March, 12, 14, 0, 0, 0, time.Local)
	assert.False(t, tracker.Rollover(afternoon))
	tracker.Observe(today.None)
	assert.Equal(t, "Télétravail", tracker.Type())

	// later event on the same day wins
	tracker.Observe("Vacances")
	assert.Equal(t, "Vacances", tracker.Type())

	// next day starts from None
	tomorrow := time.Date(2026, time.March, 13, 0, 0, 1, 0, time.Local)
	assert.True(t, tracker.Rollover(tomorrow))
	assert.Equal(t, today.None, tracker.Type())
	assert.False(t, tracker.Rollover(tomorrow.Add(time.Hour)))
}
