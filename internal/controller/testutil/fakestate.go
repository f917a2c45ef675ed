package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/clambin/homeshift/internal/calendar"
	"github.com/clambin/homeshift/internal/hass"
)

// FakeHomeAssistant holds calendar, holiday and switch states in memory and records switch commands.
type FakeHomeAssistant struct {
	lock   sync.Mutex
	events map[string]calendar.Event
	on     map[string]bool
	tags   map[string][]string
	calls  []Call
}

// Call is a switch command received by FakeHomeAssistant.
type Call struct {
	EntityIDs []string
	On        bool
}

func NewFakeHomeAssistant() *FakeHomeAssistant {
	return &FakeHomeAssistant{
		events: make(map[string]calendar.Event),
		on:     make(map[string]bool),
		tags:   make(map[string][]string),
	}
}

func (f *FakeHomeAssistant) SetEvent(entityID string, event calendar.Event) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.events[entityID] = event
}

func (f *FakeHomeAssistant) DeleteEvent(entityID string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.events, entityID)
}

func (f *FakeHomeAssistant) SetOn(entityID string, on bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.on[entityID] = on
}

func (f *FakeHomeAssistant) SetTags(entityID string, tags ...string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.tags[entityID] = tags
}

func (f *FakeHomeAssistant) GetEvent(_ context.Context, entityID string) (calendar.Event, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	event, ok := f.events[entityID]
	if !ok {
		return calendar.Event{}, fmt.Errorf("%s: %w", entityID, hass.ErrNotFound)
	}
	return event, nil
}

func (f *FakeHomeAssistant) IsOn(_ context.Context, entityID string) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	on, ok := f.on[entityID]
	if !ok {
		return false, fmt.Errorf("%s: %w", entityID, hass.ErrNotFound)
	}
	return on, nil
}

func (f *FakeHomeAssistant) GetTags(_ context.Context, entityID string) ([]string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	tags, ok := f.tags[entityID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", entityID, hass.ErrNotFound)
	}
	return tags, nil
}

func (f *FakeHomeAssistant) SetState(_ context.Context, entityIDs []string, on bool) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, Call{EntityIDs: slices.Clone(entityIDs), On: on})
	return nil
}

// Calls returns the recorded switch commands and clears them.
func (f *FakeHomeAssistant) Calls() []Call {
	f.lock.Lock()
	defer f.lock.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

// Clock is a settable clock.
type Clock struct {
	lock sync.Mutex
	now  time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}
