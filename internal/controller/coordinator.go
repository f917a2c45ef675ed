package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/clambin/homeshift/internal/calendar"
	"github.com/clambin/homeshift/internal/controller/notifier"
	"github.com/clambin/homeshift/internal/controller/override"
	"github.com/clambin/homeshift/internal/controller/rules"
	"github.com/clambin/homeshift/internal/controller/schedulers"
	"github.com/clambin/homeshift/internal/controller/today"
	"github.com/clambin/homeshift/internal/hass"
	"github.com/clambin/homeshift/pkg/pubsub"
	"github.com/clambin/homeshift/pkg/scheduler"
)

// StateReader reads the calendars and the scheduler tags of a household.
type StateReader interface {
	GetEvent(ctx context.Context, entityID string) (calendar.Event, error)
	IsOn(ctx context.Context, entityID string) (bool, error)
	schedulers.TagReader
}

// SettingsStore persists the override duration of a household.
type SettingsStore interface {
	SaveOverrideDuration(ctx context.Context, household string, minutes int) error
}

// A Coordinator decides the day mode of a household and holds its thermostat mode.
//
// On each tick, it reads the household's calendar and determines the day mode from the day's event type, the weekday
// and the holiday calendar. A manual day mode change suspends this for the configured override duration.
// Whenever the day mode or the thermostat mode changes, the household's schedulers are updated.
//
// The resulting Snapshot is published to all subscribers.
type Coordinator struct {
	*pubsub.Publisher[Snapshot]
	cfg      Configuration
	rules    rules.Rules
	reader   StateReader
	actuator schedulers.Actuator
	notifier notifier.Notifier
	store    SettingsStore
	logger   *slog.Logger
	now      func() time.Time
	refresh  chan struct{}

	lock           sync.Mutex
	dayMode        string
	thermostatMode string
	currentEvent   string
	eventPeriod    calendar.Period
	today          today.Tracker
	override       *override.Timer
	expiry         *scheduler.Job
	updated        time.Time
	changes        []notifier.Change
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier informs the user of every change.
func WithNotifier(n notifier.Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithSettingsStore persists changes to the override duration.
func WithSettingsStore(s SettingsStore) Option {
	return func(c *Coordinator) {
		c.store = s
	}
}

// WithClock sets the function returning the current (local) time.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New returns a Coordinator for a household. The day mode starts as the default day mode and the thermostat mode
// as the first configured thermostat mode.
func New(cfg Configuration, reader StateReader, actuator schedulers.Actuator, logger *slog.Logger, opts ...Option) *Coordinator {
	c := Coordinator{
		Publisher: pubsub.New[Snapshot](logger.With(slog.String("component", "publisher"))),
		cfg:       cfg,
		rules:     rules.New(cfg.Rules()),
		reader:    reader,
		actuator:  actuator,
		logger:    logger,
		now:       time.Now,
		refresh:   make(chan struct{}, 1),
		dayMode:   cfg.initialDayMode(),
		override:  override.New(cfg.OverrideDuration),
	}
	c.thermostatMode, _ = cfg.ThermostatModes.First()
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Name returns the name of the household.
func (c *Coordinator) Name() string {
	return c.cfg.Name
}

// Run ticks immediately, every scan interval and whenever a refresh is requested, until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Debug("coordinator started", slog.Duration("interval", c.cfg.ScanInterval))
	defer c.logger.Debug("coordinator stopped")

	interval := c.cfg.ScanInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	defer func() {
		c.lock.Lock()
		c.cancelExpiry()
		c.lock.Unlock()
	}()

	c.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick(ctx)
		case <-c.refresh:
			c.Tick(ctx)
		}
	}
}

// Refresh requests an out-of-cycle tick from Run. It does not wait for the tick to happen.
func (c *Coordinator) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Tick runs one update cycle and returns the resulting Snapshot.
func (c *Coordinator) Tick(ctx context.Context) Snapshot {
	defer c.notify(ctx)
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.tick(ctx)
}

func (c *Coordinator) tick(ctx context.Context) Snapshot {
	now := c.now()
	event, found := c.readEvent(ctx)

	if c.today.Rollover(now) {
		c.logger.Debug("new day: event type reset", "date", now.Format(time.DateOnly))
	}

	if found && event.Active() {
		c.currentEvent = event.Message
		c.eventPeriod = event.Period()
		c.today.Observe(c.cfg.TodayType(event.Message))
	} else {
		c.currentEvent = ""
		c.eventPeriod = ""
	}

	c.decide(ctx, now)

	c.updated = now
	snapshot := c.snapshot()
	c.logger.Debug("tick completed", "snapshot", snapshot)
	c.Publish(snapshot)
	return snapshot
}

func (c *Coordinator) readEvent(ctx context.Context) (calendar.Event, bool) {
	if c.cfg.Calendar == "" {
		return calendar.Event{}, false
	}
	event, err := c.reader.GetEvent(ctx, c.cfg.Calendar)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, hass.ErrNotFound) {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "calendar not available", "calendar", c.cfg.Calendar, "err", err)
		return calendar.Event{}, false
	}
	return event, true
}

func (c *Coordinator) isHoliday(ctx context.Context) bool {
	if c.cfg.HolidayCalendar == "" {
		return false
	}
	on, err := c.reader.IsOn(ctx, c.cfg.HolidayCalendar)
	if err != nil {
		c.logger.Warn("holiday calendar not available", "calendar", c.cfg.HolidayCalendar, "err", err)
		return false
	}
	return on
}

func (c *Coordinator) decide(ctx context.Context, now time.Time) {
	if c.isAbsent() {
		c.logger.Debug("absence mode active: automatic day mode disabled")
		return
	}
	if c.override.IsActive(now) {
		until, _ := c.override.Until()
		c.logger.Debug("override active: automatic day mode suspended", "until", until)
		return
	}
	if c.override.Expire(now) {
		c.logger.Info("override expired: resuming automatic day mode")
	}

	state := rules.StateAt(now, c.today.Type(), c.isHoliday(ctx))
	action, ok := c.rules.Evaluate(state)
	if !ok {
		return
	}
	mode, ok := c.cfg.DayModes.Resolve(action.Mode)
	if !ok {
		c.logger.Warn("ignoring unknown day mode", "action", action)
		return
	}
	if mode == c.dayMode {
		return
	}

	from := c.dayMode
	c.dayMode = mode
	c.logger.Info("day mode changed", "from", from, "to", mode, "reason", action.Reason)
	c.applySchedulers(ctx)
	c.queueChange(notifier.Change{Kind: notifier.DayMode, From: from, To: mode, Reason: action.Reason, At: now})
}

func (c *Coordinator) isAbsent() bool {
	absence, ok := c.cfg.absenceMode()
	return ok && c.dayMode == absence
}

// SetDayMode sets the day mode, either by label or by key, and suspends automatic day mode changes
// for the configured override duration. An unknown mode is rejected and leaves the state unchanged.
func (c *Coordinator) SetDayMode(ctx context.Context, input string) error {
	defer c.notify(ctx)
	c.lock.Lock()
	defer c.lock.Unlock()

	mode, ok := c.cfg.DayModes.Resolve(input)
	if !ok {
		c.logger.Warn("rejecting unknown day mode", "mode", input, "valid", c.cfg.DayModes)
		return fmt.Errorf("day mode %q: %w", input, ErrUnknownMode)
	}

	now := c.now()
	from := c.dayMode
	c.dayMode = mode
	c.armOverride(now)
	c.logger.Info("day mode set", "from", from, "to", mode, "override", c.override)
	c.applySchedulers(ctx)
	if from != mode {
		c.queueChange(notifier.Change{Kind: notifier.DayMode, From: from, To: mode, Manual: true, At: now})
	}
	c.updated = now
	c.Publish(c.snapshot())
	return nil
}

// SetThermostatMode sets the thermostat mode, either by label or by key. An unknown mode is rejected and leaves
// the state unchanged.
func (c *Coordinator) SetThermostatMode(ctx context.Context, input string) error {
	defer c.notify(ctx)
	c.lock.Lock()
	defer c.lock.Unlock()

	mode, ok := c.cfg.ThermostatModes.Resolve(input)
	if !ok {
		c.logger.Warn("rejecting unknown thermostat mode", "mode", input, "valid", c.cfg.ThermostatModes)
		return fmt.Errorf("thermostat mode %q: %w", input, ErrUnknownMode)
	}

	now := c.now()
	from := c.thermostatMode
	c.thermostatMode = mode
	c.logger.Info("thermostat mode set", "from", from, "to", mode)
	c.applySchedulers(ctx)
	if from != mode {
		c.queueChange(notifier.Change{Kind: notifier.ThermostatMode, From: from, To: mode, Manual: true, At: now})
	}
	c.updated = now
	c.Publish(c.snapshot())
	return nil
}

// SetOverrideDuration sets the override duration, in minutes, and returns the value that was set. The value is
// clamped to [0, override.MaxDuration]. An override that is already armed keeps its deadline.
func (c *Coordinator) SetOverrideDuration(ctx context.Context, minutes int) int {
	defer c.notify(ctx)
	c.lock.Lock()
	defer c.lock.Unlock()

	from := c.override.Duration()
	to := c.override.SetDuration(minutes)
	if to != minutes {
		c.logger.Warn("override duration out of range", "requested", minutes, "set", to)
	}
	if c.store != nil {
		if err := c.store.SaveOverrideDuration(ctx, c.cfg.Name, to); err != nil {
			c.logger.Error("failed to save override duration", "err", err)
		}
	}
	now := c.now()
	if from != to {
		c.logger.Info("override duration set", "from", from, "to", to)
		c.queueChange(notifier.Change{Kind: notifier.OverrideDuration, From: strconv.Itoa(from), To: strconv.Itoa(to), Manual: true, At: now})
	}
	c.updated = now
	c.Publish(c.snapshot())
	return to
}

// RefreshSchedulers updates the schedulers for the current day mode and thermostat mode.
func (c *Coordinator) RefreshSchedulers(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.applySchedulers(ctx)
}

// CheckDayType runs an out-of-cycle tick, unless the household is in absence mode. It returns false if the tick
// was skipped.
func (c *Coordinator) CheckDayType(ctx context.Context) (Snapshot, bool) {
	defer c.notify(ctx)
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.isAbsent() {
		c.logger.Info("absence mode active: not checking day type")
		return c.snapshot(), false
	}
	return c.tick(ctx), true
}

// Snapshot returns the current state of the household.
func (c *Coordinator) Snapshot() Snapshot {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.snapshot()
}

func (c *Coordinator) snapshot() Snapshot {
	s := Snapshot{
		Household:        c.cfg.Name,
		TodayType:        c.today.Type(),
		CurrentEvent:     c.currentEvent,
		EventPeriod:      c.eventPeriod,
		DayMode:          c.dayMode,
		ThermostatMode:   c.thermostatMode,
		OverrideDuration: c.override.Duration(),
		DayModes:         c.cfg.DayModes.Labels(),
		ThermostatModes:  c.cfg.ThermostatModes.Labels(),
		Updated:          c.updated,
	}
	s.DayModeKey, _ = c.cfg.DayModes.Key(c.dayMode)
	s.ThermostatModeKey, _ = c.cfg.ThermostatModes.Key(c.thermostatMode)
	if until, ok := c.override.Until(); ok {
		s.OverrideUntil = &until
	}
	return s
}

func (c *Coordinator) applySchedulers(ctx context.Context) {
	if len(c.cfg.Schedulers) == 0 {
		c.logger.Debug("no schedulers configured")
		return
	}
	thermostatKey, _ := c.cfg.ThermostatModes.Key(c.thermostatMode)
	diff := schedulers.Plan(ctx, schedulers.Input{
		Assignments:     c.cfg.Schedulers,
		DayMode:         c.dayMode,
		ThermostatKey:   thermostatKey,
		OffKey:          c.cfg.ThermostatOffKey,
		ThermostatModes: c.cfg.ThermostatModes,
	}, c.reader, c.logger)
	if diff.Empty() {
		c.logger.Debug("schedulers up to date", "dayMode", c.dayMode)
		return
	}
	c.logger.Info("refreshing schedulers", "dayMode", c.dayMode, "thermostatMode", c.thermostatMode, "diff", diff)
	schedulers.Apply(ctx, diff, c.actuator, c.logger)
}

// armOverride arms the override timer and schedules a tick at its deadline, so automatic day mode changes resume
// without waiting for the next scan interval.
func (c *Coordinator) armOverride(now time.Time) {
	c.cancelExpiry()
	until, ok := c.override.Arm(now)
	if !ok {
		return
	}
	c.expiry = scheduler.Schedule(context.Background(), scheduler.TaskFunc(func(context.Context) error {
		c.Refresh()
		return nil
	}), until.Sub(now))
}

func (c *Coordinator) cancelExpiry() {
	if c.expiry != nil {
		c.expiry.Cancel()
		c.expiry = nil
	}
}

// queueChange records a change. Changes are sent by notify, once c.lock is released.
func (c *Coordinator) queueChange(change notifier.Change) {
	if c.notifier == nil {
		return
	}
	change.Household = c.cfg.Name
	c.changes = append(c.changes, change)
}

// notify sends the queued changes. The caller must not hold c.lock: notifiers may call external services.
func (c *Coordinator) notify(ctx context.Context) {
	c.lock.Lock()
	changes := c.changes
	c.changes = nil
	c.lock.Unlock()
	for _, change := range changes {
		c.notifier.Notify(ctx, change)
	}
}
