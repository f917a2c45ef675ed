package hass

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Actuator turns a set of switches on or off.
type Actuator interface {
	SetState(ctx context.Context, entityIDs []string, on bool) error
}

// Dispatcher queues switch commands and sends them to an Actuator in the background, in the order they were queued.
// This keeps callers from waiting on Home Assistant, while guaranteeing that a "turn off" queued before a "turn on"
// is also sent before it.
type Dispatcher struct {
	actuator Actuator
	logger   *slog.Logger
	lock     sync.Mutex
	queue    []command
	wake     chan struct{}
}

type command struct {
	entityIDs []string
	on        bool
}

func NewDispatcher(actuator Actuator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		actuator: actuator,
		logger:   logger,
		wake:     make(chan struct{}, 1),
	}
}

// SetState queues the command. It never blocks and never fails: errors are logged when the command is sent.
func (d *Dispatcher) SetState(_ context.Context, entityIDs []string, on bool) error {
	d.lock.Lock()
	d.queue = append(d.queue, command{entityIDs: slices.Clone(entityIDs), on: on})
	d.lock.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run sends queued commands until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Debug("started")
	defer d.logger.Debug("stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.wake:
			for cmd, ok := d.next(); ok; cmd, ok = d.next() {
				if err := d.actuator.SetState(ctx, cmd.entityIDs, cmd.on); err != nil {
					d.logger.Warn("failed to set switch state", "entities", cmd.entityIDs, "on", cmd.on, "err", err)
					continue
				}
				d.logger.Debug("switch state set", "entities", cmd.entityIDs, "on", cmd.on)
			}
		}
	}
}

func (d *Dispatcher) next() (command, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(d.queue) == 0 {
		return command{}, false
	}
	cmd := d.queue[0]
	d.queue = d.queue[1:]
	return cmd, true
}
