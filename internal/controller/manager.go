package controller

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// A Manager holds the Coordinator of each configured household and runs them.
type Manager struct {
	coordinators map[string]*Coordinator
	names        []string
	logger       *slog.Logger
}

// NewManager creates a new Manager for the provided coordinators. Household names must be unique.
func NewManager(logger *slog.Logger, coordinators ...*Coordinator) (*Manager, error) {
	m := Manager{
		coordinators: make(map[string]*Coordinator, len(coordinators)),
		logger:       logger,
	}
	for _, c := range coordinators {
		if _, ok := m.coordinators[c.Name()]; ok {
			return nil, fmt.Errorf("duplicate household %q", c.Name())
		}
		m.coordinators[c.Name()] = c
		m.names = append(m.names, c.Name())
	}
	return &m, nil
}

// Run starts all coordinators and waits for them to terminate.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Debug("controller manager starting", "households", m.names)
	defer m.logger.Debug("controller manager stopping")

	var g errgroup.Group
	for _, c := range m.coordinators {
		g.Go(func() error { return c.Run(ctx) })
	}
	return g.Wait()
}

// Names returns the household names, in configured order.
func (m *Manager) Names() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// Get returns the Coordinator of a household.
func (m *Manager) Get(name string) (*Coordinator, error) {
	c, ok := m.coordinators[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownHousehold)
	}
	return c, nil
}

// Coordinators returns all coordinators, in configured order.
func (m *Manager) Coordinators() []*Coordinator {
	coordinators := make([]*Coordinator, 0, len(m.names))
	for _, name := range m.names {
		coordinators = append(coordinators, m.coordinators[name])
	}
	return coordinators
}

// Snapshots returns the current state of all households, in configured order.
func (m *Manager) Snapshots() []Snapshot {
	snapshots := make([]Snapshot, 0, len(m.names))
	for _, name := range m.names {
		snapshots = append(snapshots, m.coordinators[name].Snapshot())
	}
	return snapshots
}
