package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clambin/go-common/set"
	"github.com/clambin/homeshift/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	dayMode = prometheus.NewDesc(
		prometheus.BuildFQName("homeshift", "", "day_mode"),
		"Day mode of the household. 1 for the active mode, 0 for the other modes",
		[]string{"household", "mode"},
		nil,
	)
	thermostatMode = prometheus.NewDesc(
		prometheus.BuildFQName("homeshift", "", "thermostat_mode"),
		"Thermostat mode of the household. 1 for the active mode, 0 for the other modes",
		[]string{"household", "mode"},
		nil,
	)
	overrideRemaining = prometheus.NewDesc(
		prometheus.BuildFQName("homeshift", "", "override_remaining_seconds"),
		"Time until automatic day mode changes resume, in seconds",
		[]string{"household"},
		nil,
	)
	overrideDuration = prometheus.NewDesc(
		prometheus.BuildFQName("homeshift", "", "override_duration_minutes"),
		"Duration of a manual day mode change, in minutes",
		[]string{"household"},
		nil,
	)
	todayType = prometheus.NewDesc(
		prometheus.BuildFQName("homeshift", "", "today_type"),
		"Event type seen in the calendar today. Always 1. Label type specifies the type",
		[]string{"household", "type"},
		nil,
	)
)

// Household publishes a Snapshot after each update.
type Household interface {
	Snapshot() controller.Snapshot
	Subscribe() <-chan controller.Snapshot
	Unsubscribe(<-chan controller.Snapshot)
}

var _ Household = &controller.Coordinator{}

// Collector exports the last Snapshot of each household as Prometheus metrics.
type Collector struct {
	Households []Household
	Logger     *slog.Logger
	now        func() time.Time
	lock       sync.RWMutex
	snapshots  map[string]controller.Snapshot
	order      []string
}

func (c *Collector) Run(ctx context.Context) error {
	c.Logger.Debug("started")
	defer c.Logger.Debug("stopped")

	var g errgroup.Group
	for _, household := range c.Households {
		ch := household.Subscribe()
		if snapshot := household.Snapshot(); !snapshot.Updated.IsZero() {
			c.process(snapshot)
		}
		g.Go(func() error {
			defer household.Unsubscribe(ch)
			for {
				select {
				case <-ctx.Done():
					return nil
				case snapshot := <-ch:
					c.process(snapshot)
				}
			}
		})
	}
	return g.Wait()
}

func (c *Collector) process(snapshot controller.Snapshot) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.snapshots == nil {
		c.snapshots = make(map[string]controller.Snapshot)
	}
	if _, ok := c.snapshots[snapshot.Household]; !ok {
		c.order = append(c.order, snapshot.Household)
	}
	c.snapshots[snapshot.Household] = snapshot
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- dayMode
	ch <- thermostatMode
	ch <- overrideRemaining
	ch <- overrideDuration
	ch <- todayType
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	for _, name := range c.order {
		snapshot := c.snapshots[name]
		collectModes(ch, dayMode, snapshot.Household, snapshot.DayMode, snapshot.DayModes)
		collectModes(ch, thermostatMode, snapshot.Household, snapshot.ThermostatMode, snapshot.ThermostatModes)
		ch <- prometheus.MustNewConstMetric(overrideRemaining, prometheus.GaugeValue, snapshot.OverrideRemaining(now).Seconds(), snapshot.Household)
		ch <- prometheus.MustNewConstMetric(overrideDuration, prometheus.GaugeValue, float64(snapshot.OverrideDuration), snapshot.Household)
		if snapshot.TodayType != "" {
			ch <- prometheus.MustNewConstMetric(todayType, prometheus.GaugeValue, 1, snapshot.Household, snapshot.TodayType)
		}
	}
}

// collectModes reports each mode once: different keys may share a label.
func collectModes(ch chan<- prometheus.Metric, desc *prometheus.Desc, household, active string, all []string) {
	seen := set.New[string]()
	for _, mode := range all {
		if seen.Contains(mode) {
			continue
		}
		seen.Add(mode)
		var value float64
		if mode == active {
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, household, mode)
	}
}
