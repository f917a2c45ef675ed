package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/clambin/homeshift/internal/controller"
	"golang.org/x/sync/errgroup"
)

// Household publishes a Snapshot after each update.
type Household interface {
	Name() string
	Subscribe() <-chan controller.Snapshot
	Unsubscribe(<-chan controller.Snapshot)
	Refresh()
}

var _ Household = &controller.Coordinator{}

// Health reports the last Snapshot of each household. It is healthy once every household has been updated.
type Health struct {
	households []Household
	logger     *slog.Logger
	snapshots  map[string]controller.Snapshot
	lock       sync.RWMutex
}

func New(logger *slog.Logger, households ...Household) *Health {
	return &Health{
		households: households,
		logger:     logger,
		snapshots:  make(map[string]controller.Snapshot, len(households)),
	}
}

func (h *Health) Run(ctx context.Context) error {
	h.logger.Debug("started")
	defer h.logger.Debug("stopped")

	var g errgroup.Group
	for _, household := range h.households {
		ch := household.Subscribe()
		g.Go(func() error {
			defer household.Unsubscribe(ch)
			for {
				select {
				case <-ctx.Done():
					return nil
				case snapshot := <-ch:
					h.lock.Lock()
					h.snapshots[household.Name()] = snapshot
					h.lock.Unlock()
				}
			}
		})
	}
	return g.Wait()
}

func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	snapshots := make([]controller.Snapshot, 0, len(h.households))
	var waiting []string
	for _, household := range h.households {
		snapshot, ok := h.snapshots[household.Name()]
		if !ok {
			waiting = append(waiting, household.Name())
			household.Refresh()
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	if len(waiting) > 0 {
		http.Error(w, "no update yet", http.StatusServiceUnavailable)
		h.logger.Debug("households not updated yet", "households", waiting)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshots); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
