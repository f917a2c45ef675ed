package notifier

import (
	"context"
	"log/slog"
)

// SLogNotifier logs each change. Manual changes are logged at warning level.
type SLogNotifier struct {
	Logger *slog.Logger
}

var _ Notifier = SLogNotifier{}

func (s SLogNotifier) Notify(ctx context.Context, change Change) {
	level := slog.LevelInfo
	if change.Manual {
		level = slog.LevelWarn
	}
	s.Logger.Log(ctx, level, change.Title(), "reason", change.Text(), "change", change)
}
