package configuration

import (
	"io"
	"log/slog"
)

// Logger returns a logger writing to w, in the configured format and level.
func (c Configuration) Logger(w io.Writer) *slog.Logger {
	var opts slog.HandlerOptions
	if c.Debug {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	switch c.Log.Format {
	case "json":
		handler = slog.NewJSONHandler(w, &opts)
	default:
		handler = slog.NewTextHandler(w, &opts)
	}
	return slog.New(handler)
}
