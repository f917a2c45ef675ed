package testutil

import (
	"io"
	"log/slog"
)

// NewBufferLogger returns a debug-level text logger writing to w. Timestamps are omitted, so output can be compared.
func NewBufferLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
