// Package logutil holds small slog helpers shared across the module.
package logutil

import (
	"io"
	"log/slog"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopIfNil makes *slog.Logger an optional constructor argument: callers
// that pass nil get a logger whose output goes nowhere.
func NoopIfNil(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discard
	}
	return l
}
