// Package testutil holds helpers shared by package tests: slog loggers and a
// fake of the TMAP HTTP API.
package testutil

import (
	"io"
	"log/slog"
)

// NewTestLogger returns a debug-level text logger writing to w, or to
// io.Discard when w is nil.
func NewTestLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return NewTestLogger(nil)
}
