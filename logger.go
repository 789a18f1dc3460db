// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bulb

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically because GPU
// completion handlers log from their own goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for bulb and its sub-packages.
// By default bulb produces no log output. Pass nil to restore the silent
// default.
//
// Log levels used by bulb:
//   - [slog.LevelDebug]: per-frame detail (slot index, submissions)
//   - [slog.LevelInfo]: lifecycle events (pipeline built, GPU selected)
//   - [slog.LevelWarn]: skipped frames, unbalanced releases, drain timeouts
//
// Example:
//
//	bulb.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by bulb.
// Sub-packages (backend/wgpu, app) call this to share the same logger
// configuration. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
