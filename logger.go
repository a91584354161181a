package ggmap

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/ggmap/assets"
	"github.com/gogpu/ggmap/painter"
	"github.com/gogpu/ggmap/surface"
	"github.com/gogpu/ggmap/worker"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for ggmap and its sub-packages
// (painter, surface, worker, assets). By default nothing is logged.
//
// Pass nil to disable logging again.
//
// Log levels used by ggmap:
//   - [slog.LevelDebug]: stale frames, skipped images, unknown properties,
//     failed rasterization
//   - [slog.LevelInfo]: worker lifecycle
//   - [slog.LevelWarn]: acknowledgement timeouts, dropped batches
//   - [slog.LevelError]: worker faults
//
// Example:
//
//	ggmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	painter.SetLogger(l)
	surface.SetLogger(l)
	worker.SetLogger(l)
	assets.SetLogger(l)
}

// Logger returns the current logger used by ggmap.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
