package vtex

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
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
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for vtex and its sub-packages.
// Backend devices attached to a live Manager receive the new logger
// immediately. By default, vtex produces no log output. Pass nil to
// restore the default silent behavior.
//
// Log levels used by vtex:
//   - [slog.LevelDebug]: per-batch upload progress, page mapping detail
//   - [slog.LevelInfo]: lifecycle events (manager initialized, bulk upload
//     complete, indirection table built)
//   - [slog.LevelWarn]: non-fatal issues (skipped source textures,
//     non-power-of-two tile size)
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	settersMu.Lock()
	for s := range setters {
		s.SetLogger(l)
	}
	settersMu.Unlock()
}

// Logger returns the current logger used by vtex. Sub-packages call this
// to share the same logger configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backend devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// setters holds the devices of live managers so a later SetLogger call
// reaches them too.
var (
	settersMu sync.Mutex
	setters   = make(map[loggerSetter]struct{})
)

// propagateLogger passes the current logger to a device if it implements
// the loggerSetter interface and keeps it registered for future
// SetLogger calls. Called from NewManager; Manager.Close deregisters
// via releaseLogger.
func propagateLogger(dev any) {
	ls, ok := dev.(loggerSetter)
	if !ok {
		return
	}
	ls.SetLogger(Logger())
	settersMu.Lock()
	setters[ls] = struct{}{}
	settersMu.Unlock()
}

// releaseLogger stops logger propagation to a device.
func releaseLogger(dev any) {
	ls, ok := dev.(loggerSetter)
	if !ok {
		return
	}
	settersMu.Lock()
	delete(setters, ls)
	settersMu.Unlock()
}
