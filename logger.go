package mandelbrot

import (
	"log/slog"
	"sync/atomic"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(silentLogger())
}

func silentLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// SetLogger routes engine logging to l. Renderers, engines and frame loops
// read it through [Logger] on every use, so a change reaches frames already
// in flight. The accelerator held by the registry is handed l directly,
// and an accelerator registered later receives the current logger from
// [RegisterAccelerator].
//
// A nil l restores the silent default.
//
// Engine messages:
//   - debug: frame timings, palette builds, worker pool start
//   - info: accelerator registration, adapter selection
//   - warn: discarded frames, backends dropped in favor of the CPU
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silentLogger()
	}
	loggerPtr.Store(l)

	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	if a != nil {
		handLogger(a, l)
	}
}

// Logger returns the logger set by [SetLogger].
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// handLogger gives l to accelerators that keep their own logger.
func handLogger(a GPUAccelerator, l *slog.Logger) {
	if ls, ok := a.(interface{ SetLogger(*slog.Logger) }); ok {
		ls.SetLogger(l)
	}
}
