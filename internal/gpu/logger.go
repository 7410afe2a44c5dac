//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

var pkgLogger atomic.Pointer[slog.Logger]

func init() { setLogger(nil) }

// slogger returns the logger installed by mandelbrot.SetLogger, or a
// discarding one.
func slogger() *slog.Logger { return pkgLogger.Load() }

func setLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	pkgLogger.Store(l)
}
