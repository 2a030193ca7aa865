// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package maskcanvas

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/maskcanvas/internal/logx"
)

// loggerPtr holds the logger new editors inherit when WithLogger is absent.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(logx.Nop())
}

// SetLogger configures the default logger for editors created afterwards.
// By default, maskcanvas produces no log output. Call SetLogger to enable
// logging, or pass WithLogger to a single editor.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by maskcanvas:
//   - [slog.LevelDebug]: per-frame flushes, checkpoints, gesture states
//   - [slog.LevelInfo]: lifecycle (image loaded, surface backend,
//     worker capabilities, history pruning)
//   - [slog.LevelWarn]: worker fallbacks, mask repairs, surface fallback,
//     low frame rate
//
// Example:
//
//	maskcanvas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	loggerPtr.Store(logx.OrNop(l))
}

// Logger returns the logger set by SetLogger, or a silent one.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
