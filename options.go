// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package maskcanvas

import (
	"log/slog"
	"time"
)

// Option configures an Editor during creation.
//
// Example:
//
//	ed, err := maskcanvas.New(maskcanvas.FileSource("photo.png"), ct, onDone, onCancel,
//	    maskcanvas.WithBrush(24, maskcanvas.Paint),
//	    maskcanvas.WithWorkers(2),
//	)
type Option func(*options)

// options holds optional configuration for Editor creation.
type options struct {
	cfg      Config
	logger   *slog.Logger
	registry *SurfaceRegistry
	now      func() time.Time
	onLowFPS func(avg float64)
	onPrune  func(PruneEvent)
}

// defaultOptions returns the default editor options.
func defaultOptions() options {
	return options{
		cfg: DefaultConfig(),
		now: time.Now,
	}
}

// WithConfig replaces the whole configuration, typically one returned by
// LoadConfig. Options after it override single fields.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the editor's logger. Without it the editor uses the
// package Logger at creation time.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBrush sets the initial brush diameter (image pixels) and mode.
func WithBrush(diameter int, mode BrushMode) Option {
	return func(o *options) {
		o.cfg.Brush.Diameter = diameter
		o.cfg.Brush.Mode = mode
	}
}

// WithHistory sets the checkpoint interval and the checkpoint memory cap
// in bytes.
//
// Example:
//
//	// Checkpoint every 5 commands, keep at most 16 MiB of snapshots.
//	maskcanvas.WithHistory(5, 16<<20)
func WithHistory(interval, maxBytes int) Option {
	return func(o *options) {
		o.cfg.History.Interval = interval
		o.cfg.History.MaxBytes = maxBytes
	}
}

// WithWorkers sets the background pool size. Zero means GOMAXPROCS and a
// negative value runs every operation on the caller.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.cfg.Worker.Workers = n
	}
}

// WithTimeout sets the per-call background timeout after which the call
// falls back to the caller's goroutine.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.cfg.Worker.Timeout = d
	}
}

// WithZoomRange sets the user zoom limits.
func WithZoomRange(minZoom, maxZoom float64) Option {
	return func(o *options) {
		o.cfg.View.MinZoom = minZoom
		o.cfg.View.MaxZoom = maxZoom
	}
}

// WithOverlayOpacity sets the highlight opacity, within [0.4, 0.6].
func WithOverlayOpacity(opacity float64) Option {
	return func(o *options) {
		o.cfg.Render.Opacity = opacity
	}
}

// WithSurfaceRegistry sets the overlay surface backends. The default is
// DefaultSurfaceRegistry(Render.MaxSurfaceBytes).
func WithSurfaceRegistry(r *SurfaceRegistry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithClock sets the time source used for command and checkpoint
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithOnLowFPS registers fn to run once each time the rolling average
// frame rate drops below Render.WarnFPS.
func WithOnLowFPS(fn func(avg float64)) Option {
	return func(o *options) {
		o.onLowFPS = fn
	}
}

// WithOnPrune registers fn to run when old checkpoints are dropped to stay
// under the history memory cap.
func WithOnPrune(fn func(PruneEvent)) Option {
	return func(o *options) {
		o.onPrune = fn
	}
}
