// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package maskcanvas

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/maskcanvas/internal/brush"
	"github.com/gogpu/maskcanvas/internal/canvas"
	"github.com/gogpu/maskcanvas/internal/history"
	"github.com/gogpu/maskcanvas/internal/input"
	"github.com/gogpu/maskcanvas/internal/schedule"
	"github.com/gogpu/maskcanvas/internal/tiles"
	"github.com/gogpu/maskcanvas/internal/view"
	"github.com/gogpu/maskcanvas/internal/worker"
)

// Config is the file form of every tunable. Durations are written as
// strings such as "150ms".
//
// Example:
//
//	brush:
//	  diameter: 24
//	  mode: erase
//	view:
//	  max_zoom: 16
//	  wheel_quiet: 200ms
//	worker:
//	  workers: 2
//	  timeout: 2s
type Config struct {
	Brush   BrushConfig   `yaml:"brush"`
	History HistoryConfig `yaml:"history"`
	View    ViewConfig    `yaml:"view"`
	Worker  WorkerConfig  `yaml:"worker"`
	Render  RenderConfig  `yaml:"render"`
}

// BrushConfig holds the initial brush settings.
type BrushConfig struct {
	// Diameter in image pixels, 1 to 200.
	Diameter int `yaml:"diameter"`

	// Mode is "paint" or "erase".
	Mode BrushMode `yaml:"mode"`
}

// HistoryConfig tunes checkpointing.
type HistoryConfig struct {
	// Interval is the number of commands between checkpoints.
	Interval int `yaml:"interval"`

	// MaxBytes caps checkpoint storage.
	MaxBytes int `yaml:"max_bytes"`

	// MaxReplayBytes forces an early checkpoint for long strokes.
	MaxReplayBytes int `yaml:"max_replay_bytes"`

	// TileSize is the checkpoint tile edge in pixels.
	TileSize int `yaml:"tile_size"`
}

// ViewConfig tunes zoom and pan.
type ViewConfig struct {
	MinZoom    float64       `yaml:"min_zoom"`
	MaxZoom    float64       `yaml:"max_zoom"`
	ZoomStep   float64       `yaml:"zoom_step"`
	Overscroll float64       `yaml:"overscroll"`
	DeadZone   float64       `yaml:"dead_zone"`
	WheelQuiet time.Duration `yaml:"wheel_quiet"`

	// ZoomModifier is the key that turns wheel scrolling into zooming:
	// "ctrl", "shift", "alt", "meta" or "none" (every wheel event zooms).
	ZoomModifier string `yaml:"zoom_modifier"`
}

// WorkerConfig tunes background offload.
type WorkerConfig struct {
	// Workers is the pool size. Zero means GOMAXPROCS, negative disables
	// the background path.
	Workers int `yaml:"workers"`

	// Timeout is the per-call safety timeout before falling back.
	Timeout time.Duration `yaml:"timeout"`

	// ForceBackground keeps the pool on single-CPU hosts.
	ForceBackground bool `yaml:"force_background"`
}

// RenderConfig tunes compositing and frame monitoring.
type RenderConfig struct {
	Opacity            float64 `yaml:"opacity"`
	MaxRects           int     `yaml:"max_rects"`
	MaxRegionsPerFrame int     `yaml:"max_regions_per_frame"`
	MaxSurfaceBytes    int     `yaml:"max_surface_bytes"`
	TargetFPS          float64 `yaml:"target_fps"`
	WarnFPS            float64 `yaml:"warn_fps"`
	FPSWindow          int     `yaml:"fps_window"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Brush: BrushConfig{
			Diameter: input.DefaultDiameter,
			Mode:     Paint,
		},
		History: HistoryConfig{
			Interval:       history.DefaultInterval,
			MaxBytes:       history.DefaultMaxBytes,
			MaxReplayBytes: history.DefaultMaxReplayBytes,
			TileSize:       tiles.DefaultSize,
		},
		View: ViewConfig{
			MinZoom:      view.DefaultMinZoom,
			MaxZoom:      view.DefaultMaxZoom,
			ZoomStep:     view.DefaultZoomStep,
			Overscroll:   view.DefaultOverscroll,
			DeadZone:     view.DefaultDeadZone,
			WheelQuiet:   view.DefaultWheelQuiet,
			ZoomModifier: "ctrl",
		},
		Worker: WorkerConfig{
			Timeout: worker.DefaultTimeout,
		},
		Render: RenderConfig{
			Opacity:            canvas.DefaultOpacity,
			MaxRects:           schedule.DefaultMaxRects,
			MaxRegionsPerFrame: canvas.DefaultMaxRegionsPerFrame,
			MaxSurfaceBytes:    canvas.DefaultMaxSurfaceBytes,
			TargetFPS:          schedule.DefaultTargetFPS,
			WarnFPS:            schedule.DefaultWarnFPS,
			FPSWindow:          schedule.DefaultWindow,
		},
	}
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the
// result. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("maskcanvas: read config: %w", err)
	}
	return ParseConfig(data)
}

// Marshal encodes the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every out-of-range value. The error wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Brush.Diameter < brush.MinDiameter || c.Brush.Diameter > brush.MaxDiameter {
		bad("brush.diameter %d outside [%d, %d]", c.Brush.Diameter, brush.MinDiameter, brush.MaxDiameter)
	}
	if c.Brush.Mode != Paint && c.Brush.Mode != Erase {
		bad("brush.mode %d unknown", c.Brush.Mode)
	}

	if c.History.Interval < 1 {
		bad("history.interval %d must be positive", c.History.Interval)
	}
	if c.History.MaxBytes < 0 || c.History.MaxReplayBytes < 0 {
		bad("history byte limits must not be negative")
	}
	if c.History.TileSize < 8 {
		bad("history.tile_size %d below 8", c.History.TileSize)
	}

	if c.View.MinZoom <= 0 || c.View.MaxZoom <= 0 {
		bad("view zoom range must be positive")
	} else if c.View.MinZoom > c.View.MaxZoom {
		bad("view.min_zoom %v above view.max_zoom %v", c.View.MinZoom, c.View.MaxZoom)
	}
	if c.View.MinZoom > 1 || c.View.MaxZoom < 1 {
		bad("view zoom range [%v, %v] must include 1", c.View.MinZoom, c.View.MaxZoom)
	}
	if c.View.ZoomStep <= 1 {
		bad("view.zoom_step %v must exceed 1", c.View.ZoomStep)
	}
	if c.View.Overscroll < 0 || c.View.Overscroll > 1 {
		bad("view.overscroll %v outside [0, 1]", c.View.Overscroll)
	}
	if c.View.DeadZone < 0 {
		bad("view.dead_zone %v is negative", c.View.DeadZone)
	}
	if c.View.WheelQuiet <= 0 {
		bad("view.wheel_quiet %v must be positive", c.View.WheelQuiet)
	}
	if _, err := ParseModifiers(c.View.ZoomModifier); err != nil {
		errs = append(errs, err)
	}

	if c.Worker.Timeout <= 0 {
		bad("worker.timeout %v must be positive", c.Worker.Timeout)
	}

	if c.Render.Opacity < canvas.MinOpacity || c.Render.Opacity > canvas.MaxOpacity {
		bad("render.opacity %v outside [%v, %v]", c.Render.Opacity, canvas.MinOpacity, canvas.MaxOpacity)
	}
	if c.Render.MaxRects < 1 || c.Render.MaxRegionsPerFrame < 1 {
		bad("render rect limits must be positive")
	}
	if c.Render.MaxSurfaceBytes <= 0 {
		bad("render.max_surface_bytes must be positive")
	}
	if c.Render.TargetFPS <= 0 || c.Render.WarnFPS <= 0 || c.Render.WarnFPS > c.Render.TargetFPS {
		bad("render fps: need 0 < warn_fps (%v) <= target_fps (%v)", c.Render.WarnFPS, c.Render.TargetFPS)
	}
	if c.Render.FPSWindow < 2 {
		bad("render.fps_window %d below 2", c.Render.FPSWindow)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ParseModifiers maps a modifier name to its key flag. The empty string
// and "none" mean no modifier.
func ParseModifiers(s string) (Modifiers, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return 0, nil
	case "ctrl", "control":
		return ModCtrl, nil
	case "shift":
		return ModShift, nil
	case "alt", "option":
		return ModAlt, nil
	case "meta", "cmd", "super":
		return ModMeta, nil
	}
	return 0, fmt.Errorf("view.zoom_modifier %q unknown", s)
}
