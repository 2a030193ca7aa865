// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package schedule batches per-frame work and watches frame timing.
//
// Scheduler collects dirty rectangles and frame requests between display
// refreshes and runs the registered flush and redraw callbacks once per
// Frame. Monitor keeps a rolling window of frame intervals.
package schedule

import (
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/maskcanvas/internal/logx"
)

// DefaultMaxRects is the merged rectangle count above which a frame
// redraws everything.
const DefaultMaxRects = 8

// Config configures a Scheduler.
type Config struct {
	MaxRects int
	Logger   *slog.Logger
}

// Scheduler coalesces redraw work into frames.
//
// Scheduler is not safe for concurrent use; the editor serializes access.
type Scheduler struct {
	maxRects int
	log      *slog.Logger

	requested bool
	full      bool
	rects     []image.Rectangle

	flushers []func(now time.Time)
	redraw   func(rects []image.Rectangle, full bool)

	frames uint64
}

// New creates a scheduler.
func New(cfg Config) *Scheduler {
	if cfg.MaxRects <= 0 {
		cfg.MaxRects = DefaultMaxRects
	}
	s := &Scheduler{maxRects: cfg.MaxRects, log: cfg.Logger}
	if s.log == nil {
		s.log = logx.Nop()
	}
	return s
}

// OnFlush registers fn to run at the start of every frame that has work.
// Flushers run in registration order and may add dirty rectangles.
func (s *Scheduler) OnFlush(fn func(now time.Time)) {
	s.flushers = append(s.flushers, fn)
}

// OnRedraw registers the redraw callback. It receives the merged dirty
// rectangles, or full=true when everything must be redrawn.
func (s *Scheduler) OnRedraw(fn func(rects []image.Rectangle, full bool)) {
	s.redraw = fn
}

// RequestFrame asks for the next Frame to run the flushers.
func (s *Scheduler) RequestFrame() { s.requested = true }

// AddDirty records a changed region.
func (s *Scheduler) AddDirty(r image.Rectangle) {
	if r.Empty() {
		return
	}
	s.rects = append(s.rects, r)
	s.requested = true
}

// MarkFull schedules a full redraw.
func (s *Scheduler) MarkFull() {
	s.full = true
	s.requested = true
}

// Pending reports whether the next Frame has work.
func (s *Scheduler) Pending() bool {
	return s.requested || s.full || len(s.rects) > 0
}

// Frames returns the number of frames that did work.
func (s *Scheduler) Frames() uint64 { return s.frames }

// Frame runs one display frame. It reports false and does nothing when no
// work is pending.
func (s *Scheduler) Frame(now time.Time) bool {
	if !s.Pending() {
		return false
	}
	// Flushers may add dirty rects; they belong to this frame.
	for _, fn := range s.flushers {
		fn(now)
	}
	s.requested = false

	merged := Merge(s.rects)
	full := s.full || len(merged) > s.maxRects
	s.rects = s.rects[:0]
	s.full = false
	s.frames++

	if full {
		merged = nil
	}
	if (full || len(merged) > 0) && s.redraw != nil {
		s.redraw(merged, full)
	}
	s.log.Debug("schedule: frame", "frame", s.frames, "rects", len(merged), "full", full)
	return true
}

// Merge unions overlapping or touching rectangles until no two remain that
// overlap or touch. Empty rectangles are dropped. The input is not
// modified.
func Merge(rects []image.Rectangle) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(rects))
	for _, r := range rects {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if !touches(out[i], out[j]) {
					continue
				}
				out[i] = out[i].Union(out[j])
				out = append(out[:j], out[j+1:]...)
				changed = true
				j = i
			}
		}
	}
	return out
}

func touches(a, b image.Rectangle) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}
