// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package schedule

import (
	"log/slog"
	"time"

	"github.com/gogpu/maskcanvas/internal/logx"
)

// Monitor defaults.
const (
	DefaultTargetFPS = 60.0
	DefaultWarnFPS   = 30.0
	DefaultWindow    = 60
)

// droppedFactor is how far past the target interval a frame may run before
// it counts as dropped.
const droppedFactor = 1.5

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	TargetFPS float64
	WarnFPS   float64
	Window    int
	Logger    *slog.Logger
}

// FrameStats is a snapshot of the monitor.
type FrameStats struct {
	Frames     uint64
	Dropped    uint64
	FPS        float64
	AverageFPS float64
}

// Monitor tracks frame intervals over a rolling window.
//
// Monitor is not safe for concurrent use.
type Monitor struct {
	cfg MonitorConfig
	log *slog.Logger

	window []time.Duration
	next   int
	count  int
	sum    time.Duration

	last    time.Time
	hasLast bool

	frames  uint64
	dropped uint64

	low   bool
	onLow func(avg float64)
}

// NewMonitor creates a monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = DefaultTargetFPS
	}
	if cfg.WarnFPS <= 0 {
		cfg.WarnFPS = DefaultWarnFPS
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	m := &Monitor{cfg: cfg, log: cfg.Logger, window: make([]time.Duration, cfg.Window)}
	if m.log == nil {
		m.log = logx.Nop()
	}
	return m
}

// OnLowFPS registers fn to run once each time the average frame rate over a
// full window falls below WarnFPS. It runs again only after the average
// has recovered.
func (m *Monitor) OnLowFPS(fn func(avg float64)) { m.onLow = fn }

// Tick records a frame presented at now.
func (m *Monitor) Tick(now time.Time) {
	m.frames++
	if !m.hasLast {
		m.last, m.hasLast = now, true
		return
	}
	d := now.Sub(m.last)
	m.last = now
	if d <= 0 {
		return
	}

	if m.count == len(m.window) {
		m.sum -= m.window[m.next]
	} else {
		m.count++
	}
	m.window[m.next] = d
	m.sum += d
	m.next = (m.next + 1) % len(m.window)

	target := time.Duration(float64(time.Second) / m.cfg.TargetFPS)
	if float64(d) > droppedFactor*float64(target) {
		m.dropped++
	}

	if m.count < len(m.window) {
		return
	}
	avg := m.AverageFPS()
	switch {
	case !m.low && avg < m.cfg.WarnFPS:
		m.low = true
		m.log.Warn("schedule: low frame rate", "avg_fps", avg, "warn_fps", m.cfg.WarnFPS)
		if m.onLow != nil {
			m.onLow(avg)
		}
	case m.low && avg >= m.cfg.WarnFPS:
		m.low = false
		m.log.Info("schedule: frame rate recovered", "avg_fps", avg)
	}
}

// FPS returns the rate implied by the most recent interval.
func (m *Monitor) FPS() float64 {
	if m.count == 0 {
		return 0
	}
	i := (m.next - 1 + len(m.window)) % len(m.window)
	return float64(time.Second) / float64(m.window[i])
}

// AverageFPS returns the rate over the window.
func (m *Monitor) AverageFPS() float64 {
	if m.count == 0 || m.sum <= 0 {
		return 0
	}
	return float64(m.count) * float64(time.Second) / float64(m.sum)
}

// Dropped returns the number of intervals longer than 1.5x the target.
func (m *Monitor) Dropped() uint64 { return m.dropped }

// Stats returns a snapshot.
func (m *Monitor) Stats() FrameStats {
	return FrameStats{
		Frames:     m.frames,
		Dropped:    m.dropped,
		FPS:        m.FPS(),
		AverageFPS: m.AverageFPS(),
	}
}
