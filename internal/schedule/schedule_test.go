// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package schedule

import (
	"image"
	"math"
	"testing"
	"time"
)

// =============================================================================
// Merge
// =============================================================================

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []image.Rectangle
		want int
	}{
		{"empty", nil, 0},
		{"drops empty rects", []image.Rectangle{{}, image.Rect(5, 5, 5, 9)}, 0},
		{"disjoint", []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30)}, 2},
		{"overlap", []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(5, 5, 15, 15)}, 1},
		{"adjacent", []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(10, 0, 20, 10)}, 1},
		{"chain", []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(40, 0, 50, 10), image.Rect(9, 0, 41, 2)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.in)
			if len(got) != tt.want {
				t.Fatalf("Merge = %v, want %d rects", got, tt.want)
			}
			for _, r := range tt.in {
				if r.Empty() {
					continue
				}
				covered := false
				for _, m := range got {
					if r.In(m) {
						covered = true
					}
				}
				if !covered {
					t.Errorf("%v not covered by %v", r, got)
				}
			}
		})
	}
}

func TestMergeChainBounds(t *testing.T) {
	got := Merge([]image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(40, 0, 50, 10), image.Rect(9, 0, 41, 2)})
	if got[0] != image.Rect(0, 0, 50, 10) {
		t.Errorf("merged = %v", got[0])
	}
}

// =============================================================================
// Scheduler
// =============================================================================

func TestFrameWithoutWork(t *testing.T) {
	s := New(Config{})
	called := false
	s.OnFlush(func(time.Time) { called = true })
	if s.Frame(time.Now()) {
		t.Error("Frame reported work with nothing pending")
	}
	if called {
		t.Error("flusher ran without a request")
	}
}

func TestFrameFlushThenRedraw(t *testing.T) {
	s := New(Config{})
	var order []string
	var got []image.Rectangle
	s.OnFlush(func(time.Time) {
		order = append(order, "flush")
		s.AddDirty(image.Rect(10, 10, 20, 20))
	})
	s.OnRedraw(func(rects []image.Rectangle, full bool) {
		order = append(order, "redraw")
		if full {
			t.Error("unexpected full redraw")
		}
		got = rects
	})

	s.AddDirty(image.Rect(15, 15, 30, 30))
	if !s.Frame(time.Now()) {
		t.Fatal("Frame did nothing")
	}
	if len(order) != 2 || order[0] != "flush" || order[1] != "redraw" {
		t.Errorf("order = %v", order)
	}
	if len(got) != 1 || got[0] != image.Rect(10, 10, 30, 30) {
		t.Errorf("redraw rects = %v", got)
	}
	if s.Pending() {
		t.Error("work still pending after the frame")
	}
}

func TestFlushedWorkDoesNotCarryOver(t *testing.T) {
	s := New(Config{})
	samples := 1
	s.OnFlush(func(time.Time) {
		if samples > 0 {
			samples--
			s.AddDirty(image.Rect(0, 0, 4, 4))
		}
	})
	redraws := 0
	s.OnRedraw(func([]image.Rectangle, bool) { redraws++ })

	s.RequestFrame()
	now := time.Now()
	got := []bool{s.Frame(now), s.Frame(now.Add(time.Millisecond)), s.Frame(now.Add(2 * time.Millisecond))}
	if !got[0] || got[1] || got[2] {
		t.Errorf("frames = %v, want [true false false]", got)
	}
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1", redraws)
	}
}

func TestTooManyRectsRedrawsFull(t *testing.T) {
	s := New(Config{MaxRects: 2})
	var full bool
	var n int
	s.OnRedraw(func(rects []image.Rectangle, f bool) { full, n = f, len(rects) })
	for i := 0; i < 3; i++ {
		s.AddDirty(image.Rect(i*10, 0, i*10+5, 5))
	}
	s.Frame(time.Now())
	if !full || n != 0 {
		t.Errorf("full = %v, rects = %d; want full redraw", full, n)
	}
}

func TestMarkFull(t *testing.T) {
	s := New(Config{})
	var full bool
	s.OnRedraw(func(_ []image.Rectangle, f bool) { full = f })
	s.MarkFull()
	s.Frame(time.Now())
	if !full {
		t.Error("MarkFull did not force a full redraw")
	}
	if s.Frames() != 1 {
		t.Errorf("Frames = %d", s.Frames())
	}
}

// =============================================================================
// Monitor
// =============================================================================

func tickAt(m *Monitor, start time.Time, interval time.Duration, n int) time.Time {
	now := start
	for range n {
		now = now.Add(interval)
		m.Tick(now)
	}
	return now
}

func TestMonitorAverages(t *testing.T) {
	m := NewMonitor(MonitorConfig{Window: 10})
	start := time.Unix(0, 0)
	m.Tick(start)
	tickAt(m, start, 20*time.Millisecond, 10)

	if fps := m.AverageFPS(); math.Abs(fps-50) > 1e-6 {
		t.Errorf("AverageFPS = %v, want 50", fps)
	}
	if fps := m.FPS(); math.Abs(fps-50) > 1e-6 {
		t.Errorf("FPS = %v, want 50", fps)
	}
	// 20ms is within 1.5x of the 16.7ms target.
	if m.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0", m.Dropped())
	}
	if st := m.Stats(); st.Frames != 11 {
		t.Errorf("Frames = %d, want 11", st.Frames)
	}
}

func TestMonitorLowFPSFiresOncePerDip(t *testing.T) {
	m := NewMonitor(MonitorConfig{Window: 5, WarnFPS: 30})
	var fired []float64
	m.OnLowFPS(func(avg float64) { fired = append(fired, avg) })

	now := time.Unix(0, 0)
	m.Tick(now)
	now = tickAt(m, now, 50*time.Millisecond, 10) // 20 fps
	if len(fired) != 1 {
		t.Fatalf("fired %d times during the first dip, want 1", len(fired))
	}
	if m.Dropped() != 10 {
		t.Errorf("Dropped = %d, want 10", m.Dropped())
	}

	now = tickAt(m, now, 10*time.Millisecond, 10) // recover
	if len(fired) != 1 {
		t.Fatalf("fired during recovery")
	}
	tickAt(m, now, 50*time.Millisecond, 10)
	if len(fired) != 2 {
		t.Errorf("fired %d times after a second dip, want 2", len(fired))
	}
}
