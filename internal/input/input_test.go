// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package input

import (
	"math"
	"testing"
	"time"

	"github.com/gogpu/maskcanvas/internal/brush"
)

var t0 = time.Unix(1000, 0)

func ev(id int, kind Kind, x, y float64) PointerEvent {
	return PointerEvent{ID: id, Kind: kind, X: x, Y: y, Button: ButtonPrimary, Pressure: 0.5, Time: t0}
}

// halfScale maps screen to image at half resolution.
func newHalfScale(t *testing.T) (*Engine, *int) {
	t.Helper()
	e := New(Config{Diameter: 10})
	frames := 0
	e.SetMapper(func(x, y float64) brush.Point { return brush.Pt(x/2, y/2) })
	e.SetPixelScale(func() float64 { return 2 })
	e.OnRequestFrame(func() { frames++ })
	return e, &frames
}

// =============================================================================
// Stroke lifecycle
// =============================================================================

func TestStrokeLifecycle(t *testing.T) {
	e, frames := newHalfScale(t)

	res := e.Down(ev(1, Mouse, 20, 20))
	if !res.Captured || !res.PreventDefault {
		t.Fatalf("Down = %+v, want captured", res)
	}
	e.Move(ev(1, Mouse, 40, 20))
	e.Move(ev(1, Mouse, 40, 20)) // duplicate is dropped
	e.Move(ev(2, Mouse, 90, 90)) // other pointer is not part of the stroke

	got := e.TakePending()
	want := []brush.Point{brush.Pt(10, 10), brush.Pt(20, 10)}
	if !equalPoints(got, want) {
		t.Fatalf("TakePending = %v, want %v", got, want)
	}
	if e.TakePending() != nil {
		t.Error("second TakePending returned samples")
	}

	e.Move(ev(1, Mouse, 60, 20))
	st, ok := e.Up(ev(1, Mouse, 60, 40))
	if !ok {
		t.Fatal("Up did not end the stroke")
	}
	if e.Active() {
		t.Error("still active after Up")
	}
	if n := len(st.Points); n != 4 {
		t.Errorf("stroke has %d points, want 4", n)
	}
	rest := e.TakePending()
	if !equalPoints(rest, []brush.Point{brush.Pt(30, 10), brush.Pt(30, 20)}) {
		t.Errorf("final pending = %v", rest)
	}
	if *frames == 0 {
		t.Error("no frame was requested")
	}
}

func TestGateBlocksStrokes(t *testing.T) {
	e, _ := newHalfScale(t)
	navigating := true
	e.SetGate(func() bool { return navigating })

	if res := e.Down(ev(1, Touch, 0, 0)); res != Ignored {
		t.Errorf("Down while navigating = %+v, want Ignored", res)
	}
	if e.Active() {
		t.Error("stroke started while navigating")
	}
	navigating = false
	if res := e.Down(ev(1, Touch, 0, 0)); !res.Captured {
		t.Error("stroke did not start after navigation ended")
	}
}

func TestOnlyPrimaryButtonDraws(t *testing.T) {
	e, _ := newHalfScale(t)
	down := ev(1, Mouse, 0, 0)
	down.Button = ButtonSecondary
	if res := e.Down(down); res.Captured {
		t.Error("secondary button started a stroke")
	}
}

func TestSecondPointerIgnoredWhileDrawing(t *testing.T) {
	e, _ := newHalfScale(t)
	e.Down(ev(1, Pen, 0, 0))
	if res := e.Down(ev(2, Pen, 10, 10)); res.Captured {
		t.Error("second pointer captured while a stroke was active")
	}
	if _, ok := e.Up(ev(2, Pen, 10, 10)); ok {
		t.Error("Up from the wrong pointer ended the stroke")
	}
}

func TestCancelKeepsAppliedPrefix(t *testing.T) {
	e, _ := newHalfScale(t)
	e.Down(ev(1, Touch, 0, 0))
	e.Move(ev(1, Touch, 10, 0))
	applied := e.TakePending()
	e.Move(ev(1, Touch, 20, 0))
	e.Move(ev(1, Touch, 30, 0))

	st, ok := e.Cancel(1, t0.Add(time.Second))
	if !ok {
		t.Fatal("Cancel did not end the stroke")
	}
	if !st.Cancelled {
		t.Error("stroke not marked cancelled")
	}
	if !equalPoints(st.Points, applied) {
		t.Errorf("cancelled stroke = %v, want applied prefix %v", st.Points, applied)
	}
	if e.TakePending() != nil {
		t.Error("unflushed samples survived Cancel")
	}
	if _, ok := e.Cancel(1, t0); ok {
		t.Error("second Cancel reported a stroke")
	}
}

// =============================================================================
// Cursor and settings
// =============================================================================

func TestCursorPreview(t *testing.T) {
	e, _ := newHalfScale(t)
	if _, ok := e.Cursor(); ok {
		t.Error("cursor shown before any hover")
	}

	e.Move(ev(1, Mouse, 33, 44))
	c, ok := e.Cursor()
	if !ok {
		t.Fatal("cursor hidden for mouse hover")
	}
	// diameter 10 / 2 * 2 screen px per image px.
	if c.X != 33 || c.Y != 44 || math.Abs(c.Radius-10) > 1e-9 {
		t.Errorf("cursor = %+v", c)
	}

	e.Move(ev(2, Touch, 10, 10))
	if _, ok := e.Cursor(); ok {
		t.Error("cursor shown for touch")
	}

	e.Move(ev(1, Pen, 1, 1))
	e.Leave()
	if _, ok := e.Cursor(); ok {
		t.Error("cursor shown after leave")
	}
}

func TestSettingsApplyToNextStroke(t *testing.T) {
	e, _ := newHalfScale(t)
	if got := e.SetDiameter(0); got != brush.MinDiameter {
		t.Errorf("SetDiameter(0) = %d", got)
	}
	if got := e.SetDiameter(1000); got != brush.MaxDiameter {
		t.Errorf("SetDiameter(1000) = %d", got)
	}
	e.SetDiameter(25)
	e.SetMode(brush.Erase)
	e.Down(ev(1, Mouse, 0, 0))
	e.SetDiameter(5)
	st, _ := e.Up(ev(1, Mouse, 0, 0))
	if st.Diameter != 25 || st.Mode != brush.Erase {
		t.Errorf("stroke settings = %d %v, want 25 erase", st.Diameter, st.Mode)
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{Mouse: "mouse", Pen: "pen", Touch: "touch", Kind(5): "Kind(5)"} {
		if got := k.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func equalPoints(a, b []brush.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
