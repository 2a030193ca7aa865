// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package input turns pointer, pen and touch events into stroke intents and
// a cursor preview.
//
// The engine never rasterizes. Samples are mapped to image space and queued
// until the frame scheduler drains them with TakePending, so the cost of
// high-frequency input is bounded to one brush application per frame.
package input

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/maskcanvas/internal/brush"
	"github.com/gogpu/maskcanvas/internal/logx"
)

// Kind is the pointer device type.
type Kind uint8

const (
	Mouse Kind = iota
	Pen
	Touch
)

// String returns the device name.
func (k Kind) String() string {
	switch k {
	case Mouse:
		return "mouse"
	case Pen:
		return "pen"
	case Touch:
		return "touch"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Button is the button that changed state in a pointer event.
type Button int8

// Buttons, numbered like DOM pointer events.
const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// PointerEvent is a platform pointer event in screen coordinates.
type PointerEvent struct {
	ID       int
	Kind     Kind
	X, Y     float64
	Button   Button
	Buttons  uint16
	Pressure float64
	Time     time.Time
}

// Result tells the host how a pointer-down was handled.
type Result struct {
	// Captured is true when a stroke started.
	Captured bool

	// PreventDefault asks the host to suppress native scroll and zoom for
	// the pointer while it is captured.
	PreventDefault bool
}

// Ignored is the Result for a pointer-down that started nothing.
var Ignored = Result{}

// Stroke is a finished or in-flight stroke in image space.
type Stroke struct {
	Mode     brush.Mode
	Diameter int
	Points   []brush.Point

	// Applied is the number of leading points handed out by TakePending.
	Applied int

	Started, Ended time.Time
	Cancelled      bool
}

// Cursor is the brush preview in screen coordinates.
type Cursor struct {
	X, Y   float64
	Radius float64
	Mode   brush.Mode
}

// Config configures an Engine.
type Config struct {
	Diameter int
	Mode     brush.Mode
	Logger   *slog.Logger
}

// DefaultDiameter is the brush diameter when none is configured.
const DefaultDiameter = 40

// Engine tracks at most one in-flight stroke.
//
// Engine is not safe for concurrent use; the editor serializes access.
type Engine struct {
	log *slog.Logger

	diameter int
	mode     brush.Mode

	gate         func() bool
	toImage      func(x, y float64) brush.Point
	pixelScale   func() float64
	requestFrame func()

	active    bool
	pointerID int
	stroke    Stroke
	pending   []brush.Point

	hover    bool
	hoverX   float64
	hoverY   float64
	lastKind Kind
}

// New creates an engine.
func New(cfg Config) *Engine {
	if cfg.Diameter <= 0 {
		cfg.Diameter = DefaultDiameter
	}
	e := &Engine{
		log:      cfg.Logger,
		diameter: brush.ClampDiameter(cfg.Diameter),
		mode:     cfg.Mode,
	}
	if e.log == nil {
		e.log = logx.Nop()
	}
	return e
}

// SetGate registers the navigation check. No stroke starts while it
// returns true.
func (e *Engine) SetGate(fn func() bool) { e.gate = fn }

// SetMapper registers the screen-to-image mapping.
func (e *Engine) SetMapper(fn func(x, y float64) brush.Point) { e.toImage = fn }

// SetPixelScale registers the screen pixels per image pixel lookup used to
// size the cursor.
func (e *Engine) SetPixelScale(fn func() float64) { e.pixelScale = fn }

// OnRequestFrame registers the callback that schedules a frame.
func (e *Engine) OnRequestFrame(fn func()) { e.requestFrame = fn }

// SetDiameter sets the brush diameter for the next stroke and returns the
// clamped value.
func (e *Engine) SetDiameter(d int) int {
	e.diameter = brush.ClampDiameter(d)
	return e.diameter
}

// Diameter returns the brush diameter.
func (e *Engine) Diameter() int { return e.diameter }

// SetMode sets the brush mode for the next stroke.
func (e *Engine) SetMode(m brush.Mode) { e.mode = m }

// Mode returns the brush mode.
func (e *Engine) Mode() brush.Mode { return e.mode }

// Active reports whether a stroke is in flight.
func (e *Engine) Active() bool { return e.active }

// PointerID returns the captured pointer, valid while Active.
func (e *Engine) PointerID() int { return e.pointerID }

func (e *Engine) mapPoint(ev PointerEvent) brush.Point {
	if e.toImage == nil {
		return brush.Pt(ev.X, ev.Y)
	}
	return e.toImage(ev.X, ev.Y)
}

func (e *Engine) frame() {
	if e.requestFrame != nil {
		e.requestFrame()
	}
}

func (e *Engine) track(ev PointerEvent) {
	e.lastKind = ev.Kind
	if ev.Kind == Touch {
		e.hover = false
		return
	}
	e.hover = true
	e.hoverX, e.hoverY = ev.X, ev.Y
}

// Down starts a stroke unless navigation is active, another stroke is in
// flight, or the button is not the primary one.
func (e *Engine) Down(ev PointerEvent) Result {
	e.track(ev)
	if ev.Button != ButtonPrimary {
		return Ignored
	}
	if e.active {
		return Ignored
	}
	if e.gate != nil && e.gate() {
		return Ignored
	}

	p := e.mapPoint(ev)
	e.active = true
	e.pointerID = ev.ID
	e.stroke = Stroke{
		Mode:     e.mode,
		Diameter: e.diameter,
		Points:   []brush.Point{p},
		Started:  ev.Time,
	}
	e.pending = append(e.pending[:0], p)
	e.log.Debug("input: stroke started", "pointer", ev.ID, "kind", ev.Kind, "mode", e.mode, "diameter", e.diameter)
	e.frame()
	return Result{Captured: true, PreventDefault: true}
}

// Move appends a sample to the captured stroke or updates the hover
// cursor. It reports whether the event belongs to the stroke.
func (e *Engine) Move(ev PointerEvent) bool {
	e.track(ev)
	if !e.active || ev.ID != e.pointerID {
		if !e.hover {
			return false
		}
		e.frame()
		return false
	}
	e.append(e.mapPoint(ev))
	return true
}

func (e *Engine) append(p brush.Point) {
	if last := e.stroke.Points[len(e.stroke.Points)-1]; last == p {
		return
	}
	e.stroke.Points = append(e.stroke.Points, p)
	e.pending = append(e.pending, p)
	e.frame()
}

// TakePending drains the samples not yet handed out.
func (e *Engine) TakePending() []brush.Point {
	if len(e.pending) == 0 {
		return nil
	}
	out := append([]brush.Point(nil), e.pending...)
	e.stroke.Applied += len(out)
	e.pending = e.pending[:0]
	return out
}

// Up ends the stroke for the captured pointer. Samples still pending stay
// queued for the final TakePending.
func (e *Engine) Up(ev PointerEvent) (Stroke, bool) {
	e.track(ev)
	if !e.active || ev.ID != e.pointerID {
		return Stroke{}, false
	}
	e.append(e.mapPoint(ev))
	e.active = false
	e.stroke.Ended = ev.Time
	e.log.Debug("input: stroke ended", "pointer", ev.ID, "points", len(e.stroke.Points))
	return e.stroke, true
}

// Cancel ends the stroke for pointer id, dropping samples that were never
// handed out. The returned stroke holds only the applied prefix.
func (e *Engine) Cancel(id int, now time.Time) (Stroke, bool) {
	if !e.active || id != e.pointerID {
		return Stroke{}, false
	}
	dropped := len(e.pending)
	e.pending = e.pending[:0]
	e.stroke.Points = e.stroke.Points[:e.stroke.Applied]
	e.stroke.Cancelled = true
	e.stroke.Ended = now
	e.active = false
	e.log.Debug("input: stroke cancelled", "pointer", id, "applied", e.stroke.Applied, "dropped", dropped)
	return e.stroke, true
}

// Leave hides the hover cursor.
func (e *Engine) Leave() { e.hover = false }

// Cursor returns the brush preview. It is hidden for touch input and when
// the pointer is not over the canvas.
func (e *Engine) Cursor() (Cursor, bool) {
	if !e.hover || e.lastKind == Touch {
		return Cursor{}, false
	}
	scale := 1.0
	if e.pixelScale != nil {
		scale = e.pixelScale()
	}
	return Cursor{
		X:      e.hoverX,
		Y:      e.hoverY,
		Radius: float64(e.diameter) / 2 * scale,
		Mode:   e.mode,
	}, true
}
