// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package view

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/maskcanvas/internal/logx"
)

// Controller defaults.
const (
	DefaultMinZoom    = 0.5
	DefaultMaxZoom    = 10.0
	DefaultZoomStep   = 1.25
	DefaultOverscroll = 0.1
	DefaultDeadZone   = 4.0
	DefaultWheelQuiet = 150 * time.Millisecond
	DefaultWheelNotch = 100.0
)

// State is the gesture state.
type State uint8

const (
	// Idle means no navigation gesture is active; drawing is allowed.
	Idle State = iota

	// Panning is a single-pointer drag that translates the view.
	Panning

	// Pinching is a two-pointer zoom and pan.
	Pinching

	// WheelZooming is a run of modified wheel events. It ends after
	// WheelQuiet without wheel input.
	WheelZooming
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case Pinching:
		return "pinching"
	case WheelZooming:
		return "wheel-zooming"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Modifiers is a set of keyboard modifiers held during a wheel event.
type Modifiers uint8

// Modifier keys.
const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// WheelEvent is a scroll wheel or trackpad scroll.
type WheelEvent struct {
	// X and Y are the screen position of the pointer.
	X, Y float64

	// DX and DY are the scroll deltas in view pixels.
	DX, DY float64

	Mods Modifiers
	Time time.Time
}

// Config configures a Controller. Zero fields take their defaults, except
// Overscroll, where zero means no overscroll.
type Config struct {
	MinZoom, MaxZoom float64

	// ZoomStep is the factor used by ZoomIn and ZoomOut, and per
	// WheelNotch of wheel delta.
	ZoomStep float64

	// Overscroll is the margin, as a fraction of the viewport, by which the
	// image may be pushed past the viewport edge.
	Overscroll float64

	// DeadZone is the drag distance in view pixels before a pan starts.
	DeadZone float64

	WheelQuiet time.Duration
	WheelNotch float64

	// ZoomModifier selects which wheel events zoom. Zero means all of them.
	ZoomModifier Modifiers

	Logger *slog.Logger
}

// Controller owns the Transform and the gesture state machine.
//
// Controller is not safe for concurrent use; the editor serializes access.
type Controller struct {
	cfg Config
	log *slog.Logger

	container Container
	layout    Layout
	hasLayout bool

	t       Transform
	state   State
	panMode bool

	pointers map[int]Point

	// armed is set by a pointer that may become a pan once it leaves the
	// dead zone.
	armed    bool
	panID    int
	panStart Point

	pinchA, pinchB int
	pinchDist      float64
	pinchMid       Point

	lastWheel time.Time

	onChange func(Transform)
	onState  func(from, to State)
}

// NewController creates a controller at the identity transform.
func NewController(cfg Config) *Controller {
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = DefaultMinZoom
	}
	if cfg.MaxZoom <= 0 {
		cfg.MaxZoom = DefaultMaxZoom
	}
	if cfg.MaxZoom < cfg.MinZoom {
		cfg.MaxZoom = cfg.MinZoom
	}
	if cfg.ZoomStep <= 1 {
		cfg.ZoomStep = DefaultZoomStep
	}
	cfg.Overscroll = max(cfg.Overscroll, 0)
	if cfg.DeadZone <= 0 {
		cfg.DeadZone = DefaultDeadZone
	}
	if cfg.WheelQuiet <= 0 {
		cfg.WheelQuiet = DefaultWheelQuiet
	}
	if cfg.WheelNotch <= 0 {
		cfg.WheelNotch = DefaultWheelNotch
	}
	c := &Controller{
		cfg:      cfg,
		log:      cfg.Logger,
		t:        IdentityTransform(),
		pointers: make(map[int]Point),
	}
	if c.log == nil {
		c.log = logx.Nop()
	}
	return c
}

// OnChange registers fn to run whenever the transform changes.
func (c *Controller) OnChange(fn func(Transform)) { c.onChange = fn }

// OnState registers fn to run on every state transition.
func (c *Controller) OnState(fn func(from, to State)) { c.onState = fn }

// State returns the gesture state.
func (c *Controller) State() State { return c.state }

// Navigating reports whether a navigation gesture owns the pointer. Input
// must not start a stroke while it is true.
func (c *Controller) Navigating() bool { return c.state != Idle || c.armed }

// SetPanMode makes single-pointer drags pan instead of draw.
func (c *Controller) SetPanMode(on bool) { c.panMode = on }

// PanMode reports whether pan mode is enabled.
func (c *Controller) PanMode() bool { return c.panMode }

// Transform returns the current transform.
func (c *Controller) Transform() Transform { return c.t }

// Container returns the current container.
func (c *Controller) Container() Container { return c.container }

// Layout returns the current layout and whether an image is set.
func (c *Controller) Layout() (Layout, bool) { return c.layout, c.hasLayout }

// Mapping returns the coordinate mapping for the current state.
func (c *Controller) Mapping() Mapping {
	return NewMapping(c.container, c.layout, c.t)
}

// SetContainer updates the container, recomputes the layout if an image is
// set, and re-clamps the transform.
func (c *Controller) SetContainer(ct Container) error {
	if err := ct.Validate(); err != nil {
		return err
	}
	c.container = ct
	if c.hasLayout {
		l, err := ContainFit(c.layout.ImageWidth, c.layout.ImageHeight, ct)
		if err != nil {
			return err
		}
		c.layout = l
	}
	c.set(c.t)
	return nil
}

// SetLayout sets the image layout and re-clamps the transform.
func (c *Controller) SetLayout(l Layout) {
	c.layout = l
	c.hasLayout = true
	c.set(c.t)
}

// ScreenToImage maps a screen point to image space.
func (c *Controller) ScreenToImage(p Point) Point { return c.Mapping().ScreenToImage(p) }

// ImageToScreen maps an image point to screen space.
func (c *Controller) ImageToScreen(p Point) Point { return c.Mapping().ImageToScreen(p) }

func (c *Controller) setState(s State) {
	if s == c.state {
		return
	}
	from := c.state
	c.state = s
	c.log.Debug("view: state", "from", from, "to", s)
	if c.onState != nil {
		c.onState(from, s)
	}
}

// viewFromScreen maps a screen point to view space.
func (c *Controller) viewFromScreen(p Point) Point {
	r := c.container.Ratio()
	return Point{X: p.X/r - c.container.Border.Left, Y: p.Y/r - c.container.Border.Top}
}

// =============================================================================
// Pointer gestures
// =============================================================================

// PointerDown registers a pointer. A second pointer starts a pinch; a
// single pointer arms a pan when pan mode is on or middle is true. It
// returns Navigating after the event.
func (c *Controller) PointerDown(id int, pos Point, middle bool) bool {
	c.pointers[id] = pos
	switch len(c.pointers) {
	case 1:
		if c.state == Idle && (c.panMode || middle) {
			c.armed = true
			c.panID = id
			c.panStart = pos
		}
	case 2:
		if c.state == Idle || c.state == Panning {
			c.startPinch()
		}
	}
	return c.Navigating()
}

func (c *Controller) startPinch() {
	ids := make([]int, 0, 2)
	for id := range c.pointers {
		ids = append(ids, id)
	}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	c.pinchA, c.pinchB = ids[0], ids[1]
	a, b := c.pointers[c.pinchA], c.pointers[c.pinchB]
	c.pinchDist = a.Dist(b)
	c.pinchMid = a.Mid(b)
	c.armed = false
	c.setState(Pinching)
}

// PointerMove updates a pointer and advances the active gesture. It
// returns Navigating after the event.
func (c *Controller) PointerMove(id int, pos Point) bool {
	prev, ok := c.pointers[id]
	if !ok {
		return c.Navigating()
	}
	c.pointers[id] = pos
	r := c.container.Ratio()

	switch c.state {
	case Pinching:
		if id != c.pinchA && id != c.pinchB {
			break
		}
		a, b := c.pointers[c.pinchA], c.pointers[c.pinchB]
		mid, dist := a.Mid(b), a.Dist(b)
		c.PanBy((mid.X-c.pinchMid.X)/r, (mid.Y-c.pinchMid.Y)/r)
		if c.pinchDist > 0 && dist > 0 {
			c.ZoomAt(mid, dist/c.pinchDist)
		}
		c.pinchMid, c.pinchDist = mid, dist

	case Panning:
		if id == c.panID {
			c.PanBy((pos.X-prev.X)/r, (pos.Y-prev.Y)/r)
		}

	case Idle:
		if c.armed && id == c.panID && pos.Dist(c.panStart) > c.cfg.DeadZone*r {
			c.setState(Panning)
			c.PanBy((pos.X-c.panStart.X)/r, (pos.Y-c.panStart.Y)/r)
		}
	}
	return c.Navigating()
}

// PointerUp releases a pointer. Releasing a pointer that drives the active
// gesture returns the controller to Idle.
func (c *Controller) PointerUp(id int) {
	if _, ok := c.pointers[id]; !ok {
		return
	}
	delete(c.pointers, id)

	switch c.state {
	case Pinching:
		if id == c.pinchA || id == c.pinchB {
			c.setState(Idle)
		}
	case Panning:
		if id == c.panID {
			c.armed = false
			c.setState(Idle)
		}
	}
	if c.armed && id == c.panID {
		c.armed = false
	}
}

// =============================================================================
// Wheel
// =============================================================================

// Wheel zooms around the pointer when the event carries the zoom modifier,
// and pans otherwise.
func (c *Controller) Wheel(ev WheelEvent) {
	if c.cfg.ZoomModifier != 0 && ev.Mods&c.cfg.ZoomModifier == 0 {
		if c.state == Idle {
			c.PanBy(-ev.DX, -ev.DY)
		}
		return
	}
	if c.state != Idle && c.state != WheelZooming {
		return
	}
	c.setState(WheelZooming)
	c.lastWheel = ev.Time
	c.ZoomAt(Pt(ev.X, ev.Y), math.Pow(c.cfg.ZoomStep, -ev.DY/c.cfg.WheelNotch))
}

// Tick ends a wheel zoom once WheelQuiet has passed since the last wheel
// event.
func (c *Controller) Tick(now time.Time) {
	if c.state == WheelZooming && now.Sub(c.lastWheel) >= c.cfg.WheelQuiet {
		c.setState(Idle)
	}
}

// =============================================================================
// Transform operations
// =============================================================================

// ZoomAt multiplies the scale by factor, keeping the image point under the
// focal screen point fixed. The scale is clamped to [MinZoom, MaxZoom].
func (c *Controller) ZoomAt(focal Point, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	v := c.viewFromScreen(focal)
	s := c.t.Scale
	cx, cy := (v.X-c.t.TranslateX)/s, (v.Y-c.t.TranslateY)/s
	ns := clamp(s*factor, c.cfg.MinZoom, c.cfg.MaxZoom)
	c.set(Transform{Scale: ns, TranslateX: v.X - ns*cx, TranslateY: v.Y - ns*cy})
}

// PanBy translates the view by (dx, dy) view pixels.
func (c *Controller) PanBy(dx, dy float64) {
	t := c.t
	t.TranslateX += dx
	t.TranslateY += dy
	c.set(t)
}

// ZoomIn zooms by ZoomStep around the viewport center.
func (c *Controller) ZoomIn() { c.ZoomAt(c.center(), c.cfg.ZoomStep) }

// ZoomOut zooms by 1/ZoomStep around the viewport center.
func (c *Controller) ZoomOut() { c.ZoomAt(c.center(), 1/c.cfg.ZoomStep) }

// Reset returns to the identity transform.
func (c *Controller) Reset() { c.set(IdentityTransform()) }

// SetTransform replaces the transform, clamping it.
func (c *Controller) SetTransform(t Transform) {
	if t.Scale <= 0 {
		t.Scale = 1
	}
	t.Scale = clamp(t.Scale, c.cfg.MinZoom, c.cfg.MaxZoom)
	c.set(t)
}

// center returns the viewport center in screen coordinates.
func (c *Controller) center() Point {
	w, h := c.container.Viewport()
	return c.container.screenFromView().Apply(Pt(w/2, h/2))
}

// set clamps t and stores it, notifying OnChange when it differs.
func (c *Controller) set(t Transform) {
	if c.hasLayout {
		w, h := c.container.Viewport()
		m := c.cfg.Overscroll
		t.TranslateX = clampAxis(t.TranslateX, t.Scale, c.layout.OffsetX, float64(c.layout.ImageWidth)*c.layout.Fit, w, m*w)
		t.TranslateY = clampAxis(t.TranslateY, t.Scale, c.layout.OffsetY, float64(c.layout.ImageHeight)*c.layout.Fit, h, m*h)
	}
	if t == c.t {
		return
	}
	c.t = t
	if c.onChange != nil {
		c.onChange(t)
	}
}

// clampAxis bounds a translation so that an image narrower than the
// viewport stays inside it, and a wider one keeps covering it, both up to
// margin.
func clampAxis(tr, scale, offset, size, viewport, margin float64) float64 {
	lo := scale * offset
	extent := scale * size
	if extent <= viewport {
		return clamp(tr, -margin-lo, viewport+margin-lo-extent)
	}
	return clamp(tr, viewport-margin-extent-lo, margin-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
