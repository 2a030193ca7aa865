// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package maskcanvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/maskcanvas/internal/brush"
	"github.com/gogpu/maskcanvas/internal/canvas"
	"github.com/gogpu/maskcanvas/internal/history"
	"github.com/gogpu/maskcanvas/internal/input"
	"github.com/gogpu/maskcanvas/internal/mask"
	"github.com/gogpu/maskcanvas/internal/schedule"
	"github.com/gogpu/maskcanvas/internal/tiles"
	"github.com/gogpu/maskcanvas/internal/view"
	"github.com/gogpu/maskcanvas/internal/worker"
)

// MaskBuffer is a binary mask raster.
type MaskBuffer = mask.Buffer

type lifecycle uint8

const (
	stateOpen lifecycle = iota
	stateFailed
	stateClosed
)

// Stats is a snapshot of every component's counters.
type Stats struct {
	Gesture      GestureState
	Transform    Transform
	BrushSize    int
	BrushMode    BrushMode
	History      history.Stats
	Worker       worker.Stats
	Capabilities worker.Capabilities
	Canvas       canvas.Stats
	Frames       schedule.FrameStats
}

// Editor is one mask editing session over one image.
//
// The Editor is the mediator between its components: the zoom/pan
// controller, the input engine, the canvas surfaces, the history, the
// worker pool and the frame scheduler. None of them reference each other.
//
// Thread safety: all methods are safe for concurrent use; they serialize on
// one mutex. Callbacks registered through options run while that mutex is
// held and must not call back into the Editor. onMaskComplete and onCancel
// run after it is released.
type Editor struct {
	mu sync.Mutex

	opts options
	log  *slog.Logger
	src  ImageSource

	onMaskComplete func([]byte)
	onCancel       func()

	ctx    context.Context
	cancel context.CancelFunc

	state   lifecycle
	fatal   error
	visible bool

	canvas  *canvas.Manager
	view    *view.Controller
	input   *input.Engine
	sched   *schedule.Scheduler
	monitor *schedule.Monitor
	workers *worker.Manager
	ops     worker.Ops
	history *history.Manager

	// Live stroke segment state between frames. segApplied counts the
	// samples already in the mask; after a failed segment the stroke stops
	// growing and only that prefix is recorded.
	seg         brush.State
	segDiameter int
	segMode     brush.Mode
	segApplied  int
	segFailed   bool
}

// New creates an editor for src laid out in container. Nothing is loaded
// until Open. onMaskComplete receives the PNG from Complete and onCancel
// runs on Cancel; either may be nil.
func New(src ImageSource, container Container, onMaskComplete func([]byte), onCancel func(), opts ...Option) (*Editor, error) {
	if src == nil {
		return nil, errors.New("maskcanvas: nil image source")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := container.Validate(); err != nil {
		return nil, fmt.Errorf("maskcanvas: %w", err)
	}
	zoomMod, _ := ParseModifiers(o.cfg.View.ZoomModifier)

	log := o.logger
	if log == nil {
		log = Logger()
	}
	if o.registry == nil {
		o.registry = canvas.DefaultRegistry(o.cfg.Render.MaxSurfaceBytes)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Editor{
		opts:           o,
		log:            log,
		src:            src,
		onMaskComplete: onMaskComplete,
		onCancel:       onCancel,
		ctx:            ctx,
		cancel:         cancel,
		canvas: canvas.New(canvas.Config{
			Registry:           o.registry,
			Opacity:            o.cfg.Render.Opacity,
			MaxRegionsPerFrame: o.cfg.Render.MaxRegionsPerFrame,
			Logger:             log,
		}),
		view: view.NewController(view.Config{
			MinZoom:      o.cfg.View.MinZoom,
			MaxZoom:      o.cfg.View.MaxZoom,
			ZoomStep:     o.cfg.View.ZoomStep,
			Overscroll:   o.cfg.View.Overscroll,
			DeadZone:     o.cfg.View.DeadZone,
			WheelQuiet:   o.cfg.View.WheelQuiet,
			ZoomModifier: zoomMod,
			Logger:       log,
		}),
		input: input.New(input.Config{
			Diameter: o.cfg.Brush.Diameter,
			Mode:     o.cfg.Brush.Mode,
			Logger:   log,
		}),
		sched: schedule.New(schedule.Config{
			MaxRects: o.cfg.Render.MaxRects,
			Logger:   log,
		}),
		monitor: schedule.NewMonitor(schedule.MonitorConfig{
			TargetFPS: o.cfg.Render.TargetFPS,
			WarnFPS:   o.cfg.Render.WarnFPS,
			Window:    o.cfg.Render.FPSWindow,
			Logger:    log,
		}),
		workers: worker.New(worker.Config{
			Workers:         o.cfg.Worker.Workers,
			Timeout:         o.cfg.Worker.Timeout,
			ForceBackground: o.cfg.Worker.ForceBackground,
			Logger:          log,
		}),
	}
	e.ops = e.workers
	if err := e.view.SetContainer(container); err != nil {
		e.workers.Close()
		cancel()
		return nil, fmt.Errorf("maskcanvas: %w", err)
	}
	e.wire()
	return e, nil
}

// wire registers the one-directional callbacks between components.
func (e *Editor) wire() {
	e.input.SetGate(e.view.Navigating)
	e.input.SetMapper(func(x, y float64) brush.Point {
		p := e.view.ScreenToImage(view.Pt(x, y))
		return brush.Pt(p.X, p.Y)
	})
	e.input.SetPixelScale(func() float64 { return e.view.Mapping().PixelScale() })
	e.input.OnRequestFrame(e.sched.RequestFrame)

	e.view.OnChange(func(Transform) { e.sched.RequestFrame() })

	e.sched.OnFlush(e.flush)
	e.sched.OnRedraw(e.redraw)

	if e.opts.onLowFPS != nil {
		e.monitor.OnLowFPS(e.opts.onLowFPS)
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func (e *Editor) usable() error {
	switch e.state {
	case stateClosed:
		return ErrClosed
	case stateFailed:
		return fmt.Errorf("%w: %w", ErrUnusable, e.fatal)
	}
	return nil
}

func (e *Editor) ready() error {
	if err := e.usable(); err != nil {
		return err
	}
	if !e.canvas.Loaded() {
		return ErrNotLoaded
	}
	return nil
}

// Open loads the image, creates an empty mask at the image's native size
// and starts a fresh history. A failure wrapping ErrImageLoadFailed keeps
// the previous session, if any, and Open may be retried. A failure
// wrapping ErrSurfaceUnavailable makes the editor unusable.
func (e *Editor) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.usable(); err != nil {
		return err
	}
	if e.canvas.Loaded() {
		e.commitActive(e.opts.now())
	}

	layout, err := e.canvas.LoadImage(ctx, e.src, e.view.Container())
	if err != nil {
		if errors.Is(err, ErrSurfaceUnavailable) {
			e.state = stateFailed
			e.fatal = err
			e.log.Error("maskcanvas: no surface for image", "err", err)
		}
		return err
	}

	hist, err := history.New(history.Config{
		Interval:       e.opts.cfg.History.Interval,
		MaxBytes:       e.opts.cfg.History.MaxBytes,
		MaxReplayBytes: e.opts.cfg.History.MaxReplayBytes,
		TileSize:       e.opts.cfg.History.TileSize,
		OnPrune:        e.opts.onPrune,
		Now:            e.opts.now,
		Logger:         e.log,
	}, historyEngine{ops: e.ops, tileSize: e.opts.cfg.History.TileSize}, layout.ImageWidth, layout.ImageHeight)
	if err != nil {
		return err
	}
	e.history = hist

	e.view.SetLayout(layout)
	e.view.Reset()
	e.sched.MarkFull()
	e.log.Info("maskcanvas: editor opened",
		"width", layout.ImageWidth, "height", layout.ImageHeight,
		"background", e.workers.Capabilities().Background)
	return nil
}

// Show makes the editor visible. Pointer and wheel events are ignored while
// it is hidden.
func (e *Editor) Show() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateClosed {
		return
	}
	e.visible = true
	e.sched.MarkFull()
}

// Hide hides the editor, ending any stroke in flight.
func (e *Editor) Hide() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = false
	if e.usable() == nil {
		e.commitActive(e.opts.now())
	}
}

// Visible reports whether the editor is shown.
func (e *Editor) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// ExportMask returns the mask as a lossless 8-bit grayscale PNG at the
// image's native size. Every pixel is 0 or 255.
func (e *Editor) ExportMask(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportLocked(ctx)
}

func (e *Editor) exportLocked(ctx context.Context) ([]byte, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	e.commitActive(e.opts.now())
	return e.canvas.ExportMask(ctx, e.ops)
}

// Complete exports the mask and hands it to onMaskComplete.
func (e *Editor) Complete(ctx context.Context) error {
	e.mu.Lock()
	data, err := e.exportLocked(ctx)
	fn := e.onMaskComplete
	e.mu.Unlock()

	if err != nil {
		return err
	}
	if fn != nil {
		fn(data)
	}
	return nil
}

// Cancel ends the session without a mask and runs onCancel. A stroke in
// flight is recorded with the part already drawn. The editor stays open
// until Close.
func (e *Editor) Cancel() {
	e.mu.Lock()
	if e.state == stateClosed {
		e.mu.Unlock()
		return
	}
	if e.ready() == nil {
		e.commitActive(e.opts.now())
	}
	e.visible = false
	fn := e.onCancel
	e.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Close stops the worker pool, rejecting calls in flight with ErrClosed,
// and releases every surface. Close is idempotent.
func (e *Editor) Close() {
	// Before taking the lock: a method holding it may be waiting on a
	// background call.
	e.workers.Close()
	e.cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateClosed {
		return
	}
	e.state = stateClosed
	e.visible = false
	e.input.Cancel(e.input.PointerID(), e.opts.now())
	e.canvas.Close()
	e.history = nil
	e.log.Info("maskcanvas: editor closed")
}

// =============================================================================
// Pointer and wheel input
// =============================================================================

func (e *Editor) accepting() bool {
	return e.visible && e.ready() == nil
}

// PointerDown routes a pointer press. The zoom/pan controller sees it first;
// a stroke starts only when no navigation gesture is active. A second
// pointer starts a pinch and commits the stroke in flight.
func (e *Editor) PointerDown(ev PointerEvent) PointerResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.accepting() {
		return input.Ignored
	}

	nav := e.view.PointerDown(ev.ID, view.Pt(ev.X, ev.Y), ev.Button == ButtonMiddle)
	if e.view.State() == view.Pinching && e.input.Active() {
		e.cancelStroke(e.input.PointerID(), e.eventTime(ev))
	}
	if nav {
		return PointerResult{PreventDefault: true}
	}

	res := e.input.Down(ev)
	if res.Captured {
		e.resetSegment()
		e.segDiameter = e.input.Diameter()
		e.segMode = e.input.Mode()
	}
	return res
}

// PointerMove routes a pointer move. Stroke samples are applied on the
// next Frame.
func (e *Editor) PointerMove(ev PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.accepting() {
		return
	}
	e.view.PointerMove(ev.ID, view.Pt(ev.X, ev.Y))
	e.input.Move(ev)
}

// PointerUp ends a gesture or a stroke. A finished stroke is applied in
// full and recorded in the history.
func (e *Editor) PointerUp(ev PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready() != nil {
		return
	}
	e.view.PointerUp(ev.ID)
	if stroke, ok := e.input.Up(ev); ok {
		e.endStroke(stroke, e.input.TakePending(), e.eventTime(ev))
	}
}

// PointerCancel aborts the pointer. A stroke keeps the part already drawn,
// which is recorded as a command of its own.
func (e *Editor) PointerCancel(ev PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready() != nil {
		return
	}
	e.view.PointerUp(ev.ID)
	e.cancelStroke(ev.ID, e.eventTime(ev))
}

// PointerLeave hides the brush cursor.
func (e *Editor) PointerLeave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input.Leave()
	e.sched.RequestFrame()
}

// Wheel zooms around the pointer when the zoom modifier is held and pans
// otherwise.
func (e *Editor) Wheel(ev WheelEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.accepting() {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = e.opts.now()
	}
	e.view.Wheel(ev)
}

// SetPanMode makes a single-pointer drag pan instead of draw.
func (e *Editor) SetPanMode(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.SetPanMode(on)
}

func (e *Editor) eventTime(ev PointerEvent) time.Time {
	if ev.Time.IsZero() {
		return e.opts.now()
	}
	return ev.Time
}

// =============================================================================
// Frames
// =============================================================================

// Frame runs one display frame: it ends idle wheel zooms, applies the
// stroke samples gathered since the last frame and recomposes the dirty
// regions of the overlay. It reports whether anything changed that the
// host should present.
func (e *Editor) Frame(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready() != nil {
		return false
	}
	e.monitor.Tick(now)
	e.view.Tick(now)
	e.canvas.BeginFrame()
	return e.sched.Frame(now)
}

// flush applies the samples of the stroke in flight.
func (e *Editor) flush(time.Time) {
	if !e.input.Active() || e.segFailed {
		return
	}
	pts := e.input.TakePending()
	if len(pts) == 0 {
		return
	}
	if err := e.applySegment(e.ops, pts, false); err != nil {
		e.segFailed = true
		e.log.Error("maskcanvas: apply stroke segment", "points", len(pts), "err", err)
	}
}

func (e *Editor) redraw(rects []image.Rectangle, full bool) {
	if full {
		e.canvas.Redraw()
		return
	}
	for _, r := range rects {
		e.canvas.UpdateRegion(r)
	}
}

// applySegment extends the live stroke into the mask and queues the dirty
// rectangle. The mask and segment state are unchanged when it fails.
func (e *Editor) applySegment(ops worker.Ops, pts []brush.Point, finish bool) error {
	if len(pts) == 0 && (!finish || !e.seg.Started) {
		return nil
	}
	buf := e.canvas.Mask()
	res, err := ops.ApplySegment(e.ctx, worker.SegmentRequest{
		Raster:   raster(buf),
		State:    e.seg,
		Points:   pts,
		Diameter: e.segDiameter,
		Mode:     e.segMode,
		Finish:   finish,
	})
	if err != nil {
		return err
	}
	if err := buf.Adopt(res.Data); err != nil {
		return err
	}
	e.seg = res.State
	e.segApplied += len(pts)
	e.sched.AddDirty(res.Dirty)
	return nil
}

// endStroke applies the last samples of a stroke, finishes it and records
// the samples that reached the mask.
func (e *Editor) endStroke(stroke input.Stroke, tail []brush.Point, now time.Time) {
	if !e.segFailed {
		if err := e.applySegment(e.ops, tail, true); err != nil {
			e.segFailed = true
			e.log.Error("maskcanvas: finish stroke", "points", len(tail), "err", err)
		}
	}
	if e.segFailed {
		// Close the drawn prefix on the caller so it matches a replay of
		// the recorded samples.
		if err := e.applySegment(worker.Local{}, nil, true); err != nil {
			e.log.Error("maskcanvas: finish stroke prefix", "err", err)
		}
		stroke.Points = stroke.Points[:min(e.segApplied, len(stroke.Points))]
	}
	e.record(stroke, now)
}

// cancelStroke ends the stroke of pointer id keeping its applied prefix.
func (e *Editor) cancelStroke(id int, now time.Time) {
	if stroke, ok := e.input.Cancel(id, now); ok {
		e.endStroke(stroke, nil, now)
	}
}

// commitActive ends the stroke in flight, if any, keeping what was drawn.
func (e *Editor) commitActive(now time.Time) {
	if e.input.Active() {
		e.cancelStroke(e.input.PointerID(), now)
	}
}

func (e *Editor) resetSegment() {
	e.seg = brush.State{}
	e.segApplied = 0
	e.segFailed = false
}

// record logs a finished stroke in the history.
func (e *Editor) record(stroke input.Stroke, now time.Time) {
	e.resetSegment()
	if len(stroke.Points) == 0 || e.history == nil {
		return
	}
	cmd := history.NewStroke(stroke.Mode, stroke.Diameter, stroke.Points, now)
	if err := e.history.Add(e.ctx, e.canvas.Mask(), cmd); err != nil {
		e.log.Error("maskcanvas: record stroke", "id", cmd.ID, "err", err)
	}
}

func raster(buf *mask.Buffer) worker.Raster {
	return worker.Raster{Width: buf.Width(), Height: buf.Height(), Data: buf.Data()}
}

// =============================================================================
// Editing
// =============================================================================

// Undo steps back one command. It reports whether anything changed.
func (e *Editor) Undo(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return false, err
	}
	e.commitActive(e.opts.now())
	ok, err := e.history.Undo(ctx, e.canvas.Mask())
	if ok {
		e.sched.MarkFull()
	}
	return ok, err
}

// Redo reapplies the last undone command. It reports whether anything
// changed.
func (e *Editor) Redo(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return false, err
	}
	e.commitActive(e.opts.now())
	ok, err := e.history.Redo(ctx, e.canvas.Mask())
	if ok {
		e.sched.MarkFull()
	}
	return ok, err
}

// CanUndo reports whether Undo would change the mask.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready() == nil && e.history.CanUndo()
}

// CanRedo reports whether Redo would change the mask.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready() == nil && e.history.CanRedo()
}

// Clear erases the whole mask as one undoable command.
func (e *Editor) Clear(ctx context.Context) error {
	return e.whole(ctx, history.NewClear)
}

// Invert flips every mask pixel as one undoable command.
func (e *Editor) Invert(ctx context.Context) error {
	return e.whole(ctx, history.NewInvert)
}

func (e *Editor) whole(ctx context.Context, newCmd func(time.Time) history.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	now := e.opts.now()
	e.commitActive(now)

	cmd := newCmd(now)
	buf := e.canvas.Mask()
	if err := (historyEngine{ops: e.ops}).Replay(ctx, buf, cmd); err != nil {
		return err
	}
	e.sched.MarkFull()
	return e.history.Add(ctx, buf, cmd)
}

// SetBrushDiameter sets the diameter, in image pixels, for the next stroke
// and returns the value after clamping to [1, 200].
func (e *Editor) SetBrushDiameter(d int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	d = e.input.SetDiameter(d)
	e.sched.RequestFrame()
	return d
}

// SetBrushMode selects painting or erasing for the next stroke.
func (e *Editor) SetBrushMode(m BrushMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input.SetMode(m)
	e.sched.RequestFrame()
}

// =============================================================================
// View
// =============================================================================

// ZoomIn zooms one step around the viewport center.
func (e *Editor) ZoomIn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.ZoomIn()
}

// ZoomOut zooms out one step around the viewport center.
func (e *Editor) ZoomOut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.ZoomOut()
}

// ResetView returns to the fitted, unzoomed view.
func (e *Editor) ResetView() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.Reset()
}

// Resize updates the container after a host layout change.
func (e *Editor) Resize(container Container) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(); err != nil {
		return err
	}
	if err := e.view.SetContainer(container); err != nil {
		return fmt.Errorf("maskcanvas: %w", err)
	}
	e.sched.RequestFrame()
	return nil
}

// Transform returns the current zoom and pan.
func (e *Editor) Transform() Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Transform()
}

// Layout returns the contain-fit placement of the image.
func (e *Editor) Layout() (Layout, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Layout()
}

// ScreenToImage maps a screen point to image pixel coordinates.
func (e *Editor) ScreenToImage(p Point) Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.ScreenToImage(p)
}

// ImageToScreen maps an image point to screen coordinates.
func (e *Editor) ImageToScreen(p Point) Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.ImageToScreen(p)
}

// =============================================================================
// Output
// =============================================================================

// Overlay returns the composited image plus highlight at native size. The
// image is owned by the editor and changes on the next Frame.
func (e *Editor) Overlay() (image.Image, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.canvas.Overlay().Image(), nil
}

// RenderView draws what the user sees: the overlay under the current zoom
// and pan at screen resolution, plus the brush cursor.
func (e *Editor) RenderView() (*image.RGBA, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	var ring *canvas.Ring
	if c, ok := e.input.Cursor(); ok && !e.view.Navigating() {
		ring = &canvas.Ring{X: c.X, Y: c.Y, Radius: c.Radius, Dashed: c.Mode == Erase}
	}
	return e.canvas.RenderView(e.view.Container(), e.view.Mapping(), ring)
}

// Mask returns a copy of the mask, or nil before Open.
func (e *Editor) Mask() *MaskBuffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready() != nil {
		return nil
	}
	return e.canvas.Mask().Clone()
}

// Stats returns a snapshot of the editor's counters.
func (e *Editor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Stats{
		Gesture:      e.view.State(),
		Transform:    e.view.Transform(),
		BrushSize:    e.input.Diameter(),
		BrushMode:    e.input.Mode(),
		Worker:       e.workers.Stats(),
		Capabilities: e.workers.Capabilities(),
		Canvas:       e.canvas.Stats(),
		Frames:       e.monitor.Stats(),
	}
	if e.history != nil {
		st.History = e.history.Stats()
	}
	return st
}

// =============================================================================
// History engine
// =============================================================================

// historyEngine replays commands and captures checkpoints through the
// worker ops, so undo uses the same offload path as live drawing.
type historyEngine struct {
	ops      worker.Ops
	tileSize int
}

var _ history.Engine = historyEngine{}

// Replay applies cmd to buf. buf is unchanged when it fails.
func (h historyEngine) Replay(ctx context.Context, buf *mask.Buffer, cmd history.Command) error {
	switch cmd.Kind {
	case history.KindStroke:
		res, err := h.ops.ApplyPath(ctx, worker.PathRequest{
			Raster:   raster(buf),
			Points:   cmd.Points,
			Diameter: cmd.Diameter,
			Mode:     cmd.Mode,
		})
		if err != nil {
			return err
		}
		return buf.Adopt(res.Data)
	case history.KindClear:
		buf.Clear()
	case history.KindInvert:
		buf.Invert()
	default:
		return fmt.Errorf("maskcanvas: unknown command kind %v", cmd.Kind)
	}
	return nil
}

// Snapshot captures buf as sparse tiles.
func (h historyEngine) Snapshot(ctx context.Context, buf *mask.Buffer) (*tiles.Snapshot, error) {
	size := h.tileSize
	if size <= 0 {
		size = tiles.DefaultSize
	}
	res, err := h.ops.Checkpoint(ctx, worker.CheckpointRequest{Raster: raster(buf), TileSize: size})
	if err != nil {
		return nil, err
	}
	return res.Snapshot, nil
}
