// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package canvas owns the raster surfaces of an editing session: the base
// image at native resolution, the mask and its alpha mirror, and the
// composited overlay that shows the mask over the image.
//
// Redraws are minimal: UpdateRegion recomposes only the pixels a stroke
// changed. Scaling for display is always nearest-neighbour so mask pixels
// stay crisp at every zoom level.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/gogpu/maskcanvas/internal/logx"
	"github.com/gogpu/maskcanvas/internal/mask"
	"github.com/gogpu/maskcanvas/internal/maskio"
	"github.com/gogpu/maskcanvas/internal/view"
	"github.com/gogpu/maskcanvas/internal/worker"
)

// Overlay opacity bounds.
const (
	DefaultOpacity = 0.5
	MinOpacity     = 0.4
	MaxOpacity     = 0.6
)

// DefaultMaxRegionsPerFrame is the number of UpdateRegion calls per frame
// after which the manager redraws everything once instead.
const DefaultMaxRegionsPerFrame = 32

// DefaultHighlight is the mask color.
var DefaultHighlight = color.NRGBA{R: 255, G: 48, B: 48, A: 255}

var background = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}

// Canvas errors.
var (
	// ErrImageLoadFailed wraps every image open or decode failure.
	ErrImageLoadFailed = errors.New("canvas: image load failed")

	// ErrNotLoaded is returned by operations that need a loaded image.
	ErrNotLoaded = errors.New("canvas: no image loaded")
)

// Config configures a Manager.
type Config struct {
	// Registry supplies the overlay surface. Nil means DefaultRegistry(0).
	Registry *Registry

	// Opacity of the highlight, clamped to [MinOpacity, MaxOpacity].
	// Zero means DefaultOpacity.
	Opacity float64

	// Highlight is the mask color; its alpha is replaced by Opacity.
	// The zero value means DefaultHighlight.
	Highlight color.NRGBA

	MaxRegionsPerFrame int

	Logger *slog.Logger
}

// Ring is a cursor outline in screen coordinates.
type Ring struct {
	X, Y, Radius float64

	// Dashed draws the ring dashed, used for the eraser.
	Dashed bool
}

// Stats counts redraw work.
type Stats struct {
	Backend      string
	Redraws      uint64
	RegionDraws  uint64
	SkippedDraws uint64
}

// Manager owns the surfaces of one session.
//
// Manager is not safe for concurrent use; the editor serializes access.
type Manager struct {
	cfg       Config
	log       *slog.Logger
	highlight *image.Uniform

	loaded  bool
	width   int
	height  int
	layout  view.Layout
	format  string
	base    draw.Image
	alpha   *image.Alpha
	mask    *mask.Buffer
	overlay Surface

	regions     int
	fullInFrame bool

	redraws      uint64
	regionDraws  uint64
	skippedDraws uint64
}

// New creates a manager with no image.
func New(cfg Config) *Manager {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry(0)
	}
	if cfg.Opacity == 0 {
		cfg.Opacity = DefaultOpacity
	}
	cfg.Opacity = ClampOpacity(cfg.Opacity)
	if cfg.Highlight == (color.NRGBA{}) {
		cfg.Highlight = DefaultHighlight
	}
	if cfg.MaxRegionsPerFrame <= 0 {
		cfg.MaxRegionsPerFrame = DefaultMaxRegionsPerFrame
	}
	m := &Manager{cfg: cfg, log: cfg.Logger}
	if m.log == nil {
		m.log = logx.Nop()
	}
	m.setHighlight()
	return m
}

// ClampOpacity bounds an overlay opacity to [MinOpacity, MaxOpacity].
func ClampOpacity(o float64) float64 {
	return math.Max(MinOpacity, math.Min(MaxOpacity, o))
}

func (m *Manager) setHighlight() {
	c := m.cfg.Highlight
	c.A = uint8(math.Round(m.cfg.Opacity * 255))
	m.highlight = image.NewUniform(c)
}

// SetOpacity changes the highlight opacity and redraws.
func (m *Manager) SetOpacity(o float64) {
	m.cfg.Opacity = ClampOpacity(o)
	m.setHighlight()
	if m.loaded {
		m.Redraw()
	}
}

// Opacity returns the clamped highlight opacity.
func (m *Manager) Opacity() float64 { return m.cfg.Opacity }

// Loaded reports whether an image is loaded.
func (m *Manager) Loaded() bool { return m.loaded }

// Layout returns the contain-fit layout computed at load.
func (m *Manager) Layout() view.Layout { return m.layout }

// Format returns the decoded image format.
func (m *Manager) Format() string { return m.format }

// Mask returns the mask buffer. It is nil until an image is loaded.
func (m *Manager) Mask() *mask.Buffer { return m.mask }

// Base returns the native-resolution copy of the image.
func (m *Manager) Base() draw.Image { return m.base }

// Alpha returns the alpha mirror of the mask.
func (m *Manager) Alpha() *image.Alpha { return m.alpha }

// Overlay returns the composited overlay surface.
func (m *Manager) Overlay() Surface { return m.overlay }

// Bounds returns the image bounds.
func (m *Manager) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// Stats returns redraw counters.
func (m *Manager) Stats() Stats {
	s := Stats{Redraws: m.redraws, RegionDraws: m.regionDraws, SkippedDraws: m.skippedDraws}
	if m.overlay != nil {
		s.Backend = m.overlay.Backend()
	}
	return s
}

type decoded struct {
	img     image.Image
	format  string
	overlay Surface
	err     error
}

// LoadImage decodes src and rebuilds every surface. Decoding runs on its
// own goroutine; LoadImage returns early when ctx is done. The overlay
// surface is created from the image header, so an image no backend can
// hold is rejected before its pixels are decoded. On failure nothing is
// replaced and the error wraps ErrImageLoadFailed, or
// ErrSurfaceUnavailable when no overlay surface could be created.
func (m *Manager) LoadImage(ctx context.Context, src Source, ct view.Container) (view.Layout, error) {
	if err := ct.Validate(); err != nil {
		return view.Layout{}, err
	}

	ch := make(chan decoded, 1)
	reg := m.cfg.Registry
	go func() { ch <- decode(ctx, src, reg) }()

	var d decoded
	select {
	case d = <-ch:
	case <-ctx.Done():
		return view.Layout{}, fmt.Errorf("%w: %w", ErrImageLoadFailed, ctx.Err())
	}
	if errors.Is(d.err, ErrSurfaceUnavailable) {
		return view.Layout{}, d.err
	}
	if d.err != nil {
		return view.Layout{}, fmt.Errorf("%w: %w", ErrImageLoadFailed, d.err)
	}

	b := d.img.Bounds()
	w, h := b.Dx(), b.Dy()
	layout, err := view.ContainFit(w, h, ct)
	if err != nil {
		return view.Layout{}, err
	}
	buf, err := mask.New(w, h)
	if err != nil {
		return view.Layout{}, fmt.Errorf("%w: %w", ErrImageLoadFailed, err)
	}
	overlay := d.overlay
	if overlay.Backend() != m.cfg.Registry.firstAvailable() {
		m.log.Warn("canvas: using fallback surface backend", "backend", overlay.Backend())
	}

	base := newBase(overlay, w, h)
	draw.Draw(base, base.Bounds(), d.img, b.Min, draw.Src)

	m.width, m.height = w, h
	m.layout = layout
	m.format = d.format
	m.base = base
	m.alpha = image.NewAlpha(image.Rect(0, 0, w, h))
	m.mask = buf
	m.overlay = overlay
	m.loaded = true
	m.BeginFrame()
	m.Redraw()

	m.log.Info("canvas: image loaded",
		"format", d.format, "width", w, "height", h,
		"fit", layout.Fit, "backend", overlay.Backend(), "overlay_bytes", overlay.Bytes())
	return layout, nil
}

// BeginFrame resets the per-frame region budget.
func (m *Manager) BeginFrame() {
	m.regions = 0
	m.fullInFrame = false
}

// decode reads the header of src, creates the overlay surface for its size
// and only then decodes the pixels.
func decode(ctx context.Context, src Source, reg *Registry) decoded {
	rc, err := src.Open(ctx)
	if err != nil {
		return decoded{err: err}
	}
	defer rc.Close()

	cfg, _, rest, err := maskio.DecodeHeader(rc)
	if err != nil {
		return decoded{err: err}
	}
	overlay, err := reg.NewSurface(cfg.Width, cfg.Height)
	if err != nil {
		return decoded{err: err}
	}
	img, format, err := maskio.DecodeImage(rest)
	if err != nil {
		return decoded{err: err}
	}
	if b := img.Bounds(); b.Dx() != cfg.Width || b.Dy() != cfg.Height {
		return decoded{err: fmt.Errorf("canvas: %s image is %dx%d, header says %dx%d",
			format, b.Dx(), b.Dy(), cfg.Width, cfg.Height)}
	}
	return decoded{img: img, format: format, overlay: overlay}
}

// newBase allocates the native-size copy of the image in the overlay's
// pixel format, so a gray fallback surface gets a gray base.
func newBase(overlay Surface, w, h int) draw.Image {
	r := image.Rect(0, 0, w, h)
	if overlay.Image().ColorModel() == color.GrayModel {
		return image.NewGray(r)
	}
	return image.NewRGBA(r)
}

// UpdateRegion recomposes the overlay inside r. Past MaxRegionsPerFrame
// calls in one frame it redraws everything once and ignores the rest of
// the frame's regions.
func (m *Manager) UpdateRegion(r image.Rectangle) {
	if !m.loaded {
		return
	}
	if m.fullInFrame {
		m.skippedDraws++
		return
	}
	m.regions++
	if m.regions > m.cfg.MaxRegionsPerFrame {
		m.Redraw()
		m.fullInFrame = true
		return
	}
	r = r.Intersect(m.Bounds())
	if r.Empty() {
		return
	}
	m.compose(r)
	m.regionDraws++
}

// Redraw recomposes the whole overlay.
func (m *Manager) Redraw() {
	if !m.loaded {
		return
	}
	m.compose(m.Bounds())
	m.redraws++
}

// compose mirrors the mask into the alpha surface and paints the overlay
// inside r: the base image, then the highlight masked by the alpha.
func (m *Manager) compose(r image.Rectangle) {
	data := m.mask.Data()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := data[y*m.width+r.Min.X : y*m.width+r.Max.X]
		off := m.alpha.PixOffset(r.Min.X, y)
		copy(m.alpha.Pix[off:off+len(src)], src)
	}
	dst := m.overlay.Image()
	draw.Draw(dst, r, m.base, r.Min, draw.Src)
	draw.DrawMask(dst, r, m.highlight, image.Point{}, m.alpha, r.Min, draw.Over)
}

// ExportMask self-heals the mask through ops.Validate and encodes it as a
// lossless 8-bit grayscale PNG at native resolution.
func (m *Manager) ExportMask(ctx context.Context, ops worker.Ops) ([]byte, error) {
	if !m.loaded {
		return nil, ErrNotLoaded
	}
	v, err := ops.Validate(ctx, worker.ValidateRequest{Raster: m.raster()})
	if err != nil {
		return nil, fmt.Errorf("canvas: validate mask: %w", err)
	}
	if err := m.mask.Adopt(v.Data); err != nil {
		return nil, err
	}
	if v.Repaired > 0 {
		m.log.Warn("canvas: repaired mask before export", "bytes", v.Repaired)
		m.Redraw()
	}

	exp, err := ops.Export(ctx, worker.ExportRequest{Raster: m.raster()})
	if err != nil {
		return nil, fmt.Errorf("canvas: export mask: %w", err)
	}
	m.log.Info("canvas: mask exported", "width", m.width, "height", m.height, "bytes", len(exp.PNG))
	return exp.PNG, nil
}

func (m *Manager) raster() worker.Raster {
	return worker.Raster{Width: m.width, Height: m.height, Data: m.mask.Data()}
}

// RenderView draws the overlay into a container-sized RGBA image in screen
// pixels using the given mapping, plus an optional cursor ring.
func (m *Manager) RenderView(ct view.Container, mp view.Mapping, cursor *Ring) (*image.RGBA, error) {
	if !m.loaded {
		return nil, ErrNotLoaded
	}
	r := ct.Ratio()
	w := int(math.Ceil(ct.Width * r))
	h := int(math.Ceil(ct.Height * r))
	if w <= 0 || h <= 0 {
		return nil, view.ErrEmptyContainer
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	p0 := mp.ImageToScreen(view.Pt(0, 0))
	p1 := mp.ImageToScreen(view.Pt(float64(m.width), float64(m.height)))
	dr := image.Rect(
		int(math.Round(p0.X)), int(math.Round(p0.Y)),
		int(math.Round(p1.X)), int(math.Round(p1.Y)))
	if !dr.Empty() {
		draw.NearestNeighbor.Scale(dst, dr, m.overlay.Image(), m.Bounds(), draw.Src, nil)
	}

	if cursor != nil && cursor.Radius > 0 {
		dc := gg.NewContextForRGBA(dst)
		dc.DrawCircle(cursor.X, cursor.Y, cursor.Radius)
		if cursor.Dashed {
			dc.SetDash(4, 3)
		}
		dc.SetLineWidth(1.5)
		dc.SetRGBA(1, 1, 1, 0.9)
		dc.Stroke()
	}
	return dst, nil
}

// Close releases the surfaces.
func (m *Manager) Close() {
	m.loaded = false
	m.base = nil
	m.alpha = nil
	m.mask = nil
	m.overlay = nil
}
