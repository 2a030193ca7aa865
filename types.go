// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package maskcanvas

import (
	"github.com/gogpu/maskcanvas/internal/brush"
	"github.com/gogpu/maskcanvas/internal/canvas"
	"github.com/gogpu/maskcanvas/internal/history"
	"github.com/gogpu/maskcanvas/internal/input"
	"github.com/gogpu/maskcanvas/internal/view"
)

// Image sources.
type (
	// ImageSource provides the encoded image to edit.
	ImageSource = canvas.Source

	// FileSource reads the image from a path.
	FileSource = canvas.FileSource

	// BytesSource reads the image from memory.
	BytesSource = canvas.BytesSource

	// ReaderSource adapts a function to ImageSource.
	ReaderSource = canvas.ReaderSource
)

// Geometry.
type (
	// Container describes the host element: its CSS size, device pixel
	// ratio and border insets.
	Container = view.Container

	// Insets are border widths in CSS pixels.
	Insets = view.Insets

	// Point is a 2D point. Screen points are physical pixels relative to
	// the container's outer box; image points are mask pixels.
	Point = view.Point

	// Layout is the contain-fit placement of the image in the container.
	Layout = view.Layout

	// Transform is the user zoom and pan.
	Transform = view.Transform

	// GestureState is the zoom/pan gesture state.
	GestureState = view.State
)

// Gesture states.
const (
	Idle         = view.Idle
	Panning      = view.Panning
	Pinching     = view.Pinching
	WheelZooming = view.WheelZooming
)

// Input.
type (
	// PointerEvent is a platform pointer event in screen coordinates.
	PointerEvent = input.PointerEvent

	// PointerKind is the pointer device type.
	PointerKind = input.Kind

	// Button identifies a pointer button.
	Button = input.Button

	// PointerResult tells the host whether a pointer-down was captured and
	// whether to suppress native gestures for it.
	PointerResult = input.Result

	// WheelEvent is a wheel or trackpad scroll.
	WheelEvent = view.WheelEvent

	// Modifiers is a set of keyboard modifiers.
	Modifiers = view.Modifiers
)

// Pointer kinds.
const (
	Mouse = input.Mouse
	Pen   = input.Pen
	Touch = input.Touch
)

// Pointer buttons.
const (
	ButtonPrimary   = input.ButtonPrimary
	ButtonMiddle    = input.ButtonMiddle
	ButtonSecondary = input.ButtonSecondary
)

// Modifier keys.
const (
	ModShift = view.ModShift
	ModCtrl  = view.ModCtrl
	ModAlt   = view.ModAlt
	ModMeta  = view.ModMeta
)

// BrushMode selects painting or erasing.
type BrushMode = brush.Mode

// Brush modes.
const (
	Paint = brush.Paint
	Erase = brush.Erase
)

// Surfaces.
type (
	// Surface is a composited raster backend.
	Surface = canvas.Surface

	// SurfaceFactory creates a surface of the given size.
	SurfaceFactory = canvas.Factory

	// SurfaceRegistry selects the overlay surface backend by priority.
	SurfaceRegistry = canvas.Registry
)

// NewSurfaceRegistry returns an empty registry.
func NewSurfaceRegistry() *SurfaceRegistry { return canvas.NewRegistry() }

// DefaultSurfaceRegistry returns the built-in "rgba" and "gray" backends
// limited to maxBytes per surface. Zero means no practical limit.
func DefaultSurfaceRegistry(maxBytes int) *SurfaceRegistry { return canvas.DefaultRegistry(maxBytes) }

// PruneEvent reports checkpoints dropped to stay under the history memory
// cap.
type PruneEvent = history.PruneEvent
