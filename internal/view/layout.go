// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package view maps between screen, view and image coordinates and owns the
// zoom/pan gesture state machine.
//
// The three spaces are:
//
//   - screen: physical pixels relative to the container's outer box;
//   - view: CSS pixels inside the container's border insets;
//   - image: the mask's own pixel grid.
//
// An image point p is shown at view position
//
//	Scale*(Offset + p*Fit) + Translate
//
// where Fit and Offset come from the contain-fit Layout and Scale and
// Translate come from the Transform.
package view

import (
	"errors"
	"fmt"
)

// ErrEmptyContainer is returned when a container has no drawable area.
var ErrEmptyContainer = errors.New("view: container has no drawable area")

// Insets are border widths in CSS pixels.
type Insets struct {
	Left, Top, Right, Bottom float64
}

// Container describes the host element the canvas is displayed in.
type Container struct {
	// Width and Height are the outer box size in CSS pixels.
	Width, Height float64

	// DPR is the device pixel ratio. Zero means 1.
	DPR float64

	// Border is subtracted from the outer box to get the viewport.
	Border Insets
}

// Ratio returns the device pixel ratio, defaulting to 1.
func (c Container) Ratio() float64 {
	if c.DPR <= 0 {
		return 1
	}
	return c.DPR
}

// Viewport returns the size of the drawable area in view pixels.
func (c Container) Viewport() (w, h float64) {
	return c.Width - c.Border.Left - c.Border.Right, c.Height - c.Border.Top - c.Border.Bottom
}

// Validate reports whether the container has a drawable area.
func (c Container) Validate() error {
	w, h := c.Viewport()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %gx%g", ErrEmptyContainer, w, h)
	}
	return nil
}

// screenFromView maps view points to screen points.
func (c Container) screenFromView() Affine {
	r := c.Ratio()
	return Scale(r, r).Multiply(Translate(c.Border.Left, c.Border.Top))
}

// Layout is the contain-fit placement of an image inside a viewport at
// Transform scale 1.
type Layout struct {
	ImageWidth, ImageHeight int

	// Fit is the uniform scale that fits the image inside the viewport.
	Fit float64

	// OffsetX and OffsetY center the fitted image (letterbox).
	OffsetX, OffsetY float64
}

// ContainFit computes the layout of a w*h image inside the container.
func ContainFit(w, h int, c Container) (Layout, error) {
	if w <= 0 || h <= 0 {
		return Layout{}, fmt.Errorf("view: invalid image size %dx%d", w, h)
	}
	if err := c.Validate(); err != nil {
		return Layout{}, err
	}
	vw, vh := c.Viewport()
	fit := min(vw/float64(w), vh/float64(h))
	return Layout{
		ImageWidth:  w,
		ImageHeight: h,
		Fit:         fit,
		OffsetX:     (vw - float64(w)*fit) / 2,
		OffsetY:     (vh - float64(h)*fit) / 2,
	}, nil
}

// contentFromImage maps image points to unzoomed view points.
func (l Layout) contentFromImage() Affine {
	return Translate(l.OffsetX, l.OffsetY).Multiply(Scale(l.Fit, l.Fit))
}

// Transform is the user's zoom and pan on top of the layout.
type Transform struct {
	Scale                  float64
	TranslateX, TranslateY float64
}

// IdentityTransform is the unzoomed, unpanned view.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// Affine returns the view-from-content map.
func (t Transform) Affine() Affine {
	return Translate(t.TranslateX, t.TranslateY).Multiply(Scale(t.Scale, t.Scale))
}

// Mapping converts between the three spaces for a fixed container, layout
// and transform.
type Mapping struct {
	screenFromImage Affine
	imageFromScreen Affine
	viewFromImage   Affine
}

// NewMapping builds the mapping.
func NewMapping(c Container, l Layout, t Transform) Mapping {
	vfi := t.Affine().Multiply(l.contentFromImage())
	sfi := c.screenFromView().Multiply(vfi)
	return Mapping{
		screenFromImage: sfi,
		imageFromScreen: sfi.Invert(),
		viewFromImage:   vfi,
	}
}

// ScreenToImage maps a screen point to image space.
func (m Mapping) ScreenToImage(p Point) Point { return m.imageFromScreen.Apply(p) }

// ImageToScreen maps an image point to screen space.
func (m Mapping) ImageToScreen(p Point) Point { return m.screenFromImage.Apply(p) }

// ImageToView maps an image point to view space.
func (m Mapping) ImageToView(p Point) Point { return m.viewFromImage.Apply(p) }

// PixelScale is the number of screen pixels per image pixel.
func (m Mapping) PixelScale() float64 { return m.screenFromImage.A }

// ViewFromImage returns the image-to-view map, used when rendering.
func (m Mapping) ViewFromImage() Affine { return m.viewFromImage }
