// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package maskcanvas is a headless engine for painting inpainting masks.
//
// # Overview
//
// An Editor loads one image and lets the user paint a strictly binary mask
// over it with a round brush, under zoom and pan, with undo and redo. The
// mask always has the image's native size and every pixel is 0 or 255. It
// is exported as a lossless 8-bit grayscale PNG.
//
// The host owns the window. It feeds pointer, wheel and frame events into
// the Editor and presents the images it gets back.
//
// # Quick Start
//
//	ct := maskcanvas.Container{Width: 800, Height: 600, DPR: 2}
//	ed, err := maskcanvas.New(maskcanvas.FileSource("photo.jpg"), ct,
//	    func(png []byte) { upload(png) },
//	    func() { closeDialog() },
//	)
//	if err != nil {
//	    return err
//	}
//	defer ed.Close()
//
//	if err := ed.Open(ctx); err != nil {
//	    return err // ErrImageLoadFailed can be retried
//	}
//	ed.Show()
//
//	// From the host's event loop:
//	ed.PointerDown(ev)
//	ed.PointerMove(ev)
//	ed.PointerUp(ev)
//	if ed.Frame(now) {
//	    view, _ := ed.RenderView()
//	    present(view)
//	}
//
// # Coordinate Spaces
//
// Screen coordinates are physical pixels relative to the container's outer
// box. View coordinates are CSS pixels inside the container's border. Image
// coordinates are mask pixels. The image is letterboxed into the view with
// a contain fit, and the user's zoom and pan apply on top of that:
//
//	screen = DPR * (border + T + S * (offset + fit * image))
//
// # Gestures
//
// Two pointers pinch-zoom. With pan mode on, or with the middle button, a
// single-pointer drag pans once it leaves a small dead zone. A wheel event
// with the zoom modifier zooms around the pointer and without it pans.
// No stroke starts while a gesture is active, and a stroke in flight ends
// when a pinch begins.
//
// # Frames
//
// Stroke samples are queued per event and applied once per Frame, in one
// batch, through the worker pool. Only the merged dirty rectangles of the
// overlay are recomposed. Painting through frames gives exactly the bytes
// that replaying the finished stroke gives, so undo is deterministic.
//
// # History
//
// Every stroke, Clear and Invert is a command in a log. Sparse tile
// checkpoints are taken every few commands; Undo restores the nearest
// checkpoint and replays the rest. When checkpoints outgrow their memory
// cap the oldest are dropped together with the commands below them.
//
// # Logging
//
// maskcanvas is silent by default. See SetLogger and WithLogger.
package maskcanvas

// Version information.
const (
	// Version is the current version of the module.
	Version = "0.1.0"

	// VersionMajor is the major version.
	VersionMajor = 0

	// VersionMinor is the minor version.
	VersionMinor = 1

	// VersionPatch is the patch version.
	VersionPatch = 0
)
