// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package maskcanvas

import (
	"errors"

	"github.com/gogpu/maskcanvas/internal/canvas"
	"github.com/gogpu/maskcanvas/internal/worker"
)

// Editor errors. Match them with errors.Is.
var (
	// ErrImageLoadFailed is returned by Open when the source cannot be read
	// or decoded. The editor stays usable: call Open again or Cancel.
	ErrImageLoadFailed = canvas.ErrImageLoadFailed

	// ErrSurfaceUnavailable is returned by Open when no surface backend
	// could hold the image. It is fatal for the editor.
	ErrSurfaceUnavailable = canvas.ErrSurfaceUnavailable

	// ErrNotLoaded is returned by operations that need an open image.
	ErrNotLoaded = canvas.ErrNotLoaded

	// ErrClosed is returned after Close, and for background calls that
	// were pending when Close ran.
	ErrClosed = worker.ErrClosed

	// ErrUnusable is returned by every operation after a fatal error.
	ErrUnusable = errors.New("maskcanvas: editor unusable after fatal error")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("maskcanvas: invalid config")
)
