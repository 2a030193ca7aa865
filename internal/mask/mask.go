// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package mask provides the binary edit-mask raster shared by every
// component of the canvas engine.
//
// A Buffer holds one byte per image pixel. Every byte is either Off (0,
// leave unchanged) or On (255, edit here). Mutating code may write only
// those two values; Validate and Repair exist for buffers that come back
// from outside the owning goroutine.
package mask

import (
	"errors"
	"fmt"
	"image"
)

// Mask values.
const (
	Off uint8 = 0
	On  uint8 = 255
)

// Buffer errors.
var (
	// ErrInvalidSize is returned for non-positive dimensions or a data slice
	// whose length does not match width*height.
	ErrInvalidSize = errors.New("mask: invalid size")

	// ErrNotBinary is returned by Validate when a byte is neither Off nor On.
	ErrNotBinary = errors.New("mask: buffer is not binary")
)

// Buffer is a width*height binary mask stored row-major.
//
// Buffer is not safe for concurrent use.
type Buffer struct {
	width  int
	height int
	data   []uint8
}

// New creates a zero-filled (all Off) buffer.
func New(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Buffer{
		width:  width,
		height: height,
		data:   make([]uint8, width*height),
	}, nil
}

// FromBytes wraps data as a buffer without copying.
// The caller hands ownership of data to the returned Buffer.
func FromBytes(width, height int, data []uint8) (*Buffer, error) {
	if width <= 0 || height <= 0 || len(data) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrInvalidSize, width, height, len(data))
	}
	return &Buffer{width: width, height: height, data: data}, nil
}

// Width returns the buffer width.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height.
func (b *Buffer) Height() int { return b.height }

// Bounds returns the buffer dimensions as an image.Rectangle.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// Data returns the underlying byte slice.
// Writers must keep every byte Off or On.
func (b *Buffer) Data() []uint8 {
	return b.data
}

// At returns the value at (x, y), or Off outside the bounds.
func (b *Buffer) At(x, y int) uint8 {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return Off
	}
	return b.data[y*b.width+x]
}

// Set writes On when on is true and Off otherwise.
// Coordinates outside the bounds are ignored.
func (b *Buffer) Set(x, y int, on bool) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	if on {
		b.data[y*b.width+x] = On
	} else {
		b.data[y*b.width+x] = Off
	}
}

// Clear sets every byte to Off.
func (b *Buffer) Clear() {
	clear(b.data)
}

// Invert flips every byte between Off and On.
func (b *Buffer) Invert() {
	for i, v := range b.data {
		b.data[i] = On - v
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{width: b.width, height: b.height, data: make([]uint8, len(b.data))}
	copy(c.data, b.data)
	return c
}

// CloneData returns a copy of the underlying bytes.
func (b *Buffer) CloneData() []uint8 {
	out := make([]uint8, len(b.data))
	copy(out, b.data)
	return out
}

// Adopt replaces the buffer contents with data, taking ownership of the
// slice. It is the receiving end of a transfer from a background worker.
func (b *Buffer) Adopt(data []uint8) error {
	if len(data) != len(b.data) {
		return fmt.Errorf("%w: adopt %d bytes into %dx%d", ErrInvalidSize, len(data), b.width, b.height)
	}
	b.data = data
	return nil
}

// CopyFrom copies src into b. Dimensions must match.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if src.width != b.width || src.height != b.height {
		return fmt.Errorf("%w: copy %dx%d into %dx%d", ErrInvalidSize, src.width, src.height, b.width, b.height)
	}
	copy(b.data, src.data)
	return nil
}

// Equal reports whether both buffers have the same size and bytes.
func (b *Buffer) Equal(other *Buffer) bool {
	if other == nil || b.width != other.width || b.height != other.height {
		return false
	}
	for i := range b.data {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// CountOn returns the number of On bytes.
func (b *Buffer) CountOn() int {
	n := 0
	for _, v := range b.data {
		if v != Off {
			n++
		}
	}
	return n
}

// Validate returns ErrNotBinary, annotated with the first offending offset,
// if any byte is neither Off nor On.
func (b *Buffer) Validate() error {
	if i := FirstNonBinary(b.data); i >= 0 {
		return fmt.Errorf("%w: byte %d at offset %d", ErrNotBinary, b.data[i], i)
	}
	return nil
}
