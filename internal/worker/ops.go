// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package worker

import (
	"context"
	"fmt"
	"image"

	"github.com/gogpu/maskcanvas/internal/brush"
	"github.com/gogpu/maskcanvas/internal/mask"
	"github.com/gogpu/maskcanvas/internal/maskio"
	"github.com/gogpu/maskcanvas/internal/tiles"
)

// Ops is the set of offloadable operations. Local runs them on the calling
// goroutine; Manager runs them on its pool and falls back to Local per call.
//
// Every request that carries Data hands ownership of that slice to the
// callee. Results that carry Data hand ownership back to the caller.
type Ops interface {
	// Stamp applies a single stamp.
	Stamp(ctx context.Context, req StampRequest) (PathResult, error)

	// ApplyPath rasterizes a whole stroke.
	ApplyPath(ctx context.Context, req PathRequest) (PathResult, error)

	// ApplySegment continues a stroke from a saved Stroker state.
	ApplySegment(ctx context.Context, req SegmentRequest) (SegmentResult, error)

	// Checkpoint captures a sparse tile snapshot.
	Checkpoint(ctx context.Context, req CheckpointRequest) (CheckpointResult, error)

	// Export validates and encodes the mask as PNG.
	Export(ctx context.Context, req ExportRequest) (ExportResult, error)

	// Validate repairs any non-binary byte.
	Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error)
}

// Raster describes a mask buffer carried by a request or result.
type Raster struct {
	Width  int
	Height int
	Data   []uint8
}

func (r Raster) check() error {
	if r.Width <= 0 || r.Height <= 0 || len(r.Data) != r.Width*r.Height {
		return fmt.Errorf("%w: %dx%d with %d bytes", mask.ErrInvalidSize, r.Width, r.Height, len(r.Data))
	}
	return nil
}

func (r Raster) clone() Raster {
	r.Data = append([]uint8(nil), r.Data...)
	return r
}

// StampRequest applies one stamp at Center.
type StampRequest struct {
	Raster
	Center   image.Point
	Diameter int
	Mode     brush.Mode
}

// PathRequest applies a whole stroke.
type PathRequest struct {
	Raster
	Points   []brush.Point
	Diameter int
	Mode     brush.Mode
}

// PathResult is the mutated buffer plus the clamped dirty rectangle.
type PathResult struct {
	Raster
	Dirty image.Rectangle
}

// SegmentRequest extends a stroke with new samples. Finish stamps the tail.
type SegmentRequest struct {
	Raster
	State    brush.State
	Points   []brush.Point
	Diameter int
	Mode     brush.Mode
	Finish   bool
}

// SegmentResult carries the mutated buffer and the updated Stroker state.
type SegmentResult struct {
	Raster
	Dirty image.Rectangle
	State brush.State
}

// CheckpointRequest captures Data in tiles of TileSize.
type CheckpointRequest struct {
	Raster
	TileSize int
}

// CheckpointResult holds the captured snapshot.
type CheckpointResult struct {
	Snapshot *tiles.Snapshot
}

// ExportRequest encodes Data.
type ExportRequest struct {
	Raster
}

// ExportResult holds PNG bytes and how many bytes had to be repaired first.
type ExportResult struct {
	PNG      []byte
	Repaired int
}

// ValidateRequest checks Data for the binary invariant.
type ValidateRequest struct {
	Raster
}

// ValidateResult returns the (possibly repaired) buffer.
type ValidateResult struct {
	Raster
	Repaired int
}

// Local is the synchronous twin of Manager. It mutates request buffers in
// place and returns them.
type Local struct{}

var _ Ops = Local{}

// Stamp implements Ops.
func (Local) Stamp(_ context.Context, req StampRequest) (PathResult, error) {
	if err := req.check(); err != nil {
		return PathResult{}, err
	}
	dirty := brush.Stamp(req.Data, req.Width, req.Height, req.Center, req.Diameter, req.Mode)
	return PathResult{Raster: req.Raster, Dirty: dirty}, nil
}

// ApplyPath implements Ops.
func (Local) ApplyPath(_ context.Context, req PathRequest) (PathResult, error) {
	if err := req.check(); err != nil {
		return PathResult{}, err
	}
	dirty := brush.ApplyPath(req.Data, req.Width, req.Height, req.Points, req.Diameter, req.Mode)
	return PathResult{Raster: req.Raster, Dirty: dirty}, nil
}

// ApplySegment implements Ops.
func (Local) ApplySegment(_ context.Context, req SegmentRequest) (SegmentResult, error) {
	if err := req.check(); err != nil {
		return SegmentResult{}, err
	}
	s := brush.ResumeStroker(req.State, req.Diameter, req.Mode)
	dirty := s.Extend(req.Data, req.Width, req.Height, req.Points)
	if req.Finish {
		dirty = dirty.Union(s.Finish(req.Data, req.Width, req.Height))
	}
	return SegmentResult{Raster: req.Raster, Dirty: dirty, State: s.State}, nil
}

// Checkpoint implements Ops.
func (Local) Checkpoint(ctx context.Context, req CheckpointRequest) (CheckpointResult, error) {
	if err := req.check(); err != nil {
		return CheckpointResult{}, err
	}
	s, err := tiles.Capture(ctx, req.Data, req.Width, req.Height, req.TileSize)
	if err != nil {
		return CheckpointResult{}, err
	}
	return CheckpointResult{Snapshot: s}, nil
}

// Export implements Ops.
func (Local) Export(_ context.Context, req ExportRequest) (ExportResult, error) {
	if err := req.check(); err != nil {
		return ExportResult{}, err
	}
	repaired := mask.Repair(req.Data)
	png, err := maskio.EncodeMaskBytes(req.Data, req.Width, req.Height)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{PNG: png, Repaired: repaired}, nil
}

// Validate implements Ops.
func (Local) Validate(_ context.Context, req ValidateRequest) (ValidateResult, error) {
	if err := req.check(); err != nil {
		return ValidateResult{}, err
	}
	n := mask.Repair(req.Data)
	return ValidateResult{Raster: req.Raster, Repaired: n}, nil
}
