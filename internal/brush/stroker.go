// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package brush

import (
	"image"
	"math"
)

// State is the resumable part of a Stroker. It is a plain value so it can
// travel with a request to a background worker and come back with the
// result.
type State struct {
	// Started is set once the first sample has been stamped.
	Started bool

	// Last is the last input sample seen.
	Last Point

	// Carry is the arc length travelled since the last emitted center.
	Carry float64

	// HasStamp and LastStamp track the last emitted center so consecutive
	// duplicates are skipped.
	HasStamp  bool
	LastStamp image.Point
}

// Stroker walks a stroke incrementally. Feeding a path through Extend in
// any number of chunks and then calling Finish writes exactly the bytes
// ApplyPath writes for the whole path.
type Stroker struct {
	State
	diameter int
	mode     Mode
	spacing  float64
}

// NewStroker starts a new stroke.
func NewStroker(diameter int, mode Mode) *Stroker {
	d := ClampDiameter(diameter)
	return &Stroker{diameter: d, mode: mode, spacing: Spacing(d)}
}

// ResumeStroker continues a stroke from a saved state.
func ResumeStroker(st State, diameter int, mode Mode) *Stroker {
	s := NewStroker(diameter, mode)
	s.State = st
	return s
}

// Diameter returns the clamped brush diameter.
func (s *Stroker) Diameter() int { return s.diameter }

// Mode returns the stroke mode.
func (s *Stroker) Mode() Mode { return s.mode }

// Extend stamps the centers that the samples in pts add to the stroke and
// returns the clamped dirty rectangle.
func (s *Stroker) Extend(data []uint8, w, h int, pts []Point) image.Rectangle {
	var dirty image.Rectangle
	s.walk(pts, func(c image.Point) {
		dirty = dirty.Union(Stamp(data, w, h, c, s.diameter, s.mode))
	})
	return dirty
}

// Finish stamps the final sample if the spacing walk stopped short of it.
func (s *Stroker) Finish(data []uint8, w, h int) image.Rectangle {
	var dirty image.Rectangle
	s.finish(func(c image.Point) {
		dirty = dirty.Union(Stamp(data, w, h, c, s.diameter, s.mode))
	})
	return dirty
}

// walk skips samples with a NaN or infinite coordinate.
func (s *Stroker) walk(pts []Point, emit func(image.Point)) {
	for _, p := range pts {
		if !finite(p) {
			continue
		}
		if !s.Started {
			s.Started = true
			s.Last = p
			s.Carry = 0
			s.emit(p, emit)
			continue
		}

		dx := p.X - s.Last.X
		dy := p.Y - s.Last.Y
		length := math.Hypot(dx, dy)
		if length > 0 {
			ux, uy := dx/length, dy/length
			offset := s.spacing - s.Carry
			for offset <= length {
				s.emit(Point{X: s.Last.X + ux*offset, Y: s.Last.Y + uy*offset}, emit)
				offset += s.spacing
			}
			s.Carry = length - (offset - s.spacing)
		}
		s.Last = p
	}
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (s *Stroker) finish(emit func(image.Point)) {
	if !s.Started {
		return
	}
	if s.HasStamp && s.Last.Round() == s.LastStamp {
		return
	}
	s.emit(s.Last, emit)
}

func (s *Stroker) emit(p Point, emit func(image.Point)) {
	c := p.Round()
	if s.HasStamp && c == s.LastStamp {
		return
	}
	s.HasStamp = true
	s.LastStamp = c
	emit(c)
}
