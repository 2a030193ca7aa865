// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package brush rasterizes hard-edged disk stamps and strokes into a binary
// mask.
//
// Everything here is a pure function of its inputs: the same path, diameter,
// mode and buffer size always produce the same bytes. History replay depends
// on that, so the package uses integer arithmetic for coverage and a fixed
// rounding rule for stamp centers.
//
// Coverage: a stamp of diameter d centered at integer pixel c covers pixel
// (x, y) when the pixel center lies inside the disk of radius d/2. Odd
// diameters are centered on the pixel center, even ones on its top-left
// corner, so the covered bounding box is always exactly d by d.
package brush

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/gogpu/maskcanvas/internal/mask"
)

// Diameter limits in image pixels.
const (
	MinDiameter = 1
	MaxDiameter = 200
)

// SpacingFactor is the stamp spacing along a stroke, as a fraction of the
// diameter.
const SpacingFactor = 0.35

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("brush: unknown mode")

// Mode selects whether stamps write On or Off.
type Mode uint8

const (
	// Paint sets covered pixels to mask.On.
	Paint Mode = iota

	// Erase sets covered pixels to mask.Off.
	Erase
)

// String returns "paint" or "erase".
func (m Mode) String() string {
	switch m {
	case Paint:
		return "paint"
	case Erase:
		return "erase"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses "paint" or "erase" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paint":
		return Paint, nil
	case "erase":
		return Erase, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != Paint && m != Erase {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value returns the byte written by the mode.
func (m Mode) Value() uint8 {
	if m == Erase {
		return mask.Off
	}
	return mask.On
}

// Point is an image-space sample. Coordinates are fractional; stamps round
// them to pixels.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Round returns the integer pixel a stamp at p is centered on.
// Halves round away from zero.
func (p Point) Round() image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// ClampDiameter limits d to [MinDiameter, MaxDiameter].
func ClampDiameter(d int) int {
	return min(max(d, MinDiameter), MaxDiameter)
}

// Spacing returns the arc-length distance between stamp centers for the
// given diameter. It is never below one pixel.
func Spacing(diameter int) float64 {
	return math.Max(1, SpacingFactor*float64(diameter))
}

// StampRect returns the unclamped bounding box of a stamp.
func StampRect(center image.Point, diameter int) image.Rectangle {
	d := ClampDiameter(diameter)
	lo := d / 2
	return image.Rect(center.X-lo, center.Y-lo, center.X-lo+d, center.Y-lo+d)
}

// Stamp fills one disk into data (a w*h mask) and returns the affected
// rectangle clamped to the buffer. An empty rectangle means nothing inside
// the buffer was touched.
func Stamp(data []uint8, w, h int, center image.Point, diameter int, mode Mode) image.Rectangle {
	d := ClampDiameter(diameter)
	clip := StampRect(center, d).Intersect(image.Rect(0, 0, w, h))
	if clip.Empty() {
		return image.Rectangle{}
	}

	odd := d & 1
	twoFx := 2*center.X + odd
	twoFy := 2*center.Y + odd
	d2 := d * d
	v := mode.Value()

	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		dy := 2*y + 1 - twoFy
		dy2 := dy * dy
		row := data[y*w : (y+1)*w]
		for x := clip.Min.X; x < clip.Max.X; x++ {
			dx := 2*x + 1 - twoFx
			if dx*dx+dy2 <= d2 {
				row[x] = v
			}
		}
	}
	return clip
}

// ApplyPath rasterizes a whole stroke and returns the union of the stamp
// rectangles, clamped to the buffer.
func ApplyPath(data []uint8, w, h int, path []Point, diameter int, mode Mode) image.Rectangle {
	s := NewStroker(diameter, mode)
	r := s.Extend(data, w, h, path)
	return r.Union(s.Finish(data, w, h))
}

// StampCenters returns the rounded stamp centers ApplyPath would use.
func StampCenters(path []Point, diameter int) []image.Point {
	var out []image.Point
	s := NewStroker(diameter, Paint)
	s.walk(path, func(c image.Point) { out = append(out, c) })
	s.finish(func(c image.Point) { out = append(out, c) })
	return out
}
