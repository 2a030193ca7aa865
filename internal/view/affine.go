// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package view

import "math"

// Point is a position in one of the coordinate spaces.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Affine is a 2D affine map without rotation or shear:
//
//	x' = A*x + C
//	y' = E*y + F
//
// Every map between the coordinate spaces has this form, so the
// general 2x3 matrix is not needed.
type Affine struct {
	A, C float64
	E, F float64
}

// Identity returns the identity map.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translate creates a translation.
func Translate(x, y float64) Affine {
	return Affine{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling.
func Scale(x, y float64) Affine {
	return Affine{A: x, E: y}
}

// Multiply returns m * other, the map that applies other first.
func (m Affine) Multiply(other Affine) Affine {
	return Affine{
		A: m.A * other.A,
		C: m.A*other.C + m.C,
		E: m.E * other.E,
		F: m.E*other.F + m.F,
	}
}

// Apply maps p.
func (m Affine) Apply(p Point) Point {
	return Point{X: m.A*p.X + m.C, Y: m.E*p.Y + m.F}
}

// Invert returns the inverse map.
// Returns the identity if the map is degenerate.
func (m Affine) Invert() Affine {
	if math.Abs(m.A) < 1e-12 || math.Abs(m.E) < 1e-12 {
		return Identity()
	}
	return Affine{
		A: 1 / m.A,
		C: -m.C / m.A,
		E: 1 / m.E,
		F: -m.F / m.E,
	}
}
