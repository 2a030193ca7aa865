// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package brush

import (
	"bytes"
	"errors"
	"image"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/gogpu/maskcanvas/internal/mask"
)

func newData(w, h int) []uint8 {
	return make([]uint8, w*h)
}

// =============================================================================
// Stamp
// =============================================================================

func TestStampScenario800x600(t *testing.T) {
	const w, h = 800, 600
	data := newData(w, h)

	dirty := Stamp(data, w, h, image.Pt(400, 300), 40, Paint)
	want := image.Rect(380, 280, 420, 320)
	if dirty != want {
		t.Errorf("dirty = %v, want %v", dirty, want)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Pixel centers within radius 20 of (400,300).
			fx := float64(x) + 0.5 - 400
			fy := float64(y) + 0.5 - 300
			inside := fx*fx+fy*fy <= 400
			got := data[y*w+x]
			if inside && got != mask.On {
				t.Fatalf("pixel (%d,%d) inside the disk is %d", x, y, got)
			}
			if !inside && got != mask.Off {
				t.Fatalf("pixel (%d,%d) outside the disk is %d", x, y, got)
			}
		}
	}
}

func TestStampRectSize(t *testing.T) {
	for d := MinDiameter; d <= MaxDiameter; d++ {
		r := StampRect(image.Pt(500, 500), d)
		if r.Dx() != d || r.Dy() != d {
			t.Fatalf("diameter %d: rect %v is not %dx%d", d, r, d, d)
		}
	}
}

func TestStampSmallDiameters(t *testing.T) {
	tests := []struct {
		name     string
		diameter int
		wantOn   int
	}{
		{"single pixel", 1, 1},
		{"two pixels", 2, 4},
		{"three pixels", 3, 9},
		{"four pixels", 4, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newData(16, 16)
			Stamp(data, 16, 16, image.Pt(8, 8), tt.diameter, Paint)
			b, _ := mask.FromBytes(16, 16, data)
			if got := b.CountOn(); got != tt.wantOn {
				t.Errorf("diameter %d: %d pixels on, want %d", tt.diameter, got, tt.wantOn)
			}
		})
	}
}

func TestStampClampedToBounds(t *testing.T) {
	data := newData(50, 50)
	dirty := Stamp(data, 50, 50, image.Pt(0, 0), 20, Paint)
	if dirty != image.Rect(0, 0, 10, 10) {
		t.Errorf("dirty = %v, want (0,0)-(10,10)", dirty)
	}

	dirty = Stamp(data, 50, 50, image.Pt(-100, -100), 20, Paint)
	if !dirty.Empty() {
		t.Errorf("stamp fully outside should return an empty rect, got %v", dirty)
	}
}

func TestStampDiameterClamp(t *testing.T) {
	if ClampDiameter(0) != MinDiameter || ClampDiameter(1000) != MaxDiameter || ClampDiameter(42) != 42 {
		t.Error("ClampDiameter out of range")
	}
}

// =============================================================================
// Strokes
// =============================================================================

func TestApplyPathNoGaps(t *testing.T) {
	const w, h = 400, 100
	data := newData(w, h)

	// Two samples far apart, as a fast flick would produce.
	ApplyPath(data, w, h, []Point{Pt(10, 50), Pt(390, 50)}, 10, Paint)

	for x := 10; x < 390; x++ {
		if data[50*w+x] != mask.On {
			t.Fatalf("gap at x=%d along the stroke", x)
		}
	}
}

func TestStampCentersSpacing(t *testing.T) {
	centers := StampCenters([]Point{Pt(0, 0), Pt(100, 0)}, 20)
	// Spacing is 7px: 0, 7, ..., 98, then the tail at 100.
	if len(centers) != 16 {
		t.Fatalf("got %d centers, want 16: %v", len(centers), centers)
	}
	if centers[0] != image.Pt(0, 0) || centers[1] != image.Pt(7, 0) {
		t.Errorf("unexpected leading centers %v", centers[:2])
	}
	if centers[len(centers)-1] != image.Pt(100, 0) {
		t.Errorf("last center = %v, want (100,0)", centers[len(centers)-1])
	}
}

func TestApplyPathDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	path := make([]Point, 64)
	for i := range path {
		path[i] = Pt(rng.Float64()*300, rng.Float64()*200)
	}

	a := newData(300, 200)
	b := newData(300, 200)
	ra := ApplyPath(a, 300, 200, path, 17, Paint)
	rb := ApplyPath(b, 300, 200, path, 17, Paint)
	if !bytes.Equal(a, b) || ra != rb {
		t.Error("identical inputs produced different output")
	}
}

func TestStrokerChunkingMatchesWholePath(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	path := make([]Point, 200)
	x, y := 150.0, 100.0
	for i := range path {
		x += rng.Float64()*12 - 6
		y += rng.Float64()*12 - 6
		path[i] = Pt(x, y)
	}

	for _, diameter := range []int{1, 2, 5, 16, 33, 120} {
		whole := newData(300, 200)
		wantDirty := ApplyPath(whole, 300, 200, path, diameter, Paint)

		for _, chunk := range []int{1, 2, 3, 7, 50} {
			got := newData(300, 200)
			s := NewStroker(diameter, Paint)
			var dirty image.Rectangle
			for i := 0; i < len(path); i += chunk {
				end := min(i+chunk, len(path))
				// Round-trip the state as a background call would.
				s = ResumeStroker(s.State, diameter, Paint)
				dirty = dirty.Union(s.Extend(got, 300, 200, path[i:end]))
			}
			dirty = dirty.Union(s.Finish(got, 300, 200))

			if !bytes.Equal(whole, got) {
				t.Errorf("diameter %d chunk %d: chunked output differs", diameter, chunk)
			}
			if dirty != wantDirty {
				t.Errorf("diameter %d chunk %d: dirty %v, want %v", diameter, chunk, dirty, wantDirty)
			}
		}
	}
}

func TestStrokerSkipsNonFiniteSamples(t *testing.T) {
	inf, nan := math.Inf(1), math.NaN()
	tests := []struct {
		name string
		path []Point
	}{
		{"infinite x", []Point{Pt(10, 10), Pt(inf, 10), Pt(40, 20)}},
		{"infinite first", []Point{Pt(-inf, 0), Pt(10, 10), Pt(40, 20)}},
		{"nan y", []Point{Pt(10, 10), Pt(20, nan), Pt(40, 20)}},
		{"only nan", []Point{Pt(nan, nan)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var clean []Point
			for _, p := range tt.path {
				if !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) {
					clean = append(clean, p)
				}
			}
			want := newData(64, 32)
			ApplyPath(want, 64, 32, clean, 5, Paint)

			got := newData(64, 32)
			s := NewStroker(5, Paint)
			s.Extend(got, 64, 32, tt.path)
			s.Finish(got, 64, 32)
			if !bytes.Equal(got, want) {
				t.Error("non-finite samples changed the stroke")
			}
		})
	}
}

func TestDirtyRectSound(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	const w, h = 256, 256
	data := newData(w, h)

	for stroke := 0; stroke < 50; stroke++ {
		path := make([]Point, 1+rng.IntN(8))
		for i := range path {
			path[i] = Pt(rng.Float64()*320-32, rng.Float64()*320-32)
		}
		mode := Paint
		if stroke%3 == 2 {
			mode = Erase
		}
		before := append([]uint8(nil), data...)
		dirty := ApplyPath(data, w, h, path, 1+rng.IntN(60), mode)

		if !dirty.In(image.Rect(0, 0, w, h)) && !dirty.Empty() {
			t.Fatalf("dirty %v exceeds buffer bounds", dirty)
		}
		for i := range data {
			if data[i] != before[i] && !image.Pt(i%w, i/w).In(dirty) {
				t.Fatalf("stroke %d changed (%d,%d) outside dirty %v", stroke, i%w, i/w, dirty)
			}
		}
		if !mask.IsBinary(data) {
			t.Fatalf("stroke %d broke the binary invariant", stroke)
		}
	}
}

func TestEraseCoversEarlierPaint(t *testing.T) {
	const w, h = 200, 200
	data := newData(w, h)
	path := []Point{Pt(50, 50), Pt(150, 120)}
	ApplyPath(data, w, h, path, 30, Paint)
	ApplyPath(data, w, h, path, 30, Erase)

	for i, v := range data {
		if v != mask.Off {
			t.Fatalf("pixel (%d,%d) still on after a fully overlapping erase", i%w, i/w)
		}
	}

	ApplyPath(data, w, h, path, 30, Paint)
	ApplyPath(data, w, h, path, 44, Erase)
	for i, v := range data {
		if v != mask.Off {
			t.Fatalf("pixel (%d,%d) still on after a wider erase", i%w, i/w)
		}
	}
}

func TestEmptyPath(t *testing.T) {
	data := newData(10, 10)
	if r := ApplyPath(data, 10, 10, nil, 5, Paint); !r.Empty() {
		t.Errorf("empty path should not dirty anything, got %v", r)
	}
}

// =============================================================================
// Mode
// =============================================================================

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		err  bool
	}{
		{"paint", Paint, false},
		{"ERASE", Erase, false},
		{" erase ", Erase, false},
		{"blur", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.err {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q) err = %v, want ErrUnknownMode", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestModeText(t *testing.T) {
	var m Mode
	if err := m.UnmarshalText([]byte("erase")); err != nil || m != Erase {
		t.Errorf("UnmarshalText: %v, %v", m, err)
	}
	b, err := Paint.MarshalText()
	if err != nil || string(b) != "paint" {
		t.Errorf("MarshalText = %q, %v", b, err)
	}
}
