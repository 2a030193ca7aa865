// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mask

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	b, err := New(100, 50)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Width() != 100 || b.Height() != 50 {
		t.Errorf("expected 100x50, got %dx%d", b.Width(), b.Height())
	}
	if len(b.Data()) != 5000 {
		t.Errorf("expected 5000 bytes, got %d", len(b.Data()))
	}
	if b.CountOn() != 0 {
		t.Errorf("new buffer should be empty, got %d on", b.CountOn())
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.w, tt.h); !errors.Is(err, ErrInvalidSize) {
				t.Errorf("New(%d, %d) err = %v, want ErrInvalidSize", tt.w, tt.h, err)
			}
		})
	}
}

func TestFromBytesLength(t *testing.T) {
	if _, err := FromBytes(4, 4, make([]uint8, 15)); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
	b, err := FromBytes(4, 4, make([]uint8, 16))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if b.Bounds().Dx() != 4 || b.Bounds().Dy() != 4 {
		t.Errorf("unexpected bounds %v", b.Bounds())
	}
}

func TestSetAt(t *testing.T) {
	b, _ := New(10, 10)
	b.Set(3, 4, true)
	if b.At(3, 4) != On {
		t.Errorf("expected On at (3,4), got %d", b.At(3, 4))
	}
	b.Set(3, 4, false)
	if b.At(3, 4) != Off {
		t.Errorf("expected Off at (3,4), got %d", b.At(3, 4))
	}

	// Out of bounds is ignored and reads Off.
	b.Set(-1, 0, true)
	b.Set(10, 0, true)
	if b.At(-1, 0) != Off || b.At(0, 10) != Off {
		t.Error("out of bounds should read Off")
	}
}

func TestInvertClear(t *testing.T) {
	b, _ := New(8, 8)
	b.Set(1, 1, true)
	b.Invert()
	if b.At(1, 1) != Off || b.At(0, 0) != On {
		t.Error("invert did not flip values")
	}
	if b.CountOn() != 63 {
		t.Errorf("expected 63 on after invert, got %d", b.CountOn())
	}
	if err := b.Validate(); err != nil {
		t.Errorf("invert broke the binary invariant: %v", err)
	}
	b.Clear()
	if b.CountOn() != 0 {
		t.Error("clear left bytes on")
	}
}

func TestCloneIndependent(t *testing.T) {
	b, _ := New(4, 4)
	b.Set(0, 0, true)
	c := b.Clone()
	b.Clear()
	if c.At(0, 0) != On {
		t.Error("clone should not be affected by the original")
	}
	if b.Equal(c) {
		t.Error("buffers should differ")
	}
	if err := b.CopyFrom(c); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if !b.Equal(c) {
		t.Error("buffers should be equal after CopyFrom")
	}
}

func TestAdopt(t *testing.T) {
	b, _ := New(2, 2)
	data := []uint8{On, Off, Off, On}
	if err := b.Adopt(data); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if b.At(1, 1) != On {
		t.Error("adopted data not visible")
	}
	if err := b.Adopt(make([]uint8, 3)); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestValidateAndRepair(t *testing.T) {
	data := []uint8{0, 255, 1, 127, 128, 254}
	b, _ := FromBytes(6, 1, data)
	if err := b.Validate(); !errors.Is(err, ErrNotBinary) {
		t.Fatalf("expected ErrNotBinary, got %v", err)
	}
	if IsBinary(data) {
		t.Error("IsBinary should be false")
	}

	n := Repair(data)
	if n != 4 {
		t.Errorf("expected 4 repaired bytes, got %d", n)
	}
	want := []uint8{0, 255, 0, 0, 255, 255}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("byte %d = %d, want %d", i, data[i], want[i])
		}
	}
	if err := b.Validate(); err != nil {
		t.Errorf("repaired buffer should validate: %v", err)
	}
}
