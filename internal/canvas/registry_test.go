// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package canvas

import (
	"errors"
	"image"
	"testing"

	"golang.org/x/image/draw"
)

type fakeSurface struct {
	name string
	img  *image.RGBA
}

func (s *fakeSurface) Backend() string   { return s.name }
func (s *fakeSurface) Image() draw.Image { return s.img }
func (s *fakeSurface) Bytes() int        { return len(s.img.Pix) }

func fakeFactory(name string) Factory {
	return func(w, h int) (Surface, error) {
		return &fakeSurface{name: name, img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("test", 50, fakeFactory("test"), nil)

	e, ok := r.Get("test")
	if !ok {
		t.Fatal("registered backend not found")
	}
	if e.Name != "test" || e.Priority != 50 {
		t.Errorf("entry = %+v", e)
	}
	if !e.Available() {
		t.Error("backend should be available (nil Available func)")
	}

	r.Unregister("test")
	if _, ok := r.Get("test"); ok {
		t.Error("backend should not exist after unregister")
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("low", 10, fakeFactory("low"), nil)
	r.Register("high", 100, fakeFactory("high"), nil)
	r.Register("mid", 50, fakeFactory("mid"), nil)
	r.Register("off", 200, fakeFactory("off"), func() bool { return false })

	list := r.List()
	want := []string{"off", "high", "mid", "low"}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("List = %v, want %v", list, want)
		}
	}
	if avail := r.Available(); len(avail) != 3 || avail[0] != "high" {
		t.Errorf("Available = %v", avail)
	}

	s, err := r.NewSurface(4, 4)
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	if s.Backend() != "high" {
		t.Errorf("backend = %q, want high", s.Backend())
	}
}

func TestRegistryFallsThroughFailures(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Register("broken", 100, func(int, int) (Surface, error) { return nil, boom }, nil)
	r.Register("works", 1, fakeFactory("works"), nil)

	s, err := r.NewSurface(2, 2)
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	if s.Backend() != "works" {
		t.Errorf("backend = %q", s.Backend())
	}

	r.Unregister("works")
	if _, err := r.NewSurface(2, 2); !errors.Is(err, ErrSurfaceUnavailable) || !errors.Is(err, boom) {
		t.Errorf("err = %v, want ErrSurfaceUnavailable wrapping boom", err)
	}
}

func TestRegistryNamedErrors(t *testing.T) {
	r := NewRegistry()
	r.Register("off", 1, fakeFactory("off"), func() bool { return false })

	var nf *UnknownSurfaceError
	if _, err := r.NewSurfaceByName("nope", 1, 1); !errors.As(err, &nf) {
		t.Errorf("err = %v, want UnknownSurfaceError", err)
	}
	var un *SurfaceOfflineError
	if _, err := r.NewSurfaceByName("off", 1, 1); !errors.As(err, &un) {
		t.Errorf("err = %v, want SurfaceOfflineError", err)
	}
	if _, err := NewRegistry().NewSurface(1, 1); !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("empty registry err = %v", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(0)
	if list := r.List(); len(list) != 2 || list[0] != "rgba" || list[1] != "gray" {
		t.Errorf("List = %v", list)
	}
	if _, err := r.NewSurfaceByName("rgba", 0, 5); err == nil {
		t.Error("expected error for empty surface")
	}
}
