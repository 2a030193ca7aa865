// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tiles captures sparse tile snapshots of a mask buffer.
//
// The buffer is divided into square tiles (256x256 by default). A Snapshot
// stores only the tiles that contain at least one non-zero byte, so an
// untouched mask costs nothing and a small edit costs one tile. Edge tiles
// are smaller when the buffer is not evenly divisible by the tile size.
//
// Thread safety: Capture may run on any goroutine; a Snapshot is immutable
// once returned.
package tiles

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultSize is the default tile edge length in pixels.
const DefaultSize = 256

// ErrMismatch is returned when restoring into a buffer of a different size.
var ErrMismatch = errors.New("tiles: snapshot does not match buffer")

// Tile is one stored tile. Data is Width*Height bytes, row-major.
type Tile struct {
	// X and Y are the tile column and row.
	X, Y int

	// Width and Height are the actual pixel dimensions (smaller for edge
	// tiles).
	Width, Height int

	Data []uint8
}

// Bounds returns the tile's pixel origin and size in buffer space.
func (t *Tile) Bounds(size int) (x, y, w, h int) {
	return t.X * size, t.Y * size, t.Width, t.Height
}

// Snapshot is a sparse copy of a mask buffer.
type Snapshot struct {
	Width    int
	Height   int
	TileSize int

	// Tiles are ordered by row, then column.
	Tiles []Tile
}

// Grid returns the number of tile columns and rows for the given buffer.
func Grid(width, height, size int) (cols, rows int) {
	return (width + size - 1) / size, (height + size - 1) / size
}

// Capture scans data (a width*height buffer) and copies every non-empty
// tile. Rows of tiles are scanned in parallel; the result order does not
// depend on scheduling.
func Capture(ctx context.Context, data []uint8, width, height, size int) (*Snapshot, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if width <= 0 || height <= 0 || len(data) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrMismatch, width, height, len(data))
	}

	cols, rows := Grid(width, height, size)
	found := make([][]Tile, rows)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ty := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for tx := range cols {
				if t, ok := captureTile(data, width, height, size, tx, ty); ok {
					found[ty] = append(found[ty], t)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Snapshot{Width: width, Height: height, TileSize: size}
	for _, row := range found {
		s.Tiles = append(s.Tiles, row...)
	}
	return s, nil
}

func captureTile(data []uint8, width, height, size, tx, ty int) (Tile, bool) {
	x0, y0 := tx*size, ty*size
	w := min(size, width-x0)
	h := min(size, height-y0)

	empty := true
	for y := y0; y < y0+h && empty; y++ {
		for _, v := range data[y*width+x0 : y*width+x0+w] {
			if v != 0 {
				empty = false
				break
			}
		}
	}
	if empty {
		return Tile{}, false
	}

	t := Tile{X: tx, Y: ty, Width: w, Height: h, Data: make([]uint8, w*h)}
	for y := range h {
		copy(t.Data[y*w:(y+1)*w], data[(y0+y)*width+x0:])
	}
	return t, true
}

// Restore zeroes dst and writes every stored tile back into it.
func (s *Snapshot) Restore(dst []uint8, width, height int) error {
	if width != s.Width || height != s.Height || len(dst) != width*height {
		return fmt.Errorf("%w: snapshot %dx%d, buffer %dx%d", ErrMismatch, s.Width, s.Height, width, height)
	}
	clear(dst)
	for i := range s.Tiles {
		t := &s.Tiles[i]
		x0, y0 := t.X*s.TileSize, t.Y*s.TileSize
		for y := range t.Height {
			copy(dst[(y0+y)*width+x0:(y0+y)*width+x0+t.Width], t.Data[y*t.Width:(y+1)*t.Width])
		}
	}
	return nil
}

// Bytes returns the pixel storage held by the snapshot.
func (s *Snapshot) Bytes() int {
	n := 0
	for i := range s.Tiles {
		n += len(s.Tiles[i].Data)
	}
	return n
}

// Len returns the number of stored tiles.
func (s *Snapshot) Len() int { return len(s.Tiles) }

// TileBytes returns the storage of one full tile.
func TileBytes(size int) int { return size * size }
