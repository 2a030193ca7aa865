// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/maskcanvas/internal/brush"
)

// Kind identifies what a Command does to the mask.
type Kind uint8

const (
	// KindStroke rasterizes Points with Diameter and Mode.
	KindStroke Kind = iota

	// KindClear sets the whole mask Off.
	KindClear

	// KindInvert flips every byte of the mask.
	KindInvert
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindStroke:
		return "stroke"
	case KindClear:
		return "clear"
	case KindInvert:
		return "invert"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Command is one recorded edit. It is immutable once added.
type Command struct {
	ID       uuid.UUID
	Kind     Kind
	Mode     brush.Mode
	Diameter int
	Points   []brush.Point
	Created  time.Time
}

// NewStroke records a stroke. The points slice is copied.
func NewStroke(mode brush.Mode, diameter int, points []brush.Point, now time.Time) Command {
	return Command{
		ID:       uuid.New(),
		Kind:     KindStroke,
		Mode:     mode,
		Diameter: brush.ClampDiameter(diameter),
		Points:   append([]brush.Point(nil), points...),
		Created:  now,
	}
}

// NewClear records a clear of the whole mask.
func NewClear(now time.Time) Command {
	return Command{ID: uuid.New(), Kind: KindClear, Created: now}
}

// NewInvert records an inversion of the whole mask.
func NewInvert(now time.Time) Command {
	return Command{ID: uuid.New(), Kind: KindInvert, Created: now}
}

// commandOverhead approximates the fixed per-command cost in bytes.
const commandOverhead = 96

// Size estimates the memory held by the command.
func (c Command) Size() int {
	return commandOverhead + 16*len(c.Points)
}
