// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package history records mask edits and implements undo/redo by restoring
// a sparse checkpoint and replaying the command log.
//
// Indices count applied commands from the start of the session. A
// checkpoint at index i is the mask state after i commands. Undo to index t
// restores the newest checkpoint at or below t and replays commands up to t;
// because brush rasterization is deterministic, the result is
// byte-identical to the state the user originally saw.
//
// Checkpoints are taken every Interval commands, or sooner when the replay
// log since the last checkpoint grows past MaxReplayBytes. When checkpoint
// storage exceeds MaxBytes the oldest checkpoints are dropped together with
// the commands below the new oldest one, so the distance between retained
// checkpoints never grows.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/maskcanvas/internal/logx"
	"github.com/gogpu/maskcanvas/internal/mask"
	"github.com/gogpu/maskcanvas/internal/tiles"
)

// Defaults.
const (
	DefaultInterval       = 10
	DefaultMaxBytes       = 64 << 20
	DefaultMaxReplayBytes = 256 << 10
)

// ErrSizeMismatch is returned when the buffer passed in does not match the
// dimensions the manager was created for.
var ErrSizeMismatch = errors.New("history: buffer size mismatch")

// Engine applies commands and captures snapshots. The orchestrator backs it
// with the worker pool.
//
// Replay must leave buf unchanged when it returns an error.
type Engine interface {
	Replay(ctx context.Context, buf *mask.Buffer, cmd Command) error
	Snapshot(ctx context.Context, buf *mask.Buffer) (*tiles.Snapshot, error)
}

// PruneEvent describes a pruning pass.
type PruneEvent struct {
	// Checkpoints is how many checkpoints were dropped.
	Checkpoints int

	// Commands is how many log entries below the new oldest checkpoint were
	// dropped with them.
	Commands int

	// Bytes is the checkpoint storage after pruning.
	Bytes int

	// Cap is the effective MaxBytes.
	Cap int
}

// Config configures a Manager.
type Config struct {
	// Interval is the number of commands between checkpoints.
	Interval int

	// MaxBytes caps total checkpoint storage. It is raised to at least one
	// full snapshot of the buffer.
	MaxBytes int

	// MaxReplayBytes forces a checkpoint once the log since the last
	// checkpoint grows past it.
	MaxReplayBytes int

	// TileSize is reported by Stats; the Engine decides the real size.
	TileSize int

	// OnPrune is called after checkpoints are dropped.
	OnPrune func(PruneEvent)

	// Now returns checkpoint timestamps. Defaults to time.Now.
	Now func() time.Time

	// Logger receives pruning and checkpoint messages.
	Logger *slog.Logger
}

// Checkpoint is a stored snapshot of the state after Index commands.
type Checkpoint struct {
	Index    int
	Snapshot *tiles.Snapshot
	Created  time.Time
}

// Stats is a summary of the history state.
type Stats struct {
	Index           int
	Len             int
	Oldest          int
	Checkpoints     int
	CheckpointBytes int
	LogBytes        int
	MaxBytes        int
}

// Manager owns the command log and the checkpoints.
//
// Manager is not safe for concurrent use.
type Manager struct {
	cfg    Config
	engine Engine
	log    *slog.Logger

	width, height int

	// commands[i] moves the state from index base+i to base+i+1.
	commands []Command
	base     int
	index    int

	checkpoints []Checkpoint
	cpBytes     int

	scratch *mask.Buffer
}

// New creates a manager for a width*height mask whose current state is
// empty. The initial checkpoint at index 0 holds no tiles.
func New(cfg Config, engine Engine, width, height int) (*Manager, error) {
	scratch, err := mask.New(width, height)
	if err != nil {
		return nil, err
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	cfg.MaxBytes = max(cfg.MaxBytes, width*height)
	if cfg.MaxReplayBytes <= 0 {
		cfg.MaxReplayBytes = DefaultMaxReplayBytes
	}
	if cfg.TileSize <= 0 {
		cfg.TileSize = tiles.DefaultSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{
		cfg:     cfg,
		engine:  engine,
		log:     cfg.Logger,
		width:   width,
		height:  height,
		scratch: scratch,
	}
	if m.log == nil {
		m.log = logx.Nop()
	}
	m.checkpoints = []Checkpoint{{
		Index:    0,
		Snapshot: &tiles.Snapshot{Width: width, Height: height, TileSize: cfg.TileSize},
		Created:  cfg.Now(),
	}}
	return m, nil
}

// Index returns the number of applied commands.
func (m *Manager) Index() int { return m.index }

// Len returns the index reached by redoing everything.
func (m *Manager) Len() int { return m.base + len(m.commands) }

// CanUndo reports whether Undo would change the state.
func (m *Manager) CanUndo() bool { return m.index > m.base }

// CanRedo reports whether Redo would change the state.
func (m *Manager) CanRedo() bool { return m.index < m.Len() }

// Checkpoints returns a copy of the checkpoint list, oldest first.
func (m *Manager) Checkpoints() []Checkpoint {
	return append([]Checkpoint(nil), m.checkpoints...)
}

// Stats summarizes the current state.
func (m *Manager) Stats() Stats {
	logBytes := 0
	for _, c := range m.commands {
		logBytes += c.Size()
	}
	return Stats{
		Index:           m.index,
		Len:             m.Len(),
		Oldest:          m.base,
		Checkpoints:     len(m.checkpoints),
		CheckpointBytes: m.cpBytes,
		LogBytes:        logBytes,
		MaxBytes:        m.cfg.MaxBytes,
	}
}

func (m *Manager) check(buf *mask.Buffer) error {
	if buf.Width() != m.width || buf.Height() != m.height {
		return fmt.Errorf("%w: %dx%d, want %dx%d", ErrSizeMismatch, buf.Width(), buf.Height(), m.width, m.height)
	}
	return nil
}

// Add records cmd, which the caller has already applied to buf. Any redo
// tail is discarded. Add takes a checkpoint of buf when one is due.
func (m *Manager) Add(ctx context.Context, buf *mask.Buffer, cmd Command) error {
	if err := m.check(buf); err != nil {
		return err
	}

	if m.index < m.Len() {
		m.commands = m.commands[:m.index-m.base]
		keep := m.checkpoints[:0]
		for _, cp := range m.checkpoints {
			if cp.Index <= m.index {
				keep = append(keep, cp)
			} else {
				m.cpBytes -= cp.Snapshot.Bytes()
			}
		}
		m.checkpoints = keep
	}

	m.commands = append(m.commands, cmd)
	m.index++

	last := m.checkpoints[len(m.checkpoints)-1]
	since := m.index - last.Index
	replay := 0
	for _, c := range m.commands[last.Index-m.base:] {
		replay += c.Size()
	}
	if since < m.cfg.Interval && replay <= m.cfg.MaxReplayBytes {
		return nil
	}
	return m.checkpoint(ctx, buf)
}

func (m *Manager) checkpoint(ctx context.Context, buf *mask.Buffer) error {
	snap, err := m.engine.Snapshot(ctx, buf)
	if err != nil {
		return fmt.Errorf("history: checkpoint at %d: %w", m.index, err)
	}
	m.checkpoints = append(m.checkpoints, Checkpoint{Index: m.index, Snapshot: snap, Created: m.cfg.Now()})
	m.cpBytes += snap.Bytes()
	m.log.Debug("history: checkpoint",
		"index", m.index, "tiles", snap.Len(), "bytes", snap.Bytes(), "total", m.cpBytes)
	m.prune()
	return nil
}

// prune drops the oldest checkpoints while storage exceeds the cap. The
// newest checkpoint, which sits at the current index, always survives.
func (m *Manager) prune() {
	dropped := 0
	for m.cpBytes > m.cfg.MaxBytes && len(m.checkpoints) > 1 {
		m.cpBytes -= m.checkpoints[0].Snapshot.Bytes()
		m.checkpoints = m.checkpoints[1:]
		dropped++
	}
	if dropped == 0 {
		return
	}

	newBase := m.checkpoints[0].Index
	commands := newBase - m.base
	m.commands = append([]Command(nil), m.commands[commands:]...)
	m.base = newBase

	ev := PruneEvent{Checkpoints: dropped, Commands: commands, Bytes: m.cpBytes, Cap: m.cfg.MaxBytes}
	m.log.Info("history: pruned checkpoints",
		"checkpoints", ev.Checkpoints, "commands", ev.Commands, "bytes", ev.Bytes, "cap", ev.Cap)
	if m.cfg.OnPrune != nil {
		m.cfg.OnPrune(ev)
	}
}

// Undo moves back one command. It reports false when there is nothing to
// undo.
func (m *Manager) Undo(ctx context.Context, buf *mask.Buffer) (bool, error) {
	if err := m.check(buf); err != nil {
		return false, err
	}
	if !m.CanUndo() {
		return false, nil
	}
	if err := m.restore(ctx, buf, m.index-1); err != nil {
		return false, err
	}
	return true, nil
}

// Redo reapplies the next logged command. It reports false when there is
// nothing to redo.
func (m *Manager) Redo(ctx context.Context, buf *mask.Buffer) (bool, error) {
	if err := m.check(buf); err != nil {
		return false, err
	}
	if !m.CanRedo() {
		return false, nil
	}
	if err := m.engine.Replay(ctx, buf, m.commands[m.index-m.base]); err != nil {
		return false, fmt.Errorf("history: redo to %d: %w", m.index+1, err)
	}
	m.index++
	return true, nil
}

// restore rebuilds the state at target into buf. buf is left untouched on
// error.
func (m *Manager) restore(ctx context.Context, buf *mask.Buffer, target int) error {
	cp := m.nearest(target)
	if err := cp.Snapshot.Restore(m.scratch.Data(), m.width, m.height); err != nil {
		return err
	}
	for k := cp.Index; k < target; k++ {
		if err := m.engine.Replay(ctx, m.scratch, m.commands[k-m.base]); err != nil {
			return fmt.Errorf("history: replay %d of %d: %w", k+1, target, err)
		}
	}
	if err := buf.CopyFrom(m.scratch); err != nil {
		return err
	}
	m.log.Debug("history: restored", "target", target, "checkpoint", cp.Index, "replayed", target-cp.Index)
	m.index = target
	return nil
}

// nearest returns the newest checkpoint at or below index.
func (m *Manager) nearest(index int) Checkpoint {
	for i := len(m.checkpoints) - 1; i >= 0; i-- {
		if m.checkpoints[i].Index <= index {
			return m.checkpoints[i]
		}
	}
	return m.checkpoints[0]
}
