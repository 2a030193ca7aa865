// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package worker offloads mask operations to a background goroutine pool.
//
// Calls are message passing: each request gets a UUID, is copied into a
// message for the pool, and is matched to its reply by a dispatcher
// goroutine. The caller never shares a buffer with a running worker.
//
// Every operation has a synchronous twin in Local with the same signature.
// When a background call times out, panics or fails, that single call is
// rerun through Local on the caller's own copy; the next call tries the
// pool again. Closing the Manager rejects every pending call with ErrClosed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/maskcanvas/internal/brush"
	"github.com/gogpu/maskcanvas/internal/logx"
	"github.com/gogpu/maskcanvas/internal/mask"
)

// DefaultTimeout bounds how long a call waits for the pool before falling
// back to Local.
const DefaultTimeout = 5 * time.Second

// Manager errors.
var (
	// ErrClosed is returned for calls made after Close and for calls that
	// were pending when Close ran.
	ErrClosed = errors.New("worker: manager closed")

	// ErrTimeout marks a background call that did not reply in time.
	ErrTimeout = errors.New("worker: call timed out")

	// ErrWorkerPanic marks a background call that panicked.
	ErrWorkerPanic = errors.New("worker: operation panicked")
)

// Config configures a Manager.
type Config struct {
	// Workers is the pool size. Zero means GOMAXPROCS; negative disables
	// the background path entirely.
	Workers int

	// Timeout is the per-call safety timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// ForceBackground enables the pool even when GOMAXPROCS is 1.
	ForceBackground bool

	// Logger receives fallback and repair warnings. Nil discards them.
	Logger *slog.Logger
}

// Capabilities reports what the Manager detected at startup.
type Capabilities struct {
	// Background is true when calls run on the pool.
	Background bool

	// Transfer is true when result buffers are handed back to the caller
	// without a second copy.
	Transfer bool

	// Workers is the pool size, zero without a background path.
	Workers int
}

// Stats counts calls by outcome.
type Stats struct {
	Calls     uint64
	Offloaded uint64
	Fallbacks uint64
	Repairs   uint64
	Rejected  uint64
}

type reply struct {
	id    uuid.UUID
	value any
	err   error
}

type pendingCall struct {
	op    string
	reply chan reply
}

// Manager runs Ops on a goroutine pool with per-call fallback to Local.
//
// Thread safety: all methods are safe for concurrent use.
type Manager struct {
	timeout time.Duration
	log     *slog.Logger
	caps    Capabilities
	local   Local

	pool    *pool
	replies chan reply
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingCall
	closed  bool

	calls     atomic.Uint64
	offloaded atomic.Uint64
	fallbacks atomic.Uint64
	repairs   atomic.Uint64
	rejected  atomic.Uint64

	// intercept wraps every background execution. Tests use it to inject
	// delays, panics and corrupted results.
	intercept func(op string, run func() (any, error)) (any, error)
}

var _ Ops = (*Manager)(nil)

// New detects the background capability and starts the pool if available.
func New(cfg Config) *Manager {
	m := &Manager{
		timeout: cfg.Timeout,
		log:     cfg.Logger,
		pending: make(map[uuid.UUID]*pendingCall),
		done:    make(chan struct{}),
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}
	if m.log == nil {
		m.log = logx.Nop()
	}

	background := cfg.Workers >= 0 && (runtime.GOMAXPROCS(0) > 1 || cfg.ForceBackground)
	if background {
		m.pool = newPool(cfg.Workers)
		m.replies = make(chan reply, m.pool.workers*4)
		m.caps = Capabilities{Background: true, Transfer: true, Workers: m.pool.workers}
		m.wg.Add(1)
		go m.dispatch()
	}

	m.log.Info("worker: capabilities detected",
		"background", m.caps.Background,
		"transfer", m.caps.Transfer,
		"workers", m.caps.Workers)
	return m
}

// Capabilities returns what New detected.
func (m *Manager) Capabilities() Capabilities {
	return m.caps
}

// Stats returns a snapshot of the call counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Calls:     m.calls.Load(),
		Offloaded: m.offloaded.Load(),
		Fallbacks: m.fallbacks.Load(),
		Repairs:   m.repairs.Load(),
		Rejected:  m.rejected.Load(),
	}
}

// Pending returns the number of calls waiting for a reply.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close rejects every pending call with ErrClosed and stops the pool.
// Close is idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for id, c := range pending {
		m.rejected.Add(1)
		c.reply <- reply{id: id, err: ErrClosed}
	}
	if len(pending) > 0 {
		m.log.Info("worker: rejected pending calls on close", "count", len(pending))
	}

	close(m.done)
	if m.pool != nil {
		m.pool.close()
	}
	m.wg.Wait()
}

// dispatch matches replies to pending calls by id.
func (m *Manager) dispatch() {
	defer m.wg.Done()
	for {
		select {
		case r := <-m.replies:
			c := m.take(r.id)
			if c == nil {
				m.log.Debug("worker: dropped late reply", "id", r.id)
				continue
			}
			c.reply <- r
		case <-m.done:
			return
		}
	}
}

func (m *Manager) take(id uuid.UUID) *pendingCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.pending[id]
	delete(m.pending, id)
	return c
}

// execute runs one message on a pool goroutine and posts the reply.
func (m *Manager) execute(id uuid.UUID, op string, run func() (any, error)) {
	r := reply{id: id}
	func() {
		defer func() {
			if p := recover(); p != nil {
				r.value = nil
				r.err = fmt.Errorf("%w: %s: %v", ErrWorkerPanic, op, p)
			}
		}()
		if m.intercept != nil {
			r.value, r.err = m.intercept(op, run)
		} else {
			r.value, r.err = run()
		}
	}()

	select {
	case m.replies <- r:
	case <-m.done:
	}
}

// do sends run to the pool and waits. On a background failure it returns
// fallback's result instead. run and fallback must not share mutable
// inputs.
func (m *Manager) do(ctx context.Context, op string, run, fallback func() (any, error)) (any, error) {
	m.calls.Add(1)
	if !m.caps.Background {
		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}
		return fallback()
	}

	id := uuid.New()
	c := &pendingCall{op: op, reply: make(chan reply, 1)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.pending[id] = c
	m.mu.Unlock()

	if !m.pool.submit(func() { m.execute(id, op, run) }) {
		m.take(id)
		return nil, ErrClosed
	}
	m.offloaded.Add(1)

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case r := <-c.reply:
		if errors.Is(r.err, ErrClosed) {
			return nil, ErrClosed
		}
		if r.err != nil {
			return m.fallback(op, id, r.err, fallback)
		}
		return r.value, nil

	case <-timer.C:
		if m.take(id) == nil {
			// The reply or a Close raced the timer; it is already queued.
			r := <-c.reply
			if errors.Is(r.err, ErrClosed) {
				return nil, ErrClosed
			}
			if r.err == nil {
				return r.value, nil
			}
			return m.fallback(op, id, r.err, fallback)
		}
		return m.fallback(op, id, fmt.Errorf("%w after %v", ErrTimeout, m.timeout), fallback)

	case <-ctx.Done():
		m.take(id)
		return nil, ctx.Err()
	}
}

func (m *Manager) fallback(op string, id uuid.UUID, cause error, fallback func() (any, error)) (any, error) {
	m.fallbacks.Add(1)
	m.log.Warn("worker: background call failed, running on caller",
		"op", op, "id", id, "err", cause)
	return fallback()
}

// heal repairs a buffer returned from the pool.
func (m *Manager) heal(op string, data []uint8) {
	if mask.IsBinary(data) {
		return
	}
	n := mask.Repair(data)
	m.repairs.Add(1)
	m.log.Warn("worker: repaired non-binary buffer", "op", op, "bytes", n)
}

func offload[Req, Res any](ctx context.Context, m *Manager, op string, req, bg Req,
	fn func(context.Context, Req) (Res, error)) (Res, error) {
	v, err := m.do(ctx, op,
		func() (any, error) { return fn(ctx, bg) },
		func() (any, error) { return fn(ctx, req) })
	if err != nil {
		var zero Res
		return zero, err
	}
	return v.(Res), nil
}

// Stamp implements Ops.
func (m *Manager) Stamp(ctx context.Context, req StampRequest) (PathResult, error) {
	bg := req
	bg.Raster = req.clone()
	res, err := offload(ctx, m, "stamp", req, bg, m.local.Stamp)
	if err == nil {
		m.heal("stamp", res.Data)
	}
	return res, err
}

// ApplyPath implements Ops.
func (m *Manager) ApplyPath(ctx context.Context, req PathRequest) (PathResult, error) {
	bg := req
	bg.Raster = req.clone()
	bg.Points = append([]brush.Point(nil), req.Points...)
	res, err := offload(ctx, m, "apply_path", req, bg, m.local.ApplyPath)
	if err == nil {
		m.heal("apply_path", res.Data)
	}
	return res, err
}

// ApplySegment implements Ops.
func (m *Manager) ApplySegment(ctx context.Context, req SegmentRequest) (SegmentResult, error) {
	bg := req
	bg.Raster = req.clone()
	bg.Points = append([]brush.Point(nil), req.Points...)
	res, err := offload(ctx, m, "apply_segment", req, bg, m.local.ApplySegment)
	if err == nil {
		m.heal("apply_segment", res.Data)
	}
	return res, err
}

// Checkpoint implements Ops.
func (m *Manager) Checkpoint(ctx context.Context, req CheckpointRequest) (CheckpointResult, error) {
	bg := req
	bg.Raster = req.clone()
	return offload(ctx, m, "checkpoint", req, bg, m.local.Checkpoint)
}

// Export implements Ops.
func (m *Manager) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	bg := req
	bg.Raster = req.clone()
	return offload(ctx, m, "export", req, bg, m.local.Export)
}

// Validate implements Ops.
func (m *Manager) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	bg := req
	bg.Raster = req.clone()
	res, err := offload(ctx, m, "validate", req, bg, m.local.Validate)
	if err == nil {
		m.heal("validate", res.Data)
	}
	return res, err
}
