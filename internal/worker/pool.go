// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package worker

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// pool is a fixed set of goroutines fed through per-worker queues. An idle
// worker steals from its siblings before blocking on its own queue.
//
// Thread safety: pool is safe for concurrent use.
type pool struct {
	workers int

	// queues holds per-worker work queues.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	wg      sync.WaitGroup
	running atomic.Bool
}

// newPool starts a pool. If workers is 0 or negative, GOMAXPROCS is used.
func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				return
			case work := <-own:
				work()
			}
		}
	}
}

func (p *pool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// submit queues fn on the shortest queue. It reports false if the pool is
// closed; the work is then never run.
func (p *pool) submit(fn func()) bool {
	if !p.running.Load() {
		return false
	}

	minIdx := 0
	minLen := len(p.queues[0])
	for i := 1; i < p.workers; i++ {
		if l := len(p.queues[i]); l < minLen {
			minLen, minIdx = l, i
		}
	}

	select {
	case p.queues[minIdx] <- fn:
		return true
	case <-p.done:
		return false
	}
}

// close stops the workers. Queued but unstarted work is dropped; callers
// waiting on it are rejected by the Manager. close is idempotent.
func (p *pool) close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
