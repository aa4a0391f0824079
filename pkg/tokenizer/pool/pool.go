// Package pool runs CPU-bound token counting on a fixed set of isolated
// workers. Tokenizer artifacts travel as shared read-only buffers; each
// worker parses them once and caches the instance by name.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"textflux/pkg/faults"
	"textflux/pkg/tokenizer"
)

// job is one dispatch unit. The reply channel correlates the response;
// the id exists for logging and protocol parity.
type job struct {
	id         uint64
	artifacts  *tokenizer.Artifacts
	inputs     []string
	addSpecial bool
	reply      chan jobResult
}

type jobResult struct {
	id     uint64
	counts []int
	err    error
	// fatal marks an unrecoverable worker failure; the worker is gone.
	fatal bool
}

type worker struct {
	id    int
	jobs  chan *job
	cache map[string]*tokenizer.Tokenizer
}

// run is the worker loop. A panic inside a job is unrecoverable: the job
// rejects, the loop exits and the pool shrinks.
func (w *worker) run(p *Pool) {
	for {
		select {
		case j := <-w.jobs:
			res := w.process(j)
			j.reply <- res
			if res.fatal {
				p.remove(w)
				return
			}
			p.release(w)
		case <-p.done:
			return
		}
	}
}

func (w *worker) process(j *job) (res jobResult) {
	res.id = j.id
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("worker %d panicked: %v", w.id, r)
			res.fatal = true
		}
	}()

	tok, ok := w.cache[j.artifacts.Name]
	if !ok {
		var err error
		tok, err = tokenizer.New(j.artifacts.Definition, j.artifacts.Config)
		if err != nil {
			res.err = err
			return res
		}
		w.cache[j.artifacts.Name] = tok
	}

	counts := make([]int, len(j.inputs))
	for i, in := range j.inputs {
		counts[i] = tok.Count(in, j.addSpecial)
	}
	res.counts = counts
	return res
}

// Pool is the process-wide worker set. One per process, lazily created,
// re-creatable after Shutdown.
type Pool struct {
	mu      sync.Mutex
	workers map[*worker]bool
	idle    []*worker
	waiters []chan *worker
	closed  bool
	done    chan struct{}

	nextJob atomic.Uint64
}

// New builds a pool of size workers; size <= 0 means one per logical CPU.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		workers: make(map[*worker]bool, size),
		done:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		w := &worker{
			id:    i,
			jobs:  make(chan *job),
			cache: make(map[string]*tokenizer.Tokenizer),
		}
		p.workers[w] = true
		p.idle = append(p.idle, w)
		go w.run(p)
	}
	return p
}

var (
	globalMu sync.Mutex
	global   *Pool
)

// Get returns the process pool, creating it on first use or after a
// shutdown.
func Get() *Pool {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil || global.isClosed() {
		global = New(0)
	}
	return global
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Size is the current number of live workers.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// acquire hands out an idle worker, queueing FIFO behind earlier waiters.
func (p *Pool) acquire(ctx context.Context) (*worker, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, faults.New(faults.KindPoolShuttingDown, "pool is shutting down")
	}
	if n := len(p.idle); n > 0 {
		w := p.idle[0]
		p.idle = p.idle[1:]
		p.mu.Unlock()
		return w, nil
	}
	slot := make(chan *worker, 1)
	p.waiters = append(p.waiters, slot)
	p.mu.Unlock()

	select {
	case w := <-slot:
		if w == nil {
			return nil, faults.New(faults.KindPoolShuttingDown, "pool is shutting down")
		}
		return w, nil
	case <-ctx.Done():
		p.mu.Lock()
		for i, s := range p.waiters {
			if s == slot {
				p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
				p.mu.Unlock()
				return nil, faults.Wrap(faults.KindPoolJobCancelled, context.Cause(ctx), "cancelled while waiting for a worker")
			}
		}
		p.mu.Unlock()
		// A worker was handed over concurrently; give it back.
		if w := <-slot; w != nil {
			p.release(w)
		}
		return nil, faults.Wrap(faults.KindPoolJobCancelled, context.Cause(ctx), "cancelled while waiting for a worker")
	}
}

// release returns a worker to the idle list or hands it to the first
// waiter.
func (p *Pool) release(w *worker) {
	p.mu.Lock()
	if p.closed || !p.workers[w] {
		p.mu.Unlock()
		return
	}
	if len(p.waiters) > 0 {
		slot := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.mu.Unlock()
		slot <- w
		return
	}
	p.idle = append(p.idle, w)
	p.mu.Unlock()
}

// remove drops a dead worker; the pool shrinks.
func (p *Pool) remove(w *worker) {
	p.mu.Lock()
	delete(p.workers, w)
	size := len(p.workers)
	p.mu.Unlock()
	slog.Warn("Tokenizer worker removed after fatal error", "worker", w.id, "remaining", size)
}

// Shutdown rejects queued waiters and terminates every worker. In-flight
// jobs reject through the closed done channel. The pool cannot be reused;
// Get builds a fresh one.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	waiters := p.waiters
	p.waiters = nil
	p.workers = map[*worker]bool{}
	p.idle = nil
	p.mu.Unlock()

	for _, slot := range waiters {
		slot <- nil
	}
}

// dispatch runs one job on one worker.
func (p *Pool) dispatch(ctx context.Context, artifacts *tokenizer.Artifacts, inputs []string, addSpecial bool) ([]int, error) {
	w, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}

	j := &job{
		id:         p.nextJob.Add(1),
		artifacts:  artifacts,
		inputs:     inputs,
		addSpecial: addSpecial,
		reply:      make(chan jobResult, 1),
	}

	select {
	case w.jobs <- j:
	case <-p.done:
		return nil, faults.New(faults.KindPoolShuttingDown, "pool is shutting down")
	}

	select {
	case res := <-j.reply:
		if res.err != nil {
			return nil, res.err
		}
		return res.counts, nil
	case <-p.done:
		return nil, faults.New(faults.KindPoolShuttingDown, "pool is shutting down")
	case <-ctx.Done():
		return nil, faults.Wrap(faults.KindPoolJobCancelled, context.Cause(ctx), "job %d cancelled", j.id)
	}
}

// Count tokenizes inputs across the pool: contiguous slices of ⌈N/K⌉
// inputs, one job per slice, results concatenated in slice order.
func (p *Pool) Count(ctx context.Context, artifacts *tokenizer.Artifacts, inputs []string, addSpecial bool) ([]int, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	k := p.Size()
	if k == 0 {
		return nil, faults.New(faults.KindPoolShuttingDown, "pool has no workers")
	}
	sliceLen := (len(inputs) + k - 1) / k

	counts := make([]int, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(inputs); start += sliceLen {
		end := start + sliceLen
		if end > len(inputs) {
			end = len(inputs)
		}
		start, end := start, end
		g.Go(func() error {
			part, err := p.dispatch(gctx, artifacts, inputs[start:end], addSpecial)
			if err != nil {
				return err
			}
			copy(counts[start:end], part)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
