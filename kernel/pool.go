package kernel

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool is the fixed-size worker pool every mailbox's dispatch pass runs
// on. Sized by dispatcher.pool_size, it replaces the teacher repo's
// one-goroutine-per-actor Supervisable with a bounded set of workers
// shared across every cell in the system — the change §4.1 of the
// specification calls for explicitly ("why this shape"). The bound is
// a counting semaphore: no more than size dispatch passes ever run at
// once, full stop, no overflow escape hatch.
type Pool struct {
	sem    *semaphore.Weighted
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool constructs a pool that admits at most size concurrent
// dispatch passes.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		group:  group,
		ctx:    gctx,
		cancel: cancel,
	}
}

// Submit runs task once a semaphore slot is free. The caller is never
// blocked waiting for one: Submit always returns immediately, handing
// the wait to a freshly spawned goroutine instead. This matters
// because Mailbox.dispatch resubmits itself to yield the worker after
// exhausting its quota, from inside a goroutine that is itself one of
// the size slots — if that same goroutine blocked acquiring a slot for
// its own continuation, a burst of simultaneous resubmissions across
// every worker would deadlock the whole pool. Spawning first and
// acquiring inside the new goroutine keeps the bound exact without
// that trap: task never runs until a slot is free, but nothing already
// holding a slot ever has to wait on itself to get another one.
func (p *Pool) Submit(task func()) {
	p.group.Go(func() error {
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return nil
		}
		defer p.sem.Release(1)
		task()
		return nil
	})
}

// Close stops accepting new work and waits for every submission,
// in-flight or still waiting on a slot, to finish or be cancelled.
func (p *Pool) Close() {
	p.cancel()
	_ = p.group.Wait()
}
