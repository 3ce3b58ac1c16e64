package kernel

import (
	"sync"
	"sync/atomic"

	"go.fergus.london/actorkit/actor"
)

const (
	flagScheduled uint32 = 1 << iota
	flagSuspended
	flagSealed
)

// Mailbox holds the two FIFO queues (system, user) backing one cell.
// Both are multi-producer/single-consumer: only the dispatch pass ever
// pops from them. A single atomic status word tracks SCHEDULED,
// SUSPENDED and SEALED, giving the common already-scheduled enqueue
// path a lock-free fast exit (spec §4.1, §9).
type Mailbox struct {
	status atomic.Uint32

	sysMu sync.Mutex
	sysQ  []actor.Envelope

	userMu sync.Mutex
	userQ  []actor.Envelope

	limit int
	pool  *Pool
	cell  *Cell
}

func newMailbox(limit int, pool *Pool, cell *Cell) *Mailbox {
	return &Mailbox{limit: limit, pool: pool, cell: cell}
}

// EnqueueUser appends a user envelope and, if the mailbox is idle and
// not suspended, submits a dispatch task.
func (mb *Mailbox) EnqueueUser(env actor.Envelope) error {
	if mb.status.Load()&flagSealed != 0 {
		return actor.ErrSealed
	}
	mb.userMu.Lock()
	mb.userQ = append(mb.userQ, env)
	mb.userMu.Unlock()
	mb.scheduleForUser()
	return nil
}

// EnqueueSystem appends a system envelope and always submits a
// dispatch task when idle, even while suspended — system messages must
// never be starved by a suspended mailbox (spec §4.1).
func (mb *Mailbox) EnqueueSystem(env actor.Envelope) error {
	if mb.status.Load()&flagSealed != 0 {
		return actor.ErrSealed
	}
	mb.sysMu.Lock()
	mb.sysQ = append(mb.sysQ, env)
	mb.sysMu.Unlock()
	mb.scheduleForSystem()
	return nil
}

func (mb *Mailbox) scheduleForUser() {
	for {
		old := mb.status.Load()
		if old&(flagSealed|flagScheduled|flagSuspended) != 0 {
			return
		}
		if mb.status.CompareAndSwap(old, old|flagScheduled) {
			mb.pool.Submit(mb.dispatch)
			return
		}
	}
}

func (mb *Mailbox) scheduleForSystem() {
	for {
		old := mb.status.Load()
		if old&flagSealed != 0 {
			return
		}
		if old&flagScheduled != 0 {
			return
		}
		if mb.status.CompareAndSwap(old, old|flagScheduled) {
			mb.pool.Submit(mb.dispatch)
			return
		}
	}
}

func (mb *Mailbox) suspend() {
	for {
		old := mb.status.Load()
		if mb.status.CompareAndSwap(old, old|flagSuspended) {
			return
		}
	}
}

func (mb *Mailbox) resume() {
	for {
		old := mb.status.Load()
		neu := old &^ flagSuspended
		if mb.status.CompareAndSwap(old, neu) {
			// Resuming may have left user work stranded behind the
			// suspended gate; re-evaluate scheduling.
			mb.scheduleForUser()
			return
		}
	}
}

func (mb *Mailbox) seal() {
	for {
		old := mb.status.Load()
		if mb.status.CompareAndSwap(old, old|flagSealed) {
			return
		}
	}
}

func (mb *Mailbox) isSuspended() bool {
	return mb.status.Load()&flagSuspended != 0
}

func (mb *Mailbox) popSystem() (actor.Envelope, bool) {
	mb.sysMu.Lock()
	defer mb.sysMu.Unlock()
	if len(mb.sysQ) == 0 {
		return actor.Envelope{}, false
	}
	env := mb.sysQ[0]
	mb.sysQ = mb.sysQ[1:]
	return env, true
}

func (mb *Mailbox) popUser() (actor.Envelope, bool) {
	mb.userMu.Lock()
	defer mb.userMu.Unlock()
	if len(mb.userQ) == 0 {
		return actor.Envelope{}, false
	}
	env := mb.userQ[0]
	mb.userQ = mb.userQ[1:]
	return env, true
}

func (mb *Mailbox) sysEmpty() bool {
	mb.sysMu.Lock()
	defer mb.sysMu.Unlock()
	return len(mb.sysQ) == 0
}

func (mb *Mailbox) userEmpty() bool {
	mb.userMu.Lock()
	defer mb.userMu.Unlock()
	return len(mb.userQ) == 0
}

// dispatch is the pass bounded by msg_process_limit: drain every
// currently-visible system message first, then up to limit user
// messages, then decide whether to remain scheduled.
func (mb *Mailbox) dispatch() {
	for {
		for {
			env, ok := mb.popSystem()
			if !ok {
				break
			}
			mb.cell.handleSystem(env)
		}

		processed := 0
		if !mb.isSuspended() {
			for processed < mb.limit && !mb.isSuspended() {
				env, ok := mb.popUser()
				if !ok {
					break
				}
				mb.cell.handleUser(env)
				processed++
			}
		}

		if mb.tryUnschedule() {
			return
		}
		if processed >= mb.limit {
			// Quota exhausted for this pass: yield the worker instead
			// of monopolizing it, and resubmit to pick up where we
			// left off.
			mb.pool.Submit(mb.dispatch)
			return
		}
	}
}

// tryUnschedule clears SCHEDULED once both queues look drained, then
// re-checks: an enqueuer that arrived in the race window between our
// last pop and the CAS would have seen SCHEDULED still set and skipped
// submitting a new task, so we must reschedule ourselves if anything
// snuck in. Either branch ends with SCHEDULED's fate settled, so the
// caller can always stop looping.
func (mb *Mailbox) tryUnschedule() bool {
	if !mb.sysEmpty() {
		return false
	}
	if !mb.isSuspended() && !mb.userEmpty() {
		return false
	}

	for {
		old := mb.status.Load()
		neu := old &^ flagScheduled
		if mb.status.CompareAndSwap(old, neu) {
			break
		}
	}

	if !mb.sysEmpty() {
		mb.scheduleForSystem()
		return true
	}
	if !mb.isSuspended() && !mb.userEmpty() {
		mb.scheduleForUser()
		return true
	}
	return true
}
