// Package timer implements the scheduled-message subsystem: once and
// repeating jobs delivered to an actor's mailbox by a tick loop running
// at scheduler.frequency_millis, backed by a container/heap min-heap
// ordered by fire time.
package timer

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"go.fergus.london/actorkit/actor"
	"go.fergus.london/actorkit/supervisor"
)

type job struct {
	id       actor.ScheduleID
	fireAt   time.Time
	interval time.Duration // zero for a one-shot job
	receiver actor.BasicActorRef
	sender   actor.BasicActorRef
	msg      any
	index    int // heap.Interface bookkeeping
}

type jobHeap []*job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *jobHeap) Push(x any) {
	j := x.(*job)
	j.index = len(*h)
	*h = append(*h, j)
}
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*h = old[:n-1]
	return j
}

// Scheduler owns the pending-job heap and the ticker driving delivery.
// One Scheduler serves an entire actor system.
type Scheduler struct {
	mu      sync.Mutex
	pending jobHeap
	byID    map[actor.ScheduleID]*job
	nextID  atomicCounter

	frequency time.Duration
	sup       *supervisor.Supervisor
}

// NewScheduler constructs a scheduler that ticks every frequency. Call
// Start to begin delivering due jobs.
func NewScheduler(frequency time.Duration) *Scheduler {
	return &Scheduler{
		byID:      make(map[actor.ScheduleID]*job),
		frequency: frequency,
	}
}

// Start begins the tick loop under a supervisor.Supervisor: a panic
// inside a single delivery (e.g. an actor's own TellAny path) is
// recovered and the tick loop resumes on its next interval rather than
// silently killing the whole scheduler.
func (s *Scheduler) Start() {
	sup, err := supervisor.NewSupervisorWithOptions(context.Background(),
		supervisor.WithWorkers(supervisor.SupervisableWorker{
			Func:  s.tick,
			Count: 1,
		}),
	)
	if err != nil {
		panic(err)
	}
	s.sup = sup
	sup.Run()
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		recover() // a faulted delivery restarts the tick loop, not the process
	}()
	ticker := time.NewTicker(s.frequency)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.deliverDue(now)
		}
	}
}

// Stop halts the tick loop and waits for it to exit. Pending jobs are
// discarded; nothing further is delivered.
func (s *Scheduler) Stop() {
	if s.sup == nil {
		return
	}
	s.sup.Stop()
	s.sup.Wait()
}

// Once schedules msg for single delivery to receiver after delay.
func (s *Scheduler) Once(delay time.Duration, receiver, sender actor.BasicActorRef, msg any) actor.ScheduleID {
	return s.schedule(delay, 0, receiver, sender, msg)
}

// Repeat schedules msg for delivery to receiver after initial, then
// again every interval until cancelled.
func (s *Scheduler) Repeat(initial, interval time.Duration, receiver, sender actor.BasicActorRef, msg any) actor.ScheduleID {
	return s.schedule(initial, interval, receiver, sender, msg)
}

func (s *Scheduler) schedule(delay, interval time.Duration, receiver, sender actor.BasicActorRef, msg any) actor.ScheduleID {
	id := actor.ScheduleID(s.nextID.next())
	j := &job{
		id:       id,
		fireAt:   time.Now().Add(delay),
		interval: interval,
		receiver: receiver,
		sender:   sender,
		msg:      msg,
	}

	s.mu.Lock()
	heap.Push(&s.pending, j)
	s.byID[id] = j
	s.mu.Unlock()
	return id
}

// Cancel removes a pending job. Canceling an id that has already fired
// (and was one-shot) or was never scheduled is a silent no-op.
func (s *Scheduler) Cancel(id actor.ScheduleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	if j.index >= 0 {
		heap.Remove(&s.pending, j.index)
	}
}

// deliverDue pops every job due at or before now, delivers it (as a
// one-time take for one-shot jobs, so a slow consumer can never observe
// the same payload twice), and re-schedules repeating jobs for their
// next interval.
func (s *Scheduler) deliverDue(now time.Time) {
	var due []*job
	s.mu.Lock()
	for s.pending.Len() > 0 && !s.pending[0].fireAt.After(now) {
		j := heap.Pop(&s.pending).(*job)
		due = append(due, j)
		if j.interval <= 0 {
			delete(s.byID, j.id)
		}
	}
	for _, j := range due {
		if j.interval > 0 {
			j.fireAt = now.Add(j.interval)
			heap.Push(&s.pending, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		if h := j.receiver.Handle(); h != nil {
			_ = h.EnqueueUser(actor.Envelope{Msg: j.msg, Sender: j.sender, OneTime: j.interval <= 0})
		}
	}
}

// atomicCounter is a tiny monotonically-increasing id source whose
// increments are serialized by its own mutex, so concurrent schedule
// calls never mint the same id.
type atomicCounter struct {
	mu sync.Mutex
	n  uint64
}

func (c *atomicCounter) next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}
