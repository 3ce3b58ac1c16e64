package timer

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"go.fergus.london/actorkit/actor"
	"go.fergus.london/actorkit/uri"
)

func uriFor(path string) uri.ActorUri {
	return uri.ActorUri{Path: path, Host: "local"}
}

type recordingMailbox struct {
	mu   sync.Mutex
	msgs []any
}

func (r *recordingMailbox) EnqueueUser(env actor.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, env.Msg)
	return nil
}

func (r *recordingMailbox) EnqueueSystem(actor.Envelope) error { return nil }

func (r *recordingMailbox) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for condition")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestOnceDeliversExactlyOnce(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	s.Start()
	defer goleak.VerifyNone(t)
	defer s.Stop()

	mb := &recordingMailbox{}
	receiver := actor.NewBasicActorRef(mb, uriFor("/user/once"))

	s.Once(15*time.Millisecond, receiver, actor.BasicActorRef{}, "tick")

	waitUntil(t, func() bool { return mb.count() == 1 })
	time.Sleep(60 * time.Millisecond)
	if mb.count() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", mb.count())
	}
}

func TestRepeatDeliversMultipleTimes(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	s.Start()
	defer goleak.VerifyNone(t)
	defer s.Stop()

	mb := &recordingMailbox{}
	receiver := actor.NewBasicActorRef(mb, uriFor("/user/repeat"))

	id := s.Repeat(10*time.Millisecond, 10*time.Millisecond, receiver, actor.BasicActorRef{}, "tick")
	waitUntil(t, func() bool { return mb.count() >= 3 })
	s.Cancel(id)
}

func TestCancelPreventsFutureDelivery(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	s.Start()
	defer goleak.VerifyNone(t)
	defer s.Stop()

	mb := &recordingMailbox{}
	receiver := actor.NewBasicActorRef(mb, uriFor("/user/cancelled"))

	id := s.Once(30*time.Millisecond, receiver, actor.BasicActorRef{}, "tick")
	s.Cancel(id)
	time.Sleep(80 * time.Millisecond)

	if mb.count() != 0 {
		t.Fatalf("expected cancelled job to never deliver, got %d deliveries", mb.count())
	}
}
