package channel

import (
	"strings"
	"sync"
	"testing"
	"time"

	"go.fergus.london/actorkit/actor"
	"go.fergus.london/actorkit/logger"
	"go.fergus.london/actorkit/uri"
)

// fakeMailbox is a minimal actor.MailboxHandle double recording every
// user envelope it receives and optionally rejecting delivery once
// sealed, for exercising the "drop on failed delivery" path.
type fakeMailbox struct {
	mu     sync.Mutex
	sealed bool
	recv   []any
}

func (m *fakeMailbox) EnqueueUser(env actor.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sealed {
		return actor.ErrSealed
	}
	m.recv = append(m.recv, env.Msg)
	return nil
}

func (m *fakeMailbox) EnqueueSystem(actor.Envelope) error { return nil }

func (m *fakeMailbox) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recv)
}

func refFor(path string, mb *fakeMailbox, uid uint32) actor.BasicActorRef {
	return actor.NewBasicActorRef(mb, uri.ActorUri{Path: path, Host: "local", Uid: uid})
}

func TestPublishDeliversToTopicSubscribersOnly(t *testing.T) {
	ch := New(16)().(*Channel)
	ctx := &actor.Context{}

	a := &fakeMailbox{}
	refA := refFor("/user/a", a, 1)
	b := &fakeMailbox{}
	refB := refFor("/user/b", b, 2)

	ch.Receive(ctx, Subscribe{Topic: "orders", Subscriber: refA}, actor.BasicActorRef{})
	ch.Receive(ctx, Publish{Topic: "orders", Msg: "new order"}, actor.BasicActorRef{})

	if a.count() != 1 {
		t.Fatalf("expected subscriber to receive publish, got %d", a.count())
	}
	if b.count() != 0 {
		t.Fatalf("expected non-subscriber to receive nothing, got %d", b.count())
	}
}

func TestWildcardSubscriberReceivesEveryTopic(t *testing.T) {
	ch := New(16)().(*Channel)
	ctx := &actor.Context{}

	watcher := &fakeMailbox{}
	refW := refFor("/user/watcher", watcher, 3)
	ch.Receive(ctx, Subscribe{Topic: All, Subscriber: refW}, actor.BasicActorRef{})

	ch.Receive(ctx, Publish{Topic: "topic-a", Msg: "a"}, actor.BasicActorRef{})
	ch.Receive(ctx, Publish{Topic: "topic-b", Msg: "b"}, actor.BasicActorRef{})

	if watcher.count() != 2 {
		t.Fatalf("expected wildcard subscriber to see both publishes, got %d", watcher.count())
	}
}

func TestUnsubscribeRemovesSubscriber(t *testing.T) {
	ch := New(16)().(*Channel)
	ctx := &actor.Context{}

	a := &fakeMailbox{}
	refA := refFor("/user/a", a, 4)
	ch.Receive(ctx, Subscribe{Topic: "orders", Subscriber: refA}, actor.BasicActorRef{})
	ch.Receive(ctx, Unsubscribe{Topic: "orders", Subscriber: refA}, actor.BasicActorRef{})
	ch.Receive(ctx, Publish{Topic: "orders", Msg: "new order"}, actor.BasicActorRef{})

	if a.count() != 0 {
		t.Fatalf("expected unsubscribed actor to receive nothing, got %d", a.count())
	}
}

func TestPublishDropsSubscriberOnFailedDelivery(t *testing.T) {
	ch := New(16)().(*Channel)
	ctx := &actor.Context{}

	a := &fakeMailbox{}
	refA := refFor("/user/a", a, 5)
	ch.Receive(ctx, Subscribe{Topic: "orders", Subscriber: refA}, actor.BasicActorRef{})

	a.mu.Lock()
	a.sealed = true
	a.mu.Unlock()

	ch.Receive(ctx, Publish{Topic: "orders", Msg: "first"}, actor.BasicActorRef{})
	// Unseal the mailbox to confirm the dead subscriber was actually
	// dropped, not merely skipped once.
	a.mu.Lock()
	a.sealed = false
	a.mu.Unlock()
	ch.Receive(ctx, Publish{Topic: "orders", Msg: "second"}, actor.BasicActorRef{})

	if a.count() != 0 {
		t.Fatalf("expected dropped subscriber to never receive further publishes, got %d", a.count())
	}
}

func TestDeadLetterLoggerLogsRoutedDeadLetters(t *testing.T) {
	dlMailbox := &fakeMailbox{}
	dlRef := refFor("/system/deadLetters", dlMailbox, 6)

	RouteDeadLetter(dlRef, "/user/gone", actor.BasicActorRef{}, "undeliverable")

	if dlMailbox.count() != 1 {
		t.Fatalf("expected one message published to dead-letter channel, got %d", dlMailbox.count())
	}

	pub, ok := dlMailbox.recv[0].(Publish)
	if !ok {
		t.Fatalf("expected a Publish envelope, got %T", dlMailbox.recv[0])
	}
	dl, ok := pub.Msg.(DeadLetter)
	if !ok || dl.RecipientPath != "/user/gone" {
		t.Fatalf("unexpected dead letter payload: %#v", pub.Msg)
	}

	rec := &recordingLogger{}
	logger.WithLogger(rec)
	defer logger.WithLogger(nil)

	dlLogger := NewDeadLetterLogger()()
	dlLogger.Receive(&actor.Context{}, pub, actor.BasicActorRef{})

	if len(rec.lines) != 1 || !strings.Contains(rec.lines[0], "recipient=/user/gone") {
		t.Fatalf("expected one dead-letter log line for /user/gone, got %v", rec.lines)
	}
}

// recordingLogger captures every line written through the logger seam.
type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Println(msg string) {
	r.lines = append(r.lines, msg)
}

func TestEventTopicRoundTripsThroughPublishSystemEvent(t *testing.T) {
	evMailbox := &fakeMailbox{}
	evRef := refFor("/system/eventStream", evMailbox, 7)

	PublishSystemEvent(evRef, actor.SysEventActorTerminated, actor.BasicActorRef{})

	if evMailbox.count() != 1 {
		t.Fatalf("expected one event to be published, got %d", evMailbox.count())
	}
	pub, ok := evMailbox.recv[0].(Publish)
	if !ok || pub.Topic != EventTopic(actor.SysEventActorTerminated) {
		t.Fatalf("expected a Publish on topic %q, got %#v", EventTopic(actor.SysEventActorTerminated), evMailbox.recv[0])
	}
	time.Sleep(time.Millisecond) // defensive against any future async path
}
