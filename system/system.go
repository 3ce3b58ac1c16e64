// Package system wires the kernel, channel, and timer packages together
// into the actor system façade applications actually construct: the
// root hierarchy (/, /user, /system, /temp), the built-in events and
// dead-letter channels, scheduling, and selection by path.
package system

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"go.fergus.london/actorkit/actor"
	"go.fergus.london/actorkit/channel"
	"go.fergus.london/actorkit/config"
	"go.fergus.london/actorkit/kernel"
	"go.fergus.london/actorkit/logger"
	"go.fergus.london/actorkit/timer"
	"go.fergus.london/actorkit/uri"
)

// ActorSystem is the runtime's entry point: it owns the worker pool,
// the scheduler, the root hierarchy, and the two built-in channels, and
// implements both kernel.Environment (what a Cell needs) and
// actor.SystemFacade (what a Context's System field exposes to
// application code).
type ActorSystem struct {
	name      string
	id        string
	host      string
	startedAt time.Time

	pool         *kernel.Pool
	mailboxLimit int
	uidCounter   atomic.Uint32
	scheduler    *timer.Scheduler

	root, userRoot, systemRoot, tempRoot *kernel.Cell

	eventsRef      actor.BasicActorRef
	deadLettersRef actor.BasicActorRef

	mu       sync.RWMutex
	registry map[string]actor.BasicActorRef
}

// New validates name, then builds the pool, scheduler, root hierarchy,
// system channels and dead-letter logger in the order the original
// runtime's ActorSystem::create follows.
func New(name string, settings *config.Settings) (*ActorSystem, error) {
	if err := uri.ValidateName(name); err != nil {
		return nil, &actor.CreateError{Kind: actor.CreateErrorInvalidName, Name: name}
	}

	s := &ActorSystem{
		name:         name,
		id:           uuid.NewString(),
		host:         "local",
		startedAt:    time.Now(),
		pool:         kernel.NewPool(settings.DispatcherPoolSize),
		mailboxLimit: settings.MsgProcessLimit,
		scheduler:    timer.NewScheduler(settings.SchedulerFrequency),
		registry:     make(map[string]actor.BasicActorRef),
	}
	s.scheduler.Start()

	rootUri := uri.ActorUri{Name: "", Path: "/", Host: s.host, Uid: s.NextUid()}
	root, err := kernel.BootstrapRoot(s, rootUri, func() actor.Actor { return &guardian{} })
	if err != nil {
		return nil, &actor.CreateError{Kind: actor.CreateErrorSystem, Name: name}
	}
	s.root = root

	for _, mount := range []struct {
		name string
		dest **kernel.Cell
	}{
		{"user", &s.userRoot},
		{"system", &s.systemRoot},
		{"temp", &s.tempRoot},
	} {
		ref, err := s.root.CreateChild(mount.name, func() actor.Actor { return &guardian{} })
		if err != nil {
			return nil, err
		}
		cell, ok := ref.Handle().(*kernel.Cell)
		if !ok {
			return nil, &actor.CreateError{Kind: actor.CreateErrorSystem, Name: mount.name}
		}
		*mount.dest = cell
	}

	eventsRef, err := s.systemRoot.CreateChild("eventStream", channel.New(256))
	if err != nil {
		return nil, err
	}
	s.eventsRef = eventsRef

	deadLettersRef, err := s.systemRoot.CreateChild("deadLetters", channel.New(256))
	if err != nil {
		return nil, err
	}
	s.deadLettersRef = deadLettersRef

	dlLoggerRef, err := s.systemRoot.CreateChild("deadLetterLogger", channel.NewDeadLetterLogger())
	if err != nil {
		return nil, err
	}
	_ = s.deadLettersRef.TellAny(channel.Subscribe{Topic: channel.All, Subscriber: dlLoggerRef}, actor.BasicActorRef{})

	return s, nil
}

// guardian is the no-op behavior every root node in the hierarchy runs;
// its only job is to own children and apply the default supervision
// strategy to them.
type guardian struct {
	actor.BaseActor
}

func (guardian) Receive(*actor.Context, any, actor.BasicActorRef) {}

// --- kernel.Environment ---

func (s *ActorSystem) Host() string { return s.host }

func (s *ActorSystem) NextUid() uint32 { return s.uidCounter.Add(1) }

func (s *ActorSystem) Pool() *kernel.Pool { return s.pool }

func (s *ActorSystem) MailboxLimit() int { return s.mailboxLimit }

func (s *ActorSystem) Facade() actor.SystemFacade { return s }

func (s *ActorSystem) Logf(format string, args ...any) {
	logger.Logf(format, args...)
}

func (s *ActorSystem) RouteDeadLetter(recipientPath string, sender actor.BasicActorRef, msg any) {
	if s.deadLettersRef.IsZero() {
		logger.Logf("dead letter (channel not yet available): recipient=%s msg=%#v", recipientPath, msg)
		return
	}
	channel.RouteDeadLetter(s.deadLettersRef, recipientPath, sender, msg)
}

func (s *ActorSystem) PublishEvent(kind actor.SysKind, subject actor.BasicActorRef) {
	if s.eventsRef.IsZero() {
		return
	}
	channel.PublishSystemEvent(s.eventsRef, kind, subject)
}

func (s *ActorSystem) RegisterChild(ref actor.BasicActorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[ref.Path()] = ref
}

func (s *ActorSystem) UnregisterChild(ref actor.BasicActorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registry, ref.Path())
}

// --- actor.SystemFacade ---

func (s *ActorSystem) Name() string { return s.name }

func (s *ActorSystem) ID() string { return s.id }

func (s *ActorSystem) Uptime() uint64 {
	return uint64(time.Since(s.startedAt).Seconds())
}

func (s *ActorSystem) Stop(ref actor.BasicActorRef) {
	_ = ref.SysTell(actor.SystemMsg{Kind: actor.SysCommandStop}, actor.BasicActorRef{})
}

func (s *ActorSystem) SysEvents() actor.BasicActorRef { return s.eventsRef }

func (s *ActorSystem) DeadLetters() actor.BasicActorRef { return s.deadLettersRef }

func (s *ActorSystem) ScheduleOnce(delay time.Duration, receiver, sender actor.BasicActorRef, msg any) actor.ScheduleID {
	return s.scheduler.Once(delay, receiver, sender, msg)
}

func (s *ActorSystem) ScheduleRepeat(initial, interval time.Duration, receiver, sender actor.BasicActorRef, msg any) actor.ScheduleID {
	return s.scheduler.Repeat(initial, interval, receiver, sender, msg)
}

func (s *ActorSystem) Cancel(id actor.ScheduleID) {
	s.scheduler.Cancel(id)
}

// --- actor creation entry points ---

// ActorOf creates a typed top-level actor under /user.
func ActorOf[M any](s *ActorSystem, name string, producer actor.Producer) (actor.ActorRef[M], error) {
	ref, err := s.userRoot.CreateChild(name, producer)
	if err != nil {
		return actor.ActorRef[M]{}, err
	}
	return actor.NewActorRef[M](ref), nil
}

// SysActorOf creates a runtime-internal actor under /system.
func (s *ActorSystem) SysActorOf(name string, producer actor.Producer) (actor.BasicActorRef, error) {
	return s.systemRoot.CreateChild(name, producer)
}

// TmpActorOf creates a short-lived actor under /temp, addressed by a
// system-minted unique name rather than one the caller chooses.
func (s *ActorSystem) TmpActorOf(producer actor.Producer) (actor.BasicActorRef, error) {
	name := fmt.Sprintf("tmp-%d", s.NextUid())
	return s.tempRoot.CreateChild(name, producer)
}

// Shutdown stops /user and returns a channel that closes once its
// ActorTerminated has been observed on the events channel. The
// terminator subscribes before sending Stop, resolving the race
// spec.md §9 flags: if Stop were sent first, /user could terminate and
// publish its event before the subscription existed to see it.
func (s *ActorSystem) Shutdown() <-chan struct{} {
	done := make(chan struct{})
	userPath := s.userRoot.Path()

	termRef, err := s.TmpActorOf(func() actor.Actor {
		return &terminator{target: userPath, done: done}
	})
	if err != nil {
		close(done)
		return done
	}

	_ = s.eventsRef.TellAny(channel.Subscribe{
		Topic:      channel.EventTopic(actor.SysEventActorTerminated),
		Subscriber: termRef,
	}, actor.BasicActorRef{})

	s.Stop(s.userRoot.SelfRef())
	return done
}

// terminator is Shutdown's private watcher actor: it closes its done
// channel the moment it observes /user's own ActorTerminated event.
type terminator struct {
	actor.BaseActor
	target string
	done   chan struct{}
	once   sync.Once
}

func (t *terminator) Receive(ctx *actor.Context, msg any, sender actor.BasicActorRef) {
	ev, ok := msg.(channel.SystemEvent)
	if !ok {
		return
	}
	if ev.Subject.Path() == t.target {
		t.once.Do(func() { close(t.done) })
	}
}
