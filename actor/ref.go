package actor

import (
	"time"

	"go.fergus.london/actorkit/uri"
)

// MailboxHandle is the narrow surface a reference needs to deliver into
// a cell's mailbox. kernel.Cell implements it; actor never imports
// kernel, avoiding an import cycle between the two.
type MailboxHandle interface {
	EnqueueUser(Envelope) error
	EnqueueSystem(Envelope) error
}

// CellHandle is the narrow surface a Context needs to manipulate its
// own cell: creating children, enumerating them, and asking one to
// stop. kernel.Cell implements it.
type CellHandle interface {
	CreateChild(name string, producer Producer) (BasicActorRef, error)
	Children() []BasicActorRef
	StopChild(ref BasicActorRef)
}

// ScheduleID identifies a pending timer job for later cancellation.
type ScheduleID uint64

// Selection is what system.Select returns: a path pattern that may
// match zero or more live references at send time.
type Selection interface {
	Tell(msg any, sender BasicActorRef)
	Refs() []BasicActorRef
}

// SystemFacade is the narrow view of the system façade that actor code
// (running inside a Context) is allowed to see.
type SystemFacade interface {
	Name() string
	ID() string
	Uptime() uint64
	Stop(ref BasicActorRef)
	Select(path string) (Selection, error)
	SysEvents() BasicActorRef
	DeadLetters() BasicActorRef
	ScheduleOnce(delay time.Duration, receiver, sender BasicActorRef, msg any) ScheduleID
	ScheduleRepeat(initial, interval time.Duration, receiver, sender BasicActorRef, msg any) ScheduleID
	Cancel(id ScheduleID)
}

// BasicActorRef is the type-erased, cloneable handle every reference
// ultimately carries. Equality and hashing are by Uid. A zero-valued
// BasicActorRef (handle == nil) denotes "no reference" and is what
// TryTell treats as absent.
type BasicActorRef struct {
	handle MailboxHandle
	Uri    uri.ActorUri
}

// NewBasicActorRef is used by the kernel package to mint a reference
// over one of its cells.
func NewBasicActorRef(handle MailboxHandle, id uri.ActorUri) BasicActorRef {
	return BasicActorRef{handle: handle, Uri: id}
}

// IsZero reports whether r carries no live mailbox handle.
func (r BasicActorRef) IsZero() bool {
	return r.handle == nil
}

// Handle exposes the underlying MailboxHandle. Most callers never need
// this — it exists so a package that knows the concrete implementation
// (system, over kernel.Cell) can recover it via a type assertion
// without the actor package itself knowing kernel exists.
func (r BasicActorRef) Handle() MailboxHandle {
	return r.handle
}

// Path returns the actor's rooted path.
func (r BasicActorRef) Path() string {
	return r.Uri.Path
}

// Uid returns the actor's process-unique incarnation id.
func (r BasicActorRef) Uid() uint32 {
	return r.Uri.Uid
}

// Equal compares references by Uid, matching actors-rs's ActorReference
// equality semantics.
func (r BasicActorRef) Equal(other BasicActorRef) bool {
	return r.Uri.Uid == other.Uri.Uid
}

// TellAny enqueues an untyped user message, downcast on the receiving
// side by the actor's own Receive implementation.
func (r BasicActorRef) TellAny(msg any, sender BasicActorRef) error {
	if r.handle == nil {
		return ErrSealed
	}
	return r.handle.EnqueueUser(Envelope{Msg: msg, Sender: sender})
}

// SysTell enqueues a system message; used internally by the kernel and
// supervision machinery, exported so channel/timer/system can reach it.
func (r BasicActorRef) SysTell(msg SystemMsg, sender BasicActorRef) error {
	if r.handle == nil {
		return ErrSealed
	}
	return r.handle.EnqueueSystem(Envelope{Msg: msg, Sender: sender})
}

// Producer constructs a fresh Actor instance. It is stored by the cell
// and re-invoked on every restart, so it must be a pure function of no
// external mutable state beyond what the actor itself owns afterward.
type Producer func() Actor

// ActorRef is a cheap, cloneable, typed handle over a cell with known
// user message type M. It is sugar over BasicActorRef: constructing one
// never changes the underlying mailbox contract, it only narrows the
// compile-time surface offered to callers who know the concrete type.
type ActorRef[M any] struct {
	basic BasicActorRef
}

// NewActorRef wraps a BasicActorRef as a typed ActorRef[M]. Callers are
// responsible for M actually matching what the target actor expects;
// the runtime itself never inspects M except through Tell's signature.
func NewActorRef[M any](basic BasicActorRef) ActorRef[M] {
	return ActorRef[M]{basic: basic}
}

// Basic erases the message type, yielding the untyped handle.
func (r ActorRef[M]) Basic() BasicActorRef {
	return r.basic
}

// Path returns the actor's rooted path.
func (r ActorRef[M]) Path() string {
	return r.basic.Path()
}

// IsZero reports whether r carries no live mailbox handle.
func (r ActorRef[M]) IsZero() bool {
	return r.basic.IsZero()
}

// Tell enqueues a typed user message. If the target mailbox has been
// sealed, the envelope is routed to dead letters by the cell itself and
// a MsgError[M] carrying msg is returned to the caller.
func (r ActorRef[M]) Tell(msg M, sender BasicActorRef) error {
	if err := r.basic.TellAny(msg, sender); err != nil {
		return &MsgError[M]{Msg: msg}
	}
	return nil
}

// TryTell is the syntactic helper for callers holding an optional
// *ActorRef[M] (e.g. a field that may not have been set yet).
func TryTell[M any](ref *ActorRef[M], msg M, sender BasicActorRef) error {
	if ref == nil || ref.IsZero() {
		return &TryMsgError[M]{Msg: msg}
	}
	return ref.Tell(msg, sender)
}

// ActorOf creates a typed child actor from within ctx and wraps the
// result. The underlying cell is untyped; M is purely a caller-side
// convenience and is never consulted by the runtime.
func ActorOf[M any](ctx *Context, name string, producer Producer) (ActorRef[M], error) {
	basic, err := ctx.ActorOf(producer, name)
	if err != nil {
		return ActorRef[M]{}, err
	}
	return NewActorRef[M](basic), nil
}
