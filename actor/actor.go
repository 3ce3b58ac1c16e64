// Package actor defines the user-facing actor contract: the behavior
// interface applications implement, the context passed to every
// receive, and the typed/untyped reference types used to address
// actors. It deliberately knows nothing about mailboxes, dispatch, or
// supervision mechanics (kernel) — only the narrow seams (MailboxHandle,
// CellHandle, SystemFacade) those subsystems implement against it.
package actor

// Actor is the behavior object a user implements. Lifecycle hooks and
// the supervisor strategy have defaults via BaseActor; only Receive
// needs implementing for the common case.
type Actor interface {
	// PreStart runs once per behavior instance, immediately after the
	// cell enters Starting: at creation, and again on the fresh instance
	// a Restart produces. A panic at creation aborts it entirely: the
	// caller of ctx.ActorOf/system.ActorOf observes
	// CreateError{Kind: CreateErrorPanicked} and the cell never reaches
	// Running. A panic during a restart is handled as a RestartError.
	PreStart(ctx *Context)
	// PostStart runs once the cell has reached Running. A panic here
	// follows the normal supervision strategy (it is treated as any
	// other receive fault).
	PostStart(ctx *Context)
	// PreRestart runs on the old behavior instance before a Restart
	// command reconstructs a fresh one via the stored Producer.
	PreRestart(ctx *Context)
	// PostStop runs once, after all of a cell's children have reached
	// Terminated and just before the mailbox itself is sealed.
	PostStop(ctx *Context)
	// Receive handles a single user message. A panic (or equivalent
	// controlled failure) here is caught by the dispatcher, which
	// suspends the mailbox and reports Failed(self) to the parent.
	Receive(ctx *Context, msg any, sender BasicActorRef)
	// SysReceive handles a system message that is not one of the
	// lifecycle/supervision messages the kernel itself consumes
	// (ActorInit, Command, Failed). Most actors never see one; it
	// exists so applications layering their own control protocol on
	// top of SystemMsg have a seam to do so.
	SysReceive(ctx *Context, sysMsg SystemMsg, sender BasicActorRef)
	// SupervisorStrategy tells the kernel how to react when a child of
	// this actor reports a fault. Consulted once per Failed message.
	SupervisorStrategy() Strategy
}

// BaseActor supplies no-op defaults for every Actor method except
// Receive, which remains unimplemented on purpose: embed BaseActor and
// override Receive (and, optionally, any of the hooks or the strategy).
type BaseActor struct{}

func (BaseActor) PreStart(*Context)    {}
func (BaseActor) PostStart(*Context)   {}
func (BaseActor) PreRestart(*Context)  {}
func (BaseActor) PostStop(*Context)    {}
func (BaseActor) SysReceive(*Context, SystemMsg, BasicActorRef) {}

// SupervisorStrategy defaults to Restart, matching the original
// Riker-derived runtime's default.
func (BaseActor) SupervisorStrategy() Strategy { return StrategyRestart }

// Context is passed by reference into every lifecycle hook and every
// receive. It carries the actor's own reference, its parent, the
// system façade, the sender of the message currently being handled,
// and (through the embedded CellHandle) the ability to create and
// enumerate children.
type Context struct {
	// Myself is this actor's own untyped reference. Actors that want a
	// typed handle to themselves should wrap it with NewActorRef[M].
	Myself BasicActorRef
	// Parent is this actor's parent, or the zero value for the
	// top-level "/" root, which has no parent.
	Parent BasicActorRef
	// Sender is whoever sent the message currently being processed. It
	// is the zero BasicActorRef for lifecycle hooks and for messages
	// sent with no reply address.
	Sender BasicActorRef
	// System is the narrow façade surface: selection, scheduling,
	// channels, and system-wide metadata.
	System SystemFacade

	cell CellHandle
}

// NewContext is used by the kernel package to build the Context handed
// to a cell's behavior.
func NewContext(myself, parent BasicActorRef, system SystemFacade, cell CellHandle) *Context {
	return &Context{Myself: myself, Parent: parent, System: system, cell: cell}
}

// ActorOf creates an untyped child actor beneath the actor that owns
// ctx. See the package-level ActorOf for a typed wrapper.
func (c *Context) ActorOf(producer Producer, name string) (BasicActorRef, error) {
	return c.cell.CreateChild(name, producer)
}

// Children returns a point-in-time snapshot of this actor's direct
// children.
func (c *Context) Children() []BasicActorRef {
	return c.cell.Children()
}

// Stop requests that one of this actor's children stop gracefully. To
// stop an arbitrary (non-child) actor, go through c.System.Stop instead.
func (c *Context) Stop(ref BasicActorRef) {
	c.cell.StopChild(ref)
}
