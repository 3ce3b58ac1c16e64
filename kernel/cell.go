// Package kernel implements the actor kernel: the per-actor mailbox and
// dispatch loop (mailbox.go), the shared worker pool (pool.go), and the
// per-actor cell that ties lifecycle, hierarchy, and supervision
// together (this file).
package kernel

import (
	"fmt"
	"sync"

	"go.fergus.london/actorkit/actor"
	"go.fergus.london/actorkit/uri"
)

// Cell is the runtime's per-actor record. It implements both
// actor.MailboxHandle (so a BasicActorRef can enqueue into it) and
// actor.CellHandle (so a Context can create/enumerate children).
type Cell struct {
	env      Environment
	uriVal   uri.ActorUri
	mailbox  *Mailbox
	ctx      *actor.Context
	producer actor.Producer
	behavior actor.Actor

	parent    *Cell
	parentRef actor.BasicActorRef

	mu              sync.RWMutex
	children        map[string]*Cell
	watchers        map[uint32]actor.BasicActorRef
	state           LifecycleState
	pendingChildren int
}

// NewCell allocates a cell in state Uninitialized. It does not run the
// producer or pre_start; callers (the provider logic in CreateChild,
// or BootstrapRoot) drive that explicitly so CreateError::Panicked
// can be surfaced synchronously before the cell is ever linked into a
// parent's children map.
func NewCell(env Environment, id uri.ActorUri, parent *Cell, producer actor.Producer) *Cell {
	c := &Cell{
		env:      env,
		uriVal:   id,
		producer: producer,
		parent:   parent,
		children: make(map[string]*Cell),
		watchers: make(map[uint32]actor.BasicActorRef),
		state:    StateUninitialized,
	}
	if parent != nil {
		c.parentRef = parent.SelfRef()
	}
	c.mailbox = newMailbox(env.MailboxLimit(), env.Pool(), c)
	c.ctx = actor.NewContext(c.SelfRef(), c.parentRef, env.Facade(), c)
	return c
}

// SelfRef mints a BasicActorRef over this cell.
func (c *Cell) SelfRef() actor.BasicActorRef {
	return actor.NewBasicActorRef(c, c.uriVal)
}

// Path returns the cell's rooted path.
func (c *Cell) Path() string { return c.uriVal.Path }

// Uri returns the cell's full identity.
func (c *Cell) Uri() uri.ActorUri { return c.uriVal }

// State returns the cell's current lifecycle state.
func (c *Cell) State() LifecycleState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// --- actor.MailboxHandle ---

func (c *Cell) EnqueueUser(env actor.Envelope) error {
	if err := c.mailbox.EnqueueUser(env); err != nil {
		c.env.RouteDeadLetter(c.uriVal.Path, env.Sender, env.Msg)
		return err
	}
	return nil
}

func (c *Cell) EnqueueSystem(env actor.Envelope) error {
	if err := c.mailbox.EnqueueSystem(env); err != nil {
		c.env.RouteDeadLetter(c.uriVal.Path, env.Sender, env.Msg)
		return err
	}
	return nil
}

// --- actor.CellHandle ---

// CreateChild validates the name, rejects duplicates, constructs the
// child's behavior and runs its pre_start synchronously (so a panic
// there surfaces as CreateError to this very call), then hands the
// fully-linked child its ActorInit system message to finish starting
// (Running transition, ActorCreated publish, post_start) on the pool.
func (c *Cell) CreateChild(name string, producer actor.Producer) (actor.BasicActorRef, error) {
	if err := uri.ValidateName(name); err != nil {
		return actor.BasicActorRef{}, &actor.CreateError{Kind: actor.CreateErrorInvalidName, Name: name}
	}

	c.mu.Lock()
	if _, exists := c.children[name]; exists {
		c.mu.Unlock()
		return actor.BasicActorRef{}, &actor.CreateError{Kind: actor.CreateErrorAlreadyExists, Path: c.uriVal.Path + "/" + name}
	}
	childUri, err := uri.Child(c.uriVal, name, c.env.Host(), c.env.NextUid())
	if err != nil {
		c.mu.Unlock()
		return actor.BasicActorRef{}, &actor.CreateError{Kind: actor.CreateErrorInvalidName, Name: name}
	}
	// Claim the name immediately so two concurrent CreateChild calls
	// for the same name can't both proceed.
	c.children[name] = nil
	c.mu.Unlock()

	child := NewCell(c.env, childUri, c, producer)

	if panicked := c.startChild(child); panicked {
		c.mu.Lock()
		delete(c.children, name)
		c.mu.Unlock()
		return actor.BasicActorRef{}, &actor.CreateError{Kind: actor.CreateErrorPanicked, Name: name}
	}

	c.mu.Lock()
	c.children[name] = child
	c.mu.Unlock()

	childRef := child.SelfRef()
	c.env.RegisterChild(childRef)
	_ = childRef.SysTell(actor.SystemMsg{Kind: actor.SysActorInit}, actor.BasicActorRef{})
	return childRef, nil
}

// startChild constructs the behavior and runs pre_start, both
// synchronously and both recover-guarded. It reports whether either
// step panicked; on success the cell is left in state Starting,
// awaiting the ActorInit dispatch to reach Running.
func (c *Cell) startChild(child *Cell) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			c.env.Logf("actor %s panicked while starting: %v", child.uriVal.Path, r)
			panicked = true
		}
	}()

	behavior := child.producer()
	child.mu.Lock()
	child.behavior = behavior
	child.state = StateStarting
	child.mu.Unlock()

	behavior.PreStart(child.ctx)
	return false
}

// BootstrapRoot constructs and starts a parentless cell: one of the
// system's own `/`, `/user`, `/system`, `/temp` roots. It runs the same
// synchronous producer+pre_start sequence CreateChild runs for an
// ordinary child, then hands the cell its own ActorInit to finish
// starting asynchronously on the pool.
func BootstrapRoot(env Environment, id uri.ActorUri, producer actor.Producer) (*Cell, error) {
	root := NewCell(env, id, nil, producer)
	if panicked := root.startChild(root); panicked {
		return nil, &actor.CreateError{Kind: actor.CreateErrorPanicked, Name: id.Name}
	}
	ref := root.SelfRef()
	env.RegisterChild(ref)
	_ = ref.SysTell(actor.SystemMsg{Kind: actor.SysActorInit}, actor.BasicActorRef{})
	return root, nil
}

func (c *Cell) Children() []actor.BasicActorRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]actor.BasicActorRef, 0, len(c.children))
	for _, ch := range c.children {
		if ch != nil {
			out = append(out, ch.SelfRef())
		}
	}
	return out
}

func (c *Cell) StopChild(ref actor.BasicActorRef) {
	_ = ref.SysTell(actor.SystemMsg{Kind: actor.SysCommandStop}, actor.BasicActorRef{})
}

// Watch registers watcher to be sent SysEventActorTerminated when this
// cell reaches Terminated.
func (c *Cell) Watch(watcher actor.BasicActorRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers[watcher.Uid()] = watcher
}

// Unwatch removes a previously registered watcher.
func (c *Cell) Unwatch(watcher actor.BasicActorRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.watchers, watcher.Uid())
}

// --- dispatch callbacks, invoked only from this cell's own mailbox ---

func (c *Cell) handleUser(env actor.Envelope) {
	c.runGuarded(func() {
		ctx := c.contextFor(env.Sender)
		c.behavior.Receive(ctx, env.Msg, env.Sender)
	})
}

func (c *Cell) handleSystem(env actor.Envelope) {
	msg, ok := env.Msg.(actor.SystemMsg)
	if !ok {
		c.runGuarded(func() {
			c.behavior.SysReceive(c.contextFor(env.Sender), actor.SystemMsg{}, env.Sender)
		})
		return
	}

	switch msg.Kind {
	case actor.SysActorInit:
		c.completeStart()
	case actor.SysCommandStop:
		c.beginStop()
	case actor.SysCommandRestart:
		c.restart()
	case actor.SysFailed:
		c.handleChildFailed(msg.Subject)
	case actor.SysChildTerminated:
		c.onChildTerminated(msg.Subject)
	default:
		c.runGuarded(func() {
			c.behavior.SysReceive(c.contextFor(env.Sender), msg, env.Sender)
		})
	}
}

func (c *Cell) contextFor(sender actor.BasicActorRef) *actor.Context {
	c.ctx.Sender = sender
	return c.ctx
}

// completeStart finishes what CreateChild's synchronous half started:
// Starting -> Running, publish ActorCreated, run post_start. A fault in
// post_start is treated exactly like a receive fault (supervision
// strategy applies), per spec.md §4.2/§9.
func (c *Cell) completeStart() {
	c.mu.Lock()
	c.state = StateRunning
	c.mu.Unlock()
	c.env.PublishEvent(actor.SysEventActorCreated, c.SelfRef())
	c.runGuarded(func() {
		c.behavior.PostStart(c.ctx)
	})
}

// runGuarded invokes fn, recovering any fault surfaced by user code: it
// suspends this cell's mailbox and reports Failed(self) to the parent
// (or, for a parentless root, applies the root's own stop).
func (c *Cell) runGuarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.env.Logf("actor %s faulted: %v", c.uriVal.Path, r)
			c.mailbox.suspend()
			if c.parent != nil {
				_ = c.parentRef.SysTell(actor.SystemMsg{Kind: actor.SysFailed, Subject: c.SelfRef()}, actor.BasicActorRef{})
			} else {
				c.beginStop()
			}
		}
	}()
	fn()
}

// handleChildFailed is invoked when this cell (the parent) receives
// Failed(child): it consults its own SupervisorStrategy and executes
// the resulting directive.
func (c *Cell) handleChildFailed(childRef actor.BasicActorRef) {
	c.mu.RLock()
	child := c.childByUid(childRef.Uid())
	c.mu.RUnlock()
	if child == nil {
		return // already gone
	}

	switch c.behavior.SupervisorStrategy() {
	case actor.StrategyResume:
		child.mailbox.resume()
	case actor.StrategyRestart:
		child.restartTree()
	case actor.StrategyStop:
		child.beginStop()
	case actor.StrategyEscalate:
		if c.parent == nil {
			// Roots apply a terminal policy: escalation becomes Stop
			// on the offending child (spec.md §4.3).
			child.beginStop()
		} else {
			c.escalateSelf()
		}
	}
}

func (c *Cell) childByUid(uid uint32) *Cell {
	for _, ch := range c.children {
		if ch != nil && ch.uriVal.Uid == uid {
			return ch
		}
	}
	return nil
}

// escalateSelf re-raises this cell's own failure against its parent,
// as if c itself had faulted.
func (c *Cell) escalateSelf() {
	if c.parent == nil {
		c.beginStop()
		return
	}
	_ = c.parentRef.SysTell(actor.SystemMsg{Kind: actor.SysFailed, Subject: c.SelfRef()}, actor.BasicActorRef{})
}

// restartTree sends Restart to c and, depth-first pre-order, to every
// descendant (spec.md §4.3).
func (c *Cell) restartTree() {
	_ = c.SelfRef().SysTell(actor.SystemMsg{Kind: actor.SysCommandRestart}, actor.BasicActorRef{})
	for _, child := range c.Children() {
		if cell, ok := c.resolveChildCell(child); ok {
			cell.restartTree()
		}
	}
}

func (c *Cell) resolveChildCell(ref actor.BasicActorRef) (*Cell, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch := c.childByUid(ref.Uid())
	return ch, ch != nil
}

// restart runs pre_restart on the current behavior, reconstructs a
// fresh instance via the stored producer, runs post_stop on the old
// one, then re-enters Starting and runs pre_start on the fresh one
// before returning to Running. A fault during any of these steps is a
// RestartError: the cell is stopped and the failure escalated to the
// parent (spec.md §4.2).
func (c *Cell) restart() {
	c.mu.Lock()
	c.state = StateRestarting
	c.mu.Unlock()

	ok := c.tryRestartBehavior()
	if !ok {
		c.env.Logf("actor %s: %v", c.uriVal.Path, &actor.RestartError{Path: c.uriVal.Path})
		c.beginStop()
		c.escalateSelf()
		return
	}

	c.mu.Lock()
	c.state = StateRunning
	c.mu.Unlock()
	c.mailbox.resume()
	c.env.PublishEvent(actor.SysEventActorRestarted, c.SelfRef())
}

func (c *Cell) tryRestartBehavior() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	c.behavior.PreRestart(c.ctx)
	fresh := c.producer()
	old := c.behavior
	c.behavior = fresh
	old.PostStop(c.ctx)
	c.mu.Lock()
	c.state = StateStarting
	c.mu.Unlock()
	fresh.PreStart(c.ctx)
	return true
}

// beginStop transitions to Stopping, asks every child to stop, and
// (if there are none) finishes immediately.
func (c *Cell) beginStop() {
	c.mu.Lock()
	if c.state == StateStopping || c.state == StateTerminated {
		c.mu.Unlock()
		return
	}
	c.state = StateStopping
	children := make([]*Cell, 0, len(c.children))
	for _, ch := range c.children {
		if ch != nil {
			children = append(children, ch)
		}
	}
	c.pendingChildren = len(children)
	c.mu.Unlock()

	if len(children) == 0 {
		c.finishStop()
		return
	}
	for _, ch := range children {
		_ = ch.SelfRef().SysTell(actor.SystemMsg{Kind: actor.SysCommandStop}, actor.BasicActorRef{})
	}
}

// onChildTerminated is processed within this cell's own dispatch pass,
// preserving the invariant that the children map is only mutated
// during the owning cell's dispatch (spec.md §5).
func (c *Cell) onChildTerminated(childRef actor.BasicActorRef) {
	c.mu.Lock()
	for name, ch := range c.children {
		if ch != nil && ch.uriVal.Uid == childRef.Uid() {
			delete(c.children, name)
			break
		}
	}
	c.pendingChildren--
	done := c.pendingChildren <= 0 && c.state == StateStopping
	c.mu.Unlock()

	if done {
		c.finishStop()
	}
}

// finishStop runs post_stop, seals the mailbox, publishes
// ActorTerminated, notifies the parent (for children-map bookkeeping)
// and every registered watcher.
func (c *Cell) finishStop() {
	c.runGuarded(func() {
		c.behavior.PostStop(c.ctx)
	})
	c.mailbox.seal()

	c.mu.Lock()
	c.state = StateTerminated
	watchers := make([]actor.BasicActorRef, 0, len(c.watchers))
	for _, w := range c.watchers {
		watchers = append(watchers, w)
	}
	c.mu.Unlock()

	c.env.PublishEvent(actor.SysEventActorTerminated, c.SelfRef())
	c.env.UnregisterChild(c.SelfRef())

	if !c.parentRef.IsZero() {
		_ = c.parentRef.SysTell(actor.SystemMsg{Kind: actor.SysChildTerminated, Subject: c.SelfRef()}, actor.BasicActorRef{})
	}
	for _, w := range watchers {
		_ = w.SysTell(actor.SystemMsg{Kind: actor.SysEventActorTerminated, Subject: c.SelfRef()}, actor.BasicActorRef{})
	}
}

func (c *Cell) String() string {
	return fmt.Sprintf("Cell{%s state=%s}", c.uriVal.Path, c.State())
}
