package kernel

import "go.fergus.london/actorkit/actor"

// Environment is the narrow view of the system façade a Cell needs:
// identity minting, the shared worker pool and mailbox quota, dead
// letter routing, and system-event publication. system.ActorSystem
// implements it; kernel never imports system (system imports kernel),
// so this interface is what breaks the cycle.
type Environment interface {
	Host() string
	NextUid() uint32
	Pool() *Pool
	MailboxLimit() int
	RouteDeadLetter(recipientPath string, sender actor.BasicActorRef, msg any)
	PublishEvent(kind actor.SysKind, subject actor.BasicActorRef)
	// RegisterChild and UnregisterChild keep the system-wide path
	// registry ActorSelection resolves against current: every cell
	// anywhere in the hierarchy reports itself here the instant it
	// links into its parent, and again the instant it reaches
	// Terminated, so Select("/user/*") never needs the kernel package
	// to know about the system package's bookkeeping.
	RegisterChild(ref actor.BasicActorRef)
	UnregisterChild(ref actor.BasicActorRef)
	Facade() actor.SystemFacade
	Logf(format string, args ...any)
}
