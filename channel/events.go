package channel

import "go.fergus.london/actorkit/actor"

// EventTopic maps a system lifecycle/supervision event kind onto the
// topic subscribers address it by, so "subscribe to every
// ActorTerminated" is a single Subscribe{Topic: EventTopic(SysEventActorTerminated)}.
func EventTopic(kind actor.SysKind) Topic {
	return Topic(kind.String())
}

// PublishSystemEvent wraps the SysKind/subject pair as a Publish
// message addressed to the events channel, keyed by EventTopic so
// subscribers filter by event kind without seeing traffic they didn't
// ask for (the events-channel equivalent of the original's
// sys_events bus).
func PublishSystemEvent(eventsChannel actor.BasicActorRef, kind actor.SysKind, subject actor.BasicActorRef) {
	_ = eventsChannel.TellAny(Publish{
		Topic: EventTopic(kind),
		Msg:   SystemEvent{Kind: kind, Subject: subject},
	}, actor.BasicActorRef{})
}

// SystemEvent is the payload delivered to subscribers of the events
// channel: which kind of lifecycle/supervision event fired, and which
// actor it concerns.
type SystemEvent struct {
	Kind    actor.SysKind
	Subject actor.BasicActorRef
}
