package channel

import (
	"go.fergus.london/actorkit/actor"
	"go.fergus.london/actorkit/logger"
)

// DeadLetter is delivered on the dead-letter channel whenever a send
// is rejected by a sealed/terminated mailbox.
type DeadLetter struct {
	RecipientPath string
	Sender        actor.BasicActorRef
	Msg           any
}

// RouteDeadLetter wraps recipient/sender/msg as a Publish to the
// dead-letter channel under the wildcard topic, so the default
// DeadLetterLogger (subscribed to All) sees every one without the
// caller needing to know a specific topic name.
func RouteDeadLetter(deadLetters actor.BasicActorRef, recipientPath string, sender actor.BasicActorRef, msg any) {
	_ = deadLetters.TellAny(Publish{
		Topic: All,
		Msg:   DeadLetter{RecipientPath: recipientPath, Sender: sender, Msg: msg},
	}, actor.BasicActorRef{})
}

// DeadLetterLogger is the default subscriber every system attaches to
// its own dead-letter channel: it logs each DeadLetter through the
// logger seam, matching the original runtime's DeadLetterLogger.
type DeadLetterLogger struct {
	actor.BaseActor
}

// NewDeadLetterLogger constructs a Producer for a DeadLetterLogger
// actor, meant to be created under the system's /system root and
// subscribed to the dead-letter channel's wildcard topic.
func NewDeadLetterLogger() actor.Producer {
	return func() actor.Actor { return &DeadLetterLogger{} }
}

func (DeadLetterLogger) Receive(ctx *actor.Context, msg any, sender actor.BasicActorRef) {
	switch m := msg.(type) {
	case Publish:
		if dl, ok := m.Msg.(DeadLetter); ok {
			logger.Logf("dead letter: recipient=%s sender=%s msg=%#v", dl.RecipientPath, dl.Sender.Path(), dl.Msg)
		}
	case DeadLetter:
		logger.Logf("dead letter: recipient=%s sender=%s msg=%#v", m.RecipientPath, m.Sender.Path(), m.Msg)
	}
}
