// Package channel implements the pub/sub primitive actors are built on
// top of: topics with an "*"/All wildcard, a subscriber set per topic,
// and the two system-wide channels (events, dead letters) every
// actor system starts with.
package channel

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"go.fergus.london/actorkit/actor"
)

// Topic names a channel subject. All is the wildcard subject: a
// subscriber to All receives every Publish regardless of its Topic.
type Topic string

const All Topic = "*"

// Subscribe registers Subscriber to receive every Publish on Topic.
type Subscribe struct {
	Topic      Topic
	Subscriber actor.BasicActorRef
}

// Unsubscribe removes Subscriber from Topic only.
type Unsubscribe struct {
	Topic      Topic
	Subscriber actor.BasicActorRef
}

// UnsubscribeAll removes Subscriber from every topic it holds,
// including the wildcard.
type UnsubscribeAll struct {
	Subscriber actor.BasicActorRef
}

// Publish fans Msg out to every live subscriber of Topic, plus every
// wildcard subscriber.
type Publish struct {
	Topic Topic
	Msg   any
}

// Channel is a pub/sub actor: its mailbox is its synchronization point,
// so subscriber-set mutation and fan-out delivery never race each
// other. The resolved fan-out list per topic is memoized in an LRU
// cache, invalidated on every subscription change.
type Channel struct {
	actor.BaseActor

	subs     map[Topic]map[uint32]actor.BasicActorRef
	wildcard map[uint32]actor.BasicActorRef
	fanout   *lru.Cache[Topic, []actor.BasicActorRef]
}

// New constructs a Producer for a fresh Channel actor. cacheSize bounds
// the number of distinct topics whose resolved fan-out list is kept
// memoized at once.
func New(cacheSize int) actor.Producer {
	return func() actor.Actor {
		cache, _ := lru.New[Topic, []actor.BasicActorRef](cacheSize)
		return &Channel{
			subs:     make(map[Topic]map[uint32]actor.BasicActorRef),
			wildcard: make(map[uint32]actor.BasicActorRef),
			fanout:   cache,
		}
	}
}

func (c *Channel) Receive(ctx *actor.Context, msg any, sender actor.BasicActorRef) {
	switch m := msg.(type) {
	case Subscribe:
		c.subscribe(m.Topic, m.Subscriber)
	case Unsubscribe:
		c.unsubscribe(m.Topic, m.Subscriber)
	case UnsubscribeAll:
		c.unsubscribeAll(m.Subscriber)
	case Publish:
		c.publish(m.Topic, m.Msg, sender)
	}
}

func (c *Channel) subscribe(topic Topic, ref actor.BasicActorRef) {
	if topic == All {
		c.wildcard[ref.Uid()] = ref
	} else {
		set, ok := c.subs[topic]
		if !ok {
			set = make(map[uint32]actor.BasicActorRef)
			c.subs[topic] = set
		}
		set[ref.Uid()] = ref
	}
	c.fanout.Remove(topic)
	c.fanout.Purge()
}

func (c *Channel) unsubscribe(topic Topic, ref actor.BasicActorRef) {
	if topic == All {
		delete(c.wildcard, ref.Uid())
	} else if set, ok := c.subs[topic]; ok {
		delete(set, ref.Uid())
	}
	c.fanout.Purge()
}

func (c *Channel) unsubscribeAll(ref actor.BasicActorRef) {
	delete(c.wildcard, ref.Uid())
	for _, set := range c.subs {
		delete(set, ref.Uid())
	}
	c.fanout.Purge()
}

// publish resolves (or recomputes) the fan-out list for topic and
// tells every live subscriber. A subscriber whose mailbox rejects
// delivery (sealed/terminated) is dropped from both the topic's
// subscriber set and the wildcard set, and the cached fan-out for
// every topic is invalidated so the next publish recomputes cleanly.
func (c *Channel) publish(topic Topic, msg any, sender actor.BasicActorRef) {
	fanout, ok := c.fanout.Get(topic)
	if !ok {
		fanout = c.resolveFanout(topic)
		c.fanout.Add(topic, fanout)
	}

	var dead []actor.BasicActorRef
	for _, sub := range fanout {
		if err := sub.TellAny(msg, sender); err != nil {
			dead = append(dead, sub)
		}
	}
	for _, sub := range dead {
		c.unsubscribeAll(sub)
	}
}

func (c *Channel) resolveFanout(topic Topic) []actor.BasicActorRef {
	set := c.subs[topic]
	out := make([]actor.BasicActorRef, 0, len(set)+len(c.wildcard))
	for _, ref := range set {
		out = append(out, ref)
	}
	for _, ref := range c.wildcard {
		out = append(out, ref)
	}
	return out
}
