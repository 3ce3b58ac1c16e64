package actor

import (
	"errors"
	"testing"

	"go.fergus.london/actorkit/uri"
)

type fakeMailbox struct {
	sealed    bool
	delivered []Envelope
}

func (m *fakeMailbox) EnqueueUser(env Envelope) error {
	if m.sealed {
		return ErrSealed
	}
	m.delivered = append(m.delivered, env)
	return nil
}

func (m *fakeMailbox) EnqueueSystem(env Envelope) error {
	if m.sealed {
		return ErrSealed
	}
	m.delivered = append(m.delivered, env)
	return nil
}

func TestActorRefTellDeliversAndReturnsNilOnSuccess(t *testing.T) {
	mb := &fakeMailbox{}
	ref := NewActorRef[string](NewBasicActorRef(mb, uri.ActorUri{Path: "/user/x", Uid: 1}))

	if err := ref.Tell("hello", BasicActorRef{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mb.delivered) != 1 || mb.delivered[0].Msg != "hello" {
		t.Fatalf("message not delivered: %+v", mb.delivered)
	}
}

func TestActorRefTellOnSealedMailboxReturnsMsgError(t *testing.T) {
	mb := &fakeMailbox{sealed: true}
	ref := NewActorRef[int](NewBasicActorRef(mb, uri.ActorUri{Path: "/user/x", Uid: 2}))

	err := ref.Tell(42, BasicActorRef{})
	if err == nil {
		t.Fatal("expected error for sealed mailbox")
	}

	var msgErr *MsgError[int]
	if !errors.As(err, &msgErr) {
		t.Fatalf("expected *MsgError[int], got %T", err)
	}
	if msgErr.Msg != 42 {
		t.Errorf("got msg %d, want 42", msgErr.Msg)
	}
}

func TestTryTellWithNilRefReturnsTryMsgError(t *testing.T) {
	var ref *ActorRef[string]

	err := TryTell(ref, "hi", BasicActorRef{})
	var tryErr *TryMsgError[string]
	if !errors.As(err, &tryErr) {
		t.Fatalf("expected *TryMsgError[string], got %T", err)
	}
}

func TestTryTellWithZeroRefReturnsTryMsgError(t *testing.T) {
	ref := ActorRef[string]{}

	err := TryTell(&ref, "hi", BasicActorRef{})
	var tryErr *TryMsgError[string]
	if !errors.As(err, &tryErr) {
		t.Fatalf("expected *TryMsgError[string], got %T", err)
	}
}

func TestTryTellWithLiveRefDelivers(t *testing.T) {
	mb := &fakeMailbox{}
	ref := NewActorRef[string](NewBasicActorRef(mb, uri.ActorUri{Path: "/user/x", Uid: 3}))

	if err := TryTell(&ref, "hi", BasicActorRef{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBasicActorRefEquality(t *testing.T) {
	a := NewBasicActorRef(&fakeMailbox{}, uri.ActorUri{Uid: 9})
	b := NewBasicActorRef(&fakeMailbox{}, uri.ActorUri{Uid: 9})
	c := NewBasicActorRef(&fakeMailbox{}, uri.ActorUri{Uid: 10})

	if !a.Equal(b) {
		t.Error("refs sharing a uid should be equal")
	}
	if a.Equal(c) {
		t.Error("refs with different uids should not be equal")
	}
}

func TestBaseActorDefaults(t *testing.T) {
	var base BaseActor
	base.PreStart(nil)
	base.PostStart(nil)
	base.PreRestart(nil)
	base.PostStop(nil)
	base.SysReceive(nil, SystemMsg{}, BasicActorRef{})

	if base.SupervisorStrategy() != StrategyRestart {
		t.Errorf("expected default strategy Restart, got %v", base.SupervisorStrategy())
	}
}

func TestCreateErrorMessages(t *testing.T) {
	cases := []*CreateError{
		{Kind: CreateErrorPanicked},
		{Kind: CreateErrorSystem},
		{Kind: CreateErrorInvalidName, Name: "bad name"},
		{Kind: CreateErrorAlreadyExists, Path: "/user/a"},
	}
	for _, c := range cases {
		if c.Error() == "" {
			t.Errorf("expected non-empty message for %+v", c)
		}
	}
}
