package actor

import "fmt"

// CreateErrorKind distinguishes the ways ctx.ActorOf/system.ActorOf can
// fail to bring a new actor into existence.
type CreateErrorKind int

const (
	// CreateErrorPanicked means the producer or the actor's pre_start
	// faulted while the cell was starting.
	CreateErrorPanicked CreateErrorKind = iota
	// CreateErrorSystem means a runtime sub-module failed to start.
	CreateErrorSystem
	// CreateErrorInvalidName means the proposed name failed validation.
	CreateErrorInvalidName
	// CreateErrorAlreadyExists means a sibling already occupies that path.
	CreateErrorAlreadyExists
)

// CreateError is returned when actor creation fails.
type CreateError struct {
	Kind CreateErrorKind
	Name string
	Path string
}

func (e *CreateError) Error() string {
	switch e.Kind {
	case CreateErrorPanicked:
		return "failed to create actor: actor panicked while starting"
	case CreateErrorSystem:
		return "failed to create actor: system failure"
	case CreateErrorInvalidName:
		return fmt.Sprintf("failed to create actor: invalid actor name (%s)", e.Name)
	case CreateErrorAlreadyExists:
		return fmt.Sprintf("failed to create actor: an actor at the same path already exists (%s)", e.Path)
	default:
		return "failed to create actor"
	}
}

// RestartError is returned (internally, to the supervision machinery)
// when the producer faults while rebuilding an actor's behavior during
// a restart. The cell is then stopped and the failure escalated.
type RestartError struct {
	Path string
}

func (e *RestartError) Error() string {
	return fmt.Sprintf("failed to restart actor %s: actor panicked while starting", e.Path)
}

// MsgError is returned when a mailbox rejects an envelope because the
// cell has already been sealed (terminated). Msg carries the rejected
// payload back to the caller so it can be inspected or redirected.
type MsgError[T any] struct {
	Msg T
}

func (e *MsgError[T]) Error() string {
	return "the actor does not exist; it may have been terminated"
}

// TryMsgError is a syntactic helper returned by TryTell when the caller
// held an optional reference that turned out to be absent.
type TryMsgError[T any] struct {
	Msg T
}

func (e *TryMsgError[T]) Error() string {
	return "no actor reference was present"
}

// ErrSealed is the sentinel underlying a MsgError: the mailbox has been
// sealed and will accept no further envelopes.
var ErrSealed = fmt.Errorf("mailbox sealed")
