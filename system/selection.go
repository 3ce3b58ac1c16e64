package system

import (
	"go.fergus.london/actorkit/actor"
	"go.fergus.london/actorkit/uri"
)

// selection implements actor.Selection over a snapshot of matching refs
// resolved at Select time; membership is not re-checked as actors come
// and go after that.
type selection struct {
	refs []actor.BasicActorRef
}

func (s selection) Tell(msg any, sender actor.BasicActorRef) {
	for _, ref := range s.refs {
		_ = ref.TellAny(msg, sender)
	}
}

func (s selection) Refs() []actor.BasicActorRef {
	return s.refs
}

// Select resolves a path pattern against every currently-registered
// actor. A bare pattern — one whose first segment isn't one of the
// process's top-level roots ("user", "system", "temp") — is resolved
// relative to /user, so "child/grandchild" and "/user/child/grandchild"
// are equivalent; an absolute pattern is matched as given. A "*"
// segment matches exactly one segment at that position; a "**" segment
// matches zero or more segments and, being self-inclusive, reaches the
// node it's anchored at as well as every descendant below it. A
// trailing "**/*" is therefore equivalent to a trailing "**": the
// anchor itself plus all of its descendants, at any depth. Every other
// segment must match exactly.
func (s *ActorSystem) Select(pattern string) (actor.Selection, error) {
	if err := uri.ValidatePath(pattern); err != nil {
		return nil, err
	}
	patternSegs := uri.Segments(pattern)
	if len(patternSegs) == 0 || (patternSegs[0] != "user" && patternSegs[0] != "system" && patternSegs[0] != "temp") {
		patternSegs = append([]string{"user"}, patternSegs...)
	}
	if n := len(patternSegs); n >= 2 && patternSegs[n-2] == "**" && patternSegs[n-1] == "*" {
		patternSegs = patternSegs[:n-1]
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []actor.BasicActorRef
	for path, ref := range s.registry {
		if matchesPattern(patternSegs, uri.Segments(path)) {
			matches = append(matches, ref)
		}
	}
	return selection{refs: matches}, nil
}

// matchesPattern matches a selection pattern against a registered
// path's segments. "**" matches zero or more candidate segments,
// making it self-inclusive: anchored at some path, it matches that
// path itself (zero extra segments) as well as any descendant.
func matchesPattern(pattern, candidate []string) bool {
	if len(pattern) == 0 {
		return len(candidate) == 0
	}
	head := pattern[0]
	if head == "**" {
		if matchesPattern(pattern[1:], candidate) {
			return true
		}
		return len(candidate) > 0 && matchesPattern(pattern, candidate[1:])
	}
	if len(candidate) == 0 {
		return false
	}
	if head != "*" && head != candidate[0] {
		return false
	}
	return matchesPattern(pattern[1:], candidate[1:])
}
