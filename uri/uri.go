// Package uri implements the path-based identity scheme used to address
// actors: name and path validation, and the ActorUri value every cell
// carries as its immutable identity.
package uri

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
var pathRe = regexp.MustCompile(`^[A-Za-z0-9/*._-]+$`)

// InvalidName is returned when a proposed actor name fails the
// `^[A-Za-z0-9_-]+$` grammar.
type InvalidName struct {
	Name string
}

func (e *InvalidName) Error() string {
	return fmt.Sprintf("invalid actor name %q", e.Name)
}

// InvalidPath is returned when a proposed path fails the
// `^[A-Za-z0-9/*._-]+$` grammar.
type InvalidPath struct {
	Path string
}

func (e *InvalidPath) Error() string {
	return fmt.Sprintf("invalid actor path %q", e.Path)
}

// ValidateName checks a single path segment against the name grammar.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return &InvalidName{Name: name}
	}
	return nil
}

// ValidatePath checks a full, possibly multi-segment, path against the
// path grammar. Unlike ValidateName this permits '/' and '*'.
func ValidatePath(p string) error {
	if !pathRe.MatchString(p) {
		return &InvalidPath{Path: p}
	}
	return nil
}

// ActorUri is the identity of a single actor instance: a validated
// name, its rooted slash-delimited path, an informational host, and a
// process-unique incarnation id. No two live cells share a Path.
type ActorUri struct {
	Name string
	Path string
	Host string
	Uid  uint32
}

func (u ActorUri) String() string {
	return fmt.Sprintf("%s://%s@%s#%d", "actor", u.Host, u.Path, u.Uid)
}

// Child returns the ActorUri for a child named `name` beneath u, not
// validating the uid (the caller mints that from the system's counter).
func Child(parent ActorUri, name string, host string, uid uint32) (ActorUri, error) {
	if err := ValidateName(name); err != nil {
		return ActorUri{}, err
	}
	return ActorUri{
		Name: name,
		Path: path.Join(parent.Path, name),
		Host: host,
		Uid:  uid,
	}, nil
}

// Segments splits a rooted path into its non-empty segments, e.g.
// "/user/a/b" -> ["user", "a", "b"].
func Segments(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
