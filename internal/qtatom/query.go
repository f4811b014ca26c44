package qtatom

import (
	"fmt"

	"github.com/samber/lo"
)

// FindAll returns every descendant of root (root included) whose Type
// equals kind, in document order. Traversal descends into container
// atoms only (spec §4.D).
func FindAll(root *Atom, kind string) []*Atom {
	if root == nil {
		return nil
	}
	var matches []*Atom
	if root.Type == kind {
		matches = append(matches, root)
	}
	if root.Kind == KindContainer {
		for _, child := range root.Children {
			matches = append(matches, FindAll(child, kind)...)
		}
	}
	return matches
}

// FindOne returns the first descendant of root with the given Type in
// document order, or nil if there is none. Callers that must enforce
// spec §4.D's "at most one" contract rather than silently taking the
// first match should use FindOneStrict instead.
func FindOne(root *Atom, kind string) *Atom {
	matches := FindAll(root, kind)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// FindOneStrict is FindOne but returns nil, nil when there is no match and
// an error describing how many matches were found when there is more than
// one, for callers that
// need to enforce spec §4.D's uniqueness contract explicitly — the QTVR
// classifier's ctyp/NAVG lookups (internal/qtvr/classify.go).
func FindOneStrict(root *Atom, kind string) (*Atom, error) {
	matches := FindAll(root, kind)
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("expected at most one %q atom, found %d", kind, len(matches))
	}
}

// Children returns the direct children of a container atom whose Type
// equals kind, in document order (non-recursive).
func Children(parent *Atom, kind string) []*Atom {
	if parent == nil || parent.Kind != KindContainer {
		return nil
	}
	return lo.Filter(parent.Children, func(a *Atom, _ int) bool { return a.Type == kind })
}
