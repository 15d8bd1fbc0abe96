package scope

import (
	"golang.org/x/exp/slices"
)

// Scope is a lexically nested name table. Lookups walk up Parent chains;
// Elements preserves declaration order for deterministic diagnostics and
// for the "usage" sweep that would flag unused variables.
type Scope struct {
	Parent   *Scope
	Comment  string // e.g. "block", "if", "for", "case" -- for diagnostics/debugging
	entities map[string]*Entity
	elements []string // insertion order
	children []*Scope
}

// New creates a scope nested inside parent (parent may be nil for the
// universe/file scope).
func New(parent *Scope, comment string) *Scope {
	s := &Scope{Parent: parent, Comment: comment, entities: make(map[string]*Entity)}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

// Children returns the scopes nested directly inside s, in creation
// order.
func (s *Scope) Children() []*Scope { return s.children }

// Lookup returns the entity named name declared directly in s (not its
// parents), or (nil, false) if none.
func (s *Scope) Lookup(name string) (*Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// LookupChain walks s and its ancestors, returning the nearest binding
// of name.
func LookupChain(s *Scope, name string) (*Entity, bool) {
	for c := s; c != nil; c = c.Parent {
		if e, ok := c.entities[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// Insert adds e under e.Name. It returns the entity already occupying
// that name (if any) so the caller can build a "namespace collision"
// diagnostic citing both positions (spec §4.1 UsingStmt); Insert itself
// never overwrites an existing binding.
func (s *Scope) Insert(e *Entity) (prev *Entity, inserted bool) {
	if existing, ok := s.entities[e.Name]; ok {
		return existing, false
	}
	e.Scope = s
	s.entities[e.Name] = e
	s.elements = append(s.elements, e.Name)
	return nil, true
}

// Elements returns every entity declared directly in s, in declaration
// order.
func (s *Scope) Elements() []*Entity {
	out := make([]*Entity, 0, len(s.elements))
	for _, name := range s.elements {
		out = append(out, s.entities[name])
	}
	return out
}

// Names returns a sorted copy of the names declared directly in s; used
// for deterministic collision-set reporting when injecting an entire
// scope (spec §4.1 UsingStmt on an ImportName).
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.entities))
	for n := range s.entities {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
