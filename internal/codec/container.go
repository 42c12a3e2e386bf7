package codec

import (
	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/store"
)

// containerKind tags what the traversal is currently positioned on.
type containerKind int

const (
	// entityContainer supports keyed field access on one entity.
	entityContainer containerKind = iota

	// collectionContainer supports unkeyed sequential access over a
	// relationship's member list.
	collectionContainer

	// valueContainer supports single-value access: an attribute scalar,
	// or an entity reference being decoded as a bare identifier.
	valueContainer
)

func (k containerKind) String() string {
	switch k {
	case entityContainer:
		return "entity"
	case collectionContainer:
		return "relationship collection"
	case valueContainer:
		return "value"
	default:
		return "invalid"
	}
}

// container is one traversal cursor position. Exactly one shape is live,
// selected by kind; the accessors panic on shape misuse because shape is
// statically known at every call site inside the engine.
type container struct {
	kind containerKind

	// entityContainer
	entity store.EntityRef

	// collectionContainer. index is the sequential cursor: it advances
	// monotonically and never resets for the lifetime of the container.
	members []store.EntityRef
	index   int

	// valueContainer. Either a primitive scalar or an entity reference,
	// never both.
	value attr.Value
	ref   store.EntityRef
}

func entityCont(ref store.EntityRef) container {
	return container{kind: entityContainer, entity: ref}
}

func collectionCont(members []store.EntityRef) container {
	return container{kind: collectionContainer, members: members}
}

func valueCont(v attr.Value) container {
	return container{kind: valueContainer, value: v}
}

func refValueCont(ref store.EntityRef) container {
	return container{kind: valueContainer, ref: ref}
}

// containerStack is the traversal's explicit cursor stack: push on recurse,
// pop on return. It is owned exclusively by one traversal call and never
// shared. An empty pop or top is a programming-contract violation inside
// the engine, not a recoverable error, so both panic.
// Containers are heap-allocated so a held *container stays valid while
// deeper containers are pushed and popped during recursion.
type containerStack struct {
	items []*container
}

func (s *containerStack) push(c container) {
	s.items = append(s.items, &c)
}

func (s *containerStack) pop() {
	if len(s.items) == 0 {
		panic("codec: container stack underflow")
	}
	s.items = s.items[:len(s.items)-1]
}

// top returns the live cursor so collection indexes advance in place.
func (s *containerStack) top() *container {
	if len(s.items) == 0 {
		panic("codec: container stack is empty during traversal")
	}
	return s.items[len(s.items)-1]
}
