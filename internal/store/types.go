package store

import (
	"fmt"

	"github.com/roach88/graft/internal/attr"
)

// EntityRef is an opaque reference to one store entity: its row identity
// plus the kind it was created as. References are cheap values; all state
// lives in the database.
type EntityRef struct {
	ID   int64
	Kind string
}

// IsZero reports whether the reference points at no entity.
func (r EntityRef) IsZero() bool { return r.ID == 0 }

// String renders the reference for diagnostics.
func (r EntityRef) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// RawKind tags the shape of a property value read from the bag.
type RawKind int

const (
	// RawAbsent means the property holds no value (null / never written).
	RawAbsent RawKind = iota

	// RawAttr means the property holds a primitive attribute value.
	RawAttr

	// RawRef means the property holds a single entity reference.
	RawRef

	// RawRefs means the property holds a collection of entity references.
	RawRefs
)

// RawValue is the tagged union GetProperty returns: exactly one of Attr,
// Ref, or Refs is meaningful, selected by Kind. Ordered is valid only for
// RawRefs.
type RawValue struct {
	Kind    RawKind
	Attr    attr.Value
	Ref     EntityRef
	Refs    []EntityRef
	Ordered bool
}
