package codec

import (
	"context"
	"fmt"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/store"
)

// Identifier is a value-comparable key naming one logical record of one
// entity kind. The scalar may be any attribute type except Bool (the store
// cannot index booleans uniquely). Identifiers are never mutated; equality
// is structural on the canonical form of the scalar.
type Identifier struct {
	kind  string
	value attr.Value
}

// NewIdentifier constructs an identifier for the given entity kind.
// Rejects nil scalars and booleans.
func NewIdentifier(kind string, scalar attr.Value) (Identifier, error) {
	if kind == "" {
		return Identifier{}, fmt.Errorf("identifier: empty entity kind")
	}
	switch attr.KindOf(scalar) {
	case attr.KindInvalid:
		return Identifier{}, fmt.Errorf("identifier for %s: nil or unknown scalar", kind)
	case attr.KindBool:
		return Identifier{}, fmt.Errorf("identifier for %s: boolean scalars are not indexable", kind)
	}
	return Identifier{kind: kind, value: attr.Canonical(scalar)}, nil
}

// MustIdentifier constructs an identifier or panics. For tests and fixtures.
func MustIdentifier(kind string, scalar attr.Value) Identifier {
	id, err := NewIdentifier(kind, scalar)
	if err != nil {
		panic(err)
	}
	return id
}

// EntityKind returns the entity kind this identifier is associated with.
func (id Identifier) EntityKind() string { return id.kind }

// Scalar returns the canonical identifier scalar.
func (id Identifier) Scalar() attr.Value { return id.value }

// IsZero reports whether the identifier is the zero value.
func (id Identifier) IsZero() bool { return id.kind == "" && id.value == nil }

// Equal reports structural equality: same kind, equal canonical scalar.
func (id Identifier) Equal(other Identifier) bool {
	return id.kind == other.kind && attr.Equal(id.value, other.value)
}

// String renders the identifier for diagnostics.
func (id Identifier) String() string {
	return fmt.Sprintf("%s(%s)", id.kind, attr.Text(id.value))
}

// findOrCreate resolves the identifier to its backing entity, inserting a
// new one if absent. The store's index makes this the engine's only
// deduplication mechanism; no traversal-level cache exists.
func (id Identifier) findOrCreate(ctx context.Context, st Store) (store.EntityRef, error) {
	decl := st.Schema().Entity(id.kind)
	if decl == nil {
		return store.EntityRef{}, fmt.Errorf("identifier %s: unknown entity kind", id)
	}
	return st.FindOrCreate(ctx, id.kind, decl.IDAttribute, id.value)
}

// IdentifierFromEntity recovers an identifier from an already-materialized
// entity, reading the kind's identifier attribute. Returns ok=false without
// error when the entity's kind neither matches nor descends from wantKind.
func IdentifierFromEntity(ctx context.Context, st Store, ref store.EntityRef, wantKind string) (Identifier, bool, error) {
	sch := st.Schema()
	if !sch.DescendsFrom(ref.Kind, wantKind) {
		return Identifier{}, false, nil
	}
	decl := sch.Entity(ref.Kind)
	if decl == nil {
		return Identifier{}, false, fmt.Errorf("identifier from %s: unknown entity kind", ref)
	}

	raw, err := st.GetProperty(ctx, ref, decl.IDAttribute)
	if err != nil {
		return Identifier{}, false, err
	}
	if raw.Kind != store.RawAttr {
		return Identifier{}, false, fmt.Errorf("identifier from %s: identifier attribute %q holds no scalar", ref, decl.IDAttribute)
	}

	id, err := NewIdentifier(ref.Kind, raw.Attr)
	if err != nil {
		return Identifier{}, false, err
	}
	return id, true, nil
}
