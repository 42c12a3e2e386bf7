package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/schema"
	"github.com/roach88/graft/internal/store"
)

// Encode walks the record's value graph depth-first and materializes or
// updates the corresponding store entities. The root entity is resolved via
// the record's identifier (find-or-create), so encoding two records sharing
// an identifier updates one entity rather than creating a duplicate.
//
// Any failure aborts the whole call; writes already applied to entities are
// not rolled back. The engine opens no transaction of its own.
func (c *Codec) Encode(ctx context.Context, rec Encodable) (store.EntityRef, error) {
	st := &encodeState{c: c, ctx: ctx}
	return st.encodeRecord(rec)
}

// encodeState is the mutable traversal context of one Encode call: the
// container stack and the coding path. Owned exclusively by the call.
type encodeState struct {
	c     *Codec
	ctx   context.Context
	stack containerStack
	path  Path
}

func (st *encodeState) encodeRecord(rec Encodable) (store.EntityRef, error) {
	kind := rec.EntityKind()
	sch := st.c.store.Schema()
	if sch.Entity(kind) == nil {
		return store.EntityRef{}, schemaErr(st.path, kind, "")
	}

	id := rec.Identifier()
	if id.EntityKind() != kind {
		return store.EntityRef{}, mismatchErr(st.path, kind, rec.IdentifierKey(),
			fmt.Sprintf("record identifier belongs to kind %q", id.EntityKind()))
	}

	ref, err := id.findOrCreate(st.ctx, st.c.store)
	if err != nil {
		return store.EntityRef{}, storeErr(st.path, kind, err)
	}
	st.c.tracef(st.path, "encoding %s into %s", id, ref)

	st.stack.push(entityCont(ref))
	defer st.stack.pop()

	fe := &FieldEncoder{
		st:     st,
		kind:   kind,
		idKey:  rec.IdentifierKey(),
		id:     id,
		entity: ref,
	}
	if err := rec.EncodeFields(fe); err != nil {
		return store.EntityRef{}, err
	}
	return ref, nil
}

// FieldEncoder is the field-writing surface handed to a record's
// EncodeFields. It is bound to one entity-keyed container and valid only
// for the duration of that call.
type FieldEncoder struct {
	st     *encodeState
	kind   string
	idKey  string
	id     Identifier
	entity store.EntityRef
}

// requireEntity verifies the traversal is still positioned on this
// encoder's entity container. Catches stale encoders retained past their
// EncodeFields call.
func (e *FieldEncoder) requireEntity() error {
	top := e.st.stack.top()
	if top.kind != entityContainer || top.entity != e.entity {
		return mismatchErr(e.st.path, e.kind, "",
			fmt.Sprintf("keyed write while positioned on %s container", top.kind))
	}
	return nil
}

func (e *FieldEncoder) attrProperty(name string) (schema.Property, error) {
	sch := e.st.c.store.Schema()
	prop, ok := sch.Property(e.kind, name)
	if !ok {
		return schema.Property{}, schemaErr(e.st.path, e.kind, name)
	}
	if prop.Kind != schema.Attribute {
		return schema.Property{}, mismatchErr(e.st.path, e.kind, name,
			fmt.Sprintf("property is a %s relationship, not an attribute", prop.Kind))
	}
	return prop, nil
}

// Attribute boxes a primitive into a store attribute value and sets it on
// the current entity, replacing any previous value.
//
// The identifier key's attribute row backs the store's dedup index, so a
// write under that name must carry the record's own identifier scalar.
func (e *FieldEncoder) Attribute(name string, v attr.Value) error {
	if err := e.requireEntity(); err != nil {
		return err
	}
	if name == e.idKey && !attr.Equal(v, e.id.Scalar()) {
		return mismatchErr(e.st.path, e.kind, name,
			fmt.Sprintf("identifier attribute must equal the record identifier %s", e.id))
	}
	prop, err := e.attrProperty(name)
	if err != nil {
		return err
	}
	if got := attr.KindOf(v); got != prop.Attr {
		return mismatchErr(e.st.path, e.kind, name,
			fmt.Sprintf("attribute declared %s, got %s", prop.Attr, got))
	}

	e.st.path.pushField(name)
	defer e.st.path.pop()
	e.st.c.tracef(e.st.path, "write attribute %s", prop.Attr)

	if err := e.st.c.store.SetAttribute(e.st.ctx, e.entity, name, v); err != nil {
		return storeErr(e.st.path, e.kind, err)
	}
	return nil
}

// Bool writes a boolean attribute.
func (e *FieldEncoder) Bool(name string, v bool) error { return e.Attribute(name, attr.Bool(v)) }

// Int writes an integer attribute. All narrower Go widths widen losslessly
// into the store's int64 representation.
func (e *FieldEncoder) Int(name string, v int64) error { return e.Attribute(name, attr.Int(v)) }

// Int8 writes an int8 attribute.
func (e *FieldEncoder) Int8(name string, v int8) error { return e.Int(name, int64(v)) }

// Int16 writes an int16 attribute.
func (e *FieldEncoder) Int16(name string, v int16) error { return e.Int(name, int64(v)) }

// Int32 writes an int32 attribute.
func (e *FieldEncoder) Int32(name string, v int32) error { return e.Int(name, int64(v)) }

// Uint8 writes a uint8 attribute.
func (e *FieldEncoder) Uint8(name string, v uint8) error { return e.Int(name, int64(v)) }

// Uint16 writes a uint16 attribute.
func (e *FieldEncoder) Uint16(name string, v uint16) error { return e.Int(name, int64(v)) }

// Uint32 writes a uint32 attribute.
func (e *FieldEncoder) Uint32(name string, v uint32) error { return e.Int(name, int64(v)) }

// Uint64 writes a uint64 attribute, failing if the value exceeds the
// store's int64 range.
func (e *FieldEncoder) Uint64(name string, v uint64) error {
	boxed, err := attr.Uint64Of(v)
	if err != nil {
		return mismatchErr(e.st.path, e.kind, name, err.Error())
	}
	return e.Attribute(name, boxed)
}

// Float writes a floating-point attribute.
func (e *FieldEncoder) Float(name string, v float64) error { return e.Attribute(name, attr.Float(v)) }

// String writes a string attribute.
func (e *FieldEncoder) String(name string, v string) error {
	return e.Attribute(name, attr.String(v))
}

// Bytes writes a binary blob attribute.
func (e *FieldEncoder) Bytes(name string, v []byte) error { return e.Attribute(name, attr.Bytes(v)) }

// Time writes a date attribute.
func (e *FieldEncoder) Time(name string, v time.Time) error {
	return e.Attribute(name, attr.NewTime(v))
}

// Decimal writes a decimal attribute.
func (e *FieldEncoder) Decimal(name string, v attr.Decimal) error { return e.Attribute(name, v) }

// UUID writes a UUID attribute.
func (e *FieldEncoder) UUID(name string, v attr.UUID) error { return e.Attribute(name, v) }

// URI writes a URI attribute.
func (e *FieldEncoder) URI(name string, v attr.URI) error { return e.Attribute(name, v) }

// Nil clears the named property on the current entity.
func (e *FieldEncoder) Nil(name string) error {
	if err := e.requireEntity(); err != nil {
		return err
	}
	sch := e.st.c.store.Schema()
	if !sch.Has(e.kind, name) {
		return schemaErr(e.st.path, e.kind, name)
	}

	e.st.path.pushField(name)
	defer e.st.path.pop()
	e.st.c.tracef(e.st.path, "clear property")

	if err := e.st.c.store.ClearProperty(e.st.ctx, e.entity, name); err != nil {
		return storeErr(e.st.path, e.kind, err)
	}
	return nil
}

// ToOne writes a single-entity relationship by identifier, resolving the
// target via find-or-create.
//
// Self-identity rule: when name equals the record's identifier key the
// field is the record's own identity, and the scalar is written as a plain
// attribute instead of a relationship. A non-identity relationship must not
// reuse the identifier key's name.
func (e *FieldEncoder) ToOne(name string, id Identifier) error {
	if err := e.requireEntity(); err != nil {
		return err
	}
	if name == e.idKey {
		return e.Attribute(name, id.Scalar())
	}

	prop, err := e.relProperty(name, schema.ToOne)
	if err != nil {
		return err
	}

	e.st.path.pushField(name)
	defer e.st.path.pop()

	target, err := e.resolveIdentifier(id, prop)
	if err != nil {
		return err
	}
	e.st.c.tracef(e.st.path, "link %s", target)

	if err := e.st.c.store.SetLink(e.st.ctx, e.entity, name, target); err != nil {
		return storeErr(e.st.path, e.kind, err)
	}
	return nil
}

// ToOneNested writes a single-entity relationship by recursively encoding
// the nested record's whole sub-graph, pushing a fresh entity container
// around the recursion.
func (e *FieldEncoder) ToOneNested(name string, rec Encodable) error {
	if err := e.requireEntity(); err != nil {
		return err
	}
	prop, err := e.relProperty(name, schema.ToOne)
	if err != nil {
		return err
	}
	if !e.st.c.store.Schema().DescendsFrom(rec.EntityKind(), prop.Target) {
		return mismatchErr(e.st.path, e.kind, name,
			fmt.Sprintf("relationship targets %q, record is %q", prop.Target, rec.EntityKind()))
	}

	e.st.path.pushField(name)
	defer e.st.path.pop()

	target, err := e.st.encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := e.st.c.store.SetLink(e.st.ctx, e.entity, name, target); err != nil {
		return storeErr(e.st.path, e.kind, err)
	}
	return nil
}

// ToMany writes a multi-entity relationship from identifiers, resolving
// each member via find-or-create. Member order is preserved only when the
// schema declares the relationship ordered; otherwise the target collection
// is an unordered set.
func (e *FieldEncoder) ToMany(name string, ids []Identifier) error {
	if err := e.requireEntity(); err != nil {
		return err
	}
	prop, err := e.relProperty(name, schema.ToMany)
	if err != nil {
		return err
	}

	e.st.path.pushField(name)
	defer e.st.path.pop()

	targets := make([]store.EntityRef, 0, len(ids))
	for i, id := range ids {
		e.st.path.pushIndex(i)
		target, err := e.resolveIdentifier(id, prop)
		e.st.path.pop()
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}
	e.st.c.tracef(e.st.path, "link %d members", len(targets))

	ordered := prop.Kind == schema.ToManyOrdered
	if err := e.st.c.store.SetLinks(e.st.ctx, e.entity, name, targets, ordered); err != nil {
		return storeErr(e.st.path, e.kind, err)
	}
	return nil
}

// ToManyNested writes a multi-entity relationship by recursively encoding
// each member record.
func (e *FieldEncoder) ToManyNested(name string, recs []Encodable) error {
	if err := e.requireEntity(); err != nil {
		return err
	}
	prop, err := e.relProperty(name, schema.ToMany)
	if err != nil {
		return err
	}

	e.st.path.pushField(name)
	defer e.st.path.pop()

	sch := e.st.c.store.Schema()
	targets := make([]store.EntityRef, 0, len(recs))
	for i, rec := range recs {
		if !sch.DescendsFrom(rec.EntityKind(), prop.Target) {
			return mismatchErr(e.st.path, e.kind, name,
				fmt.Sprintf("relationship targets %q, member %d is %q", prop.Target, i, rec.EntityKind()))
		}
		e.st.path.pushIndex(i)
		target, err := e.st.encodeRecord(rec)
		e.st.path.pop()
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	ordered := prop.Kind == schema.ToManyOrdered
	if err := e.st.c.store.SetLinks(e.st.ctx, e.entity, name, targets, ordered); err != nil {
		return storeErr(e.st.path, e.kind, err)
	}
	return nil
}

// relProperty resolves a relationship property declaration, accepting
// ToManyOrdered wherever ToMany is asked for.
func (e *FieldEncoder) relProperty(name string, want schema.PropertyKind) (schema.Property, error) {
	sch := e.st.c.store.Schema()
	prop, ok := sch.Property(e.kind, name)
	if !ok {
		return schema.Property{}, schemaErr(e.st.path, e.kind, name)
	}
	switch {
	case want == schema.ToOne && prop.Kind == schema.ToOne:
	case want == schema.ToMany && (prop.Kind == schema.ToMany || prop.Kind == schema.ToManyOrdered):
	default:
		return schema.Property{}, mismatchErr(e.st.path, e.kind, name,
			fmt.Sprintf("property declared %s, written as %s", prop.Kind, want))
	}
	return prop, nil
}

func (e *FieldEncoder) resolveIdentifier(id Identifier, prop schema.Property) (store.EntityRef, error) {
	if !e.st.c.store.Schema().DescendsFrom(id.EntityKind(), prop.Target) {
		return store.EntityRef{}, mismatchErr(e.st.path, e.kind, prop.Name,
			fmt.Sprintf("relationship targets %q, identifier is %q", prop.Target, id.EntityKind()))
	}
	target, err := id.findOrCreate(e.st.ctx, e.st.c.store)
	if err != nil {
		return store.EntityRef{}, storeErr(e.st.path, e.kind, err)
	}
	return target, nil
}
