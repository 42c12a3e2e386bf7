package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/schema"
	"github.com/roach88/graft/internal/store"
)

// Decode resolves the identifier's entity via find-or-create and
// reconstructs the record's fields from it. A failed decode returns an
// error and leaves the record in an unspecified partial state.
func (c *Codec) Decode(ctx context.Context, rec Decodable, id Identifier) error {
	if !c.store.Schema().DescendsFrom(id.EntityKind(), rec.EntityKind()) {
		return mismatchErr(nil, rec.EntityKind(), rec.IdentifierKey(),
			fmt.Sprintf("identifier belongs to kind %q", id.EntityKind()))
	}
	ref, err := id.findOrCreate(ctx, c.store)
	if err != nil {
		return storeErr(nil, rec.EntityKind(), err)
	}
	return c.DecodeEntity(ctx, rec, ref)
}

// DecodeEntity reconstructs the record's fields from an already-resolved
// entity reference.
func (c *Codec) DecodeEntity(ctx context.Context, rec Decodable, ref store.EntityRef) error {
	st := &decodeState{c: c, ctx: ctx}
	return st.decodeEntity(rec, ref)
}

// decodeState is the mutable traversal context of one Decode call,
// owned exclusively by the call.
type decodeState struct {
	c     *Codec
	ctx   context.Context
	stack containerStack
	path  Path
}

func (st *decodeState) decodeEntity(rec Decodable, ref store.EntityRef) error {
	sch := st.c.store.Schema()
	if sch.Entity(rec.EntityKind()) == nil {
		return schemaErr(st.path, rec.EntityKind(), "")
	}
	if !sch.DescendsFrom(ref.Kind, rec.EntityKind()) {
		return mismatchErr(st.path, rec.EntityKind(), "",
			fmt.Sprintf("entity is %q, record expects %q", ref.Kind, rec.EntityKind()))
	}
	st.c.tracef(st.path, "decoding %s as %s", ref, rec.EntityKind())

	st.stack.push(entityCont(ref))
	defer st.stack.pop()

	fd := &FieldDecoder{
		st:     st,
		kind:   ref.Kind,
		idKey:  rec.IdentifierKey(),
		entity: ref,
	}
	return rec.DecodeFields(fd)
}

// FieldDecoder is the keyed field-reading surface handed to a record's
// DecodeFields. It is bound to one entity container and valid only for the
// duration of that call. Schema lookups use the entity's concrete kind, so
// subtype properties resolve even when the record type names an ancestor.
type FieldDecoder struct {
	st     *decodeState
	kind   string
	idKey  string
	entity store.EntityRef
}

// EntityRef returns the entity the decoder is positioned on.
func (d *FieldDecoder) EntityRef() store.EntityRef { return d.entity }

func (d *FieldDecoder) requireEntity() error {
	top := d.st.stack.top()
	if top.kind != entityContainer || top.entity != d.entity {
		return mismatchErr(d.st.path, d.kind, "",
			fmt.Sprintf("keyed read while positioned on %s container", top.kind))
	}
	return nil
}

// getRaw performs the declared-in-schema check and reads the raw property.
func (d *FieldDecoder) getRaw(name string) (store.RawValue, error) {
	sch := d.st.c.store.Schema()
	if !sch.Has(d.kind, name) {
		return store.RawValue{}, schemaErr(d.st.path, d.kind, name)
	}
	raw, err := d.st.c.store.GetProperty(d.st.ctx, d.entity, name)
	if err != nil {
		return store.RawValue{}, storeErr(d.st.path, d.kind, err)
	}
	return raw, nil
}

// Has reports whether the field name exists in the entity's schema,
// independent of whether its value is currently null.
func (d *FieldDecoder) Has(name string) bool {
	return d.st.c.store.Schema().Has(d.kind, name)
}

// IsNull reports whether a declared field currently holds no value.
// Records use it to decode optional fields without tripping ValueNotFound.
func (d *FieldDecoder) IsNull(name string) (bool, error) {
	if err := d.requireEntity(); err != nil {
		return false, err
	}
	raw, err := d.getRaw(name)
	if err != nil {
		return false, err
	}
	return raw.Kind == store.RawAbsent, nil
}

// Attribute reads a primitive attribute value. Fails with KeyNotFound when
// the field was never written and TypeMismatch when the property holds a
// relationship. Optional fields should be probed with IsNull first.
func (d *FieldDecoder) Attribute(name string) (attr.Value, error) {
	if err := d.requireEntity(); err != nil {
		return nil, err
	}
	raw, err := d.getRaw(name)
	if err != nil {
		return nil, err
	}
	d.st.path.pushField(name)
	defer d.st.path.pop()

	switch raw.Kind {
	case store.RawAttr:
		// Single-value access goes through a value container, the same
		// shape used when a to-one target decodes as a bare identifier.
		d.st.stack.push(valueCont(raw.Attr))
		v := d.st.stack.top().value
		d.st.stack.pop()
		return v, nil
	case store.RawAbsent:
		return nil, keyNotFoundErr(d.st.path, d.kind, name)
	default:
		return nil, mismatchErr(d.st.path, d.kind, name, "property holds entity references, not an attribute")
	}
}

// Bool reads a boolean attribute with a strict cast.
func (d *FieldDecoder) Bool(name string) (bool, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(attr.Bool)
	if !ok {
		return false, d.castErr(name, attr.KindBool, v)
	}
	return bool(b), nil
}

// Int64 reads an integer attribute in the store's native width.
func (d *FieldDecoder) Int64(name string) (int64, error) {
	n, err := d.nativeInt(name)
	return int64(n), err
}

// Int32 reads an integer attribute narrowed to int32 under the configured
// narrowing policy.
func (d *FieldDecoder) Int32(name string) (int32, error) {
	n, err := d.nativeInt(name)
	if err != nil {
		return 0, err
	}
	out, err := n.AsInt32(d.st.c.narrowing)
	if err != nil {
		return 0, d.narrowErr(name, err)
	}
	return out, nil
}

// Int16 reads an integer attribute narrowed to int16.
func (d *FieldDecoder) Int16(name string) (int16, error) {
	n, err := d.nativeInt(name)
	if err != nil {
		return 0, err
	}
	out, err := n.AsInt16(d.st.c.narrowing)
	if err != nil {
		return 0, d.narrowErr(name, err)
	}
	return out, nil
}

// Int8 reads an integer attribute narrowed to int8.
func (d *FieldDecoder) Int8(name string) (int8, error) {
	n, err := d.nativeInt(name)
	if err != nil {
		return 0, err
	}
	out, err := n.AsInt8(d.st.c.narrowing)
	if err != nil {
		return 0, d.narrowErr(name, err)
	}
	return out, nil
}

// Uint8 reads an integer attribute narrowed to uint8.
func (d *FieldDecoder) Uint8(name string) (uint8, error) {
	n, err := d.nativeInt(name)
	if err != nil {
		return 0, err
	}
	out, err := n.AsUint8(d.st.c.narrowing)
	if err != nil {
		return 0, d.narrowErr(name, err)
	}
	return out, nil
}

// Uint16 reads an integer attribute narrowed to uint16.
func (d *FieldDecoder) Uint16(name string) (uint16, error) {
	n, err := d.nativeInt(name)
	if err != nil {
		return 0, err
	}
	out, err := n.AsUint16(d.st.c.narrowing)
	if err != nil {
		return 0, d.narrowErr(name, err)
	}
	return out, nil
}

// Uint32 reads an integer attribute narrowed to uint32.
func (d *FieldDecoder) Uint32(name string) (uint32, error) {
	n, err := d.nativeInt(name)
	if err != nil {
		return 0, err
	}
	out, err := n.AsUint32(d.st.c.narrowing)
	if err != nil {
		return 0, d.narrowErr(name, err)
	}
	return out, nil
}

// Uint64 reads an integer attribute as uint64; negative stored values fail
// under throw and exactly and wrap under truncating.
func (d *FieldDecoder) Uint64(name string) (uint64, error) {
	n, err := d.nativeInt(name)
	if err != nil {
		return 0, err
	}
	out, err := n.AsUint64(d.st.c.narrowing)
	if err != nil {
		return 0, d.narrowErr(name, err)
	}
	return out, nil
}

// Float reads a floating-point attribute with a strict cast.
func (d *FieldDecoder) Float(name string) (float64, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return 0, err
	}
	f, ok := v.(attr.Float)
	if !ok {
		return 0, d.castErr(name, attr.KindFloat, v)
	}
	return float64(f), nil
}

// String reads a string attribute with a strict cast.
func (d *FieldDecoder) String(name string) (string, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(attr.String)
	if !ok {
		return "", d.castErr(name, attr.KindString, v)
	}
	return string(s), nil
}

// Bytes reads a binary blob attribute with a strict cast.
func (d *FieldDecoder) Bytes(name string) ([]byte, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return nil, err
	}
	b, ok := v.(attr.Bytes)
	if !ok {
		return nil, d.castErr(name, attr.KindBytes, v)
	}
	return []byte(b), nil
}

// Time reads a date attribute. Accepts a stored date directly or parses the
// RFC 3339 string form.
func (d *FieldDecoder) Time(name string) (time.Time, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return time.Time{}, err
	}
	switch val := v.(type) {
	case attr.Time:
		return val.Time, nil
	case attr.String:
		t, err := time.Parse(time.RFC3339Nano, string(val))
		if err != nil {
			return time.Time{}, mismatchErr(d.st.path, d.kind, name, err.Error())
		}
		return t.UTC(), nil
	default:
		return time.Time{}, d.castErr(name, attr.KindTime, v)
	}
}

// UUID reads a UUID attribute. Accepts a stored UUID directly or parses the
// hyphenated string form, bypassing generic reconstruction.
func (d *FieldDecoder) UUID(name string) (attr.UUID, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return attr.UUID{}, err
	}
	switch val := v.(type) {
	case attr.UUID:
		return val, nil
	case attr.String:
		u, err := attr.ParseUUID(string(val))
		if err != nil {
			return attr.UUID{}, mismatchErr(d.st.path, d.kind, name, err.Error())
		}
		return u, nil
	default:
		return attr.UUID{}, d.castErr(name, attr.KindUUID, v)
	}
}

// URI reads a URI attribute. Accepts a stored URI directly or parses the
// string form.
func (d *FieldDecoder) URI(name string) (attr.URI, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return attr.URI{}, err
	}
	switch val := v.(type) {
	case attr.URI:
		return val, nil
	case attr.String:
		u, err := attr.ParseURI(string(val))
		if err != nil {
			return attr.URI{}, mismatchErr(d.st.path, d.kind, name, err.Error())
		}
		return u, nil
	default:
		return attr.URI{}, d.castErr(name, attr.KindURI, v)
	}
}

// Decimal reads a decimal attribute. Accepts a stored decimal directly or
// parses the string form.
func (d *FieldDecoder) Decimal(name string) (attr.Decimal, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return attr.Decimal{}, err
	}
	switch val := v.(type) {
	case attr.Decimal:
		return val, nil
	case attr.String:
		dec, err := attr.NewDecimal(string(val))
		if err != nil {
			return attr.Decimal{}, mismatchErr(d.st.path, d.kind, name, err.Error())
		}
		return dec, nil
	default:
		return attr.Decimal{}, d.castErr(name, attr.KindDecimal, v)
	}
}

// Identifier reads an identifier-typed field. When name equals the record's
// identifier key the scalar is read directly from the entity's own
// identifier attribute; otherwise the field is a to-one relationship whose
// target is extracted as a bare identifier.
func (d *FieldDecoder) Identifier(name string) (Identifier, error) {
	if name == d.idKey {
		v, err := d.Attribute(name)
		if err != nil {
			return Identifier{}, err
		}
		id, err := NewIdentifier(d.kind, v)
		if err != nil {
			return Identifier{}, mismatchErr(d.st.path, d.kind, name, err.Error())
		}
		return id, nil
	}
	return d.ToOne(name)
}

// ToOne reads a single-entity relationship as a bare identifier, pushing a
// value container around the extraction.
func (d *FieldDecoder) ToOne(name string) (Identifier, error) {
	if err := d.requireEntity(); err != nil {
		return Identifier{}, err
	}
	prop, raw, err := d.relRaw(name, schema.ToOne)
	if err != nil {
		return Identifier{}, err
	}

	d.st.path.pushField(name)
	defer d.st.path.pop()

	if raw.Kind == store.RawAbsent {
		return Identifier{}, valueNotFoundErr(d.st.path, d.kind, name)
	}

	d.st.stack.push(refValueCont(raw.Ref))
	defer d.st.stack.pop()
	return d.st.identifierFromRef(raw.Ref, prop.Target, d.kind, name)
}

// ToOneNested reads a single-entity relationship by recursively decoding
// the target entity into rec, pushing an entity container around the
// recursion.
func (d *FieldDecoder) ToOneNested(name string, rec Decodable) error {
	if err := d.requireEntity(); err != nil {
		return err
	}
	_, raw, err := d.relRaw(name, schema.ToOne)
	if err != nil {
		return err
	}

	d.st.path.pushField(name)
	defer d.st.path.pop()

	if raw.Kind == store.RawAbsent {
		return valueNotFoundErr(d.st.path, d.kind, name)
	}
	return d.st.decodeEntity(rec, raw.Ref)
}

// ToMany reads a multi-entity relationship as a set of bare identifiers.
// An empty relationship decodes as an empty slice, not an error. Member
// extraction walks a relationship-collection container whose sequential
// index advances monotonically and never resets.
func (d *FieldDecoder) ToMany(name string) ([]Identifier, error) {
	if err := d.requireEntity(); err != nil {
		return nil, err
	}
	prop, raw, err := d.relRaw(name, schema.ToMany)
	if err != nil {
		return nil, err
	}

	d.st.path.pushField(name)
	defer d.st.path.pop()

	if raw.Kind == store.RawAbsent {
		return []Identifier{}, nil
	}

	d.st.stack.push(collectionCont(raw.Refs))
	defer d.st.stack.pop()

	coll := d.st.stack.top()
	ids := make([]Identifier, 0, len(raw.Refs))
	for coll.index < len(coll.members) {
		member := coll.members[coll.index]
		d.st.path.pushIndex(coll.index)
		coll.index++

		id, err := d.st.identifierFromRef(member, prop.Target, d.kind, name)
		d.st.path.pop()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ToManyNested reads a multi-entity relationship by recursively decoding
// each member entity into a fresh record produced by next.
func (d *FieldDecoder) ToManyNested(name string, next func() Decodable) error {
	if err := d.requireEntity(); err != nil {
		return err
	}
	_, raw, err := d.relRaw(name, schema.ToMany)
	if err != nil {
		return err
	}

	d.st.path.pushField(name)
	defer d.st.path.pop()

	if raw.Kind == store.RawAbsent {
		return nil
	}

	d.st.stack.push(collectionCont(raw.Refs))
	defer d.st.stack.pop()

	coll := d.st.stack.top()
	for coll.index < len(coll.members) {
		member := coll.members[coll.index]
		d.st.path.pushIndex(coll.index)
		coll.index++

		err := d.st.decodeEntity(next(), member)
		d.st.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// relRaw resolves a relationship declaration and reads its raw value,
// verifying the stored shape matches the declared one.
func (d *FieldDecoder) relRaw(name string, want schema.PropertyKind) (schema.Property, store.RawValue, error) {
	sch := d.st.c.store.Schema()
	prop, ok := sch.Property(d.kind, name)
	if !ok {
		return schema.Property{}, store.RawValue{}, schemaErr(d.st.path, d.kind, name)
	}
	switch {
	case want == schema.ToOne && prop.Kind == schema.ToOne:
	case want == schema.ToMany && (prop.Kind == schema.ToMany || prop.Kind == schema.ToManyOrdered):
	default:
		return schema.Property{}, store.RawValue{}, mismatchErr(d.st.path, d.kind, name,
			fmt.Sprintf("property declared %s, read as %s", prop.Kind, want))
	}

	raw, err := d.st.c.store.GetProperty(d.st.ctx, d.entity, name)
	if err != nil {
		return schema.Property{}, store.RawValue{}, storeErr(d.st.path, d.kind, err)
	}
	switch raw.Kind {
	case store.RawAttr:
		return schema.Property{}, store.RawValue{}, mismatchErr(d.st.path, d.kind, name,
			"property holds an attribute, not entity references")
	case store.RawRef:
		if want != schema.ToOne {
			return schema.Property{}, store.RawValue{}, mismatchErr(d.st.path, d.kind, name,
				"property holds a single reference, read as a collection")
		}
	case store.RawRefs:
		if want != schema.ToMany {
			return schema.Property{}, store.RawValue{}, mismatchErr(d.st.path, d.kind, name,
				"property holds a collection, read as a single reference")
		}
	}
	return prop, raw, nil
}

// identifierFromRef extracts a bare identifier from a member entity, which
// must itself expose its own identifier scalar.
func (st *decodeState) identifierFromRef(ref store.EntityRef, wantKind, recKind, property string) (Identifier, error) {
	id, ok, err := IdentifierFromEntity(st.ctx, st.c.store, ref, wantKind)
	if err != nil {
		return Identifier{}, storeErr(st.path, recKind, err)
	}
	if !ok {
		return Identifier{}, mismatchErr(st.path, recKind, property,
			fmt.Sprintf("entity %s does not descend from %q", ref, wantKind))
	}
	return id, nil
}

func (d *FieldDecoder) nativeInt(name string) (attr.Int, error) {
	v, err := d.Attribute(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(attr.Int)
	if !ok {
		return 0, d.castErr(name, attr.KindInt, v)
	}
	return n, nil
}

func (d *FieldDecoder) castErr(name string, want attr.Kind, got attr.Value) error {
	d.st.path.pushField(name)
	defer d.st.path.pop()
	return mismatchErr(d.st.path, d.kind, name,
		fmt.Sprintf("attribute is %s, requested %s", attr.KindOf(got), want))
}

func (d *FieldDecoder) narrowErr(name string, err error) error {
	d.st.path.pushField(name)
	defer d.st.path.pop()
	return mismatchErr(d.st.path, d.kind, name, err.Error())
}
