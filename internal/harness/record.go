package harness

import (
	"fmt"
	"sort"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/codec"
	"github.com/roach88/graft/internal/schema"
)

// Record is a generic value-graph record driven by the entity schema.
// Field iteration is sorted by name so encode order - and therefore trace
// and golden output - is deterministic.
type Record struct {
	Schema *schema.Schema
	Kind   string
	ID     codec.Identifier

	// Attrs holds non-identifier attribute fields.
	Attrs map[string]attr.Value

	// Clear lists property names written as nil.
	Clear []string

	// ToOne and ToMany hold identifier-only relationship fields.
	ToOne  map[string]codec.Identifier
	ToMany map[string][]codec.Identifier

	// Nested holds fully nested relationship fields: a single element for
	// to-one properties, any number for to-many.
	Nested map[string][]*Record
}

// EntityKind implements codec.Encodable and codec.Decodable.
func (r *Record) EntityKind() string { return r.Kind }

// IdentifierKey implements codec.Encodable and codec.Decodable.
func (r *Record) IdentifierKey() string {
	decl := r.Schema.Entity(r.Kind)
	if decl == nil {
		return ""
	}
	return decl.IDAttribute
}

// Identifier implements codec.Encodable.
func (r *Record) Identifier() codec.Identifier { return r.ID }

// EncodeFields implements codec.Encodable. The identifier field goes
// through ToOne to exercise the self-identity rule (it lands as a plain
// attribute, not a relationship).
func (r *Record) EncodeFields(e *codec.FieldEncoder) error {
	if err := e.ToOne(r.IdentifierKey(), r.ID); err != nil {
		return err
	}
	for _, name := range sortedKeys(r.Attrs) {
		if err := e.Attribute(name, r.Attrs[name]); err != nil {
			return err
		}
	}
	clears := append([]string(nil), r.Clear...)
	sort.Strings(clears)
	for _, name := range clears {
		if err := e.Nil(name); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(r.ToOne) {
		if err := e.ToOne(name, r.ToOne[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(r.ToMany) {
		if err := e.ToMany(name, r.ToMany[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(r.Nested) {
		if err := r.encodeNested(e, name, r.Nested[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Record) encodeNested(e *codec.FieldEncoder, name string, members []*Record) error {
	prop, ok := r.Schema.Property(r.Kind, name)
	if !ok {
		// Let the encoder surface the schema error with path context.
		return e.ToMany(name, nil)
	}
	if prop.Kind == schema.ToOne {
		if len(members) != 1 {
			return fmt.Errorf("nested to-one %s.%s needs exactly one member, got %d", r.Kind, name, len(members))
		}
		return e.ToOneNested(name, members[0])
	}
	recs := make([]codec.Encodable, len(members))
	for i, m := range members {
		recs[i] = m
	}
	return e.ToManyNested(name, recs)
}

// DecodeFields implements codec.Decodable: every declared property of the
// kind is pulled, with optional-aware null probing. Nested relationships
// decode as identifiers (the identifier-only mode); nested sub-graph decode
// is exercised by typed records in codec tests.
func (r *Record) DecodeFields(d *codec.FieldDecoder) error {
	names := make([]string, 0)
	for name := range r.Schema.AllPropertyNames(r.Kind) {
		names = append(names, name)
	}
	sort.Strings(names)

	r.Attrs = map[string]attr.Value{}
	r.ToOne = map[string]codec.Identifier{}
	r.ToMany = map[string][]codec.Identifier{}

	idKey := r.IdentifierKey()
	for _, name := range names {
		prop, _ := r.Schema.Property(r.Kind, name)
		switch prop.Kind {
		case schema.Attribute:
			if name == idKey {
				id, err := d.Identifier(name)
				if err != nil {
					return err
				}
				r.ID = id
				continue
			}
			null, err := d.IsNull(name)
			if err != nil {
				return err
			}
			if null {
				continue
			}
			v, err := d.Attribute(name)
			if err != nil {
				return err
			}
			r.Attrs[name] = v
		case schema.ToOne:
			null, err := d.IsNull(name)
			if err != nil {
				return err
			}
			if null {
				continue
			}
			id, err := d.ToOne(name)
			if err != nil {
				return err
			}
			r.ToOne[name] = id
		case schema.ToMany, schema.ToManyOrdered:
			ids, err := d.ToMany(name)
			if err != nil {
				return err
			}
			if len(ids) > 0 {
				r.ToMany[name] = ids
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
