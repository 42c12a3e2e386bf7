package harness

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/codec"
	"github.com/roach88/graft/internal/compiler"
	"github.com/roach88/graft/internal/schema"
	"github.com/roach88/graft/internal/store"
)

// Result carries the state of a completed scenario run.
type Result struct {
	Scenario *Scenario
	Schema   *schema.Schema
	Store    *store.Store
	Codec    *codec.Codec

	// Refs maps "Kind=kind:text" identifier syntax to the encoded root
	// entities, in the order records were declared.
	Refs []store.EntityRef
}

// Run executes a scenario: compile the schema, open a store at dbPath,
// encode every record in order, then evaluate assertions.
// Scenario-relative paths resolve against baseDir. Extra codec options
// (trace sinks in particular) are appended after the scenario's own.
func Run(ctx context.Context, sc *Scenario, baseDir, dbPath string, extra ...codec.Option) (*Result, error) {
	sch, err := compiler.LoadDir(filepath.Join(baseDir, sc.Schema))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	st, err := store.Open(dbPath, sch)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	opts := []codec.Option{}
	if sc.Narrowing != "" {
		policy, err := attr.ParseNarrowing(sc.Narrowing)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		opts = append(opts, codec.WithNarrowing(policy))
	}
	opts = append(opts, extra...)
	cd := codec.New(st, opts...)

	result := &Result{Scenario: sc, Schema: sch, Store: st, Codec: cd}
	for i, spec := range sc.Records {
		rec, err := buildRecord(sch, spec)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("scenario %s: record %d: %w", sc.Name, i, err)
		}
		ref, err := cd.Encode(ctx, rec)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("scenario %s: record %d: %w", sc.Name, i, err)
		}
		result.Refs = append(result.Refs, ref)
	}

	for i, a := range sc.Assertions {
		if err := result.assert(ctx, a); err != nil {
			st.Close()
			return nil, fmt.Errorf("scenario %s: assertion %d (%s): %w", sc.Name, i, a.Type, err)
		}
	}
	return result, nil
}

// buildRecord converts a RecordSpec into a generic Record.
func buildRecord(sch *schema.Schema, spec RecordSpec) (*Record, error) {
	id, err := ParseIdentifier(spec.Kind + "=" + spec.ID)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		Schema: sch,
		Kind:   spec.Kind,
		ID:     id,
		Attrs:  map[string]attr.Value{},
		Clear:  spec.Clear,
		ToOne:  map[string]codec.Identifier{},
		ToMany: map[string][]codec.Identifier{},
		Nested: map[string][]*Record{},
	}
	for name, raw := range spec.Attrs {
		v, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("attr %s: %w", name, err)
		}
		rec.Attrs[name] = v
	}
	for name, raw := range spec.ToOne {
		rid, err := ParseIdentifier(raw)
		if err != nil {
			return nil, fmt.Errorf("to_one %s: %w", name, err)
		}
		rec.ToOne[name] = rid
	}
	for name, raws := range spec.ToMany {
		ids := make([]codec.Identifier, 0, len(raws))
		for _, raw := range raws {
			rid, err := ParseIdentifier(raw)
			if err != nil {
				return nil, fmt.Errorf("to_many %s: %w", name, err)
			}
			ids = append(ids, rid)
		}
		rec.ToMany[name] = ids
	}
	for name, specs := range spec.Nested {
		for _, nested := range specs {
			sub, err := buildRecord(sch, nested)
			if err != nil {
				return nil, fmt.Errorf("nested %s: %w", name, err)
			}
			rec.Nested[name] = append(rec.Nested[name], sub)
		}
	}
	return rec, nil
}

// assert evaluates one assertion against the encoded graph.
func (r *Result) assert(ctx context.Context, a Assertion) error {
	id, err := ParseIdentifier(a.Entity)
	if err != nil {
		return err
	}
	ref, err := r.Store.LookupEntity(ctx, id.EntityKind(), attr.Text(id.Scalar()))
	if err != nil {
		return err
	}
	if ref.IsZero() {
		return fmt.Errorf("entity %s not found", a.Entity)
	}

	switch a.Type {
	case "attribute_equals":
		want, err := ParseValue(a.Value)
		if err != nil {
			return err
		}
		raw, err := r.Store.GetProperty(ctx, ref, a.Name)
		if err != nil {
			return err
		}
		if raw.Kind != store.RawAttr {
			return fmt.Errorf("property %s holds no attribute", a.Name)
		}
		if !attr.Equal(raw.Attr, want) {
			return fmt.Errorf("property %s = %s, want %s", a.Name, attr.Text(raw.Attr), attr.Text(want))
		}
		return nil

	case "attribute_absent":
		raw, err := r.Store.GetProperty(ctx, ref, a.Name)
		if err != nil {
			return err
		}
		if raw.Kind != store.RawAbsent {
			return fmt.Errorf("property %s should be unset", a.Name)
		}
		return nil

	case "member_count":
		members, _, err := r.Store.RelationshipMembers(ctx, ref, a.Name)
		if err != nil {
			return err
		}
		if len(members) != a.Count {
			return fmt.Errorf("relationship %s has %d members, want %d", a.Name, len(members), a.Count)
		}
		return nil

	case "roundtrip":
		rec := &Record{Schema: r.Schema, Kind: id.EntityKind()}
		if err := r.Codec.DecodeEntity(ctx, rec, ref); err != nil {
			return err
		}
		if !rec.ID.Equal(id) {
			return fmt.Errorf("roundtrip identifier %s, want %s", rec.ID, id)
		}
		return nil

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}
