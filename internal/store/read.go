package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/graft/internal/schema"
)

// GetProperty reads the named property from the entity's bag and returns it
// as a tagged RawValue. A property with no value anywhere returns RawAbsent,
// not an error: existence-in-schema and presence-of-value are independent
// questions, and schema checks belong to the codec.
//
// Relationship shape (single vs collection, ordered vs unordered) comes
// from the store's schema, not from guessing at row counts.
func (s *Store) GetProperty(ctx context.Context, ref EntityRef, name string) (RawValue, error) {
	var attrKind, attrText string
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, value FROM attributes WHERE entity_id = ? AND name = ?
	`, ref.ID, name).Scan(&attrKind, &attrText)
	switch {
	case err == nil:
		v, err := unmarshalAttr(attrKind, attrText)
		if err != nil {
			return RawValue{}, fmt.Errorf("get property %s.%s: %w", ref, name, err)
		}
		return RawValue{Kind: RawAttr, Attr: v}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return RawValue{}, fmt.Errorf("get property %s.%s: %w", ref, name, err)
	}

	prop, declared := s.sch.Property(ref.Kind, name)
	if declared && prop.Kind != schema.Attribute {
		members, ordered, err := s.RelationshipMembers(ctx, ref, name)
		if err != nil {
			return RawValue{}, err
		}
		if len(members) == 0 {
			return RawValue{Kind: RawAbsent}, nil
		}
		if prop.Kind == schema.ToOne {
			return RawValue{Kind: RawRef, Ref: members[0]}, nil
		}
		return RawValue{Kind: RawRefs, Refs: members, Ordered: ordered}, nil
	}

	return RawValue{Kind: RawAbsent}, nil
}

// RelationshipMembers returns the member entities of a relationship
// property. Ordered relationships come back in stored order; unordered ones
// in a stable but meaningless order (target id). The ordered flag reflects
// the schema declaration.
func (s *Store) RelationshipMembers(ctx context.Context, ref EntityRef, name string) ([]EntityRef, bool, error) {
	prop, declared := s.sch.Property(ref.Kind, name)
	ordered := declared && prop.Kind == schema.ToManyOrdered

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.target_id, e.kind
		FROM links l JOIN entities e ON e.id = l.target_id
		WHERE l.source_id = ? AND l.name = ?
		ORDER BY l.ord ASC, l.target_id ASC
	`, ref.ID, name)
	if err != nil {
		return nil, false, fmt.Errorf("relationship members %s.%s: %w", ref, name, err)
	}
	defer rows.Close()

	var members []EntityRef
	for rows.Next() {
		var m EntityRef
		if err := rows.Scan(&m.ID, &m.Kind); err != nil {
			return nil, false, fmt.Errorf("relationship members %s.%s: %w", ref, name, err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("relationship members %s.%s: %w", ref, name, err)
	}
	return members, ordered, nil
}

// Identifier returns the canonical identifier text of an entity, as held
// in the dedup index.
func (s *Store) Identifier(ctx context.Context, ref EntityRef) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `
		SELECT identifier FROM entities WHERE id = ?
	`, ref.ID).Scan(&text)
	if err != nil {
		return "", fmt.Errorf("identifier of %s: %w", ref, err)
	}
	return text, nil
}

// LookupEntity resolves an entity by kind and canonical identifier text
// without creating it. Returns a zero ref if no such entity exists.
func (s *Store) LookupEntity(ctx context.Context, kind, identifier string) (EntityRef, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM entities WHERE kind = ? AND identifier = ?
	`, kind, identifier).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return EntityRef{}, nil
	case err != nil:
		return EntityRef{}, fmt.Errorf("lookup entity %s %q: %w", kind, identifier, err)
	}
	return EntityRef{ID: id, Kind: kind}, nil
}

// ListEntities returns all entities, optionally filtered to one kind,
// ordered by id for deterministic dumps.
func (s *Store) ListEntities(ctx context.Context, kind string) ([]EntityRef, error) {
	query := `SELECT id, kind FROM entities ORDER BY id ASC`
	args := []any{}
	if kind != "" {
		query = `SELECT id, kind FROM entities WHERE kind = ? ORDER BY id ASC`
		args = append(args, kind)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []EntityRef
	for rows.Next() {
		var ref EntityRef
		if err := rows.Scan(&ref.ID, &ref.Kind); err != nil {
			return nil, fmt.Errorf("list entities: %w", err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return out, nil
}

// Attributes returns all attribute rows of an entity as name -> value,
// used by dumps and tests.
func (s *Store) Attributes(ctx context.Context, ref EntityRef) (map[string]RawValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, value FROM attributes WHERE entity_id = ? ORDER BY name ASC
	`, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("attributes %s: %w", ref, err)
	}
	defer rows.Close()

	out := map[string]RawValue{}
	for rows.Next() {
		var name, attrKind, attrText string
		if err := rows.Scan(&name, &attrKind, &attrText); err != nil {
			return nil, fmt.Errorf("attributes %s: %w", ref, err)
		}
		v, err := unmarshalAttr(attrKind, attrText)
		if err != nil {
			return nil, fmt.Errorf("attributes %s: %s: %w", ref, name, err)
		}
		out[name] = RawValue{Kind: RawAttr, Attr: v}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attributes %s: %w", ref, err)
	}
	return out, nil
}

// Links returns all outgoing relationship names of an entity, used by
// dumps and tests.
func (s *Store) Links(ctx context.Context, ref EntityRef) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM links WHERE source_id = ? ORDER BY name ASC
	`, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("links %s: %w", ref, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("links %s: %w", ref, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("links %s: %w", ref, err)
	}
	return names, nil
}
