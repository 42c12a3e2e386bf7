package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/graft/internal/attr"
)

// FindOrCreate resolves the entity of the given kind whose identifier
// attribute equals scalar, inserting a new entity if none exists. This is
// the single deduplication point: repeated calls with equal identifiers
// always resolve to the same entity.
//
// The insert-or-select runs in one transaction against the
// UNIQUE(kind, identifier) index, so two concurrent calls for the same
// identifier never both insert.
func (s *Store) FindOrCreate(ctx context.Context, kind, idAttr string, scalar attr.Value) (EntityRef, error) {
	if attr.KindOf(scalar) == attr.KindBool {
		return EntityRef{}, fmt.Errorf("find or create %s: boolean identifier scalars are not indexable", kind)
	}
	canonical := attr.Canonical(scalar)
	idText := identifierText(canonical)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return EntityRef{}, fmt.Errorf("find or create %s: begin tx: %w", kind, err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO entities (kind, identifier)
		VALUES (?, ?)
		ON CONFLICT(kind, identifier) DO NOTHING
	`, kind, idText)
	if err != nil {
		return EntityRef{}, fmt.Errorf("find or create %s: insert: %w", kind, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return EntityRef{}, fmt.Errorf("find or create %s: rows affected: %w", kind, err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM entities WHERE kind = ? AND identifier = ?
	`, kind, idText).Scan(&id)
	if err != nil {
		return EntityRef{}, fmt.Errorf("find or create %s: select: %w", kind, err)
	}

	if inserted > 0 {
		// New entity: materialize the identifier attribute row so decode
		// reads it like any other attribute.
		attrKind, attrText, err := marshalAttr(canonical)
		if err != nil {
			return EntityRef{}, fmt.Errorf("find or create %s: %w", kind, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attributes (entity_id, name, kind, value)
			VALUES (?, ?, ?, ?)
		`, id, idAttr, attrKind, attrText)
		if err != nil {
			return EntityRef{}, fmt.Errorf("find or create %s: set identifier attribute: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return EntityRef{}, fmt.Errorf("find or create %s: commit: %w", kind, err)
	}

	return EntityRef{ID: id, Kind: kind}, nil
}

// SetAttribute writes a primitive attribute value, replacing any previous
// value or relationship members under the same name.
func (s *Store) SetAttribute(ctx context.Context, ref EntityRef, name string, v attr.Value) error {
	attrKind, attrText, err := marshalAttr(v)
	if err != nil {
		return fmt.Errorf("set attribute %s.%s: %w", ref, name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set attribute %s.%s: begin tx: %w", ref, name, err)
	}
	defer tx.Rollback()

	if err := clearPropertyTx(ctx, tx, ref, name); err != nil {
		return fmt.Errorf("set attribute %s.%s: %w", ref, name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO attributes (entity_id, name, kind, value)
		VALUES (?, ?, ?, ?)
	`, ref.ID, name, attrKind, attrText)
	if err != nil {
		return fmt.Errorf("set attribute %s.%s: %w", ref, name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set attribute %s.%s: commit: %w", ref, name, err)
	}
	return nil
}

// SetLink writes a single-entity relationship, replacing any previous value
// under the same name.
func (s *Store) SetLink(ctx context.Context, ref EntityRef, name string, target EntityRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set link %s.%s: begin tx: %w", ref, name, err)
	}
	defer tx.Rollback()

	if err := clearPropertyTx(ctx, tx, ref, name); err != nil {
		return fmt.Errorf("set link %s.%s: %w", ref, name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO links (source_id, name, target_id, ord)
		VALUES (?, ?, ?, NULL)
	`, ref.ID, name, target.ID)
	if err != nil {
		return fmt.Errorf("set link %s.%s: %w", ref, name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set link %s.%s: commit: %w", ref, name, err)
	}
	return nil
}

// SetLinks writes a multi-entity relationship, replacing any previous
// members under the same name. Duplicate targets collapse to one member
// (the member set is keyed by target entity). For unordered relationships
// ord stays NULL; for ordered ones it records the given order.
func (s *Store) SetLinks(ctx context.Context, ref EntityRef, name string, targets []EntityRef, ordered bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set links %s.%s: begin tx: %w", ref, name, err)
	}
	defer tx.Rollback()

	if err := clearPropertyTx(ctx, tx, ref, name); err != nil {
		return fmt.Errorf("set links %s.%s: %w", ref, name, err)
	}
	for i, target := range targets {
		var ord any // NULL for unordered
		if ordered {
			ord = i
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO links (source_id, name, target_id, ord)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(source_id, name, target_id) DO NOTHING
		`, ref.ID, name, target.ID, ord)
		if err != nil {
			return fmt.Errorf("set links %s.%s: %w", ref, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set links %s.%s: commit: %w", ref, name, err)
	}
	return nil
}

// ClearProperty removes the named property's value: the attribute row and
// all relationship members. Clearing an already-clear property is a no-op.
func (s *Store) ClearProperty(ctx context.Context, ref EntityRef, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear property %s.%s: begin tx: %w", ref, name, err)
	}
	defer tx.Rollback()

	if err := clearPropertyTx(ctx, tx, ref, name); err != nil {
		return fmt.Errorf("clear property %s.%s: %w", ref, name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear property %s.%s: commit: %w", ref, name, err)
	}
	return nil
}

func clearPropertyTx(ctx context.Context, tx *sql.Tx, ref EntityRef, name string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM attributes WHERE entity_id = ? AND name = ?
	`, ref.ID, name); err != nil {
		return fmt.Errorf("clear attribute row: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM links WHERE source_id = ? AND name = ?
	`, ref.ID, name); err != nil {
		return fmt.Errorf("clear link rows: %w", err)
	}
	return nil
}

// DeleteEntity removes an entity, its attributes, and its outgoing links.
// The codec engine never deletes; this exists for validation-error recovery
// layered above it. Incoming links from other entities are removed too.
func (s *Store) DeleteEntity(ctx context.Context, ref EntityRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete entity %s: begin tx: %w", ref, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM links WHERE target_id = ?
	`, ref.ID); err != nil {
		return fmt.Errorf("delete entity %s: incoming links: %w", ref, err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM entities WHERE id = ?
	`, ref.ID); err != nil {
		return fmt.Errorf("delete entity %s: %w", ref, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete entity %s: commit: %w", ref, err)
	}
	return nil
}
