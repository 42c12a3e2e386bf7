package store

import (
	"fmt"

	"github.com/roach88/graft/internal/attr"
)

// marshalAttr converts an attribute value to its (type tag, canonical text)
// column pair. Canonicalization happens here so that everything in the
// database - including the identifier index - compares bytewise.
func marshalAttr(v attr.Value) (kind, text string, err error) {
	k := attr.KindOf(v)
	if k == attr.KindInvalid {
		return "", "", fmt.Errorf("marshal attribute: invalid value %T", v)
	}
	return k.String(), attr.Text(v), nil
}

// unmarshalAttr parses the (type tag, canonical text) column pair back into
// an attribute value.
func unmarshalAttr(kind, text string) (attr.Value, error) {
	k, err := attr.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("unmarshal attribute: %w", err)
	}
	v, err := attr.FromText(k, text)
	if err != nil {
		return nil, fmt.Errorf("unmarshal attribute: %w", err)
	}
	return v, nil
}

// identifierText is the canonical text used in the entities.identifier
// column. It must agree with marshalAttr's text form so the identifier
// attribute row and the dedup index can never disagree.
func identifierText(scalar attr.Value) string {
	return attr.Text(scalar)
}
