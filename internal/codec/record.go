package codec

// Encodable is the capability contract a value type satisfies to be written
// into the store. A record owns exactly one identifier (named by
// IdentifierKey) plus zero or more attribute and relationship fields, which
// it declares by calling the FieldEncoder passed to EncodeFields.
//
// Relationship shape is an explicit per-call declaration - ToOne,
// ToOneNested, ToMany, ToManyNested - never inferred from a value's dynamic
// type.
type Encodable interface {
	// EntityKind names the store entity kind this record maps to.
	EntityKind() string

	// IdentifierKey is the wire name of the record's identifier field.
	// A ToOne call under this name is the record's self-identity and is
	// written as a plain attribute, not a relationship.
	IdentifierKey() string

	// Identifier returns the record's own identifier. Its entity kind
	// must equal EntityKind.
	Identifier() Identifier

	// EncodeFields declares the record's fields against the encoder.
	// Returning an error aborts the whole encode.
	EncodeFields(e *FieldEncoder) error
}

// Decodable is the capability contract a value type satisfies to be
// reconstructed from a store entity. DecodeFields pulls each field from the
// FieldDecoder; any failed pull aborts the whole decode.
type Decodable interface {
	// EntityKind names the store entity kind this record maps from.
	EntityKind() string

	// IdentifierKey is the wire name of the record's identifier field.
	// Requesting an Identifier under this name reads the entity's own
	// identifier scalar directly rather than following a relationship.
	IdentifierKey() string

	// DecodeFields reconstructs the record's fields from the decoder.
	DecodeFields(d *FieldDecoder) error
}
