package attr

import (
	"bytes"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface representing the store-native primitive types.
// Only Bool, Int, Float, String, Bytes, Time, Decimal, UUID, and URI
// implement it. Integers of every width are boxed into Int; narrowing back
// out is governed by a Narrowing policy (see narrow.go).
type Value interface {
	attrValue() // Sealed - only these types implement it
}

// Bool represents a boolean attribute value.
// A Bool can never serve as an identifier scalar.
type Bool bool

func (Bool) attrValue() {}

// Int represents an integer attribute value.
// Always int64 in the store; narrower Go widths are boxed in via the IntOf
// helpers and narrowed back out via the As* methods.
type Int int64

func (Int) attrValue() {}

// Float represents a floating-point attribute value (always float64).
type Float float64

func (Float) attrValue() {}

// String represents a string attribute value.
type String string

func (String) attrValue() {}

// Bytes represents an opaque binary blob attribute value.
type Bytes []byte

func (Bytes) attrValue() {}

// Time represents a date attribute value.
// Stored and compared in UTC with nanosecond precision.
type Time struct {
	time.Time
}

func (Time) attrValue() {}

// Decimal represents an arbitrary-precision decimal attribute value.
// Backed by github.com/cockroachdb/apd; equality is numeric (Cmp), not
// textual, so 1.10 and 1.1 compare equal.
type Decimal struct {
	*apd.Decimal
}

func (Decimal) attrValue() {}

// UUID represents a UUID attribute value (RFC 4122, github.com/google/uuid).
type UUID struct {
	uuid.UUID
}

func (UUID) attrValue() {}

// URI represents a URI attribute value, parsed eagerly so malformed URIs
// are rejected at construction rather than at store time.
type URI struct {
	*url.URL
}

func (URI) attrValue() {}

// NewTime creates a Time value normalized to UTC.
func NewTime(t time.Time) Time {
	return Time{t.UTC()}
}

// NewDecimal parses a decimal attribute value from its string form.
func NewDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{d}, nil
}

// MustDecimal parses a decimal or panics. For tests and fixtures.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewUUID wraps a uuid.UUID as an attribute value.
func NewUUID(u uuid.UUID) UUID {
	return UUID{u}
}

// ParseUUID parses a UUID attribute value from its hyphenated string form.
func ParseUUID(s string) (UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("parse uuid %q: %w", s, err)
	}
	return UUID{u}, nil
}

// ParseURI parses a URI attribute value from its string form.
func ParseURI(s string) (URI, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URI{}, fmt.Errorf("parse uri %q: %w", s, err)
	}
	return URI{u}, nil
}

// MustURI parses a URI or panics. For tests and fixtures.
func MustURI(s string) URI {
	u, err := ParseURI(s)
	if err != nil {
		panic(err)
	}
	return u
}

// IntOf boxes any Go integer width that cannot overflow int64 into an Int.
func IntOf[T ~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32](v T) Int {
	return Int(v)
}

// Uint64Of boxes a uint64 into an Int, failing if the value exceeds the
// int64 range the store can represent.
func Uint64Of(v uint64) (Int, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("uint64 value %d overflows store integer range", v)
	}
	return Int(v), nil
}

// Kind identifies which concrete Value type a value or schema property
// carries.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindTime
	KindDecimal
	KindUUID
	KindURI
)

var kindNames = map[Kind]string{
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindBytes:   "bytes",
	KindTime:    "time",
	KindDecimal: "decimal",
	KindUUID:    "uuid",
	KindURI:     "uri",
}

// String returns the lowercase tag used in schema declarations and in the
// store's type column.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("invalid(%d)", int(k))
}

// ParseKind maps a schema/store tag back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown attribute kind %q", s)
}

// KindOf returns the Kind of a value. A nil Value has KindInvalid.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Bool:
		return KindBool
	case Int:
		return KindInt
	case Float:
		return KindFloat
	case String:
		return KindString
	case Bytes:
		return KindBytes
	case Time:
		return KindTime
	case Decimal:
		return KindDecimal
	case UUID:
		return KindUUID
	case URI:
		return KindURI
	default:
		return KindInvalid
	}
}

// Canonical returns the canonical form of a value for identity comparison
// and store indexing: strings are NFC normalized, times are UTC. All other
// kinds are already canonical.
func Canonical(v Value) Value {
	switch val := v.(type) {
	case String:
		return String(norm.NFC.String(string(val)))
	case Time:
		return Time{val.UTC()}
	default:
		return v
	}
}

// Equal reports structural equality between two values of the same kind.
// Values of different kinds are never equal. Strings compare in canonical
// NFC form; decimals compare numerically; times compare as instants.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch av := a.(type) {
	case Bool:
		return av == b.(Bool)
	case Int:
		return av == b.(Int)
	case Float:
		return av == b.(Float)
	case String:
		return norm.NFC.String(string(av)) == norm.NFC.String(string(b.(String)))
	case Bytes:
		return bytes.Equal(av, b.(Bytes))
	case Time:
		return av.Time.Equal(b.(Time).Time)
	case Decimal:
		return av.Cmp(b.(Decimal).Decimal) == 0
	case UUID:
		return av.UUID == b.(UUID).UUID
	case URI:
		return av.URL.String() == b.(URI).URL.String()
	default:
		return false
	}
}
