package attr

import (
	"fmt"
	"math"
)

// Narrowing selects how an Int is converted to an integer width the store
// does not natively represent. It is a single engine-wide policy, not a
// per-field one.
type Narrowing int

const (
	// NarrowExact narrows only when the value is exactly representable in
	// the requested width, failing otherwise. This is the default.
	NarrowExact Narrowing = iota

	// NarrowError refuses any out-of-range conversion with a hard type
	// error, regardless of value provenance.
	NarrowError

	// NarrowTruncate silently wraps via two's-complement truncation,
	// matching Go's native integer conversion semantics.
	NarrowTruncate
)

// String returns the tag used in configuration.
func (n Narrowing) String() string {
	switch n {
	case NarrowExact:
		return "exactly"
	case NarrowError:
		return "throw"
	case NarrowTruncate:
		return "truncating"
	default:
		return fmt.Sprintf("invalid(%d)", int(n))
	}
}

// ParseNarrowing maps a configuration tag to a Narrowing policy.
func ParseNarrowing(s string) (Narrowing, error) {
	switch s {
	case "exactly":
		return NarrowExact, nil
	case "throw":
		return NarrowError, nil
	case "truncating":
		return NarrowTruncate, nil
	default:
		return 0, fmt.Errorf("unknown narrowing policy %q: must be one of throw, exactly, truncating", s)
	}
}

// ErrNotRepresentable is wrapped by every failed narrowing conversion so
// callers can distinguish range failures from other type errors.
var ErrNotRepresentable = rangeError("value not exactly representable in requested width")

type rangeError string

func (e rangeError) Error() string { return string(e) }

func narrowCheck(v Int, lo, hi int64, policy Narrowing, width string) error {
	if int64(v) >= lo && int64(v) <= hi {
		return nil
	}
	switch policy {
	case NarrowTruncate:
		return nil
	case NarrowError:
		return fmt.Errorf("narrow %d to %s refused: %w", int64(v), width, ErrNotRepresentable)
	default: // NarrowExact
		return fmt.Errorf("narrow %d to %s: %w", int64(v), width, ErrNotRepresentable)
	}
}

// AsInt8 narrows to int8 under the given policy.
func (v Int) AsInt8(policy Narrowing) (int8, error) {
	if err := narrowCheck(v, math.MinInt8, math.MaxInt8, policy, "int8"); err != nil {
		return 0, err
	}
	return int8(v), nil
}

// AsInt16 narrows to int16 under the given policy.
func (v Int) AsInt16(policy Narrowing) (int16, error) {
	if err := narrowCheck(v, math.MinInt16, math.MaxInt16, policy, "int16"); err != nil {
		return 0, err
	}
	return int16(v), nil
}

// AsInt32 narrows to int32 under the given policy.
func (v Int) AsInt32(policy Narrowing) (int32, error) {
	if err := narrowCheck(v, math.MinInt32, math.MaxInt32, policy, "int32"); err != nil {
		return 0, err
	}
	return int32(v), nil
}

// AsUint8 narrows to uint8 under the given policy.
func (v Int) AsUint8(policy Narrowing) (uint8, error) {
	if err := narrowCheck(v, 0, math.MaxUint8, policy, "uint8"); err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// AsUint16 narrows to uint16 under the given policy.
func (v Int) AsUint16(policy Narrowing) (uint16, error) {
	if err := narrowCheck(v, 0, math.MaxUint16, policy, "uint16"); err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// AsUint32 narrows to uint32 under the given policy.
func (v Int) AsUint32(policy Narrowing) (uint32, error) {
	if err := narrowCheck(v, 0, math.MaxUint32, policy, "uint32"); err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// AsUint64 converts to uint64 under the given policy. The store carries
// integers as int64, so the only possible failure is a negative value.
func (v Int) AsUint64(policy Narrowing) (uint64, error) {
	if err := narrowCheck(v, 0, math.MaxInt64, policy, "uint64"); err != nil {
		return 0, err
	}
	return uint64(v), nil
}
