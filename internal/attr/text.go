package attr

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// Text returns the canonical text form of a value, used for the store's
// identifier index and for the TEXT-typed column of the property bag.
// Every kind round-trips exactly through FromText.
func Text(v Value) string {
	switch val := Canonical(v).(type) {
	case Bool:
		return strconv.FormatBool(bool(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case String:
		return string(val)
	case Bytes:
		return base64.StdEncoding.EncodeToString(val)
	case Time:
		return val.Format(time.RFC3339Nano)
	case Decimal:
		return val.Decimal.Text('G')
	case UUID:
		return val.UUID.String()
	case URI:
		return val.URL.String()
	default:
		return ""
	}
}

// FromText parses the canonical text form back into a value of the given
// kind. Inverse of Text for every kind.
func FromText(k Kind, s string) (Value, error) {
	switch k {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("parse bool %q: %w", s, err)
		}
		return Bool(b), nil
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse int %q: %w", s, err)
		}
		return Int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", s, err)
		}
		return Float(f), nil
	case KindString:
		return String(s), nil
	case KindBytes:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("parse bytes: %w", err)
		}
		return Bytes(b), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", s, err)
		}
		return NewTime(t), nil
	case KindDecimal:
		return NewDecimal(s)
	case KindUUID:
		return ParseUUID(s)
	case KindURI:
		return ParseURI(s)
	default:
		return nil, fmt.Errorf("cannot parse attribute kind %q", k)
	}
}
