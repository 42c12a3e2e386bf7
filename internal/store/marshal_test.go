package store

import (
	"testing"
	"time"

	"github.com/roach88/graft/internal/attr"
)

func TestMarshalAttrRoundTrip(t *testing.T) {
	values := []attr.Value{
		attr.Bool(true),
		attr.Int(-42),
		attr.Float(2.5),
		attr.String("hello"),
		attr.Bytes{0x00, 0xff},
		attr.NewTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		attr.MustDecimal("19.99"),
	}
	for _, v := range values {
		kind, text, err := marshalAttr(v)
		if err != nil {
			t.Fatalf("marshalAttr(%v) failed: %v", v, err)
		}
		back, err := unmarshalAttr(kind, text)
		if err != nil {
			t.Fatalf("unmarshalAttr(%s, %q) failed: %v", kind, text, err)
		}
		if !attr.Equal(v, back) {
			t.Errorf("round trip changed %v into %v", v, back)
		}
	}
}

func TestMarshalAttrRejectsNil(t *testing.T) {
	if _, _, err := marshalAttr(nil); err == nil {
		t.Error("marshalAttr(nil) should fail")
	}
}

func TestUnmarshalAttrRejectsUnknownKind(t *testing.T) {
	if _, err := unmarshalAttr("complex", "1+2i"); err == nil {
		t.Error("unmarshalAttr with unknown kind should fail")
	}
}

func TestIdentifierTextAgreesWithMarshal(t *testing.T) {
	v := attr.Canonical(attr.String("café"))
	_, text, err := marshalAttr(v)
	if err != nil {
		t.Fatalf("marshalAttr() failed: %v", err)
	}
	if identifierText(v) != text {
		t.Errorf("identifier text %q disagrees with attribute text %q", identifierText(v), text)
	}
}
