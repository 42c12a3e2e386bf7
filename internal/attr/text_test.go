package attr

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextForms(t *testing.T) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	at := time.Date(2024, 3, 1, 12, 30, 0, 500000000, time.UTC)

	tests := []struct {
		value Value
		want  string
	}{
		{Bool(true), "true"},
		{Int(-42), "-42"},
		{Float(2.5), "2.5"},
		{String("hello"), "hello"},
		{Bytes("hi"), "aGk="},
		{Time{at}, "2024-03-01T12:30:00.5Z"},
		{MustDecimal("12.50"), "12.50"},
		{NewUUID(u), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{MustURI("https://example.com/a?b=1"), "https://example.com/a?b=1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Text(tt.value))
	}
}

func TestFromTextInverse(t *testing.T) {
	values := []Value{
		Bool(false),
		Int(9007199254740993), // beyond float64 precision, must survive
		Float(-0.125),
		String("café"),
		Bytes{0x00, 0xff, 0x10},
		NewTime(time.Date(2031, 1, 2, 3, 4, 5, 678900000, time.UTC)),
		MustDecimal("-3.14159"),
		NewUUID(uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")),
		MustURI("https://example.com/path#frag"),
	}
	for _, v := range values {
		back, err := FromText(KindOf(v), Text(v))
		require.NoError(t, err, "kind %s", KindOf(v))
		assert.True(t, Equal(v, back), "kind %s: %s", KindOf(v), Text(v))
	}
}

func TestFromTextRejectsGarbage(t *testing.T) {
	_, err := FromText(KindInt, "not-a-number")
	assert.Error(t, err)

	_, err = FromText(KindTime, "yesterday")
	assert.Error(t, err)

	_, err = FromText(KindUUID, "xyz")
	assert.Error(t, err)

	_, err = FromText(KindInvalid, "anything")
	assert.Error(t, err)
}
