package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	var p Path
	p.pushField("orders")
	p.pushIndex(0)

	err := &Error{
		Code:     ErrCodeTypeMismatch,
		Message:  "attribute is int, requested string",
		Path:     p.Clone(),
		Kind:     "Customer",
		Property: "orders",
	}

	msg := err.Error()
	assert.Contains(t, msg, "TYPE_MISMATCH")
	assert.Contains(t, msg, "kind=Customer")
	assert.Contains(t, msg, "property=orders")
	assert.Contains(t, msg, "orders[0]")
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := storeErr(nil, "Order", cause)

	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, cause)
}

func TestErrorPredicatesDiscriminate(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{schemaErr(nil, "Order", "x"), IsSchemaError},
		{mismatchErr(nil, "Order", "x", "m"), IsTypeMismatch},
		{keyNotFoundErr(nil, "Order", "x"), IsKeyNotFound},
		{valueNotFoundErr(nil, "Order", "x"), IsValueNotFound},
		{storeErr(nil, "Order", errors.New("io")), IsStoreError},
	}
	for i, a := range cases {
		for j, b := range cases {
			assert.Equal(t, i == j, b.pred(a.err), "case %d against predicate %d", i, j)
		}
	}
}

func TestErrorPredicatesRejectForeignErrors(t *testing.T) {
	plain := errors.New("plain")
	assert.False(t, IsSchemaError(plain))
	assert.False(t, IsTypeMismatch(plain))
	assert.False(t, IsKeyNotFound(plain))
	assert.False(t, IsValueNotFound(plain))
	assert.False(t, IsStoreError(plain))
}
