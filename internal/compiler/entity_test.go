package compiler

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/schema"
)

func compileString(t *testing.T, src string) (*schema.Schema, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompileSchema(v)
}

const validSchema = `
entity: Customer: {
	id: "customerID"
	properties: {
		customerID: {type: "attribute", attr: "string"}
		email:      {type: "attribute", attr: "string", optional: true}
		orders:     {type: "toMany", target: "Order"}
	}
}
entity: Order: {
	id: "orderID"
	properties: {
		orderID: {type: "attribute", attr: "string"}
		count:   {type: "attribute", attr: "int"}
		items:   {type: "toManyOrdered", target: "Item"}
		buyer:   {type: "toOne", target: "Customer", optional: true}
	}
}
entity: Item: {
	id: "itemID"
	properties: {
		itemID: {type: "attribute", attr: "string"}
	}
}
`

func TestCompileSchemaValid(t *testing.T) {
	sch, err := compileString(t, validSchema)
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer", "Item", "Order"}, sch.Kinds())

	cust := sch.Entity("Customer")
	require.NotNil(t, cust)
	assert.Equal(t, "customerID", cust.IDAttribute)

	email, ok := sch.Property("Customer", "email")
	require.True(t, ok)
	assert.Equal(t, schema.Attribute, email.Kind)
	assert.Equal(t, attr.KindString, email.Attr)
	assert.True(t, email.Optional)

	items, ok := sch.Property("Order", "items")
	require.True(t, ok)
	assert.Equal(t, schema.ToManyOrdered, items.Kind)
	assert.Equal(t, "Item", items.Target)
}

func TestCompileSchemaParent(t *testing.T) {
	sch, err := compileString(t, `
entity: Party: {
	id: "partyID"
	properties: partyID: {type: "attribute", attr: "string"}
}
entity: Customer: {
	parent: "Party"
	id: "partyID"
	properties: email: {type: "attribute", attr: "string", optional: true}
}
`)
	require.NoError(t, err)

	assert.True(t, sch.DescendsFrom("Customer", "Party"))
	_, ok := sch.Property("Customer", "partyID")
	assert.True(t, ok)
}

func TestCompileSchemaNoEntities(t *testing.T) {
	_, err := compileString(t, `other: {x: 1}`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "entity", ce.Field)
}

func TestCompileEntityMissingID(t *testing.T) {
	_, err := compileString(t, `
entity: Broken: {
	properties: name: {type: "attribute", attr: "string"}
}
`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Broken.id", ce.Field)
}

func TestCompilePropertyMissingType(t *testing.T) {
	_, err := compileString(t, `
entity: Broken: {
	id: "name"
	properties: name: {attr: "string"}
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "type is required")
}

func TestCompilePropertyUnknownType(t *testing.T) {
	_, err := compileString(t, `
entity: Broken: {
	id: "name"
	properties: name: {type: "gaggle"}
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown property type "gaggle"`)
}

func TestCompileAttributeMissingAttr(t *testing.T) {
	_, err := compileString(t, `
entity: Broken: {
	id: "name"
	properties: name: {type: "attribute"}
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "attr")
}

func TestCompileAttributeUnknownAttrKind(t *testing.T) {
	_, err := compileString(t, `
entity: Broken: {
	id: "name"
	properties: name: {type: "attribute", attr: "complex"}
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown attribute kind")
}

func TestCompileRelationshipMissingTarget(t *testing.T) {
	_, err := compileString(t, `
entity: Broken: {
	id: "brokenID"
	properties: {
		brokenID: {type: "attribute", attr: "string"}
		other:    {type: "toOne"}
	}
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "target")
}

func TestCompileSchemaValidationSurface(t *testing.T) {
	// Schema-level validation failures surface as compile errors on the
	// entity block: the relationship targets an undeclared kind.
	_, err := compileString(t, `
entity: Lonely: {
	id: "lonelyID"
	properties: {
		lonelyID: {type: "attribute", attr: "string"}
		friend:   {type: "toOne", target: "Nobody"}
	}
}
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown kind")
}
