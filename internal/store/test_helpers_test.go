package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/schema"
)

// testSchema builds the minimal schema the store tests need: a Customer
// kind with an unordered and an ordered relationship into Order/Item.
func testSchema(t *testing.T) *schema.Schema {
	t.Helper()

	sch, err := schema.New(
		&schema.Entity{
			Name:        "Customer",
			IDAttribute: "customerID",
			Properties: []schema.Property{
				{Name: "customerID", Kind: schema.Attribute, Attr: attr.KindString},
				{Name: "email", Kind: schema.Attribute, Attr: attr.KindString, Optional: true},
				{Name: "orders", Kind: schema.ToMany, Target: "Order"},
				{Name: "primaryOrder", Kind: schema.ToOne, Target: "Order", Optional: true},
			},
		},
		&schema.Entity{
			Name:        "Order",
			IDAttribute: "orderID",
			Properties: []schema.Property{
				{Name: "orderID", Kind: schema.Attribute, Attr: attr.KindString},
				{Name: "count", Kind: schema.Attribute, Attr: attr.KindInt, Optional: true},
				{Name: "items", Kind: schema.ToManyOrdered, Target: "Item"},
			},
		},
		&schema.Entity{
			Name:        "Item",
			IDAttribute: "itemID",
			Properties: []schema.Property{
				{Name: "itemID", Kind: schema.Attribute, Attr: attr.KindString},
			},
		},
	)
	if err != nil {
		t.Fatalf("build test schema: %v", err)
	}
	return sch
}

// openTestStore opens a store in a per-test temp directory.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, testSchema(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
