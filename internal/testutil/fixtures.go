// Package testutil provides shared fixtures for package tests: the sample
// entity schema used across the codebase and temp-store constructors.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/schema"
	"github.com/roach88/graft/internal/store"
)

// SampleSchema builds the entity schema used across package tests.
//
// Kinds:
//   - Party: root kind, identified by partyID, with an optional label
//   - Customer: child of Party, adds email, an unordered orders
//     relationship and an optional primaryOrder
//   - Order: identified by orderID, carries one attribute of every
//     primitive kind plus an ordered items relationship
//   - Item: identified by itemID
func SampleSchema(t *testing.T) *schema.Schema {
	t.Helper()

	sch, err := schema.New(
		&schema.Entity{
			Name:        "Party",
			IDAttribute: "partyID",
			Properties: []schema.Property{
				{Name: "partyID", Kind: schema.Attribute, Attr: attr.KindString},
				{Name: "label", Kind: schema.Attribute, Attr: attr.KindString, Optional: true},
			},
		},
		&schema.Entity{
			Name:        "Customer",
			Parent:      "Party",
			IDAttribute: "partyID",
			Properties: []schema.Property{
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
				{Name: "count", Kind: schema.Attribute, Attr: attr.KindInt},
				{Name: "label", Kind: schema.Attribute, Attr: attr.KindString, Optional: true},
				{Name: "active", Kind: schema.Attribute, Attr: attr.KindBool, Optional: true},
				{Name: "discount", Kind: schema.Attribute, Attr: attr.KindFloat, Optional: true},
				{Name: "total", Kind: schema.Attribute, Attr: attr.KindDecimal, Optional: true},
				{Name: "placedAt", Kind: schema.Attribute, Attr: attr.KindTime, Optional: true},
				{Name: "trackingID", Kind: schema.Attribute, Attr: attr.KindUUID, Optional: true},
				{Name: "website", Kind: schema.Attribute, Attr: attr.KindURI, Optional: true},
				{Name: "payload", Kind: schema.Attribute, Attr: attr.KindBytes, Optional: true},
				{Name: "items", Kind: schema.ToManyOrdered, Target: "Item"},
				{Name: "customer", Kind: schema.ToOne, Target: "Customer", Optional: true},
			},
		},
		&schema.Entity{
			Name:        "Item",
			IDAttribute: "itemID",
			Properties: []schema.Property{
				{Name: "itemID", Kind: schema.Attribute, Attr: attr.KindString},
				{Name: "sku", Kind: schema.Attribute, Attr: attr.KindString, Optional: true},
			},
		},
	)
	if err != nil {
		t.Fatalf("build sample schema: %v", err)
	}
	return sch
}

// TempStore opens a SQLite store in a per-test temp directory, bound to the
// given schema, and closes it when the test finishes.
func TempStore(t *testing.T, sch *schema.Schema) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "graft.db")
	s, err := store.Open(path, sch)
	if err != nil {
		t.Fatalf("open temp store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close temp store: %v", err)
		}
	})
	return s
}
