package store

import (
	"testing"

	"github.com/roach88/graft/internal/attr"
)

func TestGetProperty_Shapes(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	cust, _ := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("bob"))
	o1, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-1"))
	o2, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-2"))

	if err := s.SetAttribute(ctx, cust, "email", attr.String("bob@example.com")); err != nil {
		t.Fatalf("SetAttribute() failed: %v", err)
	}
	if err := s.SetLink(ctx, cust, "primaryOrder", o1); err != nil {
		t.Fatalf("SetLink() failed: %v", err)
	}
	if err := s.SetLinks(ctx, cust, "orders", []EntityRef{o1, o2}, false); err != nil {
		t.Fatalf("SetLinks() failed: %v", err)
	}

	// Attribute row
	raw, err := s.GetProperty(ctx, cust, "email")
	if err != nil {
		t.Fatalf("GetProperty(email) failed: %v", err)
	}
	if raw.Kind != RawAttr {
		t.Errorf("email kind = %v, expected RawAttr", raw.Kind)
	}

	// Single reference
	raw, err = s.GetProperty(ctx, cust, "primaryOrder")
	if err != nil {
		t.Fatalf("GetProperty(primaryOrder) failed: %v", err)
	}
	if raw.Kind != RawRef || raw.Ref != o1 {
		t.Errorf("primaryOrder = %+v, expected single ref %s", raw, o1)
	}

	// Member collection
	raw, err = s.GetProperty(ctx, cust, "orders")
	if err != nil {
		t.Fatalf("GetProperty(orders) failed: %v", err)
	}
	if raw.Kind != RawRefs || len(raw.Refs) != 2 {
		t.Errorf("orders = %+v, expected two refs", raw)
	}

	// Never written
	raw, err = s.GetProperty(ctx, o1, "count")
	if err != nil {
		t.Fatalf("GetProperty(count) failed: %v", err)
	}
	if raw.Kind != RawAbsent {
		t.Errorf("count kind = %v, expected RawAbsent", raw.Kind)
	}
}

func TestGetProperty_AttributeRoundTripsAllKinds(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	ref, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-1"))

	if err := s.SetAttribute(ctx, ref, "count", attr.Int(-7)); err != nil {
		t.Fatalf("SetAttribute() failed: %v", err)
	}
	raw, err := s.GetProperty(ctx, ref, "count")
	if err != nil {
		t.Fatalf("GetProperty() failed: %v", err)
	}
	if !attr.Equal(raw.Attr, attr.Int(-7)) {
		t.Errorf("count = %v, round trip lost the value", raw.Attr)
	}
}

func TestIdentifier(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	ref, _ := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("alice"))

	text, err := s.Identifier(ctx, ref)
	if err != nil {
		t.Fatalf("Identifier() failed: %v", err)
	}
	if text != "alice" {
		t.Errorf("identifier text = %q, expected alice", text)
	}
}

func TestLookupEntity(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	created, _ := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("alice"))

	found, err := s.LookupEntity(ctx, "Customer", "alice")
	if err != nil {
		t.Fatalf("LookupEntity() failed: %v", err)
	}
	if found != created {
		t.Errorf("LookupEntity() = %s, expected %s", found, created)
	}

	missing, err := s.LookupEntity(ctx, "Customer", "nobody")
	if err != nil {
		t.Fatalf("LookupEntity() for missing entity failed: %v", err)
	}
	if !missing.IsZero() {
		t.Errorf("missing entity lookup = %s, expected zero ref", missing)
	}
}

func TestListEntities_FilterByKind(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	s.FindOrCreate(ctx, "Customer", "customerID", attr.String("alice"))
	s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-1"))
	s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-2"))

	all, err := s.ListEntities(ctx, "")
	if err != nil {
		t.Fatalf("ListEntities() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all entities = %d, expected 3", len(all))
	}

	orders, err := s.ListEntities(ctx, "Order")
	if err != nil {
		t.Fatalf("ListEntities(Order) failed: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("order entities = %d, expected 2", len(orders))
	}
	for _, ref := range orders {
		if ref.Kind != "Order" {
			t.Errorf("kind filter leaked %s", ref)
		}
	}
}

func TestAttributesAndLinks(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	cust, _ := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("bob"))
	order, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-1"))
	s.SetAttribute(ctx, cust, "email", attr.String("bob@example.com"))
	s.SetLink(ctx, cust, "primaryOrder", order)

	attrs, err := s.Attributes(ctx, cust)
	if err != nil {
		t.Fatalf("Attributes() failed: %v", err)
	}
	// customerID (written by FindOrCreate) plus email
	if len(attrs) != 2 {
		t.Errorf("attribute count = %d, expected 2", len(attrs))
	}

	links, err := s.Links(ctx, cust)
	if err != nil {
		t.Fatalf("Links() failed: %v", err)
	}
	if len(links) != 1 || links[0] != "primaryOrder" {
		t.Errorf("links = %v, expected [primaryOrder]", links)
	}
}
