package store

import (
	"sync"
	"testing"

	"github.com/roach88/graft/internal/attr"
)

func TestFindOrCreate_CreatesOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	ref1, err := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("alice"))
	if err != nil {
		t.Fatalf("FindOrCreate() failed: %v", err)
	}
	ref2, err := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("alice"))
	if err != nil {
		t.Fatalf("second FindOrCreate() failed: %v", err)
	}

	if ref1 != ref2 {
		t.Errorf("equal identifiers resolved to different entities: %s vs %s", ref1, ref2)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entities").Scan(&count); err != nil {
		t.Fatalf("count entities: %v", err)
	}
	if count != 1 {
		t.Errorf("entity count = %d, expected 1", count)
	}
}

func TestFindOrCreate_DistinctPerKind(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	c, err := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("x"))
	if err != nil {
		t.Fatalf("FindOrCreate() failed: %v", err)
	}
	o, err := s.FindOrCreate(ctx, "Order", "orderID", attr.String("x"))
	if err != nil {
		t.Fatalf("FindOrCreate() failed: %v", err)
	}

	// Same identifier text under different kinds is two entities
	if c.ID == o.ID {
		t.Error("identifier dedup leaked across kinds")
	}
}

func TestFindOrCreate_WritesIdentifierAttribute(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	ref, err := s.FindOrCreate(ctx, "Order", "orderID", attr.String("A-100"))
	if err != nil {
		t.Fatalf("FindOrCreate() failed: %v", err)
	}

	raw, err := s.GetProperty(ctx, ref, "orderID")
	if err != nil {
		t.Fatalf("GetProperty() failed: %v", err)
	}
	if raw.Kind != RawAttr {
		t.Fatalf("identifier attribute kind = %v, expected RawAttr", raw.Kind)
	}
	if !attr.Equal(raw.Attr, attr.String("A-100")) {
		t.Errorf("identifier attribute = %v, expected A-100", raw.Attr)
	}
}

func TestFindOrCreate_CanonicalizesIdentifier(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	// Precomposed vs decomposed form of the same string
	ref1, err := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("café"))
	if err != nil {
		t.Fatalf("FindOrCreate() failed: %v", err)
	}
	ref2, err := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("café"))
	if err != nil {
		t.Fatalf("FindOrCreate() failed: %v", err)
	}
	if ref1 != ref2 {
		t.Error("NFC-equal identifiers resolved to different entities")
	}
}

func TestFindOrCreate_RejectsBoolScalar(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.FindOrCreate(t.Context(), "Customer", "customerID", attr.Bool(true)); err == nil {
		t.Error("boolean identifier scalar should be rejected")
	}
}

func TestFindOrCreate_ConcurrentSameIdentifier(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	const n = 8
	refs := make([]EntityRef, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs[i], errs[i] = s.FindOrCreate(ctx, "Item", "itemID", attr.String("widget"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("concurrent FindOrCreate() %d failed: %v", i, errs[i])
		}
		if refs[i] != refs[0] {
			t.Errorf("concurrent call %d resolved %s, expected %s", i, refs[i], refs[0])
		}
	}
}

func TestSetAttribute_Overwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	ref, err := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("bob"))
	if err != nil {
		t.Fatalf("FindOrCreate() failed: %v", err)
	}

	if err := s.SetAttribute(ctx, ref, "email", attr.String("old@example.com")); err != nil {
		t.Fatalf("SetAttribute() failed: %v", err)
	}
	if err := s.SetAttribute(ctx, ref, "email", attr.String("new@example.com")); err != nil {
		t.Fatalf("second SetAttribute() failed: %v", err)
	}

	raw, err := s.GetProperty(ctx, ref, "email")
	if err != nil {
		t.Fatalf("GetProperty() failed: %v", err)
	}
	if !attr.Equal(raw.Attr, attr.String("new@example.com")) {
		t.Errorf("email = %v, expected the overwritten value", raw.Attr)
	}

	var count int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM attributes WHERE entity_id = ? AND name = 'email'", ref.ID,
	).Scan(&count); err != nil {
		t.Fatalf("count attribute rows: %v", err)
	}
	if count != 1 {
		t.Errorf("attribute row count = %d, expected 1", count)
	}
}

func TestSetLink_ReplacesTarget(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	cust, _ := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("bob"))
	o1, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-1"))
	o2, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-2"))

	if err := s.SetLink(ctx, cust, "primaryOrder", o1); err != nil {
		t.Fatalf("SetLink() failed: %v", err)
	}
	if err := s.SetLink(ctx, cust, "primaryOrder", o2); err != nil {
		t.Fatalf("second SetLink() failed: %v", err)
	}

	members, _, err := s.RelationshipMembers(ctx, cust, "primaryOrder")
	if err != nil {
		t.Fatalf("RelationshipMembers() failed: %v", err)
	}
	if len(members) != 1 || members[0] != o2 {
		t.Errorf("members = %v, expected [%s]", members, o2)
	}
}

func TestSetLinks_DedupsTargets(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	cust, _ := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("bob"))
	o1, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-1"))
	o2, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-2"))

	if err := s.SetLinks(ctx, cust, "orders", []EntityRef{o1, o2, o1}, false); err != nil {
		t.Fatalf("SetLinks() failed: %v", err)
	}

	members, ordered, err := s.RelationshipMembers(ctx, cust, "orders")
	if err != nil {
		t.Fatalf("RelationshipMembers() failed: %v", err)
	}
	if ordered {
		t.Error("orders reported ordered, declared unordered")
	}
	if len(members) != 2 {
		t.Errorf("member count = %d, expected duplicate collapsed to 2", len(members))
	}
}

func TestSetLinks_PreservesOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	order, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-1"))
	i1, _ := s.FindOrCreate(ctx, "Item", "itemID", attr.String("zulu"))
	i2, _ := s.FindOrCreate(ctx, "Item", "itemID", attr.String("alpha"))
	i3, _ := s.FindOrCreate(ctx, "Item", "itemID", attr.String("mike"))

	if err := s.SetLinks(ctx, order, "items", []EntityRef{i3, i1, i2}, true); err != nil {
		t.Fatalf("SetLinks() failed: %v", err)
	}

	members, ordered, err := s.RelationshipMembers(ctx, order, "items")
	if err != nil {
		t.Fatalf("RelationshipMembers() failed: %v", err)
	}
	if !ordered {
		t.Error("items reported unordered, declared ordered")
	}
	want := []EntityRef{i3, i1, i2}
	for i := range want {
		if members[i] != want[i] {
			t.Fatalf("members = %v, expected insertion order %v", members, want)
		}
	}
}

func TestClearProperty(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	ref, _ := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("bob"))
	if err := s.SetAttribute(ctx, ref, "email", attr.String("bob@example.com")); err != nil {
		t.Fatalf("SetAttribute() failed: %v", err)
	}

	if err := s.ClearProperty(ctx, ref, "email"); err != nil {
		t.Fatalf("ClearProperty() failed: %v", err)
	}

	raw, err := s.GetProperty(ctx, ref, "email")
	if err != nil {
		t.Fatalf("GetProperty() failed: %v", err)
	}
	if raw.Kind != RawAbsent {
		t.Errorf("cleared property kind = %v, expected RawAbsent", raw.Kind)
	}

	// Clearing again is a no-op
	if err := s.ClearProperty(ctx, ref, "email"); err != nil {
		t.Errorf("repeat ClearProperty() failed: %v", err)
	}
}

func TestDeleteEntity_RemovesIncomingLinks(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	cust, _ := s.FindOrCreate(ctx, "Customer", "customerID", attr.String("bob"))
	order, _ := s.FindOrCreate(ctx, "Order", "orderID", attr.String("O-1"))
	if err := s.SetLink(ctx, cust, "primaryOrder", order); err != nil {
		t.Fatalf("SetLink() failed: %v", err)
	}

	if err := s.DeleteEntity(ctx, order); err != nil {
		t.Fatalf("DeleteEntity() failed: %v", err)
	}

	members, _, err := s.RelationshipMembers(ctx, cust, "primaryOrder")
	if err != nil {
		t.Fatalf("RelationshipMembers() failed: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("dangling members after delete: %v", members)
	}
}
