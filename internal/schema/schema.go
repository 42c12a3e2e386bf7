package schema

import (
	"fmt"
	"sort"

	"github.com/roach88/graft/internal/attr"
)

// PropertyKind distinguishes the shapes a declared property can take.
type PropertyKind int

const (
	// Attribute is a primitive-valued property.
	Attribute PropertyKind = iota

	// ToOne is a single-entity relationship.
	ToOne

	// ToMany is an unordered multi-entity relationship.
	ToMany

	// ToManyOrdered is an ordered multi-entity relationship.
	ToManyOrdered
)

// String returns the tag used in CUE declarations and diagnostics.
func (k PropertyKind) String() string {
	switch k {
	case Attribute:
		return "attribute"
	case ToOne:
		return "toOne"
	case ToMany:
		return "toMany"
	case ToManyOrdered:
		return "toManyOrdered"
	default:
		return fmt.Sprintf("invalid(%d)", int(k))
	}
}

// Property declares one named property of an entity kind.
type Property struct {
	// Name is the property's wire name, unique within the kind and its
	// ancestor chain.
	Name string

	// Kind selects attribute vs relationship shape.
	Kind PropertyKind

	// Attr is the primitive type for Attribute properties; KindInvalid
	// otherwise.
	Attr attr.Kind

	// Target names the related entity kind for relationship properties;
	// empty otherwise.
	Target string

	// Optional marks a property that may be absent or null.
	Optional bool
}

// Entity declares one entity kind: its identifier attribute, its declared
// properties, and at most one parent kind whose properties it inherits.
type Entity struct {
	Name        string
	Parent      string // empty for root kinds
	IDAttribute string
	Properties  []Property
}

// Schema is an immutable set of entity kind declarations with memoized
// property-name unions. Construct with New; a zero Schema is empty.
type Schema struct {
	kinds map[string]*Entity
	names map[string]map[string]struct{} // kind -> own+inherited property names
}

// New builds and validates a schema from kind declarations.
// Validation enforces:
//   - kind names unique and non-empty
//   - parents exist and the parent chain is acyclic
//   - the identifier attribute is declared (locally or inherited), is an
//     Attribute, and is not bool
//   - relationship targets exist
//   - no duplicate property names within a kind's full ancestor chain
func New(kinds ...*Entity) (*Schema, error) {
	s := &Schema{
		kinds: make(map[string]*Entity, len(kinds)),
		names: make(map[string]map[string]struct{}, len(kinds)),
	}
	for _, k := range kinds {
		if k.Name == "" {
			return nil, fmt.Errorf("entity kind with empty name")
		}
		if _, dup := s.kinds[k.Name]; dup {
			return nil, fmt.Errorf("duplicate entity kind %q", k.Name)
		}
		s.kinds[k.Name] = k
	}
	for _, k := range kinds {
		if err := s.validateKind(k); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Schema) validateKind(k *Entity) error {
	// Walk the ancestor chain once: detects missing parents and cycles,
	// and builds the memoized property-name union.
	seen := map[string]bool{}
	names := map[string]struct{}{}
	for cur := k; cur != nil; {
		if seen[cur.Name] {
			return fmt.Errorf("entity kind %q: inheritance cycle through %q", k.Name, cur.Name)
		}
		seen[cur.Name] = true
		for _, p := range cur.Properties {
			if p.Name == "" {
				return fmt.Errorf("entity kind %q declares a property with empty name", cur.Name)
			}
			if _, dup := names[p.Name]; dup {
				if cur.Name == k.Name {
					return fmt.Errorf("entity kind %q: duplicate property %q", k.Name, p.Name)
				}
				// The chain walks child first, so a collision at an
				// ancestor means a descendant shadows its declaration.
				return fmt.Errorf("entity kind %q: duplicate property %q (also declared by ancestor %q)", k.Name, p.Name, cur.Name)
			}
			names[p.Name] = struct{}{}
			if err := validateProperty(s, cur, p); err != nil {
				return err
			}
		}
		if cur.Parent == "" {
			break
		}
		next, ok := s.kinds[cur.Parent]
		if !ok {
			return fmt.Errorf("entity kind %q: unknown parent %q", cur.Name, cur.Parent)
		}
		cur = next
	}

	if k.IDAttribute == "" {
		return fmt.Errorf("entity kind %q: missing identifier attribute", k.Name)
	}
	idProp, ok := s.lookupProperty(k, k.IDAttribute)
	if !ok {
		return fmt.Errorf("entity kind %q: identifier attribute %q is not declared", k.Name, k.IDAttribute)
	}
	if idProp.Kind != Attribute {
		return fmt.Errorf("entity kind %q: identifier attribute %q must be an attribute, not %s", k.Name, k.IDAttribute, idProp.Kind)
	}
	if idProp.Attr == attr.KindBool {
		return fmt.Errorf("entity kind %q: identifier attribute %q cannot be bool", k.Name, k.IDAttribute)
	}

	s.names[k.Name] = names
	return nil
}

func validateProperty(s *Schema, owner *Entity, p Property) error {
	switch p.Kind {
	case Attribute:
		if p.Attr == attr.KindInvalid {
			return fmt.Errorf("entity kind %q: attribute %q has no primitive type", owner.Name, p.Name)
		}
		if p.Target != "" {
			return fmt.Errorf("entity kind %q: attribute %q must not declare a target kind", owner.Name, p.Name)
		}
	case ToOne, ToMany, ToManyOrdered:
		if p.Target == "" {
			return fmt.Errorf("entity kind %q: relationship %q has no target kind", owner.Name, p.Name)
		}
		if _, ok := s.kinds[p.Target]; !ok {
			return fmt.Errorf("entity kind %q: relationship %q targets unknown kind %q", owner.Name, p.Name, p.Target)
		}
	default:
		return fmt.Errorf("entity kind %q: property %q has invalid kind", owner.Name, p.Name)
	}
	return nil
}

// Entity returns the declaration for a kind, or nil if unknown.
func (s *Schema) Entity(kind string) *Entity {
	if s.kinds == nil {
		return nil
	}
	return s.kinds[kind]
}

// Kinds returns all declared kind names, sorted.
func (s *Schema) Kinds() []string {
	out := make([]string, 0, len(s.kinds))
	for name := range s.kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Property resolves a property declaration by name through the kind's
// ancestor chain. Returns false if the kind is unknown or the name is not
// declared anywhere in the chain.
func (s *Schema) Property(kind, name string) (Property, bool) {
	k := s.Entity(kind)
	if k == nil {
		return Property{}, false
	}
	return s.lookupProperty(k, name)
}

func (s *Schema) lookupProperty(k *Entity, name string) (Property, bool) {
	for cur := k; cur != nil; {
		for _, p := range cur.Properties {
			if p.Name == name {
				return p, true
			}
		}
		if cur.Parent == "" {
			break
		}
		cur = s.kinds[cur.Parent]
	}
	return Property{}, false
}

// AllPropertyNames returns the union of a kind's own and inherited property
// names. The returned map is the memoized instance and must not be mutated.
// Returns nil for an unknown kind.
func (s *Schema) AllPropertyNames(kind string) map[string]struct{} {
	return s.names[kind]
}

// Has reports whether a property name is declared on the kind or any of its
// ancestors. Existence is independent of whether a value is currently null.
func (s *Schema) Has(kind, name string) bool {
	names, ok := s.names[kind]
	if !ok {
		return false
	}
	_, ok = names[name]
	return ok
}

// DescendsFrom reports whether kind equals ancestor or inherits from it.
func (s *Schema) DescendsFrom(kind, ancestor string) bool {
	for cur := s.Entity(kind); cur != nil; cur = s.Entity(cur.Parent) {
		if cur.Name == ancestor {
			return true
		}
		if cur.Parent == "" {
			return false
		}
	}
	return false
}
