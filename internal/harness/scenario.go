package harness

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/codec"
)

// Scenario defines a conformance scenario: a schema, records to encode,
// and assertions over the resulting entity graph.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are stored
	// under testdata/golden/{Name}.golden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Schema is the CUE schema directory, relative to the scenario file.
	Schema string `yaml:"schema"`

	// Narrowing optionally overrides the integer narrowing policy
	// (throw | exactly | truncating).
	Narrowing string `yaml:"narrowing,omitempty"`

	// Records are encoded in declaration order.
	Records []RecordSpec `yaml:"records"`

	// Assertions validate the final graph.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// RecordSpec declares one generic record in scenario YAML.
//
// Attribute values use the "kind:text" syntax (e.g. "int:16",
// "string:x", "decimal:9.95"); identifiers add the entity kind:
// "Order=string:A".
type RecordSpec struct {
	Kind   string                  `yaml:"kind"`
	ID     string                  `yaml:"id"`
	Attrs  map[string]string       `yaml:"attrs,omitempty"`
	Clear  []string                `yaml:"clear,omitempty"`
	ToOne  map[string]string       `yaml:"to_one,omitempty"`
	ToMany map[string][]string     `yaml:"to_many,omitempty"`
	Nested map[string][]RecordSpec `yaml:"nested,omitempty"`
}

// Assertion validates one aspect of the final graph.
type Assertion struct {
	// Type is one of: attribute_equals, attribute_absent, member_count,
	// roundtrip.
	Type string `yaml:"type"`

	// Entity names the asserted entity as "Kind=kind:text".
	Entity string `yaml:"entity"`

	// Name is the property under test (attribute_equals,
	// attribute_absent, member_count).
	Name string `yaml:"name,omitempty"`

	// Value is the expected attribute value (attribute_equals).
	Value string `yaml:"value,omitempty"`

	// Count is the expected member count (member_count).
	Count int `yaml:"count,omitempty"`
}

// LoadScenario parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if sc.Schema == "" {
		return nil, fmt.Errorf("scenario %s: schema directory is required", path)
	}
	if len(sc.Records) == 0 {
		return nil, fmt.Errorf("scenario %s: at least one record is required", path)
	}
	return &sc, nil
}

// ParseValue parses the "kind:text" attribute value syntax.
func ParseValue(s string) (attr.Value, error) {
	kindStr, text, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("value %q: want kind:text", s)
	}
	kind, err := attr.ParseKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", s, err)
	}
	return attr.FromText(kind, text)
}

// ParseIdentifier parses the "Kind=kind:text" identifier syntax.
func ParseIdentifier(s string) (codec.Identifier, error) {
	entityKind, value, ok := strings.Cut(s, "=")
	if !ok {
		return codec.Identifier{}, fmt.Errorf("identifier %q: want Kind=kind:text", s)
	}
	scalar, err := ParseValue(value)
	if err != nil {
		return codec.Identifier{}, fmt.Errorf("identifier %q: %w", s, err)
	}
	return codec.NewIdentifier(entityKind, scalar)
}
