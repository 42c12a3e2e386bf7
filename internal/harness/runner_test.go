package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graft/internal/codec"
)

func runScenario(t *testing.T, sc *Scenario, opts ...codec.Option) (*Result, error) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "graft.db")
	res, err := Run(t.Context(), sc, "testdata", dbPath, opts...)
	if res != nil {
		t.Cleanup(func() { res.Store.Close() })
	}
	return res, err
}

func TestRunUndeclaredAttributeFails(t *testing.T) {
	sc := &Scenario{
		Name:   "bad-attr",
		Schema: "schema",
		Records: []RecordSpec{
			{Kind: "Order", ID: "string:O-1", Attrs: map[string]string{"flavor": "string:x"}},
		},
	}
	_, err := runScenario(t, sc)
	require.Error(t, err)
	assert.True(t, codec.IsSchemaError(err))
}

func TestRunFailedAssertionSurfaces(t *testing.T) {
	sc := &Scenario{
		Name:   "bad-assert",
		Schema: "schema",
		Records: []RecordSpec{
			{Kind: "Order", ID: "string:O-1", Attrs: map[string]string{"count": "int:5"}},
		},
		Assertions: []Assertion{
			{Type: "attribute_equals", Entity: "Order=string:O-1", Name: "count", Value: "int:6"},
		},
	}
	_, err := runScenario(t, sc)
	require.Error(t, err)
	assert.ErrorContains(t, err, "want 6")
}

func TestRunUnknownNarrowingFails(t *testing.T) {
	sc := &Scenario{
		Name:      "bad-policy",
		Schema:    "schema",
		Narrowing: "lossy",
		Records:   []RecordSpec{{Kind: "Order", ID: "string:O-1"}},
	}
	_, err := runScenario(t, sc)
	assert.ErrorContains(t, err, "unknown narrowing policy")
}

func TestRunRoundtripAssertion(t *testing.T) {
	sc := &Scenario{
		Name:   "roundtrip",
		Schema: "schema",
		Records: []RecordSpec{
			{
				Kind:  "Customer",
				ID:    "string:bob",
				Attrs: map[string]string{"email": "string:bob@example.com"},
				ToMany: map[string][]string{
					"orders": {"Order=string:O-1"},
				},
			},
		},
		Assertions: []Assertion{
			{Type: "roundtrip", Entity: "Customer=string:bob"},
			{Type: "member_count", Entity: "Customer=string:bob", Name: "orders", Count: 1},
		},
	}
	res, err := runScenario(t, sc)
	require.NoError(t, err)
	require.Len(t, res.Refs, 1)
	assert.Equal(t, "Customer", res.Refs[0].Kind)
}

func TestRunExtraOptionsApply(t *testing.T) {
	var traced int
	sc := &Scenario{
		Name:    "traced",
		Schema:  "schema",
		Records: []RecordSpec{{Kind: "Item", ID: "string:i1"}},
	}
	_, err := runScenario(t, sc, codec.WithTrace(func(path, msg string) { traced++ }))
	require.NoError(t, err)
	assert.Positive(t, traced)
}
