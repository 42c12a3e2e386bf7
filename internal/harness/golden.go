package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/store"
)

// DumpGraph renders the entire entity graph as canonical text: entities
// sorted by kind then identifier, attributes sorted by name, relationship
// members rendered as Kind/identifier. Ordered relationships keep stored
// order; unordered ones are sorted for stable output.
func DumpGraph(ctx context.Context, st *store.Store) (string, error) {
	refs, err := st.ListEntities(ctx, "")
	if err != nil {
		return "", err
	}

	labels := make(map[int64]string, len(refs))
	for _, ref := range refs {
		idText, err := st.Identifier(ctx, ref)
		if err != nil {
			return "", err
		}
		labels[ref.ID] = ref.Kind + "/" + idText
	}

	sorted := append([]store.EntityRef(nil), refs...)
	sort.Slice(sorted, func(i, j int) bool {
		return labels[sorted[i].ID] < labels[sorted[j].ID]
	})

	var b strings.Builder
	for _, ref := range sorted {
		fmt.Fprintf(&b, "entity %s\n", labels[ref.ID])

		attrs, err := st.Attributes(ctx, ref)
		if err != nil {
			return "", err
		}
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v := attrs[name].Attr
			fmt.Fprintf(&b, "  attr %s %s %s\n", name, attr.KindOf(v), attr.Text(v))
		}

		linkNames, err := st.Links(ctx, ref)
		if err != nil {
			return "", err
		}
		for _, name := range linkNames {
			members, ordered, err := st.RelationshipMembers(ctx, ref, name)
			if err != nil {
				return "", err
			}
			memberLabels := make([]string, len(members))
			for i, m := range members {
				memberLabels[i] = labels[m.ID]
			}
			shape := "unordered"
			if ordered {
				shape = "ordered"
			} else {
				sort.Strings(memberLabels)
			}
			fmt.Fprintf(&b, "  link %s %s -> %s\n", name, shape, strings.Join(memberLabels, ", "))
		}
	}
	return b.String(), nil
}

// RunWithGolden executes a scenario file and compares the canonical graph
// dump against testdata/golden/{scenario name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenarioPath string) *Result {
	t.Helper()

	sc, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "graft.db")
	result, err := Run(ctx, sc, filepath.Dir(scenarioPath), dbPath)
	if err != nil {
		t.Fatalf("run scenario: %v", err)
	}
	t.Cleanup(func() { result.Store.Close() })

	dump, err := DumpGraph(ctx, result.Store)
	if err != nil {
		t.Fatalf("dump graph: %v", err)
	}

	g := goldie.New(t, goldie.WithFixtureDir(filepath.Join("testdata", "golden")))
	g.Assert(t, sc.Name, []byte(dump))
	return result
}
