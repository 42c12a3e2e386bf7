package codec

import (
	"strconv"
	"strings"
)

// Step is one coding-path element: a field name within a keyed container or
// an index within a relationship collection.
type Step struct {
	Name  string
	Index int // valid only when Name is empty
}

// String renders a field step as the name and an index step as [n].
func (s Step) String() string {
	if s.Name != "" {
		return s.Name
	}
	return "[" + strconv.Itoa(s.Index) + "]"
}

// Path is the ordered sequence of steps from the traversal root to the
// current position. It exists for diagnostics only and has no effect on
// traversal semantics.
type Path []Step

// String joins steps with dots, e.g. "orders[2].customer.name".
func (p Path) String() string {
	if len(p) == 0 {
		return "(root)"
	}
	var b strings.Builder
	for i, s := range p {
		if i > 0 && s.Name != "" {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// Clone copies the path so error values do not alias the live traversal
// state.
func (p Path) Clone() Path {
	if len(p) == 0 {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

func (p *Path) pushField(name string) { *p = append(*p, Step{Name: name}) }
func (p *Path) pushIndex(i int)       { *p = append(*p, Step{Index: i}) }

func (p *Path) pop() {
	if len(*p) == 0 {
		panic("codec: pop on empty coding path")
	}
	*p = (*p)[:len(*p)-1]
}
