package doctree

import (
	"testing"
)

func el(tag string, children ...Fragment) Fragment {
	return Fragment{Type: tag, Children: children}
}

func txt(s string) Fragment {
	return Fragment{Text: s}
}

func marked(s string, marks ...string) Fragment {
	m := make(map[string]string, len(marks))
	for _, k := range marks {
		m[k] = MarkOn
	}
	return Fragment{Text: s, Marks: m}
}

func mustBuild(t *testing.T, f Fragment) *Tree {
	t.Helper()
	tree, err := Build(f.Source())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return tree
}

func pos(t *testing.T, tree *Tree, path ...int) Position {
	t.Helper()
	p, err := tree.PositionAt(path...)
	if err != nil {
		t.Fatalf("position %v: %v", path, err)
	}
	return p
}

func rng(t *testing.T, tree *Tree, start, end []int) Range {
	t.Helper()
	r, err := NewRange(pos(t, tree, start...), pos(t, tree, end...))
	if err != nil {
		t.Fatalf("range %v..%v: %v", start, end, err)
	}
	return r
}

func mustNode(t *testing.T, tree *Tree, path ...int) NodeID {
	t.Helper()
	n, err := tree.NodeAt(path...)
	if err != nil {
		t.Fatalf("node %v: %v", path, err)
	}
	return n
}

// allPositions lists every position of the attached tree in document order.
func allPositions(tree *Tree) []Position {
	var out []Position
	for n := range tree.Walk(tree.Root(), WalkOptions{}) {
		for o := 0; o <= tree.MaxOffset(n); o++ {
			if p, err := tree.In(n, o); err == nil {
				out = append(out, p)
			}
		}
	}
	return out
}
