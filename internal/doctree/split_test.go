package doctree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func doSplit(t *testing.T, tree *Tree, p Position, splitParent bool) (Position, Mapper) {
	t.Helper()
	var res Position
	_, mp, err := tree.Update(Range{}, Right, func(m *Mutator) error {
		var err error
		res, err = m.Split(p, splitParent)
		return err
	})
	if err != nil {
		t.Fatalf("split %v: %v", p, err)
	}
	return res, mp
}

func TestSplit_WordBoundary(t *testing.T) {
	tree := mustBuild(t, el("document", txt("abcd")))
	orig := pos(t, tree, 0, 2)
	res, mp := doSplit(t, tree, orig, false)

	want := el("document", txt("ab"), txt("cd"))
	if diff := cmp.Diff(want, tree.Fragment(tree.Root())); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, res.Path()); diff != "" {
		t.Errorf("boundary mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 0}, mp.Map(orig, Right).Path()); diff != "" {
		t.Errorf("right bias mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, mp.Map(orig, Left).Path()); diff != "" {
		t.Errorf("left bias mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_Idempotence(t *testing.T) {
	tests := []struct {
		name        string
		path        []int
		splitParent bool
	}{
		{"root boundary", []int{1}, false},
		{"root boundary with parent", []int{1}, true},
		{"inner boundary", []int{0, 1}, false},
		{"document end", []int{2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustBuild(t, el("document", el("p", txt("ab"), txt("cd")), el("p", txt("ef"))))
			before := tree.Clone()
			p := pos(t, tree, tt.path...)
			res, mp := doSplit(t, tree, p, tt.splitParent)
			if !res.Equal(p) {
				t.Errorf("expected %v, got %v", p, res)
			}
			if mp.Len() != 0 {
				t.Errorf("expected no steps, got %d", mp.Len())
			}
			if !SameAs(before, before.Root(), tree, tree.Root()) {
				t.Error("expected tree unchanged")
			}
		})
	}
}

func TestSplit_LeafEdgesAreBoundaries(t *testing.T) {
	tree := mustBuild(t, el("document", el("p", txt("abcd"))))
	before := tree.Clone()

	start, _ := doSplit(t, tree, pos(t, tree, 0, 0, 0), false)
	end, _ := doSplit(t, tree, pos(t, tree, 0, 0, 4), false)

	got := [][]int{start.Path(), end.Path()}
	if diff := cmp.Diff([][]int{{0, 0}, {0, 1}}, got); diff != "" {
		t.Errorf("boundaries mismatch (-want +got):\n%s", diff)
	}
	if !SameAs(before, before.Root(), tree, tree.Root()) {
		t.Error("expected tree unchanged")
	}
}

func TestSplit_MergeInverse(t *testing.T) {
	const s = "héllo😀x"
	n := TextLength(s)
	for o := 0; o <= n; o++ {
		tree := mustBuild(t, el("document", el("p", txt(s))))
		leaf := mustNode(t, tree, 0, 0)
		p, err := tree.In(leaf, o)
		if err != nil {
			continue
		}
		before := tree.Clone()
		doSplit(t, tree, p, false)

		para := mustNode(t, tree, 0)
		if got := tree.TextContent(para); got != s {
			t.Errorf("offset %d: expected %q, got %q", o, s, got)
		}
		if o == 0 || o == n {
			continue
		}
		if tree.ChildCount(para) != 2 {
			t.Fatalf("offset %d: expected 2 leaves, got %d", o, tree.ChildCount(para))
		}
		_, _, err = tree.Update(Range{}, Right, func(m *Mutator) error {
			_, err := m.Merge(tree.FirstChild(para))
			return err
		})
		if err != nil {
			t.Fatalf("merge: %v", err)
		}
		if !SameAs(before, before.Root(), tree, tree.Root()) {
			t.Errorf("offset %d: expected merge to restore the tree", o)
		}
	}
}

func TestSplit_Parent(t *testing.T) {
	tree := mustBuild(t, el("document", el("p", txt("abcd"))))
	tree.get(mustNode(t, tree, 0)).attrs = map[string]string{"class": "lead"}

	res, mp := doSplit(t, tree, pos(t, tree, 0, 0, 2), true)

	lead := map[string]string{"class": "lead"}
	want := el("document",
		Fragment{Type: "p", Attrs: lead, Children: []Fragment{txt("ab")}},
		Fragment{Type: "p", Attrs: lead, Children: []Fragment{txt("cd")}},
	)
	if diff := cmp.Diff(want, tree.Fragment(tree.Root())); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, res.Path()); diff != "" {
		t.Errorf("boundary mismatch (-want +got):\n%s", diff)
	}
	if mp.Len() != 2 {
		t.Errorf("expected 2 steps, got %d", mp.Len())
	}
}

func TestSplitUntil(t *testing.T) {
	tree := mustBuild(t, el("document", el("ul", el("li", el("p", txt("abcd"))))))
	ul := mustNode(t, tree, 0)

	var res Position
	_, _, err := tree.Update(Range{}, Right, func(m *Mutator) error {
		var err error
		res, err = m.SplitUntil(pos(t, tree, 0, 0, 0, 0, 2), ul)
		return err
	})
	if err != nil {
		t.Fatalf("split until: %v", err)
	}
	want := el("document", el("ul",
		el("li", el("p", txt("ab"))),
		el("li", el("p", txt("cd"))),
	))
	if diff := cmp.Diff(want, tree.Fragment(tree.Root())); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1}, res.Path()); diff != "" {
		t.Errorf("boundary mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitUntil_NotAnAncestor(t *testing.T) {
	tree := mustBuild(t, el("document", el("p", txt("ab")), el("p", txt("cd"))))
	m, err := tree.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	_, err = m.SplitUntil(pos(t, tree, 0, 0, 1), mustNode(t, tree, 1))
	if !errors.Is(err, ErrIllegalState) {
		t.Errorf("expected ErrIllegalState, got %v", err)
	}
}
