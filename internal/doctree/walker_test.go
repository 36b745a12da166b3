package doctree

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func walkTree(t *testing.T) *Tree {
	return mustBuild(t, el("document", el("p", txt("a"), txt("b")), el("p", txt("c"))))
}

// labels names nodes by tag or text for readable diffs.
func labels(tree *Tree, ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, n := range ids {
		if tree.IsLeaf(n) {
			out[i] = tree.Text(n)
		} else {
			out[i] = tree.Tag(n)
		}
	}
	return out
}

func TestWalker_Orders(t *testing.T) {
	tree := walkTree(t)
	p1 := mustNode(t, tree, 0)
	tests := []struct {
		name string
		opts WalkOptions
		want []string
	}{
		{"document order", WalkOptions{}, []string{"document", "p", "a", "b", "p", "c"}},
		{"reverse order", WalkOptions{Backward: true}, []string{"c", "p", "b", "a", "p", "document"}},
		{"leaves only", WalkOptions{Filter: Only(tree.IsLeaf)}, []string{"a", "b", "c"}},
		{"leaves backward", WalkOptions{Filter: Only(tree.IsLeaf), Backward: true}, []string{"c", "b", "a"}},
		{"reject subtree", WalkOptions{Filter: func(n NodeID) FilterResult {
			if n == p1 {
				return Reject
			}
			return Accept
		}}, []string{"document", "p", "c"}},
		{"shallow", WalkOptions{Shallow: true, Filter: func(n NodeID) FilterResult {
			if n == tree.Root() {
				return Skip
			}
			return Accept
		}}, []string{"p", "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labels(tree, slices.Collect(tree.Walk(tree.Root(), tt.opts)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("walk mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWalker_BackwardIsExactReverse(t *testing.T) {
	tree := nestedTree(t)
	forward := slices.Collect(tree.Walk(tree.Root(), WalkOptions{}))
	backward := slices.Collect(tree.Walk(tree.Root(), WalkOptions{Backward: true}))
	slices.Reverse(backward)
	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Errorf("reverse mismatch (-want +got):\n%s", diff)
	}
}

func TestWalker_Range(t *testing.T) {
	tree := mustBuild(t, el("document", el("p", txt("ab")), el("p", txt("cd")), el("p", txt("ef"))))
	tests := []struct {
		name       string
		start, end []int
		want       []string
	}{
		{"spanning two paragraphs", []int{0, 0, 1}, []int{1, 0, 1}, []string{"p", "ab", "p", "cd"}},
		{"inside one leaf", []int{1, 0, 0}, []int{1, 0, 1}, []string{"cd"}},
		{"whole middle paragraph", []int{1}, []int{2}, []string{"p", "cd"}},
		{"end of a leaf excludes it", []int{0, 0, 2}, []int{1, 0, 1}, []string{"p", "p", "cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewRangeWalker(rng(t, tree, tt.start, tt.end), WalkOptions{})
			if err != nil {
				t.Fatalf("walker: %v", err)
			}
			got := labels(tree, slices.Collect(w.All()))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("walk mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWalker_NextAndEarlyStop(t *testing.T) {
	tree := walkTree(t)
	w := NewWalker(tree, tree.Root(), WalkOptions{Filter: Only(tree.IsLeaf)})
	first, ok := w.Next()
	if !ok || tree.Text(first) != "a" {
		t.Fatalf("expected first leaf a, got %q", tree.Text(first))
	}
	var rest []NodeID
	for n := range w.All() {
		rest = append(rest, n)
		break
	}
	if diff := cmp.Diff([]string{"b"}, labels(tree, rest)); diff != "" {
		t.Errorf("rest mismatch (-want +got):\n%s", diff)
	}
	n, ok := w.Next()
	if !ok || tree.Text(n) != "c" {
		t.Errorf("expected walk to resume at c, got %q", tree.Text(n))
	}
	if _, ok := w.Next(); ok {
		t.Error("expected walk to be exhausted")
	}
}
