package doctree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompare(t *testing.T) {
	tree := NewTree("document", nil)
	p := func(path ...int) Position { return Position{tree: tree, path: path} }
	tests := []struct {
		name string
		a, b Position
		want int
	}{
		{"before node precedes inside", p(0), p(0, 0), -1},
		{"deeper earlier branch", p(0, 0, 2), p(1), -1},
		{"equal", p(1), p(1), 0},
		{"later sibling", p(2), p(1, 5), 1},
		{"inside after boundary", p(1, 0), p(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPositionAt_Validates(t *testing.T) {
	tree := mustBuild(t, el("document", el("p", txt("abcd")), el("p")))
	valid := [][]int{{0}, {2}, {0, 0}, {0, 1}, {0, 0, 4}, {1, 0}}
	for _, path := range valid {
		if _, err := tree.PositionAt(path...); err != nil {
			t.Errorf("expected %v to be valid, got %v", path, err)
		}
	}
	invalid := [][]int{{}, {3}, {-1}, {0, 2}, {0, 0, 5}, {1, 1}, {0, 0, 0, 0}}
	for _, path := range invalid {
		if _, err := tree.PositionAt(path...); !errors.Is(err, ErrInvalidPosition) {
			t.Errorf("expected ErrInvalidPosition for %v, got %v", path, err)
		}
	}
}

func TestPositionConstructors(t *testing.T) {
	tree := mustBuild(t, el("document", el("p", txt("abcd")), el("p", txt("efgh"))))
	second := mustNode(t, tree, 1)

	before, err := tree.Before(second)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	after, err := tree.After(second)
	if err != nil {
		t.Fatalf("after: %v", err)
	}
	in, err := tree.In(mustNode(t, tree, 1, 0), 3)
	if err != nil {
		t.Fatalf("in: %v", err)
	}
	got := [][]int{before.Path(), after.Path(), in.Path(), tree.Start().Path(), tree.End().Path()}
	want := [][]int{{1}, {2}, {1, 0, 3}, {0}, {2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}

	if _, err := tree.Before(tree.Root()); !errors.Is(err, ErrNoParent) {
		t.Errorf("expected ErrNoParent before root, got %v", err)
	}
	if _, err := tree.In(second, 2); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestPosition_NodeBeforeAfter(t *testing.T) {
	tree := mustBuild(t, el("document", el("p", txt("ab")), el("p", txt("cd"))))
	between := pos(t, tree, 1)
	if between.NodeBefore() != mustNode(t, tree, 0) {
		t.Error("expected first paragraph before [1]")
	}
	if between.NodeAfter() != mustNode(t, tree, 1) {
		t.Error("expected second paragraph after [1]")
	}
	if pos(t, tree, 0, 0, 1).NodeAfter() != None {
		t.Error("expected no node after a text offset")
	}
	if tree.End().NodeAfter() != None {
		t.Error("expected no node after the document end")
	}
}

func TestPosition_PathIsCopied(t *testing.T) {
	tree := mustBuild(t, el("document", txt("ab")))
	p := pos(t, tree, 0, 1)
	path := p.Path()
	path[1] = 2
	if p.Offset() != 1 {
		t.Errorf("expected position to stay immutable, got offset %d", p.Offset())
	}
}
