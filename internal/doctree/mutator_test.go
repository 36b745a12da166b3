package doctree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMutator_Exclusive(t *testing.T) {
	tree := mustBuild(t, el("document", txt("abcd")))
	m, err := tree.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tree.Begin(); !errors.Is(err, ErrMutatorActive) {
		t.Errorf("expected ErrMutatorActive, got %v", err)
	}
	if !tree.Mutating() {
		t.Error("expected tree to report an open transaction")
	}
	if _, err := m.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if tree.Mutating() {
		t.Error("expected commit to release the tree")
	}
	if _, err := tree.Begin(); err != nil {
		t.Errorf("expected begin after commit to succeed, got %v", err)
	}
}

func TestMutator_FailureAborts(t *testing.T) {
	tree := mustBuild(t, el("document", txt("abcd")))
	m, err := tree.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := m.Split(pos(t, tree, 0, 2), false); err != nil {
		t.Fatalf("split: %v", err)
	}
	stale := Position{tree: tree, path: []int{7}}
	if _, err := m.Split(stale, false); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
	if tree.Mutating() {
		t.Error("expected failed step to release the tree")
	}

	_, err = m.InsertText(pos(t, tree, 0, 1), "x")
	if !errors.Is(err, ErrTransactionAborted) || !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected aborted transaction wrapping the cause, got %v", err)
	}
	if _, err := m.Commit(); !IsAborted(err) {
		t.Errorf("expected commit to report the abort, got %v", err)
	}

	// Earlier steps are not rolled back.
	if tree.ChildCount(tree.Root()) != 2 {
		t.Errorf("expected the first split to persist, got %d children", tree.ChildCount(tree.Root()))
	}
}

func TestMutator_CommitTwice(t *testing.T) {
	tree := NewTree("document", nil)
	m, err := tree.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := m.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := m.Commit(); !errors.Is(err, ErrIllegalState) {
		t.Errorf("expected ErrIllegalState, got %v", err)
	}
	m.Abort()
	if tree.Mutating() {
		t.Error("expected abort after commit to be harmless")
	}
}

func TestMutator_MapAccumulates(t *testing.T) {
	tree := mustBuild(t, el("document", el("p", txt("abcd"))))
	caret := pos(t, tree, 0, 0, 3)
	m, err := tree.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer m.Abort()

	if _, err := m.Split(pos(t, tree, 0, 0, 2), true); err != nil {
		t.Fatalf("split: %v", err)
	}
	if diff := cmp.Diff([]int{1, 0, 1}, m.Map(caret, Right).Path()); diff != "" {
		t.Errorf("after split (-want +got):\n%s", diff)
	}
	if _, err := m.InsertText(m.Map(caret, Right), "X"); err != nil {
		t.Fatalf("insert text: %v", err)
	}
	if diff := cmp.Diff([]int{1, 0, 2}, m.Map(caret, Right).Path()); diff != "" {
		t.Errorf("after typing (-want +got):\n%s", diff)
	}
	if got := tree.TextContent(mustNode(t, tree, 1)); got != "cXd" {
		t.Errorf("expected %q, got %q", "cXd", got)
	}
}

func TestUpdate_RemapsSelection(t *testing.T) {
	tree := mustBuild(t, el("document", txt("abcd")))
	sel := rng(t, tree, []int{0, 1}, []int{0, 3})
	got, _, err := tree.Update(sel, Right, func(m *Mutator) error {
		_, err := m.Split(pos(t, tree, 0, 2), false)
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := [2][]int{{0, 1}, {1, 1}}
	if diff := cmp.Diff(want, [2][]int{got.Start().Path(), got.End().Path()}); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	if _, err := NewRange(got.Start(), got.End()); err != nil {
		t.Errorf("expected remapped selection to be valid, got %v", err)
	}
}

func TestUpdate_CallbackError(t *testing.T) {
	tree := mustBuild(t, el("document", txt("abcd")))
	boom := errors.New("boom")
	sel := rng(t, tree, []int{0, 1}, []int{0, 1})
	got, _, err := tree.Update(sel, Right, func(m *Mutator) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected callback error, got %v", err)
	}
	if !got.Equal(sel) {
		t.Errorf("expected selection unchanged, got %v", got)
	}
	if tree.Mutating() {
		t.Error("expected tree released")
	}
}
