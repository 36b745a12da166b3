package doctree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStepMap_Apply(t *testing.T) {
	split := stepMap{kind: stepSplit, parent: []int{0}, index: 1, offset: 3}
	insert := stepMap{kind: stepInsert, parent: nil, index: 2, count: 3}
	remove := stepMap{kind: stepRemove, parent: nil, index: 1, count: 2}
	merge := stepMap{kind: stepMerge, parent: nil, index: 0, offset: 4}
	replace := stepMap{kind: stepReplaceText, parent: nil, index: 0, offset: 2, count: 1, size: 3}
	typed := stepMap{kind: stepReplaceText, parent: nil, index: 0, offset: 2, size: 3}

	tests := []struct {
		name string
		step stepMap
		in   []int
		bias Bias
		want []int
	}{
		{"split after offset", split, []int{0, 1, 5}, Right, []int{0, 2, 2}},
		{"split before offset", split, []int{0, 1, 2}, Right, []int{0, 1, 2}},
		{"split at offset right", split, []int{0, 1, 3}, Right, []int{0, 2, 0}},
		{"split at offset left", split, []int{0, 1, 3}, Left, []int{0, 1, 3}},
		{"split later sibling", split, []int{0, 2}, Left, []int{0, 3}},
		{"split boundary before node", split, []int{0, 1}, Right, []int{0, 1}},
		{"split deeper at offset", split, []int{0, 1, 3, 0}, Left, []int{0, 2, 0, 0}},
		{"split unrelated branch", split, []int{1}, Right, []int{1}},

		{"insert boundary left", insert, []int{2}, Left, []int{2}},
		{"insert boundary right", insert, []int{2}, Right, []int{5}},
		{"insert inside shifted node", insert, []int{2, 0}, Left, []int{5, 0}},
		{"insert before", insert, []int{1, 4}, Right, []int{1, 4}},
		{"insert after", insert, []int{3}, Left, []int{6}},

		{"remove before", remove, []int{0}, Right, []int{0}},
		{"remove at start", remove, []int{1}, Right, []int{1}},
		{"remove interior boundary", remove, []int{2}, Right, []int{1}},
		{"remove at end", remove, []int{3}, Left, []int{1}},
		{"remove after", remove, []int{4}, Left, []int{2}},
		{"remove inside removed node", remove, []int{1, 3}, Right, []int{1}},
		{"remove deep inside removed node", remove, []int{2, 0, 1}, Right, []int{1}},
		{"remove inside following node", remove, []int{3, 1}, Right, []int{1, 1}},

		{"merge seam", merge, []int{1}, Right, []int{0, 4}},
		{"merge inside absorbed", merge, []int{1, 2}, Right, []int{0, 6}},
		{"merge later", merge, []int{2}, Right, []int{1}},
		{"merge inside kept", merge, []int{0, 3}, Right, []int{0, 3}},

		{"replace before", replace, []int{0, 1}, Right, []int{0, 1}},
		{"replace at start", replace, []int{0, 2}, Right, []int{0, 2}},
		{"replace at end", replace, []int{0, 3}, Left, []int{0, 5}},
		{"replace after", replace, []int{0, 4}, Left, []int{0, 6}},
		{"typing left", typed, []int{0, 2}, Left, []int{0, 2}},
		{"typing right", typed, []int{0, 2}, Right, []int{0, 5}},
	}
	tree := NewTree("document", nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Mapper{steps: []stepMap{tt.step}}
			got := m.Map(Position{tree: tree, path: tt.in}, tt.bias).Path()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mapped path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapper_DoesNotMutateInput(t *testing.T) {
	tree := NewTree("document", nil)
	in := Position{tree: tree, path: []int{3}}
	m := Mapper{steps: []stepMap{{kind: stepInsert, index: 0, count: 2}}}
	out := m.Map(in, Right)
	if in.Offset() != 3 || out.Offset() != 5 {
		t.Errorf("expected input 3 and output 5, got %d and %d", in.Offset(), out.Offset())
	}
}

func TestMapper_ZeroBiasMapsRight(t *testing.T) {
	tree := NewTree("document", nil)
	at := Position{tree: tree, path: []int{1}}
	m := Mapper{steps: []stepMap{{kind: stepInsert, index: 1, count: 2}}}
	var zero Bias
	if got, want := m.Map(at, zero).Offset(), m.Map(at, Right).Offset(); got != want {
		t.Errorf("expected zero bias to map to %d, got %d", want, got)
	}
	if zero.String() != "right" {
		t.Errorf("expected zero bias to print right, got %q", zero.String())
	}
}

func TestMapper_MapRangeKeepsOrder(t *testing.T) {
	tree := NewTree("document", nil)
	m := Mapper{steps: []stepMap{{kind: stepInsert, index: 1, count: 1}}}
	r := Range{start: Position{tree: tree, path: []int{1}}, end: Position{tree: tree, path: []int{1}}}
	got := m.MapRange(r, Right)
	if Compare(got.Start(), got.End()) > 0 {
		t.Errorf("expected ordered range, got %v", got)
	}
	if got.Start().Offset() != 2 {
		t.Errorf("expected start 2, got %d", got.Start().Offset())
	}
}

func TestMapper_Associativity(t *testing.T) {
	tree := mustBuild(t, el("document", txt("abcd"), el("p", txt("efgh"))))
	before := allPositions(tree)

	_, m1, err := tree.Update(Range{}, Right, func(m *Mutator) error {
		_, err := m.Split(pos(t, tree, 0, 2), false)
		return err
	})
	if err != nil {
		t.Fatalf("first edit: %v", err)
	}
	_, m2, err := tree.Update(Range{}, Right, func(m *Mutator) error {
		_, err := m.Insert(CollapsedAt(pos(t, tree, 0)), tree.CreateLeaf("new", nil))
		if err != nil {
			return err
		}
		_, _, err = m.Remove(rng(t, tree, []int{3, 0, 1}, []int{3, 0, 3}))
		return err
	})
	if err != nil {
		t.Fatalf("second edit: %v", err)
	}

	composite := m1.Compose(m2)
	for _, p := range before {
		for _, bias := range []Bias{Left, Right} {
			want := m2.Map(m1.Map(p, bias), bias)
			got := composite.Map(p, bias)
			if !got.Equal(want) {
				t.Errorf("%v (%v): expected %v, got %v", p, bias, want, got)
			}
			if !got.Valid() {
				t.Errorf("%v (%v): mapped to invalid %v", p, bias, got)
			}
		}
	}
}

func TestParseBias(t *testing.T) {
	tests := map[string]Bias{"left": Left, "LEFT": Left, "right": Right, "": Right}
	for in, want := range tests {
		got, err := ParseBias(in)
		if err != nil || got != want {
			t.Errorf("%q: expected %v, got %v (%v)", in, want, got, err)
		}
	}
	if _, err := ParseBias("up"); err == nil {
		t.Error("expected error for unknown bias")
	}
}
