package doctree

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func nestedTree(t *testing.T) *Tree {
	return mustBuild(t, el("document",
		el("div", el("p", txt("abc")), el("p", txt("def"))),
		el("p", txt("ghi")),
	))
}

func rangePaths(rs []Range) [][2][]int {
	out := make([][2][]int, len(rs))
	for i, r := range rs {
		out[i] = [2][]int{r.Start().Path(), r.End().Path()}
	}
	return out
}

// rangeText flattens a confined range to the text it covers.
func rangeText(t *testing.T, r Range) string {
	t.Helper()
	tree := r.Tree()
	parent, from, err := r.Start().Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	to := r.End().Offset()
	if tree.IsLeaf(parent) {
		return tree.Text(parent)[from:to]
	}
	var b strings.Builder
	for _, c := range tree.Children(parent)[from:to] {
		b.WriteString(tree.TextContent(c))
	}
	return b.String()
}

func TestNewRange_Misbehaved(t *testing.T) {
	tree := nestedTree(t)
	other := nestedTree(t)
	if _, err := NewRange(pos(t, tree, 1), pos(t, tree, 0)); !errors.Is(err, ErrMisbehavedRange) {
		t.Errorf("expected ErrMisbehavedRange for reversed range, got %v", err)
	}
	if _, err := NewRange(pos(t, tree, 0), pos(t, other, 1)); !errors.Is(err, ErrMisbehavedRange) {
		t.Errorf("expected ErrMisbehavedRange across trees, got %v", err)
	}
	stale := Position{tree: tree, path: []int{9}}
	_, err := NewRange(pos(t, tree, 0), stale)
	if !errors.Is(err, ErrMisbehavedRange) || !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected both ErrMisbehavedRange and ErrInvalidPosition, got %v", err)
	}
}

func TestRange_CommonAncestor(t *testing.T) {
	tree := nestedTree(t)
	tests := []struct {
		name       string
		start, end []int
		want       []int
	}{
		{"same leaf", []int{0, 0, 0, 1}, []int{0, 0, 0, 2}, []int{0, 0}},
		{"sibling paragraphs", []int{0, 0, 0, 1}, []int{0, 1, 0, 1}, []int{0}},
		{"across top level", []int{0, 0, 0, 1}, []int{1, 0, 2}, nil},
		{"root boundaries", []int{0}, []int{2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ca, err := rng(t, tree, tt.start, tt.end).CommonAncestor()
			if err != nil {
				t.Fatalf("common ancestor: %v", err)
			}
			if want := mustNode(t, tree, tt.want...); ca != want {
				t.Errorf("expected node %d, got %d", want, ca)
			}
		})
	}
}

func TestMinimumConfinedRanges(t *testing.T) {
	tree := nestedTree(t)
	r := rng(t, tree, []int{0, 0, 0, 1}, []int{1, 0, 2})
	got, err := r.MinimumConfinedRanges()
	if err != nil {
		t.Fatalf("confined ranges: %v", err)
	}
	want := [][2][]int{
		{{0, 0, 0, 1}, {0, 0, 0, 3}},
		{{0, 1}, {0, 2}},
		{{1, 0, 0}, {1, 0, 2}},
	}
	if diff := cmp.Diff(want, rangePaths(got)); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
	for _, c := range got {
		if !c.Confined() {
			t.Errorf("expected %v to be confined", c)
		}
	}
}

func TestMinimumConfinedRanges_CoverContentExactlyOnce(t *testing.T) {
	tree := nestedTree(t)
	tests := []struct {
		start, end []int
		want       string
	}{
		{[]int{0, 0, 0, 1}, []int{1, 0, 2}, "bcdefgh"},
		{[]int{0, 0, 0, 0}, []int{0, 0, 0, 3}, "abc"},
		{[]int{0}, []int{2}, "abcdefghi"},
		{[]int{0, 1}, []int{1, 0, 1}, "defg"},
		{[]int{0, 0, 0, 3}, []int{0, 1, 0, 0}, ""},
	}
	for _, tt := range tests {
		confined, err := rng(t, tree, tt.start, tt.end).MinimumConfinedRanges()
		if err != nil {
			t.Fatalf("confined ranges: %v", err)
		}
		var b strings.Builder
		for _, c := range confined {
			if c.Collapsed() {
				t.Errorf("expected no empty ranges, got %v", c)
			}
			b.WriteString(rangeText(t, c))
		}
		if got := b.String(); got != tt.want {
			t.Errorf("%v..%v: expected %q, got %q", tt.start, tt.end, tt.want, got)
		}
	}
}

func TestMinimumConfinedRanges_Collapsed(t *testing.T) {
	tree := nestedTree(t)
	got, err := CollapsedAt(pos(t, tree, 1)).MinimumConfinedRanges()
	if err != nil {
		t.Fatalf("confined ranges: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no ranges, got %d", len(got))
	}
}

func TestRangeAroundAndIn(t *testing.T) {
	tree := nestedTree(t)
	div := mustNode(t, tree, 0)
	around, err := tree.RangeAround(div)
	if err != nil {
		t.Fatalf("around: %v", err)
	}
	in, err := tree.RangeIn(div)
	if err != nil {
		t.Fatalf("in: %v", err)
	}
	want := [][2][]int{{{0}, {1}}, {{0, 0}, {0, 2}}}
	if diff := cmp.Diff(want, rangePaths([]Range{around, in})); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
	if !around.Contains(in.Start()) || !around.Contains(in.End()) {
		t.Error("expected the surrounding range to contain the inner range")
	}
}

func TestRange_Text(t *testing.T) {
	tree := mustBuild(t, el("document",
		el("p", txt("hello"), marked("bold", MarkBold)),
		el("p", txt("\U0001F600 world")),
	))
	tests := []struct {
		start, end []int
		want       string
	}{
		{[]int{0, 0, 1}, []int{0, 0, 4}, "ell"},
		{[]int{0, 0, 3}, []int{1, 0, 2}, "lobold\U0001F600"},
		{[]int{0}, []int{2}, "hellobold\U0001F600 world"},
		{[]int{1, 0, 3}, []int{1, 0, 3}, ""},
	}
	for _, tt := range tests {
		got, err := rng(t, tree, tt.start, tt.end).Text()
		if err != nil {
			t.Fatalf("%v-%v: unexpected error: %v", tt.start, tt.end, err)
		}
		if got != tt.want {
			t.Errorf("%v-%v: expected %q, got %q", tt.start, tt.end, tt.want, got)
		}
	}
}
