package doctree

import (
	"fmt"
	"slices"
)

// Range is an ordered pair of positions in the same tree, start <= end.
type Range struct {
	start, end Position
}

// NewRange validates and returns the range [start, end].
func NewRange(start, end Position) (Range, error) {
	if start.tree == nil || end.tree == nil {
		return Range{}, fmt.Errorf("%w: unset boundary", ErrMisbehavedRange)
	}
	if start.tree != end.tree {
		return Range{}, fmt.Errorf("%w: boundaries belong to different trees", ErrMisbehavedRange)
	}
	if _, _, err := start.Resolve(); err != nil {
		return Range{}, fmt.Errorf("%w: start: %w", ErrMisbehavedRange, err)
	}
	if _, _, err := end.Resolve(); err != nil {
		return Range{}, fmt.Errorf("%w: end: %w", ErrMisbehavedRange, err)
	}
	if Compare(start, end) > 0 {
		return Range{}, fmt.Errorf("%w: start %v after end %v", ErrMisbehavedRange, start, end)
	}
	return Range{start: start, end: end}, nil
}

// CollapsedAt returns the empty range at p.
func CollapsedAt(p Position) Range {
	return Range{start: p, end: p}
}

// RangeAround returns the range from just before n to just after it.
func (t *Tree) RangeAround(n NodeID) (Range, error) {
	start, err := t.Before(n)
	if err != nil {
		return Range{}, err
	}
	end, err := t.After(n)
	if err != nil {
		return Range{}, err
	}
	return Range{start: start, end: end}, nil
}

// RangeIn returns the range covering the whole interior of n.
func (t *Tree) RangeIn(n NodeID) (Range, error) {
	start, err := t.In(n, 0)
	if err != nil {
		return Range{}, err
	}
	end, err := t.In(n, t.MaxOffset(n))
	if err != nil {
		return Range{}, err
	}
	return Range{start: start, end: end}, nil
}

func (r Range) Start() Position { return r.start }
func (r Range) End() Position   { return r.end }
func (r Range) Tree() *Tree     { return r.start.tree }

// IsZero reports whether r is the zero Range.
func (r Range) IsZero() bool {
	return r.start.IsZero()
}

// Collapsed reports whether start and end are the same position.
func (r Range) Collapsed() bool {
	return r.start.Equal(r.end)
}

// Equal reports whether both boundaries are equal.
func (r Range) Equal(o Range) bool {
	return r.start.Equal(o.start) && r.end.Equal(o.end)
}

// Contains reports whether p lies within [start, end].
func (r Range) Contains(p Position) bool {
	return Compare(r.start, p) <= 0 && Compare(p, r.end) <= 0
}

// Confined reports whether both boundaries share one parent node.
func (r Range) Confined() bool {
	return slices.Equal(r.start.parentPath(), r.end.parentPath())
}

func (r Range) String() string {
	return fmt.Sprintf("%v..%v", r.start, r.end)
}

// CommonAncestor returns the deepest container holding both boundaries.
func (r Range) CommonAncestor() (NodeID, error) {
	if r.start.tree == nil || r.start.tree != r.end.tree {
		return None, fmt.Errorf("%w: no shared tree", ErrMisbehavedRange)
	}
	if _, _, err := r.start.Resolve(); err != nil {
		return None, fmt.Errorf("%w: start: %w", ErrMisbehavedRange, err)
	}
	if _, _, err := r.end.Resolve(); err != nil {
		return None, fmt.Errorf("%w: end: %w", ErrMisbehavedRange, err)
	}
	sp, ep := r.start.parentPath(), r.end.parentPath()
	k := commonPrefix(sp, ep)
	t := r.start.tree
	n, err := t.NodeAt(sp[:k]...)
	if err != nil {
		return None, err
	}
	if t.IsLeaf(n) {
		n = t.Parent(n)
	}
	return n, nil
}

// MinimumConfinedRanges decomposes r into the smallest ordered list of
// non-empty ranges whose boundaries each share one parent. Walking up from
// the start, it takes the tail of every node on the start side, the run of
// whole children between the two branches at the common ancestor, then the
// head of every node on the end side. A container only lies wholly inside a
// returned range when its entire content is covered.
func (r Range) MinimumConfinedRanges() ([]Range, error) {
	if _, err := NewRange(r.start, r.end); err != nil {
		return nil, err
	}
	if r.Collapsed() {
		return nil, nil
	}
	t := r.start.tree
	s, e := r.start.path, r.end.path
	sp, ep := r.start.parentPath(), r.end.parentPath()
	if slices.Equal(sp, ep) {
		return []Range{r}, nil
	}
	k := commonPrefix(sp, ep)

	var out []Range
	emit := func(parent []int, from, to int) {
		if from >= to {
			return
		}
		out = append(out, Range{
			start: Position{tree: t, path: joinPath(parent, from)},
			end:   Position{tree: t, path: joinPath(parent, to)},
		})
	}

	for d := len(sp); d > k; d-- {
		from := s[d]
		if d < len(sp) {
			from++
		}
		n, err := t.NodeAt(sp[:d]...)
		if err != nil {
			return nil, err
		}
		emit(sp[:d], from, t.MaxOffset(n))
	}

	from := s[k]
	if k < len(sp) {
		from++
	}
	emit(sp[:k], from, e[k])

	for d := k + 1; d <= len(ep); d++ {
		emit(ep[:d], 0, e[d])
	}
	return out, nil
}

// Text returns the text of every leaf covered by r, including partially
// covered ones, in document order.
func (r Range) Text() (string, error) {
	ranges, err := r.MinimumConfinedRanges()
	if err != nil {
		return "", err
	}
	t := r.start.tree
	var buf []uint16
	for _, c := range ranges {
		parent, from, err := c.start.Resolve()
		if err != nil {
			return "", err
		}
		to := c.end.Offset()
		if t.IsLeaf(parent) {
			buf = append(buf, t.get(parent).text[from:to]...)
			continue
		}
		for _, n := range t.Children(parent)[from:to] {
			buf = append(buf, encodeText(t.TextContent(n))...)
		}
	}
	return decodeText(buf), nil
}

func commonPrefix(a, b []int) int {
	k := 0
	for k < len(a) && k < len(b) && a[k] == b[k] {
		k++
	}
	return k
}
