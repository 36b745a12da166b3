package doctree

import (
	"fmt"
	"slices"
	"strings"
)

// Bias picks a side when a mapped position sits exactly on the boundary where
// content was inserted or a node was split: Left keeps it before the new
// content, Right moves it after. The zero value maps like Right.
type Bias int8

const (
	Left  Bias = -1
	Right Bias = 1
)

func (b Bias) String() string {
	if b == Left {
		return "left"
	}
	return "right"
}

// ParseBias accepts "left" or "right".
func ParseBias(s string) (Bias, error) {
	switch strings.ToLower(s) {
	case "left":
		return Left, nil
	case "right", "":
		return Right, nil
	}
	return Right, fmt.Errorf("unknown bias %q", s)
}

type stepKind uint8

const (
	stepSplit stepKind = iota + 1
	stepInsert
	stepRemove
	stepMerge
	stepReplaceText
)

// stepMap records one primitive structural change in terms of the paths that
// were valid immediately before it.
//
//	split:   child index of parent was cut at offset; the tail became index+1
//	insert:  count nodes were inserted at boundary index of parent
//	remove:  count nodes starting at index were detached from parent
//	merge:   child index+1 was appended into child index, which had size offset
//	replace: text [offset, offset+count) of leaf index was replaced by size units
type stepMap struct {
	kind   stepKind
	parent []int
	index  int
	offset int
	count  int
	size   int
}

// Mapper translates positions valid before a sequence of edits into the
// equivalent positions after them.
type Mapper struct {
	steps []stepMap
}

// Len returns the number of primitive steps recorded.
func (m Mapper) Len() int {
	return len(m.steps)
}

// Compose returns a mapper equivalent to m followed by next.
func (m Mapper) Compose(next Mapper) Mapper {
	steps := make([]stepMap, 0, len(m.steps)+len(next.steps))
	steps = append(steps, m.steps...)
	steps = append(steps, next.steps...)
	return Mapper{steps: steps}
}

func (m *Mapper) add(s stepMap) {
	m.steps = append(m.steps, s)
}

func (m *Mapper) append(next Mapper) {
	m.steps = append(m.steps, next.steps...)
}

// Map carries p through every recorded step. Positions inside removed
// content collapse to the boundary where the removal happened.
func (m Mapper) Map(p Position, bias Bias) Position {
	if p.tree == nil || len(m.steps) == 0 {
		return p
	}
	if bias != Left {
		bias = Right
	}
	path := slices.Clone(p.path)
	for _, s := range m.steps {
		path = s.apply(path, bias)
	}
	return p.with(path)
}

// MapRange maps both boundaries with bias, keeping start <= end.
func (m Mapper) MapRange(r Range, bias Bias) Range {
	start := m.Map(r.start, bias)
	end := m.Map(r.end, bias)
	if Compare(start, end) > 0 {
		end = start
	}
	return Range{start: start, end: end}
}

func (s stepMap) apply(path []int, bias Bias) []int {
	d := len(s.parent)
	if len(path) <= d || !slices.Equal(path[:d], s.parent) {
		return path
	}
	c := path[d]
	last := len(path) == d+1

	switch s.kind {
	case stepSplit:
		if c > s.index {
			path[d]++
			return path
		}
		if c < s.index || last {
			return path
		}
		// Inside the split node.
		x := path[d+1]
		inner := len(path) == d+2
		switch {
		case x < s.offset:
		case x > s.offset || (!inner && x == s.offset):
			path[d] = s.index + 1
			path[d+1] = x - s.offset
		case bias == Right:
			path[d] = s.index + 1
			path[d+1] = 0
		}
		return path

	case stepInsert:
		if c > s.index || (c == s.index && (!last || bias == Right)) {
			path[d] += s.count
		}
		return path

	case stepRemove:
		end := s.index + s.count
		switch {
		case c >= end && (last || c > s.index):
			path[d] -= s.count
		case last && c > s.index:
			path[d] = s.index
		case !last && c >= s.index:
			return joinPath(s.parent, s.index)
		}
		return path

	case stepMerge:
		switch {
		case c > s.index+1:
			path[d]--
		case c == s.index+1 && last:
			return joinPath(s.parent, s.index, s.offset)
		case c == s.index+1:
			path[d] = s.index
			path[d+1] += s.offset
		}
		return path

	case stepReplaceText:
		if c != s.index || last {
			return path
		}
		x := path[d+1]
		from, to := s.offset, s.offset+s.count
		switch {
		case x < from:
		case x > to:
			path[d+1] = x - s.count + s.size
		case x == from && x == to:
			if bias == Right {
				path[d+1] = from + s.size
			}
		case x == from:
		case x == to:
			path[d+1] = from + s.size
		case bias == Right:
			path[d+1] = from + s.size
		default:
			path[d+1] = from
		}
		return path
	}
	return path
}
