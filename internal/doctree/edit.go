package doctree

import (
	"fmt"
	"maps"
	"slices"
)

// insertAt links nodes into parent starting at boundary index.
func (t *Tree) insertAt(parent NodeID, index int, nodes []NodeID) (stepMap, error) {
	ppath, err := t.Path(parent)
	if err != nil {
		return stepMap{}, err
	}
	ref := t.ChildAt(parent, index)
	for _, n := range nodes {
		t.link(parent, n, ref)
	}
	return stepMap{kind: stepInsert, parent: ppath, index: index, count: len(nodes)}, nil
}

// checkDetached validates nodes about to be inserted: each must belong to t,
// be detached, and appear once.
func (t *Tree) checkDetached(nodes []NodeID) error {
	seen := make(map[NodeID]bool, len(nodes))
	for _, n := range nodes {
		if err := t.check(n); err != nil {
			return err
		}
		if n == t.root || t.get(n).parent != None {
			return fmt.Errorf("%w: node %d", ErrAttached, n)
		}
		if seen[n] {
			return fmt.Errorf("%w: node %d listed twice", ErrIllegalState, n)
		}
		seen[n] = true
	}
	return nil
}

func (t *Tree) checkRange(r Range) error {
	if r.start.tree != t {
		return fmt.Errorf("%w: range belongs to another tree", ErrMisbehavedRange)
	}
	_, err := NewRange(r.start, r.end)
	return err
}

// insert replaces the content of r with nodes and returns the range spanning
// them. A collapsed r with no nodes changes nothing.
func (t *Tree) insert(r Range, nodes []NodeID) (Range, Mapper, error) {
	var m Mapper
	if err := t.checkRange(r); err != nil {
		return Range{}, m, err
	}
	if err := t.checkDetached(nodes); err != nil {
		return Range{}, m, err
	}

	var at Position
	if r.Collapsed() {
		if len(nodes) == 0 {
			return r, m, nil
		}
		var sm Mapper
		var err error
		at, sm, err = t.split(r.start, false)
		m.append(sm)
		if err != nil {
			return Range{}, m, err
		}
	} else {
		_, removedAt, rm, err := t.remove(r)
		m.append(rm)
		if err != nil {
			return Range{}, m, err
		}
		if len(nodes) == 0 {
			return CollapsedAt(t.afterRemoval(removedAt)), m, nil
		}
		at = removedAt
	}

	parent, offset, err := at.Resolve()
	if err != nil {
		return Range{}, m, err
	}
	step, err := t.insertAt(parent, offset, nodes)
	if err != nil {
		return Range{}, m, err
	}
	m.add(step)
	ppath := at.parentPath()
	return Range{
		start: at.with(joinPath(ppath, offset)),
		end:   at.with(joinPath(ppath, offset+len(nodes))),
	}, m, nil
}

// afterRemoval picks where the caret goes once content at boundary at has
// been deleted: inside the node that followed it, or else just after the
// enclosing container.
func (t *Tree) afterRemoval(at Position) Position {
	parent, offset, err := at.Resolve()
	if err != nil {
		return at
	}
	if next := t.ChildAt(parent, offset); next != None {
		if p, err := t.In(next, 0); err == nil {
			return p
		}
	}
	if parent == t.root {
		return at
	}
	if p, err := t.After(parent); err == nil {
		return p
	}
	return at
}

// remove detaches every node fully covered by r after splitting at both
// boundaries. It returns the removed nodes in document order and the
// boundary where they used to be.
func (t *Tree) remove(r Range) ([]NodeID, Position, Mapper, error) {
	var m Mapper
	if err := t.checkRange(r); err != nil {
		return nil, Position{}, m, err
	}
	if r.Collapsed() {
		return nil, r.start, m, nil
	}

	start, sm, err := t.split(r.start, false)
	m.append(sm)
	if err != nil {
		return nil, Position{}, m, err
	}
	end, em, err := t.split(sm.Map(r.end, Left), false)
	m.append(em)
	if err != nil {
		return nil, Position{}, m, err
	}
	start = em.Map(start, Right)

	confined, err := Range{start: start, end: end}.MinimumConfinedRanges()
	if err != nil {
		return nil, Position{}, m, err
	}

	var removal Mapper
	var removed []NodeID
	for i := len(confined) - 1; i >= 0; i-- {
		c := confined[i]
		parent, from, err := c.start.Resolve()
		if err != nil {
			return nil, Position{}, m, err
		}
		if t.IsLeaf(parent) {
			return nil, Position{}, m, fmt.Errorf("%w: unsplit leaf boundary %v", ErrIllegalState, c.start)
		}
		to := c.end.Offset()
		span := t.Children(parent)[from:to]
		for _, n := range span {
			t.unlink(n)
		}
		removal.add(stepMap{kind: stepRemove, parent: slices.Clone(c.start.parentPath()), index: from, count: to - from})
		removed = append(slices.Clone(span), removed...)
	}
	m.append(removal)
	return removed, removal.Map(start, Left), m, nil
}

// move detaches the content of r and reinserts it at target. target is
// addressed in the tree as it was before the move.
func (t *Tree) move(r Range, target Position) (Range, Mapper, error) {
	var m Mapper
	if err := t.checkRange(r); err != nil {
		return Range{}, m, err
	}
	if target.tree != t || !target.Valid() {
		return Range{}, m, fmt.Errorf("%w: move target %v", ErrInvalidPosition, target)
	}
	if Compare(r.start, target) < 0 && Compare(target, r.end) < 0 {
		return Range{}, m, fmt.Errorf("%w: target %v lies inside moved range %v", ErrIllegalState, target, r)
	}
	removed, _, rm, err := t.remove(r)
	m.append(rm)
	if err != nil {
		return Range{}, m, err
	}
	res, im, err := t.insert(CollapsedAt(rm.Map(target, Left)), removed)
	m.append(im)
	return res, m, err
}

// insertText splices text into the leaf at p. At a container boundary the
// text joins the adjacent leaf, or a new unmarked leaf is created when
// neither neighbour is a leaf.
func (t *Tree) insertText(p Position, text string) (Range, Mapper, error) {
	var m Mapper
	if p.tree != t {
		return Range{}, m, fmt.Errorf("%w: position belongs to another tree", ErrInvalidPosition)
	}
	parent, offset, err := p.Resolve()
	if err != nil {
		return Range{}, m, err
	}
	if text == "" {
		return CollapsedAt(p), m, nil
	}

	leaf := parent
	if !t.IsLeaf(parent) {
		switch before, after := p.NodeBefore(), p.NodeAfter(); {
		case t.IsLeaf(before):
			leaf, offset = before, t.TextLen(before)
		case t.IsLeaf(after):
			leaf, offset = after, 0
		default:
			n := t.CreateLeaf(text, nil)
			step, err := t.insertAt(parent, offset, []NodeID{n})
			if err != nil {
				return Range{}, m, err
			}
			m.add(step)
			start, _ := t.In(n, 0)
			end, _ := t.In(n, t.TextLen(n))
			return Range{start: start, end: end}, m, nil
		}
	}

	leafPath, err := t.Path(leaf)
	if err != nil {
		return Range{}, m, err
	}
	units := encodeText(text)
	nd := t.get(leaf)
	nd.text = slices.Insert(nd.text, offset, units...)
	m.add(stepMap{
		kind:   stepReplaceText,
		parent: leafPath[:len(leafPath)-1],
		index:  leafPath[len(leafPath)-1],
		offset: offset,
		size:   len(units),
	})
	return Range{
		start: Position{tree: t, path: joinPath(leafPath, offset)},
		end:   Position{tree: t, path: joinPath(leafPath, offset+len(units))},
	}, m, nil
}

// setMark splits at both boundaries of r and sets (or with value "" clears)
// mark name on every leaf in between. It returns the boundaries after the
// splits.
func (t *Tree) setMark(r Range, name, value string) (Range, Mapper, error) {
	var m Mapper
	if err := t.checkRange(r); err != nil {
		return Range{}, m, err
	}
	if name == "" {
		return Range{}, m, fmt.Errorf("%w: empty mark name", ErrIllegalState)
	}
	if r.Collapsed() {
		return r, m, nil
	}
	start, sm, err := t.split(r.start, false)
	m.append(sm)
	if err != nil {
		return Range{}, m, err
	}
	end, em, err := t.split(sm.Map(r.end, Left), false)
	m.append(em)
	if err != nil {
		return Range{}, m, err
	}
	covered := Range{start: em.Map(start, Right), end: end}

	w, err := NewRangeWalker(covered, WalkOptions{Filter: Only(t.IsLeaf)})
	if err != nil {
		return Range{}, m, err
	}
	for n := range w.All() {
		nd := t.get(n)
		if value == "" {
			delete(nd.marks, name)
			if len(nd.marks) == 0 {
				nd.marks = nil
			}
			continue
		}
		if nd.marks == nil {
			nd.marks = make(map[string]string, 1)
		}
		nd.marks[name] = value
	}
	return covered, m, nil
}

// setAttribute sets (or with value "" removes) one container attribute.
func (t *Tree) setAttribute(n NodeID, key, value string) error {
	if err := t.check(n); err != nil {
		return err
	}
	if !t.IsContainer(n) {
		return fmt.Errorf("%w: node %d is a leaf", ErrIllegalState, n)
	}
	nd := t.get(n)
	if value == "" {
		delete(nd.attrs, key)
		if len(nd.attrs) == 0 {
			nd.attrs = nil
		}
		return nil
	}
	if nd.attrs == nil {
		nd.attrs = make(map[string]string, 1)
	}
	nd.attrs[key] = value
	return nil
}

// Mergeable reports whether n and its next sibling can be joined: two leaves
// with identical marks, or two containers with the same tag and attributes.
func (t *Tree) Mergeable(n NodeID) bool {
	next := t.NextSibling(n)
	if next == None {
		return false
	}
	a, b := t.get(n), t.get(next)
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindLeaf {
		return maps.Equal(a.marks, b.marks)
	}
	return a.tag == b.tag && maps.Equal(a.attrs, b.attrs)
}

// merge joins n with its next sibling, the inverse of a split. It returns the
// position of the seam inside n.
func (t *Tree) merge(n NodeID) (Position, Mapper, error) {
	var m Mapper
	if err := t.check(n); err != nil {
		return Position{}, m, err
	}
	if !t.Mergeable(n) {
		return Position{}, m, fmt.Errorf("%w: node %d cannot merge with its next sibling", ErrIllegalState, n)
	}
	path, err := t.Path(n)
	if err != nil {
		return Position{}, m, err
	}
	next := t.NextSibling(n)
	seam := t.MaxOffset(n)
	if t.IsLeaf(n) {
		t.get(n).text = append(t.get(n).text, t.get(next).text...)
		t.unlink(next)
	} else {
		t.unlink(next)
		for _, c := range t.Children(next) {
			t.unlink(c)
			t.link(n, c, None)
		}
	}
	m.add(stepMap{kind: stepMerge, parent: path[:len(path)-1], index: path[len(path)-1], offset: seam})
	return Position{tree: t, path: joinPath(path, seam)}, m, nil
}

// normalize merges adjacent mergeable leaves and drops empty leaves in every
// container under n, n included.
func (t *Tree) normalize(n NodeID) (Mapper, error) {
	var m Mapper
	if err := t.check(n); err != nil {
		return m, err
	}
	if !t.IsAttached(n) {
		return m, fmt.Errorf("%w: node %d is detached", ErrNoParent, n)
	}
	var containers []NodeID
	for c := range t.Walk(n, WalkOptions{Filter: Only(t.IsContainer)}) {
		containers = append(containers, c)
	}
	for _, c := range containers {
		ppath, err := t.Path(c)
		if err != nil {
			return m, err
		}
		for i := 0; i < t.ChildCount(c); {
			child := t.ChildAt(c, i)
			if t.IsLeaf(child) && t.TextLen(child) == 0 {
				t.unlink(child)
				m.add(stepMap{kind: stepRemove, parent: ppath, index: i, count: 1})
				continue
			}
			next := t.NextSibling(child)
			if t.IsLeaf(child) && t.IsLeaf(next) && t.TextLen(next) > 0 && t.Mergeable(child) {
				_, mm, err := t.merge(child)
				m.append(mm)
				if err != nil {
					return m, err
				}
				continue
			}
			i++
		}
	}
	return m, nil
}
