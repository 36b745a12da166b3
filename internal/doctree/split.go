package doctree

import (
	"fmt"
	"slices"
)

// splitNode cuts n at offset: a leaf keeps text[:offset] and a new leaf with
// the same marks takes the rest; a container keeps its children before
// offset and a shallow clone takes the others. The new node becomes n's next
// sibling.
func (t *Tree) splitNode(n NodeID, offset int) (NodeID, stepMap, error) {
	parent := t.Parent(n)
	if parent == None {
		return None, stepMap{}, fmt.Errorf("%w: cannot split node %d", ErrNoParent, n)
	}
	parentPath, err := t.Path(parent)
	if err != nil {
		return None, stepMap{}, err
	}
	step := stepMap{kind: stepSplit, parent: parentPath, index: t.IndexOf(n), offset: offset}

	src := t.get(n)
	var tail NodeID
	if src.kind == KindLeaf {
		if splitsSurrogate(src.text, offset) {
			return None, stepMap{}, fmt.Errorf("%w: offset %d splits a surrogate pair", ErrInvalidPosition, offset)
		}
		rest := slices.Clone(src.text[offset:])
		tail = t.CreateLeaf("", src.marks)
		// CreateLeaf may grow the arena; re-fetch before writing.
		t.get(tail).text = rest
		t.get(n).text = t.get(n).text[:offset:offset]
	} else {
		tail = t.CreateContainer(src.tag, src.attrs)
		for _, c := range t.Children(n)[offset:] {
			t.unlink(c)
			t.link(tail, c, None)
		}
	}
	t.link(parent, tail, t.NextSibling(n))
	return tail, step, nil
}

// split implements the split algorithm: a position inside a leaf becomes the
// boundary between two leaves, and with splitParent the boundary's container
// is cut in two as well. Splitting on an existing boundary changes nothing.
func (t *Tree) split(p Position, splitParent bool) (Position, Mapper, error) {
	var m Mapper
	boundary, err := t.splitLeaf(p, &m)
	if err != nil {
		return Position{}, m, err
	}
	if !splitParent {
		return boundary, m, nil
	}
	boundary, err = t.splitContainer(boundary, &m)
	return boundary, m, err
}

// splitLeaf turns p into a container boundary, cutting the leaf it points
// into when the offset is interior.
func (t *Tree) splitLeaf(p Position, m *Mapper) (Position, error) {
	parent, offset, err := p.Resolve()
	if err != nil {
		return Position{}, err
	}
	if !t.IsLeaf(parent) {
		return p, nil
	}
	leafPath := p.parentPath()
	outer := leafPath[:len(leafPath)-1]
	index := leafPath[len(leafPath)-1]
	switch offset {
	case 0:
		return p.with(joinPath(outer, index)), nil
	case t.MaxOffset(parent):
		return p.with(joinPath(outer, index+1)), nil
	}
	_, step, err := t.splitNode(parent, offset)
	if err != nil {
		return Position{}, err
	}
	m.add(step)
	return p.with(joinPath(outer, index+1)), nil
}

// splitContainer cuts the container holding boundary b and returns the
// boundary between the two halves in the grandparent. The root is never cut.
func (t *Tree) splitContainer(b Position, m *Mapper) (Position, error) {
	container, offset, err := b.Resolve()
	if err != nil {
		return Position{}, err
	}
	if t.IsLeaf(container) {
		return Position{}, fmt.Errorf("%w: %v is not a container boundary", ErrIllegalState, b)
	}
	if container == t.root {
		return b, nil
	}
	cpath := b.parentPath()
	outer := cpath[:len(cpath)-1]
	index := cpath[len(cpath)-1]
	switch offset {
	case 0:
		return b.with(joinPath(outer, index)), nil
	case t.MaxOffset(container):
		return b.with(joinPath(outer, index+1)), nil
	}
	_, step, err := t.splitNode(container, offset)
	if err != nil {
		return Position{}, err
	}
	m.add(step)
	return b.with(joinPath(outer, index+1)), nil
}

// splitUntil splits at p and keeps splitting parents until the boundary lies
// directly inside ancestor.
func (t *Tree) splitUntil(p Position, ancestor NodeID) (Position, Mapper, error) {
	var m Mapper
	apath, err := t.Path(ancestor)
	if err != nil {
		return Position{}, m, err
	}
	if !t.IsContainer(ancestor) {
		return Position{}, m, fmt.Errorf("%w: node %d is not a container", ErrIllegalState, ancestor)
	}
	pp := p.parentPath()
	if len(pp) < len(apath) || !slices.Equal(pp[:len(apath)], apath) {
		return Position{}, m, fmt.Errorf("%w: node %d is not an ancestor of %v", ErrIllegalState, ancestor, p)
	}
	boundary, err := t.splitLeaf(p, &m)
	if err != nil {
		return Position{}, m, err
	}
	for len(boundary.path)-1 > len(apath) {
		boundary, err = t.splitContainer(boundary, &m)
		if err != nil {
			return Position{}, m, err
		}
	}
	return boundary, m, nil
}
