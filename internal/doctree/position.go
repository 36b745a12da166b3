package doctree

import (
	"fmt"
	"slices"
)

// Position is an immutable address inside a tree: child indices from the
// root followed by an offset inside the last named node. It is only valid for
// the tree snapshot it was derived from.
type Position struct {
	tree *Tree
	path []int
}

// PositionAt validates path against the current tree and returns it as a Position.
func (t *Tree) PositionAt(path ...int) (Position, error) {
	p := Position{tree: t, path: slices.Clone(path)}
	if _, _, err := p.Resolve(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// Before returns the boundary immediately before n in its parent.
func (t *Tree) Before(n NodeID) (Position, error) {
	path, err := t.Path(n)
	if err != nil {
		return Position{}, err
	}
	if len(path) == 0 {
		return Position{}, fmt.Errorf("%w: the root has no position before it", ErrNoParent)
	}
	return Position{tree: t, path: path}, nil
}

// After returns the boundary immediately after n in its parent.
func (t *Tree) After(n NodeID) (Position, error) {
	p, err := t.Before(n)
	if err != nil {
		return Position{}, err
	}
	p.path[len(p.path)-1]++
	return p, nil
}

// In returns the position at offset inside n: a child boundary for a
// container, a text offset for a leaf.
func (t *Tree) In(n NodeID, offset int) (Position, error) {
	path, err := t.Path(n)
	if err != nil {
		return Position{}, err
	}
	if offset < 0 || offset > t.MaxOffset(n) {
		return Position{}, fmt.Errorf("%w: offset %d outside node %d (max %d)", ErrInvalidPosition, offset, n, t.MaxOffset(n))
	}
	if t.IsLeaf(n) && splitsSurrogate(t.get(n).text, offset) {
		return Position{}, fmt.Errorf("%w: offset %d splits a surrogate pair", ErrInvalidPosition, offset)
	}
	return Position{tree: t, path: append(path, offset)}, nil
}

// Start returns the first position of the document.
func (t *Tree) Start() Position {
	return Position{tree: t, path: []int{0}}
}

// End returns the last position of the document.
func (t *Tree) End() Position {
	return Position{tree: t, path: []int{t.ChildCount(t.root)}}
}

// Tree returns the tree the position addresses.
func (p Position) Tree() *Tree {
	return p.tree
}

// IsZero reports whether p is the zero Position.
func (p Position) IsZero() bool {
	return p.tree == nil
}

// Path returns a copy of the position's path.
func (p Position) Path() []int {
	return slices.Clone(p.path)
}

// Depth is the number of path elements.
func (p Position) Depth() int {
	return len(p.path)
}

// Offset is the last path element: the offset inside the parent node.
func (p Position) Offset() int {
	if len(p.path) == 0 {
		return 0
	}
	return p.path[len(p.path)-1]
}

// Resolve returns the node the offset is taken in, and the offset.
func (p Position) Resolve() (NodeID, int, error) {
	if p.tree == nil || len(p.path) == 0 {
		return None, 0, fmt.Errorf("%w: empty position", ErrInvalidPosition)
	}
	t := p.tree
	parent, err := t.NodeAt(p.path[:len(p.path)-1]...)
	if err != nil {
		return None, 0, err
	}
	offset := p.path[len(p.path)-1]
	if offset < 0 || offset > t.MaxOffset(parent) {
		return None, 0, fmt.Errorf("%w: offset %d outside node %d (max %d)", ErrInvalidPosition, offset, parent, t.MaxOffset(parent))
	}
	if t.IsLeaf(parent) && splitsSurrogate(t.get(parent).text, offset) {
		return None, 0, fmt.Errorf("%w: offset %d splits a surrogate pair", ErrInvalidPosition, offset)
	}
	return parent, offset, nil
}

// Valid reports whether p still resolves against its tree.
func (p Position) Valid() bool {
	_, _, err := p.Resolve()
	return err == nil
}

// NodeAfter returns the child directly after a container boundary, or None
// when p is inside a leaf or at the end of its container.
func (p Position) NodeAfter() NodeID {
	parent, offset, err := p.Resolve()
	if err != nil || p.tree.IsLeaf(parent) {
		return None
	}
	return p.tree.ChildAt(parent, offset)
}

// NodeBefore returns the child directly before a container boundary, or None
// when p is inside a leaf or at the start of its container.
func (p Position) NodeBefore() NodeID {
	parent, offset, err := p.Resolve()
	if err != nil || p.tree.IsLeaf(parent) {
		return None
	}
	return p.tree.ChildAt(parent, offset-1)
}

// Equal reports whether p and q address the same path in the same tree.
func (p Position) Equal(q Position) bool {
	return p.tree == q.tree && slices.Equal(p.path, q.path)
}

func (p Position) String() string {
	return fmt.Sprint(p.path)
}

// Compare orders two positions of the same tree in document order. A shorter
// path that is a prefix of a longer one orders first: the boundary before a
// node precedes every position inside it.
func Compare(a, b Position) int {
	return comparePaths(a.path, b.path)
}

func comparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func (p Position) parentPath() []int {
	return p.path[:len(p.path)-1]
}

func (p Position) with(path []int) Position {
	return Position{tree: p.tree, path: path}
}

func joinPath(prefix []int, rest ...int) []int {
	out := make([]int, 0, len(prefix)+len(rest))
	out = append(out, prefix...)
	return append(out, rest...)
}
