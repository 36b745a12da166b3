package doctree

import (
	"fmt"
	"maps"
	"slices"
)

// NodeID is a stable handle to a node inside one Tree's arena.
type NodeID int32

// None is the zero handle; it never names a node.
const None NodeID = 0

// Kind tags a node as a container or a leaf.
type Kind uint8

const (
	// KindContainer nodes hold ordered children, a tag and attributes.
	KindContainer Kind = iota + 1

	// KindLeaf nodes hold a text run and its marks; they have no children.
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindLeaf:
		return "leaf"
	}
	return "invalid"
}

// node is one arena slot. Parent and sibling relations are handles into the
// same arena, so the graph has no pointer cycles.
type node struct {
	kind  Kind
	tag   string
	attrs map[string]string
	text  []uint16
	marks map[string]string

	parent      NodeID
	prev, next  NodeID
	first, last NodeID
	count       int

	// index is the slot's position among its siblings. It is only meaningful
	// while the parent's children cache is non-nil.
	index    int
	children []NodeID
}

// Tree is an arena of nodes with a fixed container root. The root is never
// removed or replaced; only its descendants change.
type Tree struct {
	nodes    []node
	root     NodeID
	mutating bool
}

// NewTree returns a tree whose root container has the given tag and attributes.
func NewTree(tag string, attrs map[string]string) *Tree {
	t := &Tree{nodes: make([]node, 1, 64)}
	t.root = t.CreateContainer(tag, attrs)
	return t
}

// Root returns the root container.
func (t *Tree) Root() NodeID {
	return t.root
}

// Has reports whether id names a node of this tree.
func (t *Tree) Has(id NodeID) bool {
	return id > None && int(id) < len(t.nodes)
}

func (t *Tree) get(id NodeID) *node {
	return &t.nodes[id]
}

func (t *Tree) check(id NodeID) error {
	if !t.Has(id) {
		return fmt.Errorf("%w: %d", ErrForeignNode, id)
	}
	return nil
}

// CreateContainer allocates a detached container. attrs is copied.
func (t *Tree) CreateContainer(tag string, attrs map[string]string) NodeID {
	t.nodes = append(t.nodes, node{kind: KindContainer, tag: tag, attrs: copyMap(attrs)})
	return NodeID(len(t.nodes) - 1)
}

// CreateLeaf allocates a detached leaf holding text. marks is copied.
func (t *Tree) CreateLeaf(text string, marks map[string]string) NodeID {
	t.nodes = append(t.nodes, node{kind: KindLeaf, text: encodeText(text), marks: copyMap(marks)})
	return NodeID(len(t.nodes) - 1)
}

// AppendChild attaches a detached node as the last child of parent. It is
// meant for construction; edits of a live document go through a Mutator.
func (t *Tree) AppendChild(parent, child NodeID) error {
	if err := t.checkInsertable(parent, child); err != nil {
		return err
	}
	t.link(parent, child, None)
	return nil
}

func (t *Tree) checkInsertable(parent, child NodeID) error {
	if err := t.check(parent); err != nil {
		return err
	}
	if err := t.check(child); err != nil {
		return err
	}
	if t.get(parent).kind != KindContainer {
		return fmt.Errorf("%w: node %d", ErrLeafChildren, parent)
	}
	if child == t.root || t.get(child).parent != None {
		return fmt.Errorf("%w: node %d", ErrAttached, child)
	}
	for a := parent; a != None; a = t.get(a).parent {
		if a == child {
			return fmt.Errorf("%w: node %d would contain itself", ErrIllegalState, child)
		}
	}
	return nil
}

// link inserts child into parent before ref, or last when ref is None.
func (t *Tree) link(parent, child, ref NodeID) {
	p := t.get(parent)
	c := t.get(child)
	c.parent = parent
	if ref == None {
		c.prev = p.last
		c.next = None
		if p.last != None {
			t.get(p.last).next = child
		} else {
			p.first = child
		}
		p.last = child
	} else {
		r := t.get(ref)
		c.prev = r.prev
		c.next = ref
		if r.prev != None {
			t.get(r.prev).next = child
		} else {
			p.first = child
		}
		r.prev = child
	}
	p.count++
	p.children = nil
}

// unlink detaches id from its parent, keeping its own subtree intact.
func (t *Tree) unlink(id NodeID) {
	n := t.get(id)
	if n.parent == None {
		return
	}
	p := t.get(n.parent)
	if n.prev != None {
		t.get(n.prev).next = n.next
	} else {
		p.first = n.next
	}
	if n.next != None {
		t.get(n.next).prev = n.prev
	} else {
		p.last = n.prev
	}
	p.count--
	p.children = nil
	n.parent, n.prev, n.next = None, None, None
}

// childList returns the cached children of a container, rebuilding the cache
// and the children's index fields when a mutation invalidated it.
func (t *Tree) childList(id NodeID) []NodeID {
	p := t.get(id)
	if p.children == nil && p.count > 0 {
		p.children = make([]NodeID, 0, p.count)
		for c, i := p.first, 0; c != None; c, i = t.get(c).next, i+1 {
			t.get(c).index = i
			p.children = append(p.children, c)
		}
	}
	return p.children
}

// Kind returns the node kind, or 0 for an unknown handle.
func (t *Tree) Kind(id NodeID) Kind {
	if !t.Has(id) {
		return 0
	}
	return t.get(id).kind
}

// IsLeaf reports whether id is a leaf.
func (t *Tree) IsLeaf(id NodeID) bool {
	return t.Kind(id) == KindLeaf
}

// IsContainer reports whether id is a container.
func (t *Tree) IsContainer(id NodeID) bool {
	return t.Kind(id) == KindContainer
}

// Tag returns a container's type tag. Leaves have no tag.
func (t *Tree) Tag(id NodeID) string {
	if !t.Has(id) {
		return ""
	}
	return t.get(id).tag
}

// Attribute returns one container attribute.
func (t *Tree) Attribute(id NodeID, key string) (string, bool) {
	if !t.Has(id) {
		return "", false
	}
	v, ok := t.get(id).attrs[key]
	return v, ok
}

// Attributes returns a copy of a container's attributes.
func (t *Tree) Attributes(id NodeID) map[string]string {
	if !t.Has(id) {
		return nil
	}
	return copyMap(t.get(id).attrs)
}

// Text returns a leaf's text run.
func (t *Tree) Text(id NodeID) string {
	if !t.Has(id) {
		return ""
	}
	return decodeText(t.get(id).text)
}

// TextLen returns a leaf's length in UTF-16 code units.
func (t *Tree) TextLen(id NodeID) int {
	if !t.Has(id) {
		return 0
	}
	return len(t.get(id).text)
}

// Mark returns one text attribute of a leaf.
func (t *Tree) Mark(id NodeID, name string) (string, bool) {
	if !t.Has(id) {
		return "", false
	}
	v, ok := t.get(id).marks[name]
	return v, ok
}

// Marks returns a copy of a leaf's text attributes.
func (t *Tree) Marks(id NodeID) map[string]string {
	if !t.Has(id) {
		return nil
	}
	return copyMap(t.get(id).marks)
}

// Parent returns the owning container, or None for the root and detached nodes.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.Has(id) {
		return None
	}
	return t.get(id).parent
}

// FirstChild returns a container's first child.
func (t *Tree) FirstChild(id NodeID) NodeID {
	if !t.Has(id) {
		return None
	}
	return t.get(id).first
}

// LastChild returns a container's last child.
func (t *Tree) LastChild(id NodeID) NodeID {
	if !t.Has(id) {
		return None
	}
	return t.get(id).last
}

// NextSibling returns the following sibling.
func (t *Tree) NextSibling(id NodeID) NodeID {
	if !t.Has(id) {
		return None
	}
	return t.get(id).next
}

// PrevSibling returns the preceding sibling.
func (t *Tree) PrevSibling(id NodeID) NodeID {
	if !t.Has(id) {
		return None
	}
	return t.get(id).prev
}

// ChildCount returns the number of children of a container.
func (t *Tree) ChildCount(id NodeID) int {
	if !t.Has(id) {
		return 0
	}
	return t.get(id).count
}

// ChildAt returns the i-th child of a container, or None when out of range.
func (t *Tree) ChildAt(id NodeID, i int) NodeID {
	if !t.Has(id) || i < 0 || i >= t.get(id).count {
		return None
	}
	return t.childList(id)[i]
}

// Children returns a copy of a container's children in order.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.Has(id) {
		return nil
	}
	return slices.Clone(t.childList(id))
}

// IndexOf returns the node's position among its siblings, or -1 when detached.
func (t *Tree) IndexOf(id NodeID) int {
	if !t.Has(id) {
		return -1
	}
	n := t.get(id)
	if n.parent == None {
		return -1
	}
	t.childList(n.parent)
	return n.index
}

// MaxOffset is the largest offset addressable inside a node: the text length
// of a leaf or the child count of a container.
func (t *Tree) MaxOffset(id NodeID) int {
	if !t.Has(id) {
		return 0
	}
	n := t.get(id)
	if n.kind == KindLeaf {
		return len(n.text)
	}
	return n.count
}

// Size is the node's extent in position steps: the text length of a leaf, 1
// for an empty (void) container, and the sum of the children otherwise.
func (t *Tree) Size(id NodeID) int {
	if !t.Has(id) {
		return 0
	}
	n := t.get(id)
	if n.kind == KindLeaf {
		return len(n.text)
	}
	if n.count == 0 {
		return 1
	}
	size := 0
	for c := n.first; c != None; c = t.get(c).next {
		size += t.Size(c)
	}
	return size
}

// IsAttached reports whether id is the root or reachable from it.
func (t *Tree) IsAttached(id NodeID) bool {
	if !t.Has(id) {
		return false
	}
	for a := id; a != None; a = t.get(a).parent {
		if a == t.root {
			return true
		}
	}
	return false
}

// IsAncestor reports whether a is a strict ancestor of id.
func (t *Tree) IsAncestor(a, id NodeID) bool {
	if !t.Has(a) || !t.Has(id) {
		return false
	}
	for p := t.get(id).parent; p != None; p = t.get(p).parent {
		if p == a {
			return true
		}
	}
	return false
}

// Path returns the child indices leading from the root to id.
func (t *Tree) Path(id NodeID) ([]int, error) {
	if err := t.check(id); err != nil {
		return nil, err
	}
	var path []int
	for n := id; n != t.root; n = t.get(n).parent {
		if t.get(n).parent == None {
			return nil, fmt.Errorf("%w: node %d is detached", ErrNoParent, id)
		}
		path = append(path, t.IndexOf(n))
	}
	slices.Reverse(path)
	return path, nil
}

// NodeAt follows child indices from the root.
func (t *Tree) NodeAt(path ...int) (NodeID, error) {
	n := t.root
	for depth, i := range path {
		if t.get(n).kind != KindContainer || i < 0 || i >= t.get(n).count {
			return None, fmt.Errorf("%w: path %v unreachable at depth %d", ErrInvalidPosition, path, depth)
		}
		n = t.childList(n)[i]
	}
	return n, nil
}

// TextContent concatenates the text of every leaf under id in document order.
func (t *Tree) TextContent(id NodeID) string {
	if !t.Has(id) {
		return ""
	}
	var buf []uint16
	var collect func(NodeID)
	collect = func(n NodeID) {
		nd := t.get(n)
		if nd.kind == KindLeaf {
			buf = append(buf, nd.text...)
			return
		}
		for c := nd.first; c != None; c = t.get(c).next {
			collect(c)
		}
	}
	collect(id)
	return decodeText(buf)
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}
