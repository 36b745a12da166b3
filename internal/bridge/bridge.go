// Package bridge ties document nodes to stable external identities so a host
// (a browser editor, an API client) can name nodes and report selections
// without knowing tree paths.
package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/google/uuid"
)

// ErrUnknownNode indicates an identity with no attached node behind it.
var ErrUnknownNode = errors.New("unknown node")

// Point is a host-side position: a node identity and an offset inside it.
type Point struct {
	Node   uuid.UUID `json:"node"`
	Offset int       `json:"offset"`
}

// Selection is a host selection resolved into document order. Backward is
// set when the focus came before the anchor.
type Selection struct {
	Range    doctree.Range
	Backward bool
}

// Bridge is the side-table between NodeIDs and UUIDs for one tree.
type Bridge struct {
	mu    sync.RWMutex
	tree  *doctree.Tree
	ids   map[doctree.NodeID]uuid.UUID
	nodes map[uuid.UUID]doctree.NodeID
}

// New creates a bridge for tree and binds identities to every attached node.
func New(tree *doctree.Tree) *Bridge {
	b := &Bridge{
		tree:  tree,
		ids:   make(map[doctree.NodeID]uuid.UUID),
		nodes: make(map[uuid.UUID]doctree.NodeID),
	}
	b.Sync()
	return b
}

// Tree returns the tree the bridge addresses.
func (b *Bridge) Tree() *doctree.Tree {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tree
}

// Rebind points the bridge at tree, which must share NodeIDs with the
// current one (a Clone of it), and syncs.
func (b *Bridge) Rebind(tree *doctree.Tree) {
	b.mu.Lock()
	b.tree = tree
	b.mu.Unlock()
	b.Sync()
}

// Sync binds fresh identities to attached nodes that lack one and forgets
// nodes that are no longer attached. It returns the counts of each.
func (b *Bridge) Sync() (added, removed int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.tree
	seen := make(map[doctree.NodeID]bool, len(b.ids))
	for n := range t.Walk(t.Root(), doctree.WalkOptions{}) {
		seen[n] = true
		if _, ok := b.ids[n]; ok {
			continue
		}
		id := uuid.New()
		b.ids[n] = id
		b.nodes[id] = n
		added++
	}
	for n, id := range b.ids {
		if !seen[n] {
			delete(b.ids, n)
			delete(b.nodes, id)
			removed++
		}
	}
	return added, removed
}

// Len returns the number of bound nodes.
func (b *Bridge) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ids)
}

// ID returns the identity bound to n.
func (b *Bridge) ID(n doctree.NodeID) (uuid.UUID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.ids[n]
	return id, ok
}

// HTMLID formats the identity of n for writer.HTML.
func (b *Bridge) HTMLID(n doctree.NodeID) string {
	id, ok := b.ID(n)
	if !ok {
		return ""
	}
	return id.String()
}

// Node returns the node bound to id.
func (b *Bridge) Node(id uuid.UUID) (doctree.NodeID, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.nodes[id]
	if !ok {
		return doctree.None, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, nil
}

// Position resolves a host point into a document position.
func (b *Bridge) Position(p Point) (doctree.Position, error) {
	n, err := b.Node(p.Node)
	if err != nil {
		return doctree.Position{}, err
	}
	return b.Tree().In(n, p.Offset)
}

// Point expresses pos as a host point on the node the offset is taken in.
func (b *Bridge) Point(pos doctree.Position) (Point, error) {
	n, offset, err := pos.Resolve()
	if err != nil {
		return Point{}, err
	}
	id, ok := b.ID(n)
	if !ok {
		return Point{}, fmt.Errorf("%w: node %d has no identity", ErrUnknownNode, n)
	}
	return Point{Node: id, Offset: offset}, nil
}

// Selection orders anchor and focus into a Range.
func (b *Bridge) Selection(anchor, focus Point) (Selection, error) {
	a, err := b.Position(anchor)
	if err != nil {
		return Selection{}, fmt.Errorf("anchor: %w", err)
	}
	f, err := b.Position(focus)
	if err != nil {
		return Selection{}, fmt.Errorf("focus: %w", err)
	}
	backward := doctree.Compare(a, f) > 0
	if backward {
		a, f = f, a
	}
	r, err := doctree.NewRange(a, f)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Range: r, Backward: backward}, nil
}
