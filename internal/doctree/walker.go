package doctree

import (
	"iter"
	"slices"
)

// FilterResult tells a Walker what to do with a node.
type FilterResult uint8

const (
	// Accept yields the node.
	Accept FilterResult = iota
	// Skip hides the node but still visits its descendants.
	Skip
	// Reject hides the node and its whole subtree.
	Reject
)

// Filter classifies nodes during a walk.
type Filter func(NodeID) FilterResult

// Only adapts a predicate into a Filter that accepts matching nodes and
// skips the rest.
func Only(pred func(NodeID) bool) Filter {
	return func(n NodeID) FilterResult {
		if pred(n) {
			return Accept
		}
		return Skip
	}
}

// WalkOptions configures a Walker. The zero value visits every node in
// document order.
type WalkOptions struct {
	Filter Filter

	// Shallow stops the walk from descending into accepted nodes.
	Shallow bool

	// Backward yields nodes in exact reverse document order.
	Backward bool
}

type walkFrame struct {
	id   NodeID
	post bool
}

// Walker is a single-pass, pre-order traversal over part of a tree. It keeps
// an explicit stack, so deep trees never grow the goroutine stack. The tree
// must not change while a walk is in progress.
type Walker struct {
	tree   *Tree
	opts   WalkOptions
	stack  []walkFrame
	scope  *Range
	anchor NodeID
}

// NewWalker walks root and its descendants.
func NewWalker(t *Tree, root NodeID, opts WalkOptions) *Walker {
	w := &Walker{tree: t, opts: opts, anchor: None}
	if t.Has(root) {
		w.stack = append(w.stack, walkFrame{id: root})
	}
	return w
}

// NewRangeWalker walks every node intersecting r: nodes whose interior
// overlaps r by at least one position step. The common ancestor of the
// boundaries is not itself yielded.
func NewRangeWalker(r Range, opts WalkOptions) (*Walker, error) {
	ca, err := r.CommonAncestor()
	if err != nil {
		return nil, err
	}
	w := NewWalker(r.Tree(), ca, opts)
	w.scope = &r
	w.anchor = ca
	return w, nil
}

// Walk returns an iterator over root and its descendants.
func (t *Tree) Walk(root NodeID, opts WalkOptions) iter.Seq[NodeID] {
	return NewWalker(t, root, opts).All()
}

// Next returns the next node, or false when the walk is over.
func (w *Walker) Next() (NodeID, bool) {
	for len(w.stack) > 0 {
		f := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		if f.post {
			return f.id, true
		}

		res := w.classify(f.id)
		if res == Reject {
			continue
		}
		descend := res == Skip || !w.opts.Shallow
		children := w.tree.childList(f.id)

		if w.opts.Backward {
			if res == Accept {
				w.stack = append(w.stack, walkFrame{id: f.id, post: true})
			}
			if descend {
				for _, c := range children {
					w.stack = append(w.stack, walkFrame{id: c})
				}
			}
			continue
		}

		if descend {
			for _, c := range slices.Backward(children) {
				w.stack = append(w.stack, walkFrame{id: c})
			}
		}
		if res == Accept {
			return f.id, true
		}
	}
	return None, false
}

// All drains the walker as an iterator.
func (w *Walker) All() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for {
			n, ok := w.Next()
			if !ok || !yield(n) {
				return
			}
		}
	}
}

func (w *Walker) classify(n NodeID) FilterResult {
	if w.scope != nil {
		if n == w.anchor {
			return Skip
		}
		if !w.intersects(n) {
			return Reject
		}
	}
	if w.opts.Filter == nil {
		return Accept
	}
	return w.opts.Filter(n)
}

// intersects reports whether the interior of n, from offset 0 to its max
// offset, overlaps the walker's range.
func (w *Walker) intersects(n NodeID) bool {
	path, err := w.tree.Path(n)
	if err != nil {
		return false
	}
	first := joinPath(path, 0)
	last := joinPath(path, w.tree.MaxOffset(n))
	return comparePaths(w.scope.start.path, last) < 0 && comparePaths(first, w.scope.end.path) < 0
}
