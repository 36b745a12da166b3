package doctree

import (
	"errors"
	"fmt"
)

type mutatorState uint8

const (
	mutatorOpen mutatorState = iota
	mutatorCommitted
	mutatorAborted
)

// Mutator is the only way to change an attached document. It holds the tree
// exclusively from Begin until Commit or Abort and accumulates a Mapper from
// positions before the transaction to positions after it.
//
// The first failing operation aborts the transaction. Changes already applied
// stay in the tree; callers needing atomicity edit a Clone and swap it in.
type Mutator struct {
	tree   *Tree
	mapper Mapper
	state  mutatorState
	err    error
}

// Begin starts a transaction. Only one Mutator may be open per tree.
func (t *Tree) Begin() (*Mutator, error) {
	if t.mutating {
		return nil, ErrMutatorActive
	}
	t.mutating = true
	return &Mutator{tree: t}, nil
}

// Mutating reports whether a transaction is open on t.
func (t *Tree) Mutating() bool {
	return t.mutating
}

// Tree returns the tree being edited.
func (m *Mutator) Tree() *Tree {
	return m.tree
}

// Err returns the error that aborted the transaction, if any.
func (m *Mutator) Err() error {
	return m.err
}

func (m *Mutator) ready() error {
	switch m.state {
	case mutatorCommitted:
		return fmt.Errorf("%w: transaction already committed", ErrIllegalState)
	case mutatorAborted:
		if m.err != nil {
			return fmt.Errorf("%w: %w", ErrTransactionAborted, m.err)
		}
		return ErrTransactionAborted
	}
	return nil
}

// record folds a step's mapper into the transaction and aborts on failure.
func (m *Mutator) record(step Mapper, err error) error {
	m.mapper.append(step)
	if err != nil {
		m.fail(err)
		return err
	}
	return nil
}

func (m *Mutator) fail(err error) {
	m.err = err
	m.release(mutatorAborted)
}

func (m *Mutator) release(s mutatorState) {
	if m.state == mutatorOpen {
		m.tree.mutating = false
	}
	m.state = s
}

// Split splits at p and returns the resulting container boundary. With
// splitParent the container holding that boundary is split as well.
func (m *Mutator) Split(p Position, splitParent bool) (Position, error) {
	if err := m.ready(); err != nil {
		return Position{}, err
	}
	res, step, err := m.tree.split(p, splitParent)
	return res, m.record(step, err)
}

// SplitUntil splits at p and every container above it up to ancestor.
func (m *Mutator) SplitUntil(p Position, ancestor NodeID) (Position, error) {
	if err := m.ready(); err != nil {
		return Position{}, err
	}
	res, step, err := m.tree.splitUntil(p, ancestor)
	return res, m.record(step, err)
}

// Insert replaces the content of r with nodes, which must be detached nodes
// of this tree, and returns the range spanning them.
func (m *Mutator) Insert(r Range, nodes ...NodeID) (Range, error) {
	if err := m.ready(); err != nil {
		return Range{}, err
	}
	res, step, err := m.tree.insert(r, nodes)
	return res, m.record(step, err)
}

// Remove detaches the content of r and returns the removed nodes in
// document order together with the boundary they occupied.
func (m *Mutator) Remove(r Range) ([]NodeID, Position, error) {
	if err := m.ready(); err != nil {
		return nil, Position{}, err
	}
	removed, at, step, err := m.tree.remove(r)
	return removed, at, m.record(step, err)
}

// Move relocates the content of r to target and returns its new range.
func (m *Mutator) Move(r Range, target Position) (Range, error) {
	if err := m.ready(); err != nil {
		return Range{}, err
	}
	res, step, err := m.tree.move(r, target)
	return res, m.record(step, err)
}

// InsertText splices text at p and returns the range it occupies.
func (m *Mutator) InsertText(p Position, text string) (Range, error) {
	if err := m.ready(); err != nil {
		return Range{}, err
	}
	res, step, err := m.tree.insertText(p, text)
	return res, m.record(step, err)
}

// SetMark applies mark name=value to the text covered by r.
func (m *Mutator) SetMark(r Range, name, value string) (Range, error) {
	if err := m.ready(); err != nil {
		return Range{}, err
	}
	if value == "" {
		return Range{}, m.record(Mapper{}, fmt.Errorf("%w: empty value for mark %q", ErrIllegalState, name))
	}
	res, step, err := m.tree.setMark(r, name, value)
	return res, m.record(step, err)
}

// ClearMark removes mark name from the text covered by r.
func (m *Mutator) ClearMark(r Range, name string) (Range, error) {
	if err := m.ready(); err != nil {
		return Range{}, err
	}
	res, step, err := m.tree.setMark(r, name, "")
	return res, m.record(step, err)
}

// SetAttribute sets a container attribute; an empty value removes it.
func (m *Mutator) SetAttribute(n NodeID, key, value string) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.record(Mapper{}, m.tree.setAttribute(n, key, value))
}

// Merge joins n with its next sibling and returns the seam position.
func (m *Mutator) Merge(n NodeID) (Position, error) {
	if err := m.ready(); err != nil {
		return Position{}, err
	}
	res, step, err := m.tree.merge(n)
	return res, m.record(step, err)
}

// Normalize merges adjacent leaves with equal marks and drops empty leaves
// under n.
func (m *Mutator) Normalize(n NodeID) error {
	if err := m.ready(); err != nil {
		return err
	}
	step, err := m.tree.normalize(n)
	return m.record(step, err)
}

// Mapper returns the mapping accumulated so far.
func (m *Mutator) Mapper() Mapper {
	return Mapper{steps: append([]stepMap(nil), m.mapper.steps...)}
}

// Map carries a position from before the transaction to the current tree.
func (m *Mutator) Map(p Position, bias Bias) Position {
	return m.mapper.Map(p, bias)
}

// MapRange carries a range from before the transaction to the current tree.
func (m *Mutator) MapRange(r Range, bias Bias) Range {
	return m.mapper.MapRange(r, bias)
}

// Commit ends the transaction and returns the composite Mapper. Committing
// an aborted transaction reports why it was aborted.
func (m *Mutator) Commit() (Mapper, error) {
	if err := m.ready(); err != nil {
		return m.Mapper(), err
	}
	m.release(mutatorCommitted)
	return m.Mapper(), nil
}

// Abort ends the transaction without further changes. It is safe to call
// after Commit.
func (m *Mutator) Abort() {
	if m.state == mutatorOpen {
		m.release(mutatorAborted)
	}
}

// Update runs fn inside a transaction and maps sel, the caller's selection,
// through the result. fn's error aborts the transaction and is returned.
func (t *Tree) Update(sel Range, bias Bias, fn func(*Mutator) error) (Range, Mapper, error) {
	m, err := t.Begin()
	if err != nil {
		return sel, Mapper{}, err
	}
	if err := fn(m); err != nil {
		m.Abort()
		return sel, m.Mapper(), err
	}
	mp, err := m.Commit()
	if err != nil {
		return sel, mp, err
	}
	if sel.IsZero() {
		return sel, mp, nil
	}
	return mp.MapRange(sel, bias), mp, nil
}

// IsAborted reports whether err came from an aborted transaction.
func IsAborted(err error) bool {
	return errors.Is(err, ErrTransactionAborted)
}
