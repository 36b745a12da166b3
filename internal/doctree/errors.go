package doctree

import "errors"

// Addressing errors
var (
	// ErrInvalidPosition indicates a path or offset outside the tree's current bounds.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrMisbehavedRange indicates a range whose boundaries are unresolvable,
	// belong to different trees, or are out of document order.
	ErrMisbehavedRange = errors.New("misbehaved range")
)

// Structure errors
var (
	// ErrNoParent indicates an operation that needs an ancestor was invoked on
	// the root or on a detached node.
	ErrNoParent = errors.New("node has no parent")

	// ErrLeafChildren indicates an attempt to give a leaf children.
	ErrLeafChildren = errors.New("leaf cannot have children")

	// ErrForeignNode indicates a node handle that does not belong to the tree.
	ErrForeignNode = errors.New("node does not belong to this tree")

	// ErrAttached indicates an insert of a node that already has a parent.
	ErrAttached = errors.New("node is already attached")
)

// Execution errors
var (
	// ErrIllegalState indicates a violated algorithm precondition. It points at
	// a bug in the calling layer; the current interaction should be abandoned.
	ErrIllegalState = errors.New("illegal execution state")

	// ErrMutatorActive indicates a second Mutator was requested while one is open.
	ErrMutatorActive = errors.New("another mutator owns the tree")

	// ErrTransactionAborted indicates use of a Mutator after a failed step or
	// after it was committed.
	ErrTransactionAborted = errors.New("transaction aborted")
)
