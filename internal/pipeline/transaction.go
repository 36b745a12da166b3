package pipeline

import (
	"fmt"

	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/google/uuid"
)

// Step operations.
const (
	OpSplit        = "split"
	OpSplitUntil   = "split_until"
	OpInsert       = "insert"
	OpInsertText   = "insert_text"
	OpRemove       = "remove"
	OpMove         = "move"
	OpSetMark      = "set_mark"
	OpClearMark    = "clear_mark"
	OpSetAttribute = "set_attribute"
	OpMerge        = "merge"
	OpNormalize    = "normalize"
)

// Step is one edit of a transaction as sent by a client. Paths address the
// document before the transaction. A node operand is given either as a path
// in Node or as a bridge identity in NodeID.
type Step struct {
	Op          string             `json:"op"`
	At          []int              `json:"at,omitempty"`
	Start       []int              `json:"start,omitempty"`
	End         []int              `json:"end,omitempty"`
	Target      []int              `json:"target,omitempty"`
	Node        []int              `json:"node,omitempty"`
	NodeID      string             `json:"node_id,omitempty"`
	SplitParent bool               `json:"split_parent,omitempty"`
	Text        string             `json:"text,omitempty"`
	Name        string             `json:"name,omitempty"`
	Key         string             `json:"key,omitempty"`
	Value       string             `json:"value,omitempty"`
	Bias        string             `json:"bias,omitempty"`
	Nodes       []doctree.Fragment `json:"nodes,omitempty"`
}

// RangePaths is a range expressed as two root-relative paths.
type RangePaths struct {
	Start []int `json:"start"`
	End   []int `json:"end"`
}

func (r RangePaths) resolve(tree *doctree.Tree) (doctree.Range, error) {
	start, err := tree.PositionAt(r.Start...)
	if err != nil {
		return doctree.Range{}, fmt.Errorf("start: %w", err)
	}
	end, err := tree.PositionAt(r.End...)
	if err != nil {
		return doctree.Range{}, fmt.Errorf("end: %w", err)
	}
	return doctree.NewRange(start, end)
}

// Transaction is an ordered list of steps applied atomically. Selection, if
// set, is carried through the edits and returned in the Result.
type Transaction struct {
	Steps     []Step      `json:"steps"`
	Selection *RangePaths `json:"selection,omitempty"`
	Bias      string      `json:"bias,omitempty"`
}

// Result describes a committed transaction.
type Result struct {
	Version      int         `json:"version"`
	Steps        int         `json:"steps"`
	Selection    *RangePaths `json:"selection,omitempty"`
	NodesAdded   int         `json:"nodes_added"`
	NodesRemoved int         `json:"nodes_removed"`
}

// StepError reports which step of a transaction failed.
type StepError struct {
	Index int
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// compiledStep has its operands resolved against the tree as it was before
// the transaction.
type compiledStep struct {
	op  string
	run func(m *doctree.Mutator) error
}

func (d *Document) compile(steps []Step, bias doctree.Bias) ([]compiledStep, error) {
	out := make([]compiledStep, 0, len(steps))
	for i, s := range steps {
		c, err := d.compileStep(s, bias)
		if err != nil {
			return nil, &StepError{Index: i, Op: s.Op, Err: err}
		}
		out = append(out, compiledStep{op: s.Op, run: c})
	}
	return out, nil
}

func (d *Document) compileStep(s Step, bias doctree.Bias) (func(m *doctree.Mutator) error, error) {
	if s.Bias != "" {
		b, err := doctree.ParseBias(s.Bias)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStep, err)
		}
		bias = b
	}

	switch s.Op {
	case OpSplit:
		p, err := d.position(s.At)
		if err != nil {
			return nil, err
		}
		return func(m *doctree.Mutator) error {
			_, err := m.Split(m.Map(p, bias), s.SplitParent)
			return err
		}, nil

	case OpSplitUntil:
		p, err := d.position(s.At)
		if err != nil {
			return nil, err
		}
		anc, err := d.node(s)
		if err != nil {
			return nil, err
		}
		return func(m *doctree.Mutator) error {
			_, err := m.SplitUntil(m.Map(p, bias), anc)
			return err
		}, nil

	case OpInsert:
		r, err := d.stepRange(s)
		if err != nil {
			return nil, err
		}
		nodes := make([]doctree.NodeID, 0, len(s.Nodes))
		for i, f := range s.Nodes {
			n, err := d.tree.Import(f.Source())
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			nodes = append(nodes, n)
		}
		return func(m *doctree.Mutator) error {
			_, err := m.Insert(m.MapRange(r, bias), nodes...)
			return err
		}, nil

	case OpInsertText:
		p, err := d.position(s.At)
		if err != nil {
			return nil, err
		}
		return func(m *doctree.Mutator) error {
			_, err := m.InsertText(m.Map(p, bias), s.Text)
			return err
		}, nil

	case OpRemove:
		r, err := d.stepRange(s)
		if err != nil {
			return nil, err
		}
		return func(m *doctree.Mutator) error {
			_, _, err := m.Remove(m.MapRange(r, bias))
			return err
		}, nil

	case OpMove:
		r, err := d.stepRange(s)
		if err != nil {
			return nil, err
		}
		target, err := d.position(s.Target)
		if err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		return func(m *doctree.Mutator) error {
			_, err := m.Move(m.MapRange(r, bias), m.Map(target, bias))
			return err
		}, nil

	case OpSetMark, OpClearMark:
		if s.Name == "" {
			return nil, fmt.Errorf("%w: mark name is required", ErrInvalidStep)
		}
		r, err := d.stepRange(s)
		if err != nil {
			return nil, err
		}
		if s.Op == OpClearMark {
			return func(m *doctree.Mutator) error {
				_, err := m.ClearMark(m.MapRange(r, bias), s.Name)
				return err
			}, nil
		}
		value := s.Value
		if value == "" {
			value = doctree.MarkOn
		}
		return func(m *doctree.Mutator) error {
			_, err := m.SetMark(m.MapRange(r, bias), s.Name, value)
			return err
		}, nil

	case OpSetAttribute:
		if s.Key == "" {
			return nil, fmt.Errorf("%w: attribute key is required", ErrInvalidStep)
		}
		n, err := d.node(s)
		if err != nil {
			return nil, err
		}
		return func(m *doctree.Mutator) error {
			return m.SetAttribute(n, s.Key, s.Value)
		}, nil

	case OpMerge:
		n, err := d.node(s)
		if err != nil {
			return nil, err
		}
		return func(m *doctree.Mutator) error {
			_, err := m.Merge(n)
			return err
		}, nil

	case OpNormalize:
		n := d.tree.Root()
		if s.Node != nil || s.NodeID != "" {
			var err error
			if n, err = d.node(s); err != nil {
				return nil, err
			}
		}
		return func(m *doctree.Mutator) error {
			return m.Normalize(n)
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidStep, s.Op)
	}
}

func (d *Document) position(path []int) (doctree.Position, error) {
	if path == nil {
		return doctree.Position{}, fmt.Errorf("%w: position is required", ErrInvalidStep)
	}
	return d.tree.PositionAt(path...)
}

// stepRange reads Start/End, falling back to a collapsed range at At.
func (d *Document) stepRange(s Step) (doctree.Range, error) {
	if s.Start == nil {
		p, err := d.position(s.At)
		if err != nil {
			return doctree.Range{}, err
		}
		return doctree.CollapsedAt(p), nil
	}
	end := s.End
	if end == nil {
		end = s.Start
	}
	return RangePaths{Start: s.Start, End: end}.resolve(d.tree)
}

func (d *Document) node(s Step) (doctree.NodeID, error) {
	if s.NodeID != "" {
		id, err := uuid.Parse(s.NodeID)
		if err != nil {
			return doctree.None, fmt.Errorf("%w: node_id: %w", ErrInvalidStep, err)
		}
		return d.bridge.Node(id)
	}
	if s.Node == nil {
		return doctree.None, fmt.Errorf("%w: node is required", ErrInvalidStep)
	}
	return d.tree.NodeAt(s.Node...)
}
