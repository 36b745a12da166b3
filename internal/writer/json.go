package writer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/docmodel/internal/doctree"
)

// JSON writes the tree as a nested fragment snapshot.
type JSON struct {
	Indent bool
}

func (j JSON) Write(w io.Writer, tree *doctree.Tree) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(tree.Fragment(tree.Root())); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadJSON rebuilds a tree from a snapshot written by JSON.
func ReadJSON(r io.Reader) (*doctree.Tree, error) {
	var f doctree.Fragment
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return doctree.Build(f.Source())
}
