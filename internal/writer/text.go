package writer

import (
	"io"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
)

// Text writes the text of every block, separated by blank lines.
type Text struct{}

func (Text) Write(w io.Writer, tree *doctree.Tree) error {
	blocks := TextBlocks(tree, tree.Root())
	if len(blocks) == 0 {
		return nil
	}
	_, err := io.WriteString(w, strings.Join(blocks, "\n\n")+"\n")
	return err
}

// TextBlocks returns the text of each block under root in document order. A
// block is the outermost container that directly holds text.
func TextBlocks(tree *doctree.Tree, root doctree.NodeID) []string {
	filter := func(n doctree.NodeID) doctree.FilterResult {
		switch {
		case tree.IsLeaf(n):
			return doctree.Reject
		case textBlock(tree, n):
			return doctree.Accept
		}
		return doctree.Skip
	}
	var out []string
	for n := range tree.Walk(root, doctree.WalkOptions{Filter: filter, Shallow: true}) {
		s := tree.TextContent(n)
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
