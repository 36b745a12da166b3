package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/fatih/color"
)

var (
	pathColor = color.New(color.FgHiBlack)
	tagColor  = color.New(color.FgCyan, color.Bold)
	attrColor = color.New(color.FgMagenta)
	textColor = color.New(color.FgGreen)
	markColor = color.New(color.FgYellow)
)

// dumpTree prints one line per node: its path, then the tag and attributes
// of a container or the quoted text and marks of a leaf.
func dumpTree(w io.Writer, tree *doctree.Tree) error {
	for n := range tree.Walk(tree.Root(), doctree.WalkOptions{}) {
		path, err := tree.Path(n)
		if err != nil {
			return err
		}
		var line strings.Builder
		line.WriteString(strings.Repeat("  ", len(path)))
		line.WriteString(pathColor.Sprint(fmt.Sprint(path)))
		line.WriteByte(' ')
		if tree.IsLeaf(n) {
			line.WriteString(textColor.Sprintf("%q", tree.Text(n)))
			for _, k := range sortedKeys(tree.Marks(n)) {
				v, _ := tree.Mark(n, k)
				line.WriteByte(' ')
				if v == doctree.MarkOn {
					line.WriteString(markColor.Sprint(k))
				} else {
					line.WriteString(markColor.Sprintf("%s=%s", k, v))
				}
			}
		} else {
			line.WriteString(tagColor.Sprint(tree.Tag(n)))
			attrs := tree.Attributes(n)
			for _, k := range sortedKeys(attrs) {
				line.WriteByte(' ')
				line.WriteString(attrColor.Sprintf("%s=%q", k, attrs[k]))
			}
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
