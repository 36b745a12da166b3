package writer

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
)

// Writer renders a document tree into an external format.
type Writer interface {
	Write(w io.Writer, tree *doctree.Tree) error
}

// Formats lists the format names accepted by ForFormat.
var Formats = []string{"json", "html", "markdown", "text", "docx"}

// ForFormat returns the writer for a format name.
func ForFormat(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return JSON{}, nil
	case "html":
		return HTML{}, nil
	case "markdown", "md":
		return Markdown{}, nil
	case "text", "txt":
		return Text{}, nil
	case "docx":
		return DOCX{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ContentType returns the MIME type served for a format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "html":
		return "text/html; charset=utf-8"
	case "markdown", "md":
		return "text/markdown; charset=utf-8"
	case "text", "txt":
		return "text/plain; charset=utf-8"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/json"
	}
}

// Extension returns the file extension for a format, with the dot.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "html":
		return ".html"
	case "markdown", "md":
		return ".md"
	case "text", "txt":
		return ".txt"
	case "docx":
		return ".docx"
	default:
		return ".json"
	}
}

// inlineTags are containers that sit inside a run of text rather than
// starting a block of their own.
var inlineTags = map[string]bool{
	"a":    true,
	"span": true,
	"img":  true,
	"br":   true,
	"sub":  true,
	"sup":  true,
	"abbr": true,
	"kbd":  true,
	"q":    true,
	"cite": true,
	"mark": true,
}

func isInline(tree *doctree.Tree, n doctree.NodeID) bool {
	return tree.IsLeaf(n) || inlineTags[tree.Tag(n)]
}

// textBlock reports whether n directly holds text.
func textBlock(tree *doctree.Tree, n doctree.NodeID) bool {
	if !tree.IsContainer(n) || inlineTags[tree.Tag(n)] {
		return false
	}
	for _, c := range tree.Children(n) {
		if isInline(tree, c) {
			return true
		}
	}
	return false
}

// headingLevel returns 1..6 for h1..h6, otherwise 0.
func headingLevel(tag string) int {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0
	}
	n, err := strconv.Atoi(tag[1:])
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
