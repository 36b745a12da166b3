package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
)

// RootTag is the tag of every parsed document's root container.
const RootTag = "document"

// Parser converts raw document bytes into a document tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Tree, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tune individual parsers.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// titleFromFilename strips directory and extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func document(title string, children []doctree.Fragment) doctree.Fragment {
	return doctree.Fragment{
		Type:     RootTag,
		Attrs:    map[string]string{"title": title},
		Children: children,
	}
}

func build(f doctree.Fragment) (*doctree.Tree, error) {
	tree, err := doctree.Build(f.Source())
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return tree, nil
}

func block(tag, text string) doctree.Fragment {
	return doctree.Fragment{Type: tag, Children: []doctree.Fragment{{Text: text}}}
}

// Title returns the document title stored on the root.
func Title(tree *doctree.Tree) string {
	v, _ := tree.Attribute(tree.Root(), "title")
	return v
}
