package parser

import (
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Elements become containers carrying their
// attributes; inline formatting elements become marks on the text below them.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Tree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := titleFromFilename(filename)
	// Extract title from <title> tag if present.
	if t := findTitle(doc); t != "" {
		title = t
	}

	// Find <body> or use whole document.
	body := findBody(doc)
	if body == nil {
		body = doc
	}
	tree, err := doctree.Build(htmlSource{
		n:     body,
		tag:   RootTag,
		attrs: map[string]string{"title": title},
	})
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return tree, nil
}

// markTags maps inline formatting elements to the leaf mark they imply.
var markTags = map[string]string{
	"b":      doctree.MarkBold,
	"strong": doctree.MarkBold,
	"i":      doctree.MarkItalic,
	"em":     doctree.MarkItalic,
	"u":      doctree.MarkUnderline,
	"s":      doctree.MarkStrikethrough,
	"strike": doctree.MarkStrikethrough,
	"del":    doctree.MarkStrikethrough,
	"code":   doctree.MarkCode,
}

// htmlSource presents an html.Node as a doctree.Source. tag and attrs
// override the element's own when set.
type htmlSource struct {
	n     *html.Node
	marks map[string]string
	tag   string
	attrs map[string]string
	pre   bool
}

func (s htmlSource) IsLeaf() bool {
	return s.n.Type == html.TextNode
}

func (s htmlSource) Tag() string {
	if s.tag != "" {
		return s.tag
	}
	return s.n.Data
}

func (s htmlSource) Attributes() map[string]string {
	if s.attrs != nil {
		return s.attrs
	}
	if len(s.n.Attr) == 0 {
		return nil
	}
	out := make(map[string]string, len(s.n.Attr))
	for _, a := range s.n.Attr {
		out[a.Key] = a.Val
	}
	return out
}

func (s htmlSource) Text() string {
	return s.n.Data
}

func (s htmlSource) Marks() map[string]string {
	return s.marks
}

func (s htmlSource) Children() []doctree.Source {
	if s.IsLeaf() {
		return nil
	}
	var out []doctree.Source
	s.collect(s.n, s.marks, s.pre || s.n.Data == "pre", &out)
	return out
}

// collect appends the sources below n, flattening formatting elements into
// marks on their descendants.
func (s htmlSource) collect(n *html.Node, marks map[string]string, pre bool, out *[]doctree.Source) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			// Whitespace carrying a line break only formats the markup.
			if !pre && strings.TrimSpace(c.Data) == "" && strings.ContainsAny(c.Data, "\r\n") {
				continue
			}
			*out = append(*out, htmlSource{n: c, marks: marks})
		case html.ElementNode:
			switch c.Data {
			case "script", "style", "head", "noscript", "template":
				continue
			}
			if mark, ok := markTags[c.Data]; ok {
				inner := maps.Clone(marks)
				if inner == nil {
					inner = make(map[string]string, 1)
				}
				inner[mark] = doctree.MarkOn
				s.collect(c, inner, pre, out)
				continue
			}
			*out = append(*out, htmlSource{n: c, marks: marks, pre: pre})
		}
	}
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
