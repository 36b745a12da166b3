package parser

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"strconv"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	c := mdConverter{src: src}
	var children []doctree.Fragment
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		children = c.block(n, children)
	}
	return build(document(titleFromFilename(filename), children))
}

type mdConverter struct {
	src []byte
}

// block converts one block-level AST node and appends the result to out.
func (c mdConverter) block(n ast.Node, out []doctree.Fragment) []doctree.Fragment {
	switch node := n.(type) {
	case *ast.Heading:
		h := doctree.Fragment{Type: fmt.Sprintf("h%d", node.Level)}
		h.Children = c.inlines(node, nil, nil)
		return append(out, h)

	case *ast.Paragraph:
		return append(out, doctree.Fragment{Type: "p", Children: c.inlines(node, nil, nil)})

	case *ast.TextBlock:
		// Tight list items hold their text directly.
		return c.inlines(node, nil, out)

	case *ast.List:
		list := doctree.Fragment{Type: "ul"}
		if node.IsOrdered() {
			list.Type = "ol"
			if node.Start != 1 {
				list.Attrs = map[string]string{"start": strconv.Itoa(node.Start)}
			}
		}
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			list.Children = c.block(item, list.Children)
		}
		return append(out, list)

	case *ast.ListItem:
		return append(out, c.container("li", node))

	case *ast.Blockquote:
		return append(out, c.container("blockquote", node))

	case *ast.FencedCodeBlock:
		pre := block("pre", c.lines(node))
		if lang := node.Language(c.src); len(lang) > 0 {
			pre.Attrs = map[string]string{"lang": string(lang)}
		}
		return append(out, pre)

	case *ast.CodeBlock:
		return append(out, block("pre", c.lines(node)))

	case *ast.ThematicBreak:
		return append(out, doctree.Fragment{Type: "hr"})

	case *ast.HTMLBlock:
		return out
	}

	// Unknown blocks keep their children.
	return append(out, c.container("div", n))
}

func (c mdConverter) container(tag string, n ast.Node) doctree.Fragment {
	f := doctree.Fragment{Type: tag}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		f.Children = c.block(child, f.Children)
	}
	return f
}

func (c mdConverter) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(c.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// inlines converts the inline children of n, carrying marks from enclosing
// emphasis, and appends them to out.
func (c mdConverter) inlines(n ast.Node, marks map[string]string, out []doctree.Fragment) []doctree.Fragment {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			s := string(node.Segment.Value(c.src))
			switch {
			case node.HardLineBreak():
				s += "\n"
			case node.SoftLineBreak():
				s += " "
			}
			out = appendText(out, s, marks)

		case *ast.String:
			out = appendText(out, string(node.Value), marks)

		case *ast.Emphasis:
			mark := doctree.MarkItalic
			if node.Level >= 2 {
				mark = doctree.MarkBold
			}
			out = c.inlines(node, withMark(marks, mark), out)

		case *ast.CodeSpan:
			out = c.inlines(node, withMark(marks, doctree.MarkCode), out)

		case *ast.Link:
			a := doctree.Fragment{Type: "a", Attrs: map[string]string{"href": string(node.Destination)}}
			if len(node.Title) > 0 {
				a.Attrs["title"] = string(node.Title)
			}
			a.Children = c.inlines(node, marks, nil)
			out = append(out, a)

		case *ast.AutoLink:
			a := doctree.Fragment{Type: "a", Attrs: map[string]string{"href": string(node.URL(c.src))}}
			a.Children = appendText(nil, string(node.Label(c.src)), marks)
			out = append(out, a)

		case *ast.Image:
			img := doctree.Fragment{Type: "img", Attrs: map[string]string{
				"src": string(node.Destination),
				"alt": string(node.Text(c.src)),
			}}
			out = append(out, img)

		case *ast.RawHTML:
			// Inline markup has no tree equivalent here.

		default:
			out = c.inlines(child, marks, out)
		}
	}
	return out
}

// appendText adds s as a leaf, joining it to the previous leaf when the marks
// match. goldmark splits runs of text at every delimiter it considered.
func appendText(out []doctree.Fragment, s string, marks map[string]string) []doctree.Fragment {
	if s == "" {
		return out
	}
	if n := len(out); n > 0 && out[n-1].Type == "" && maps.Equal(out[n-1].Marks, marks) {
		out[n-1].Text += s
		return out
	}
	return append(out, doctree.Fragment{Text: s, Marks: marks})
}

func withMark(marks map[string]string, mark string) map[string]string {
	out := maps.Clone(marks)
	if out == nil {
		out = make(map[string]string, 1)
	}
	out[mark] = doctree.MarkOn
	return out
}
