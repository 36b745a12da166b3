package writer

import (
	"fmt"
	"io"

	"github.com/dgallion1/docmodel/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// markElements maps marks to the element that renders them, innermost first.
var markElements = []struct {
	mark string
	tag  string
}{
	{doctree.MarkCode, "code"},
	{doctree.MarkStrikethrough, "s"},
	{doctree.MarkUnderline, "u"},
	{doctree.MarkItalic, "em"},
	{doctree.MarkBold, "strong"},
}

// HTML renders containers as elements of their tag and leaves as text
// wrapped in one element per mark. Marks without an element become
// data-mark-* attributes on a span.
type HTML struct {
	// NodeID, when set, supplies a data-node-id attribute for every node.
	// Leaves get a span to carry it.
	NodeID func(doctree.NodeID) string

	// Fragment writes only the body content.
	Fragment bool
}

func (h HTML) Write(w io.Writer, tree *doctree.Tree) error {
	root := tree.Root()
	body := element("body", nil)
	h.identify(body, root)
	for _, c := range tree.Children(root) {
		body.AppendChild(h.node(tree, c))
	}

	if h.Fragment {
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(w, c); err != nil {
				return fmt.Errorf("render html: %w", err)
			}
		}
		return nil
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	page := element("html", nil)
	head := element("head", nil)
	if title, ok := tree.Attribute(root, "title"); ok {
		t := element("title", nil)
		t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		head.AppendChild(t)
	}
	page.AppendChild(head)
	page.AppendChild(body)
	doc.AppendChild(page)
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func (h HTML) node(tree *doctree.Tree, n doctree.NodeID) *html.Node {
	if tree.IsLeaf(n) {
		return h.leaf(tree, n)
	}
	el := element(tree.Tag(n), tree.Attributes(n))
	h.identify(el, n)
	for _, c := range tree.Children(n) {
		el.AppendChild(h.node(tree, c))
	}
	return el
}

func (h HTML) leaf(tree *doctree.Tree, n doctree.NodeID) *html.Node {
	out := &html.Node{Type: html.TextNode, Data: tree.Text(n)}
	marks := tree.Marks(n)
	for _, me := range markElements {
		if _, ok := marks[me.mark]; !ok {
			continue
		}
		out = wrap(element(me.tag, nil), out)
		delete(marks, me.mark)
	}
	if len(marks) > 0 {
		span := element("span", nil)
		for _, k := range sortedKeys(marks) {
			span.Attr = append(span.Attr, html.Attribute{Key: "data-mark-" + k, Val: marks[k]})
		}
		out = wrap(span, out)
	}
	if h.NodeID != nil {
		span := element("span", nil)
		h.identify(span, n)
		out = wrap(span, out)
	}
	return out
}

func (h HTML) identify(el *html.Node, n doctree.NodeID) {
	if h.NodeID == nil {
		return
	}
	if id := h.NodeID(n); id != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "data-node-id", Val: id})
	}
}

func element(tag string, attrs map[string]string) *html.Node {
	el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for _, k := range sortedKeys(attrs) {
		el.Attr = append(el.Attr, html.Attribute{Key: k, Val: attrs[k]})
	}
	return el
}

func wrap(parent, child *html.Node) *html.Node {
	parent.AppendChild(child)
	return parent
}
