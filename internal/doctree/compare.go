package doctree

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
)

// SameAs reports whether subtree a of t and subtree b of o have the same
// shape, tags, attributes, text and marks. Handles are not compared.
func SameAs(t *Tree, a NodeID, o *Tree, b NodeID) bool {
	if !t.Has(a) || !o.Has(b) {
		return false
	}
	x, y := t.get(a), o.get(b)
	if x.kind != y.kind {
		return false
	}
	if x.kind == KindLeaf {
		return slices.Equal(x.text, y.text) && maps.Equal(x.marks, y.marks)
	}
	if x.tag != y.tag || x.count != y.count || !maps.Equal(x.attrs, y.attrs) {
		return false
	}
	for c, d := x.first, y.first; c != None; c, d = t.get(c).next, o.get(d).next {
		if !SameAs(t, c, o, d) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the whole arena, detached nodes included, so
// handles of t remain valid in the copy. The copy has no open Mutator.
func (t *Tree) Clone() *Tree {
	c := &Tree{nodes: make([]node, len(t.nodes)), root: t.root}
	for i, n := range t.nodes {
		n.attrs = copyMap(n.attrs)
		n.marks = copyMap(n.marks)
		n.text = slices.Clone(n.text)
		n.children = nil
		c.nodes[i] = n
	}
	return c
}

// CloneNode copies id into a new detached node. With deep the whole subtree
// is copied; otherwise a container is copied without children.
func (t *Tree) CloneNode(id NodeID, deep bool) (NodeID, error) {
	if err := t.check(id); err != nil {
		return None, err
	}
	src := *t.get(id)
	if src.kind == KindLeaf {
		n := t.CreateLeaf("", src.marks)
		t.get(n).text = slices.Clone(src.text)
		return n, nil
	}
	n := t.CreateContainer(src.tag, src.attrs)
	if !deep {
		return n, nil
	}
	for _, c := range t.Children(id) {
		cc, err := t.CloneNode(c, true)
		if err != nil {
			return None, err
		}
		t.link(n, cc, None)
	}
	return n, nil
}

// Dump renders the subtree at id as indented text, one node per line.
func (t *Tree) Dump(id NodeID) string {
	var b strings.Builder
	t.dump(&b, id, 0)
	return b.String()
}

func (t *Tree) dump(b *strings.Builder, id NodeID, depth int) {
	if !t.Has(id) {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	nd := t.get(id)
	if nd.kind == KindLeaf {
		fmt.Fprintf(b, "%q", decodeText(nd.text))
		if len(nd.marks) > 0 {
			b.WriteString(" ")
			b.WriteString(formatPairs(nd.marks))
		}
		b.WriteString("\n")
		return
	}
	b.WriteString("<" + nd.tag)
	if len(nd.attrs) > 0 {
		b.WriteString(" ")
		b.WriteString(formatPairs(nd.attrs))
	}
	b.WriteString(">\n")
	for c := nd.first; c != None; c = t.get(c).next {
		t.dump(b, c, depth+1)
	}
}

func formatPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, m[k])
	}
	return strings.Join(parts, " ")
}
