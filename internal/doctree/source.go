package doctree

import "fmt"

// Source is any external representation that can be turned into nodes by
// recursive descent. Leaves report text and marks; containers report a tag,
// attributes and children.
type Source interface {
	IsLeaf() bool
	Tag() string
	Attributes() map[string]string
	Text() string
	Marks() map[string]string
	Children() []Source
}

// Build creates a tree whose root is built from src, which must be a container.
func Build(src Source) (*Tree, error) {
	if src.IsLeaf() {
		return nil, fmt.Errorf("%w: document root must be a container", ErrLeafChildren)
	}
	t := NewTree(src.Tag(), src.Attributes())
	for _, c := range src.Children() {
		n, err := t.Import(c)
		if err != nil {
			return nil, err
		}
		t.link(t.root, n, None)
	}
	return t, nil
}

// Import builds a detached subtree from src and returns its top node.
func (t *Tree) Import(src Source) (NodeID, error) {
	if src.IsLeaf() {
		if len(src.Children()) > 0 {
			return None, fmt.Errorf("%w: leaf %q", ErrLeafChildren, src.Text())
		}
		return t.CreateLeaf(src.Text(), src.Marks()), nil
	}
	n := t.CreateContainer(src.Tag(), src.Attributes())
	for _, c := range src.Children() {
		child, err := t.Import(c)
		if err != nil {
			return None, err
		}
		t.link(n, child, None)
	}
	return n, nil
}

// Fragment is a plain value description of a subtree, also used as the JSON
// snapshot format. A fragment without a type is a leaf.
type Fragment struct {
	Type     string            `json:"type,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Marks    map[string]string `json:"marks,omitempty"`
	Children []Fragment        `json:"children,omitempty"`
}

// Source adapts f for Build and Import.
func (f Fragment) Source() Source {
	return fragmentSource{f}
}

type fragmentSource struct{ f Fragment }

func (s fragmentSource) IsLeaf() bool                  { return s.f.Type == "" }
func (s fragmentSource) Tag() string                   { return s.f.Type }
func (s fragmentSource) Attributes() map[string]string { return s.f.Attrs }
func (s fragmentSource) Text() string                  { return s.f.Text }
func (s fragmentSource) Marks() map[string]string      { return s.f.Marks }

func (s fragmentSource) Children() []Source {
	out := make([]Source, len(s.f.Children))
	for i, c := range s.f.Children {
		out[i] = fragmentSource{c}
	}
	return out
}

// Fragment exports the subtree at id.
func (t *Tree) Fragment(id NodeID) Fragment {
	if !t.Has(id) {
		return Fragment{}
	}
	nd := t.get(id)
	if nd.kind == KindLeaf {
		return Fragment{Text: decodeText(nd.text), Marks: copyMap(nd.marks)}
	}
	f := Fragment{Type: nd.tag, Attrs: copyMap(nd.attrs)}
	for c := nd.first; c != None; c = t.get(c).next {
		f.Children = append(f.Children, t.Fragment(c))
	}
	return f
}
