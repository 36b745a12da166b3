package writer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
)

// Markdown writes CommonMark, with pipe tables for table containers.
// Underline and custom marks have no Markdown form and are dropped.
type Markdown struct{}

func (Markdown) Write(w io.Writer, tree *doctree.Tree) error {
	m := mdWriter{tree: tree}
	out := strings.Join(m.blocks(tree.Root()), "\n\n")
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
)

type mdWriter struct {
	tree *doctree.Tree
}

// blocks renders the children of n. Consecutive inline children form one
// paragraph.
func (m mdWriter) blocks(n doctree.NodeID) []string {
	var out []string
	var run strings.Builder
	flush := func() {
		if s := strings.TrimSpace(run.String()); s != "" {
			out = append(out, s)
		}
		run.Reset()
	}
	for _, c := range m.tree.Children(n) {
		if isInline(m.tree, c) {
			run.WriteString(m.inline(c))
			continue
		}
		flush()
		if s := m.block(c); s != "" {
			out = append(out, s)
		}
	}
	flush()
	return out
}

func (m mdWriter) block(n doctree.NodeID) string {
	tag := m.tree.Tag(n)
	if level := headingLevel(tag); level > 0 {
		return strings.Repeat("#", level) + " " + m.inlines(n)
	}
	switch tag {
	case "p":
		return m.inlines(n)
	case "pre":
		lang, _ := m.tree.Attribute(n, "lang")
		return "```" + lang + "\n" + m.tree.TextContent(n) + "\n```"
	case "hr":
		return "---"
	case "blockquote":
		return prefixLines(strings.Join(m.blocks(n), "\n\n"), "> ")
	case "ul", "ol":
		return m.list(n)
	case "table":
		return m.table(n)
	}
	return strings.Join(m.blocks(n), "\n\n")
}

func (m mdWriter) list(n doctree.NodeID) string {
	ordered := m.tree.Tag(n) == "ol"
	start := 1
	if v, ok := m.tree.Attribute(n, "start"); ok {
		if s, err := strconv.Atoi(v); err == nil {
			start = s
		}
	}
	var items []string
	for i, li := range m.tree.Children(n) {
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", start+i)
		}
		var body string
		if isInline(m.tree, li) {
			body = m.inline(li)
		} else {
			body = strings.Join(m.blocks(li), "\n")
		}
		items = append(items, marker+indentLines(body, len(marker)))
	}
	return strings.Join(items, "\n")
}

func (m mdWriter) table(n doctree.NodeID) string {
	var lines []string
	for i, tr := range m.tree.Children(n) {
		var cells []string
		for _, cell := range m.tree.Children(tr) {
			text := strings.Join(m.blocks(cell), " ")
			cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			lines = append(lines, "|"+strings.Repeat(" --- |", len(cells)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m mdWriter) inlines(n doctree.NodeID) string {
	var b strings.Builder
	for _, c := range m.tree.Children(n) {
		b.WriteString(m.inline(c))
	}
	return strings.TrimSpace(b.String())
}

func (m mdWriter) inline(n doctree.NodeID) string {
	if m.tree.IsLeaf(n) {
		return mdLeaf(m.tree.Text(n), m.tree.Marks(n))
	}
	switch m.tree.Tag(n) {
	case "a":
		href, _ := m.tree.Attribute(n, "href")
		dest := href
		if title, ok := m.tree.Attribute(n, "title"); ok {
			dest += ` "` + title + `"`
		}
		return "[" + m.inlines(n) + "](" + dest + ")"
	case "img":
		src, _ := m.tree.Attribute(n, "src")
		alt, _ := m.tree.Attribute(n, "alt")
		return "![" + mdEscaper.Replace(alt) + "](" + src + ")"
	case "br":
		return "\\\n"
	}
	return m.inlines(n)
}

// mdLeaf renders one text run. Emphasis delimiters may not touch whitespace,
// so surrounding spaces move outside them.
func mdLeaf(text string, marks map[string]string) string {
	if text == "" {
		return ""
	}
	if _, ok := marks[doctree.MarkCode]; ok {
		fence := "`"
		if strings.Contains(text, "`") {
			return "`` " + text + " ``"
		}
		return fence + text + fence
	}
	body := strings.TrimSpace(text)
	if body == "" {
		return text
	}
	lead := text[:strings.Index(text, body)]
	trail := text[len(lead)+len(body):]

	body = mdEscaper.Replace(body)
	if _, ok := marks[doctree.MarkStrikethrough]; ok {
		body = "~~" + body + "~~"
	}
	if _, ok := marks[doctree.MarkItalic]; ok {
		body = "*" + body + "*"
	}
	if _, ok := marks[doctree.MarkBold]; ok {
		body = "**" + body + "**"
	}
	return lead + body + trail
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(prefix+l, " ")
	}
	return strings.Join(lines, "\n")
}

func indentLines(s string, width int) string {
	pad := strings.Repeat(" ", width)
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
