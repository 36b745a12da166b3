package writer

import (
	"fmt"
	"io"

	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCX writes a Word document. Headings use the HeadingN styles, text blocks
// become paragraphs and tables keep their rows and cells.
type DOCX struct{}

func (DOCX) Write(w io.Writer, tree *doctree.Tree) error {
	f := docx.New().WithDefaultTheme()
	d := docxWriter{tree: tree, file: f}
	d.blocks(tree.Root(), f.AddParagraph)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

type docxWriter struct {
	tree *doctree.Tree
	file *docx.Docx
}

// blocks emits the block content of n, creating paragraphs with add.
func (d docxWriter) blocks(n doctree.NodeID, add func() *docx.Paragraph) {
	var para *docx.Paragraph
	for _, c := range d.tree.Children(n) {
		if isInline(d.tree, c) {
			if para == nil {
				para = add()
			}
			d.runs(para, c)
			continue
		}
		para = nil
		d.block(c, add)
	}
}

func (d docxWriter) block(n doctree.NodeID, add func() *docx.Paragraph) {
	tag := d.tree.Tag(n)
	if level := headingLevel(tag); level > 0 {
		p := add().Style(fmt.Sprintf("Heading%d", level))
		d.runs(p, n)
		return
	}
	switch tag {
	case "p", "pre", "li":
		if !textBlock(d.tree, n) {
			d.blocks(n, add)
			return
		}
		p := add()
		d.runs(p, n)
		return
	case "table":
		// Tables only go at the top level of the body.
		if d.tree.Parent(n) == d.tree.Root() {
			d.table(n)
			return
		}
	}
	d.blocks(n, add)
}

func (d docxWriter) table(n doctree.NodeID) {
	rows := d.tree.Children(n)
	cols := 0
	for _, tr := range rows {
		cols = max(cols, d.tree.ChildCount(tr))
	}
	if len(rows) == 0 || cols == 0 {
		return
	}
	tbl := d.file.AddTable(len(rows), cols, 0, nil)
	for i, tr := range rows {
		for j, cell := range d.tree.Children(tr) {
			wc := tbl.TableRows[i].TableCells[j]
			if textBlock(d.tree, cell) {
				d.runs(wc.AddParagraph(), cell)
				continue
			}
			d.blocks(cell, wc.AddParagraph)
		}
	}
}

// runs appends the text under n to para, one run per leaf.
func (d docxWriter) runs(para *docx.Paragraph, n doctree.NodeID) {
	if d.tree.IsLeaf(n) {
		text := d.tree.Text(n)
		if text == "" {
			return
		}
		run := para.AddText(text)
		marks := d.tree.Marks(n)
		if _, ok := marks[doctree.MarkBold]; ok {
			run.Bold()
		}
		if _, ok := marks[doctree.MarkItalic]; ok {
			run.Italic()
		}
		if _, ok := marks[doctree.MarkUnderline]; ok {
			run.Underline("single")
		}
		if _, ok := marks[doctree.MarkStrikethrough]; ok {
			run.Strike(true)
		}
		return
	}
	for _, c := range d.tree.Children(n) {
		d.runs(para, c)
	}
}
