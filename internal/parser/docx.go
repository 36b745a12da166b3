package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docmodel/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraphs become p or h1..h6 by style,
// runs become leaves marked from their run properties, tables keep their
// rows and cells.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Tree, error) {
	// go-docx needs a ReaderAt+size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var children []doctree.Fragment
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			children = append(children, docxParagraph(it))
		case *docx.Table:
			children = append(children, docxTable(it))
		}
	}
	return build(document(titleFromFilename(filename), children))
}

func docxParagraph(para *docx.Paragraph) doctree.Fragment {
	tag := "p"
	if level := docxHeadingLevel(para); level > 0 {
		tag = fmt.Sprintf("h%d", level)
	}
	f := doctree.Fragment{Type: tag}
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			f.Children = appendText(f.Children, docxRunText(c), docxRunMarks(c))
		case *docx.Hyperlink:
			f.Children = appendText(f.Children, docxRunText(&c.Run), docxRunMarks(&c.Run))
		}
	}
	return f
}

func docxTable(tbl *docx.Table) doctree.Fragment {
	table := doctree.Fragment{Type: "table"}
	for _, row := range tbl.TableRows {
		tr := doctree.Fragment{Type: "tr"}
		for _, cell := range row.TableCells {
			td := doctree.Fragment{Type: "td"}
			for _, para := range cell.Paragraphs {
				td.Children = append(td.Children, docxParagraph(para))
			}
			tr.Children = append(tr.Children, td)
		}
		table.Children = append(table.Children, tr)
	}
	return table
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	switch {
	case strings.EqualFold(style, "Heading1") || strings.EqualFold(style, "heading 1"):
		return 1
	case strings.EqualFold(style, "Heading2") || strings.EqualFold(style, "heading 2"):
		return 2
	case strings.EqualFold(style, "Heading3") || strings.EqualFold(style, "heading 3"):
		return 3
	case strings.EqualFold(style, "Heading4") || strings.EqualFold(style, "heading 4"):
		return 4
	case strings.EqualFold(style, "Heading5") || strings.EqualFold(style, "heading 5"):
		return 5
	case strings.EqualFold(style, "Heading6") || strings.EqualFold(style, "heading 6"):
		return 6
	}
	return 0
}

func docxRunText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		switch c := rc.(type) {
		case *docx.Text:
			buf.WriteString(c.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func docxRunMarks(run *docx.Run) map[string]string {
	props := run.RunProperties
	if props == nil {
		return nil
	}
	marks := make(map[string]string)
	if props.Bold != nil {
		marks[doctree.MarkBold] = doctree.MarkOn
	}
	if props.Italic != nil {
		marks[doctree.MarkItalic] = doctree.MarkOn
	}
	if props.Underline != nil && props.Underline.Val != "none" {
		marks[doctree.MarkUnderline] = doctree.MarkOn
	}
	if props.Strike != nil && props.Strike.Val != "false" {
		marks[doctree.MarkStrikethrough] = doctree.MarkOn
	}
	if len(marks) == 0 {
		return nil
	}
	return marks
}
