package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docmodel/internal/doctree"
)

// CSVParser handles CSV files. The first record becomes a header row of th
// cells; the rest become td rows.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Tree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	title := titleFromFilename(filename)
	if len(records) == 0 {
		return build(document(title, nil))
	}

	table := doctree.Fragment{Type: "table"}
	for i, rec := range records {
		cellTag := "td"
		if i == 0 {
			cellTag = "th"
		}
		row := doctree.Fragment{Type: "tr"}
		for _, cell := range rec {
			row.Children = append(row.Children, block(cellTag, cell))
		}
		table.Children = append(table.Children, row)
	}
	return build(document(title, []doctree.Fragment{table}))
}
