package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nvalandra/redraft/internal/document"
)

// CSVImporter handles CSV files: the whole file becomes one table block with
// the first row as the header row.
type CSVImporter struct{}

func (p *CSVImporter) Import(r io.Reader, filename string) (*document.Doc, string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, "", fmt.Errorf("parse csv: %w", err)
	}

	title := titleFromFilename(filename, ".csv")
	doc := document.NewDoc()
	if len(records) == 0 {
		return doc, title, nil
	}

	table := &document.Node{Type: document.Table}
	for i, record := range records {
		row := &document.Node{Type: document.TableRow}
		for _, cell := range record {
			node := &document.Node{Type: document.TableCell, Header: i == 0}
			if cell != "" {
				node.Children = []*document.Node{document.TextNode(cell, nil)}
			}
			row.Children = append(row.Children, node)
		}
		table.Children = append(table.Children, row)
	}
	doc.Children = append(doc.Children, table)
	assignBlockIDs(doc)

	return doc, title, nil
}
