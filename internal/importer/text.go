package importer

import (
	"bufio"
	"io"
	"strings"

	"github.com/nvalandra/redraft/internal/document"
)

// TextImporter handles plain text files. Blank lines delimit paragraphs.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) (*document.Doc, string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, "", err
	}

	doc := document.NewDoc()
	for _, para := range paragraphs {
		doc.Children = append(doc.Children, paragraphNode(para))
	}
	assignBlockIDs(doc)

	return doc, titleFromFilename(filename, ".txt"), nil
}
