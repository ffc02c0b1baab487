package importer

import (
	"io"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/markdown"
)

// MarkdownImporter handles Markdown files using the shared goldmark lowering.
type MarkdownImporter struct{}

func (p *MarkdownImporter) Import(r io.Reader, filename string) (*document.Doc, string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}

	doc := document.NewDoc(markdown.Lower(src, nil)...)
	assignBlockIDs(doc)

	title := titleFromFilename(filename, ".md", ".markdown")
	// A leading level-1 heading makes a better title than the filename.
	if len(doc.Children) > 0 {
		if h := doc.Children[0]; h.Type == document.Heading && h.Level == 1 {
			if t := h.InlineText(); t != "" {
				title = t
			}
		}
	}
	return doc, title, nil
}
