// Package importer builds the initial live document from an uploaded file.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nvalandra/redraft/internal/document"
)

// Importer converts raw file bytes into a live document plus a title.
type Importer interface {
	Import(r io.Reader, filename string) (*document.Doc, string, error)
}

// SupportedExtensions lists file extensions this service can import.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate importer for a filename.
func ForFile(filename string) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextImporter{}, nil
	case ".md", ".markdown":
		return &MarkdownImporter{}, nil
	case ".csv":
		return &CSVImporter{}, nil
	case ".html", ".htm":
		return &HTMLImporter{}, nil
	case ".pdf":
		return &PDFImporter{}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// assignBlockIDs gives every top-level block a stable identifier so edits can
// target it directly from the first tool call on.
func assignBlockIDs(doc *document.Doc) {
	for _, b := range doc.Children {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
	}
}

func titleFromFilename(filename string, exts ...string) string {
	for _, ext := range exts {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename
}

func paragraphNode(text string) *document.Node {
	return &document.Node{
		Type:     document.Paragraph,
		Children: []*document.Node{document.TextNode(text, nil)},
	}
}

func headingNode(level int, text string) *document.Node {
	return &document.Node{
		Type:     document.Heading,
		Level:    level,
		Children: []*document.Node{document.TextNode(text, nil)},
	}
}
