package markdown

import (
	"regexp"
	"strings"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/papers"
)

// citationMarkerPattern matches all supported citation wire formats in one
// pass: [@id] (preferred) plus the legacy [CITE: id] and [CONTEXT FROM: id].
// Compiled once at package level.
var citationMarkerPattern = regexp.MustCompile(`(?i)\[@([a-z0-9][a-z0-9-]*)\]|\[(?:CITE|CONTEXT FROM):\s*([a-z0-9][a-z0-9-]*)\]`)

// SplitCitations scans one text run for citation markers and splits it into
// an alternating sequence of text and citation nodes, all carrying the active
// mark set. An id with no matching paper yields an id-only citation node,
// never an error. Text without markers comes back as a single unmodified run.
func SplitCitations(text string, marks []document.Mark, lookup papers.Lookup) []*document.Node {
	if text == "" {
		return nil
	}
	matches := citationMarkerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []*document.Node{document.TextNode(text, marks)}
	}

	var out []*document.Node
	last := 0
	for _, m := range matches {
		if m[0] > last {
			out = append(out, document.TextNode(text[last:m[0]], marks))
		}
		var id string
		if m[2] >= 0 {
			id = text[m[2]:m[3]]
		} else {
			id = text[m[4]:m[5]]
		}
		out = append(out, CitationNode(strings.ToLower(id), marks, lookup))
		last = m[1]
	}
	if last < len(text) {
		out = append(out, document.TextNode(text[last:], marks))
	}
	return out
}

// CitationNode builds a citation node for id, resolved against the lookup
// when possible and id-only otherwise.
func CitationNode(id string, marks []document.Mark, lookup papers.Lookup) *document.Node {
	attrs := &document.CitationAttrs{ID: id}
	if p, ok := lookup.Get(id); ok {
		attrs = &document.CitationAttrs{
			ID:      id,
			Authors: p.Authors,
			Title:   p.Title,
			Year:    p.Year,
			Journal: p.Journal,
			DOI:     p.DOI,
		}
	}
	return &document.Node{Type: document.Citation, Marks: marks, Citation: attrs}
}
