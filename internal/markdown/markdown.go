// Package markdown prepares replacement content for the edit engine: it
// classifies raw text as Markdown or plain text, lowers Markdown to document
// nodes via goldmark, and splits citation markers into first-class citation
// nodes.
package markdown

import (
	"regexp"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/papers"
)

// Best-effort classification heuristics. Not exhaustive: text that uses none
// of these constructs is inserted as plain text even if it was meant as
// Markdown.
var (
	headingPattern  = regexp.MustCompile(`(?m)^#{1,6}\s`)
	emphasisPattern = regexp.MustCompile(`\*\*[^*]+\*\*|__[^_]+__|\*[^*\s][^*]*\*|_[^_\s][^_]*_`)
	codePattern     = regexp.MustCompile("`[^`]+`|(?m)^```")
	listPattern     = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s`)
	quotePattern    = regexp.MustCompile(`(?m)^>\s?`)
	linkPattern     = regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`)
)

// Detect reports whether raw looks like Markdown.
func Detect(raw string) bool {
	return headingPattern.MatchString(raw) ||
		emphasisPattern.MatchString(raw) ||
		codePattern.MatchString(raw) ||
		listPattern.MatchString(raw) ||
		quotePattern.MatchString(raw) ||
		linkPattern.MatchString(raw)
}

// Content is prepared replacement content: either a list of block nodes
// (Markdown input) or a flat inline run sequence (plain text input).
type Content struct {
	Blocks []*document.Node
	Inline []*document.Node
}

// IsBlocks reports whether the content is block-level.
func (c Content) IsBlocks() bool {
	return len(c.Blocks) > 0
}

// AsBlocks returns the content as block nodes, wrapping inline runs in a
// single paragraph when needed.
func (c Content) AsBlocks() []*document.Node {
	if len(c.Blocks) > 0 {
		return c.Blocks
	}
	if len(c.Inline) == 0 {
		return nil
	}
	return []*document.Node{{Type: document.Paragraph, Children: c.Inline}}
}

// Size returns the total document span of the prepared content.
func (c Content) Size() int {
	s := 0
	for _, n := range c.Blocks {
		s += n.Size()
	}
	for _, n := range c.Inline {
		s += n.Size()
	}
	return s
}

// Prepare classifies raw text and lowers it to document content. Citation
// markers are resolved against the lookup in both paths.
func Prepare(raw string, lookup papers.Lookup) Content {
	if Detect(raw) {
		return Content{Blocks: Lower([]byte(raw), lookup)}
	}
	return Content{Inline: SplitCitations(raw, nil, lookup)}
}
