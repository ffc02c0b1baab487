package document

import "unicode/utf8"

// NodeType identifies a block or inline node kind.
type NodeType string

const (
	// Block nodes.
	Paragraph   NodeType = "paragraph"
	Heading     NodeType = "heading"
	Blockquote  NodeType = "blockquote"
	BulletList  NodeType = "bulletList"
	OrderedList NodeType = "orderedList"
	ListItem    NodeType = "listItem"
	CodeBlock   NodeType = "codeBlock"
	Rule        NodeType = "rule"
	Table       NodeType = "table"
	TableRow    NodeType = "tableRow"
	TableCell   NodeType = "tableCell"
	MathBlock   NodeType = "mathBlock"

	// Inline nodes.
	Text       NodeType = "text"
	Citation   NodeType = "citation"
	MathInline NodeType = "math"
	Image      NodeType = "image"
	HardBreak  NodeType = "hardBreak"
	LineBreak  NodeType = "lineBreak"
)

// MarkType identifies a formatting attribute on inline content.
type MarkType string

const (
	Bold      MarkType = "bold"
	Italic    MarkType = "italic"
	Code      MarkType = "code"
	Strike    MarkType = "strike"
	Link      MarkType = "link"
	Highlight MarkType = "highlight"
	Comment   MarkType = "comment"
)

// Mark is one formatting attribute applied to a run of inline content.
type Mark struct {
	Type        MarkType `json:"type"`
	Href        string   `json:"href,omitempty"`
	Title       string   `json:"title,omitempty"`
	Color       string   `json:"color,omitempty"`
	CommentID   string   `json:"comment_id,omitempty"`
	CommentText string   `json:"comment_text,omitempty"`
}

// CitationAttrs carries the resolved paper metadata on a citation node.
// Only ID is guaranteed; an unresolved citation keeps the other fields zero.
type CitationAttrs struct {
	ID      string   `json:"id"`
	Authors []string `json:"authors,omitempty"`
	Title   string   `json:"title,omitempty"`
	Year    int      `json:"year,omitempty"`
	Journal string   `json:"journal,omitempty"`
	DOI     string   `json:"doi,omitempty"`
}

// Node is a block or inline node in the document tree. Block nodes never
// contain raw characters directly: leaf blocks hold inline children, container
// blocks hold further blocks.
type Node struct {
	Type NodeType `json:"type"`

	// Block attributes.
	ID      string `json:"id,omitempty"`      // stable block identifier
	Level   int    `json:"level,omitempty"`   // heading
	Lang    string `json:"lang,omitempty"`    // code block
	Start   int    `json:"start,omitempty"`   // ordered list
	Checked *bool  `json:"checked,omitempty"` // task list item
	Header  bool   `json:"header,omitempty"`  // table cell in header row

	// Inline attributes.
	Text     string         `json:"text,omitempty"`
	Marks    []Mark         `json:"marks,omitempty"`
	Citation *CitationAttrs `json:"citation,omitempty"`
	Src      string         `json:"src,omitempty"` // image
	Alt      string         `json:"alt,omitempty"` // image

	Children []*Node `json:"children,omitempty"`
}

// IsInline reports whether t is an inline node kind.
func IsInline(t NodeType) bool {
	switch t {
	case Text, Citation, MathInline, Image, HardBreak, LineBreak:
		return true
	}
	return false
}

// IsAtomic reports whether t is an atomic inline node (size 1, no text).
func IsAtomic(t NodeType) bool {
	return IsInline(t) && t != Text
}

// IsLeafBlock reports whether t is a block whose children are inline content.
func IsLeafBlock(t NodeType) bool {
	switch t {
	case Paragraph, Heading, CodeBlock, TableCell, MathBlock, Rule:
		return true
	}
	return false
}

// Size returns the node's span in the document's linear addressing scheme:
// text runs count runes, atomic inlines count 1, every block counts 2
// (open and close) plus its content.
func (n *Node) Size() int {
	if n.Type == Text {
		return utf8.RuneCountInString(n.Text)
	}
	if IsAtomic(n.Type) {
		return 1
	}
	s := 2
	for _, c := range n.Children {
		s += c.Size()
	}
	return s
}

// TextNode builds a text run carrying the given marks.
func TextNode(text string, marks []Mark) *Node {
	return &Node{Type: Text, Text: text, Marks: marks}
}

// InlineText concatenates the text runs of a leaf block's inline content.
// Atomic inline nodes contribute nothing.
func (n *Node) InlineText() string {
	var out string
	for _, c := range n.Children {
		if c.Type == Text {
			out += c.Text
		}
	}
	return out
}
