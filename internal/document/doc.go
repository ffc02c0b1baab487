package document

import (
	"strings"
	"unicode/utf8"
)

// Doc is the root of a live document: an ordered sequence of block nodes.
type Doc struct {
	Children []*Node `json:"children"`
}

// NewDoc builds a document from top-level blocks.
func NewDoc(blocks ...*Node) *Doc {
	return &Doc{Children: blocks}
}

// Size returns the document's total span. Valid positions are [0, Size()].
func (d *Doc) Size() int {
	s := 0
	for _, c := range d.Children {
		s += c.Size()
	}
	return s
}

// Range is a half-open position range [From, To) with From <= To.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// leafRef is a text-bearing leaf block together with its start position.
type leafRef struct {
	node *Node
	pos  int
}

func (d *Doc) leafBlocks() []leafRef {
	var out []leafRef
	pos := 0
	for _, c := range d.Children {
		collectLeaves(c, pos, &out)
		pos += c.Size()
	}
	return out
}

func collectLeaves(n *Node, pos int, out *[]leafRef) {
	if IsInline(n.Type) {
		return
	}
	if IsLeafBlock(n.Type) {
		*out = append(*out, leafRef{node: n, pos: pos})
		return
	}
	inner := pos + 1
	for _, c := range n.Children {
		collectLeaves(c, inner, out)
		inner += c.Size()
	}
}

// PlainText returns the document's plain-text projection: the text of each
// leaf block in order, separated by a single newline. Atomic inline nodes
// contribute nothing. Offsets into this string are rune offsets and stay in
// parity with PosAtTextOffset.
func (d *Doc) PlainText() string {
	var sb strings.Builder
	for _, ref := range d.leafBlocks() {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(ref.node.InlineText())
	}
	return sb.String()
}

// PosAtTextOffset maps a rune offset in the plain-text projection to a
// document position. A virtual one-character separator is counted per leaf
// block boundary once any text has been seen. If the offset is never reached
// the document's end size is returned; this never fails.
func (d *Doc) PosAtTextOffset(offset int) int {
	if offset <= 0 {
		return 0
	}
	count := 0
	for _, ref := range d.leafBlocks() {
		if count > 0 {
			count++ // block separator
			if count > offset {
				return ref.pos
			}
		}
		inner := ref.pos + 1
		for _, c := range ref.node.Children {
			if c.Type == Text {
				n := utf8.RuneCountInString(c.Text)
				if count+n > offset {
					return inner + (offset - count)
				}
				count += n
				inner += n
				continue
			}
			inner += c.Size()
		}
		if count >= offset {
			return inner
		}
	}
	return d.Size()
}

// TextOffsetAtPos is the inverse of PosAtTextOffset: it returns the rune
// offset in the plain-text projection covered by the given document position.
func (d *Doc) TextOffsetAtPos(pos int) int {
	count := 0
	for _, ref := range d.leafBlocks() {
		if count > 0 {
			count++
		}
		if pos <= ref.pos {
			return count
		}
		inner := ref.pos + 1
		for _, c := range ref.node.Children {
			if c.Type == Text {
				n := utf8.RuneCountInString(c.Text)
				if pos < inner+n {
					return count + (pos - inner)
				}
				count += n
				inner += n
				continue
			}
			inner += c.Size()
		}
		if pos <= inner+1 {
			return count
		}
	}
	return count
}

// FindBlockByID looks up a block by its stable identifier and returns its
// start position. Returns (0, nil) when the id is absent.
func (d *Doc) FindBlockByID(id string) (int, *Node) {
	if id == "" {
		return 0, nil
	}
	pos := 0
	for _, c := range d.Children {
		if p, n := findBlock(c, pos, id); n != nil {
			return p, n
		}
		pos += c.Size()
	}
	return 0, nil
}

func findBlock(n *Node, pos int, id string) (int, *Node) {
	if IsInline(n.Type) {
		return 0, nil
	}
	if n.ID == id {
		return pos, n
	}
	inner := pos + 1
	for _, c := range n.Children {
		if p, found := findBlock(c, inner, id); found != nil {
			return p, found
		}
		inner += c.Size()
	}
	return 0, nil
}

// BlockAt returns the top-level block containing pos and its start position.
func (d *Doc) BlockAt(pos int) (int, *Node) {
	p := 0
	for _, c := range d.Children {
		end := p + c.Size()
		if pos >= p && pos < end {
			return p, c
		}
		p = end
	}
	if n := len(d.Children); n > 0 && pos >= p {
		last := d.Children[n-1]
		return p - last.Size(), last
	}
	return 0, nil
}

// replaceRange deletes [from, to) and inserts the given content at from.
// Block content is inserted at the nearest top-level boundary; inline content
// is spliced into the leaf block covering the position.
func (d *Doc) replaceRange(from, to int, blocks, inline []*Node) {
	if to > from {
		d.Children = deleteInChildren(d.Children, 0, from, to)
	}
	switch {
	case len(blocks) > 0:
		d.insertBlocksAt(from, blocks)
	case len(inline) > 0:
		d.insertInlineAt(from, inline)
	}
}

func deleteInChildren(children []*Node, base, from, to int) []*Node {
	out := children[:0:0]
	pos := base
	for _, c := range children {
		end := pos + c.Size()
		switch {
		case to <= pos || from >= end:
			out = append(out, c)
		case from <= pos && to >= end:
			// fully covered: drop
		case IsLeafBlock(c.Type):
			c.Children = trimInline(c.Children, pos+1, from, to)
			out = append(out, c)
		default:
			c.Children = deleteInChildren(c.Children, pos+1, from, to)
			out = append(out, c)
		}
		pos = end
	}
	return out
}

func trimInline(children []*Node, base, from, to int) []*Node {
	out := children[:0:0]
	pos := base
	for _, c := range children {
		sz := c.Size()
		end := pos + sz
		if to <= pos || from >= end {
			out = append(out, c)
			pos = end
			continue
		}
		if c.Type == Text {
			runes := []rune(c.Text)
			lo := clampInt(from-pos, 0, len(runes))
			hi := clampInt(to-pos, 0, len(runes))
			if kept := string(runes[:lo]) + string(runes[hi:]); kept != "" {
				out = append(out, &Node{Type: Text, Text: kept, Marks: c.Marks})
			}
		}
		// Atomic inline overlapping the range is dropped.
		pos = end
	}
	return out
}

// insertBlocksAt inserts blocks at the top-level boundary nearest pos. A
// position inside an existing block inserts after that block.
func (d *Doc) insertBlocksAt(pos int, blocks []*Node) {
	idx := len(d.Children)
	p := 0
	for i, c := range d.Children {
		if pos <= p {
			idx = i
			break
		}
		end := p + c.Size()
		if pos < end {
			idx = i + 1
			break
		}
		p = end
	}
	out := make([]*Node, 0, len(d.Children)+len(blocks))
	out = append(out, d.Children[:idx]...)
	out = append(out, blocks...)
	out = append(out, d.Children[idx:]...)
	d.Children = out
}

// insertInlineAt splices inline nodes into the leaf block covering pos,
// splitting a text run when the position falls inside one. A position on a
// block boundary appends to the closest preceding leaf block; an empty
// document grows a fresh paragraph.
func (d *Doc) insertInlineAt(pos int, inline []*Node) {
	leaves := d.leafBlocks()
	if len(leaves) == 0 {
		d.Children = append(d.Children, &Node{Type: Paragraph, Children: inline})
		return
	}
	target := leaves[0]
	for _, ref := range leaves {
		if pos >= ref.pos {
			target = ref
		}
	}
	contentStart := target.pos + 1
	contentEnd := target.pos + target.node.Size() - 1
	offset := clampInt(pos, contentStart, contentEnd)
	target.node.Children = spliceInline(target.node.Children, contentStart, offset, inline)
}

func spliceInline(children []*Node, base, pos int, inline []*Node) []*Node {
	out := children[:0:0]
	inserted := false
	p := base
	for _, c := range children {
		end := p + c.Size()
		if !inserted && pos <= p {
			out = append(out, inline...)
			inserted = true
		}
		if !inserted && c.Type == Text && pos < end {
			runes := []rune(c.Text)
			at := pos - p
			if at > 0 {
				out = append(out, &Node{Type: Text, Text: string(runes[:at]), Marks: c.Marks})
			}
			out = append(out, inline...)
			if at < len(runes) {
				out = append(out, &Node{Type: Text, Text: string(runes[at:]), Marks: c.Marks})
			}
			inserted = true
			p = end
			continue
		}
		out = append(out, c)
		p = end
	}
	if !inserted {
		out = append(out, inline...)
	}
	return out
}

// addMarkRange applies a mark to all inline content in [from, to), splitting
// text runs at the boundaries. An existing mark of the same type is replaced.
func (d *Doc) addMarkRange(from, to int, mark Mark) {
	for _, ref := range d.leafBlocks() {
		blockEnd := ref.pos + ref.node.Size()
		if to <= ref.pos || from >= blockEnd {
			continue
		}
		ref.node.Children = markInline(ref.node.Children, ref.pos+1, from, to, mark)
	}
}

func markInline(children []*Node, base, from, to int, mark Mark) []*Node {
	out := children[:0:0]
	pos := base
	for _, c := range children {
		end := pos + c.Size()
		if to <= pos || from >= end {
			out = append(out, c)
			pos = end
			continue
		}
		if c.Type != Text {
			c.Marks = addMark(c.Marks, mark)
			out = append(out, c)
			pos = end
			continue
		}
		runes := []rune(c.Text)
		lo := clampInt(from-pos, 0, len(runes))
		hi := clampInt(to-pos, 0, len(runes))
		if lo > 0 {
			out = append(out, &Node{Type: Text, Text: string(runes[:lo]), Marks: c.Marks})
		}
		if hi > lo {
			out = append(out, &Node{Type: Text, Text: string(runes[lo:hi]), Marks: addMark(c.Marks, mark)})
		}
		if hi < len(runes) {
			out = append(out, &Node{Type: Text, Text: string(runes[hi:]), Marks: c.Marks})
		}
		pos = end
	}
	return out
}

// addMark appends mark to a copied mark set, replacing any mark of the same
// type while preserving order.
func addMark(marks []Mark, mark Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	for _, m := range marks {
		if m.Type != mark.Type {
			out = append(out, m)
		}
	}
	return append(out, mark)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
