package markdown

import (
	"bytes"
	"strings"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	xhtml "golang.org/x/net/html"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/papers"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM, mathjax.MathJax))

// Lower parses src as Markdown and lowers the AST to document block nodes.
func Lower(src []byte, lookup papers.Lookup) []*document.Node {
	root := md.Parser().Parse(text.NewReader(src))
	return lowerChildren(root, src, lookup)
}

func lowerChildren(parent ast.Node, src []byte, lookup papers.Lookup) []*document.Node {
	var out []*document.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, lowerBlock(n, src, lookup)...)
	}
	return out
}

func lowerBlock(n ast.Node, src []byte, lookup papers.Lookup) []*document.Node {
	switch node := n.(type) {
	case *ast.Heading:
		return []*document.Node{{
			Type:     document.Heading,
			Level:    node.Level,
			Children: lowerInlineChildren(node, src, nil, lookup),
		}}

	case *ast.Paragraph:
		return []*document.Node{{
			Type:     document.Paragraph,
			Children: lowerInlineChildren(node, src, nil, lookup),
		}}

	case *ast.TextBlock:
		return []*document.Node{{
			Type:     document.Paragraph,
			Children: lowerInlineChildren(node, src, nil, lookup),
		}}

	case *ast.Blockquote:
		return []*document.Node{{
			Type:     document.Blockquote,
			Children: lowerChildren(node, src, lookup),
		}}

	case *ast.List:
		t := document.BulletList
		start := 0
		if node.IsOrdered() {
			t = document.OrderedList
			start = node.Start
		}
		list := &document.Node{Type: t, Start: start}
		list.Children = lowerChildren(node, src, lookup)
		return []*document.Node{list}

	case *ast.ListItem:
		item := &document.Node{Type: document.ListItem}
		if fc := node.FirstChild(); fc != nil {
			if cb, ok := fc.FirstChild().(*east.TaskCheckBox); ok {
				v := cb.IsChecked
				item.Checked = &v
			}
		}
		item.Children = lowerChildren(node, src, lookup)
		return []*document.Node{item}

	case *ast.FencedCodeBlock:
		code := &document.Node{Type: document.CodeBlock}
		if lang := node.Language(src); lang != nil {
			code.Lang = string(lang)
		}
		if body := strings.TrimRight(blockLines(node, src), "\n"); body != "" {
			code.Children = []*document.Node{document.TextNode(body, nil)}
		}
		return []*document.Node{code}

	case *ast.CodeBlock:
		code := &document.Node{Type: document.CodeBlock}
		if body := strings.TrimRight(blockLines(node, src), "\n"); body != "" {
			code.Children = []*document.Node{document.TextNode(body, nil)}
		}
		return []*document.Node{code}

	case *ast.ThematicBreak:
		return []*document.Node{{Type: document.Rule}}

	case *ast.HTMLBlock:
		// Raw HTML passes through as a text paragraph.
		raw := blockLines(node, src)
		if node.HasClosure() {
			raw += string(node.ClosureLine.Value(src))
		}
		if txt := htmlToText(raw); txt != "" {
			return []*document.Node{{
				Type:     document.Paragraph,
				Children: SplitCitations(txt, nil, lookup),
			}}
		}
		return nil

	case *east.Table:
		table := &document.Node{Type: document.Table}
		for r := node.FirstChild(); r != nil; r = r.NextSibling() {
			_, header := r.(*east.TableHeader)
			row := &document.Node{Type: document.TableRow}
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				row.Children = append(row.Children, &document.Node{
					Type:     document.TableCell,
					Header:   header,
					Children: lowerInlineChildren(cell, src, nil, lookup),
				})
			}
			table.Children = append(table.Children, row)
		}
		return []*document.Node{table}

	case *mathjax.MathBlock:
		math := &document.Node{Type: document.MathBlock}
		if body := strings.TrimSpace(blockLines(node, src)); body != "" {
			math.Children = []*document.Node{document.TextNode(body, nil)}
		}
		return []*document.Node{math}
	}

	// Unknown block kind: extract raw text if present, else recurse into
	// children, else drop.
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		if txt := strings.TrimSpace(blockLines(n, src)); txt != "" {
			return []*document.Node{{
				Type:     document.Paragraph,
				Children: SplitCitations(txt, nil, lookup),
			}}
		}
	}
	if n.HasChildren() {
		return lowerChildren(n, src, lookup)
	}
	return nil
}

func lowerInlineChildren(parent ast.Node, src []byte, marks []document.Mark, lookup papers.Lookup) []*document.Node {
	var out []*document.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, lowerInline(n, src, marks, lookup)...)
	}
	return out
}

// lowerInline descends through inline wrappers accumulating marks, attaching
// the full set only at the text or citation leaf.
func lowerInline(n ast.Node, src []byte, marks []document.Mark, lookup papers.Lookup) []*document.Node {
	switch node := n.(type) {
	case *ast.Text:
		out := SplitCitations(string(node.Segment.Value(src)), marks, lookup)
		if node.HardLineBreak() {
			out = append(out, &document.Node{Type: document.HardBreak, Marks: marks})
		} else if node.SoftLineBreak() {
			out = append(out, &document.Node{Type: document.LineBreak, Marks: marks})
		}
		return out

	case *ast.String:
		return SplitCitations(string(node.Value), marks, lookup)

	case *ast.Emphasis:
		m := document.Mark{Type: document.Italic}
		if node.Level == 2 {
			m = document.Mark{Type: document.Bold}
		}
		return lowerInlineChildren(node, src, pushMark(marks, m), lookup)

	case *east.Strikethrough:
		return lowerInlineChildren(node, src, pushMark(marks, document.Mark{Type: document.Strike}), lookup)

	case *ast.CodeSpan:
		return []*document.Node{document.TextNode(nodeText(node, src), pushMark(marks, document.Mark{Type: document.Code}))}

	case *ast.Link:
		m := document.Mark{Type: document.Link, Href: string(node.Destination), Title: string(node.Title)}
		return lowerInlineChildren(node, src, pushMark(marks, m), lookup)

	case *ast.AutoLink:
		url := string(node.URL(src))
		m := document.Mark{Type: document.Link, Href: url}
		return []*document.Node{document.TextNode(string(node.Label(src)), pushMark(marks, m))}

	case *ast.Image:
		return []*document.Node{{
			Type:  document.Image,
			Src:   string(node.Destination),
			Alt:   nodeText(node, src),
			Marks: marks,
		}}

	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(src))
		}
		if txt := htmlToText(buf.String()); txt != "" {
			return []*document.Node{document.TextNode(txt, marks)}
		}
		return nil

	case *mathjax.InlineMath:
		return []*document.Node{{Type: document.MathInline, Text: nodeText(node, src), Marks: marks}}

	case *east.TaskCheckBox:
		// Lifted onto the list item during block lowering.
		return nil
	}

	if n.HasChildren() {
		return lowerInlineChildren(n, src, marks, lookup)
	}
	return nil
}

func pushMark(marks []document.Mark, m document.Mark) []document.Mark {
	out := make([]document.Mark, len(marks), len(marks)+1)
	copy(out, marks)
	return append(out, m)
}

func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

// nodeText concatenates the raw text content of an inline node's children.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(nodeText(c, src))
		}
	}
	return buf.String()
}

// htmlToText strips tags from an HTML fragment, keeping visible text only.
func htmlToText(raw string) string {
	root, err := xhtml.Parse(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	var buf strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			}
		}
		if n.Type == xhtml.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.TrimSpace(buf.String())
}
