package importer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/nvalandra/redraft/internal/document"
)

// HTMLImporter handles HTML files: headings become heading blocks, content
// elements become paragraphs, non-content chrome is skipped.
type HTMLImporter struct{}

func (p *HTMLImporter) Import(r io.Reader, filename string) (*document.Doc, string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, "", fmt.Errorf("parse html: %w", err)
	}

	title := titleFromFilename(filename, ".html", ".htm")
	if t := findTitle(root); t != "" {
		title = t
	}

	doc := document.NewDoc()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					doc.Children = append(doc.Children, headingNode(level, t))
				}
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				if t := textContent(n); t != "" {
					doc.Children = append(doc.Children, paragraphNode(t))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}
	assignBlockIDs(doc)

	return doc, title, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
