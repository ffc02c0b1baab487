// Package locator provides the approximate text-search services the edit
// engine consumes: phrase search over a document's plain-text projection and
// named-section bounds. Matching is tolerant of case and whitespace drift and
// of single-character typos in longer words. All character offsets are rune
// offsets into the projection returned by Doc.PlainText.
package locator

import (
	"strings"
	"unicode"

	"github.com/nvalandra/redraft/internal/document"
)

// Match is a phrase hit as [Start, End) rune offsets, or Found=false.
type Match struct {
	Found bool
	Start int
	End   int
}

// SectionMatch is a named section's content bounds as document positions.
type SectionMatch struct {
	Found      bool
	From       int
	To         int
	HeadingPos int
}

// FindPhrase locates phrase in text. It tries an exact case-insensitive
// substring match first, then a word-window match that tolerates whitespace
// drift and one edit per word of five or more characters.
func FindPhrase(text, phrase string) Match {
	if strings.TrimSpace(phrase) == "" || text == "" {
		return Match{}
	}
	tr := []rune(strings.ToLower(text))
	pr := []rune(strings.ToLower(phrase))
	if idx := indexRunes(tr, pr); idx >= 0 {
		return Match{Found: true, Start: idx, End: idx + len(pr)}
	}

	words := tokenize(text)
	target := normalizeWords(phrase)
	if len(target) == 0 || len(words) < len(target) {
		return Match{}
	}
	for i := 0; i+len(target) <= len(words); i++ {
		ok := true
		for j := range target {
			if !wordsMatch(words[i+j].norm, target[j]) {
				ok = false
				break
			}
		}
		if ok {
			return Match{Found: true, Start: words[i].start, End: words[i+len(target)-1].end}
		}
	}
	return Match{}
}

// FindSection resolves a top-level heading by name and returns its content
// bounds: from the end of the heading block to the next heading of the same
// or higher level, or the document end.
func FindSection(doc *document.Doc, name string) SectionMatch {
	if strings.TrimSpace(name) == "" {
		return SectionMatch{}
	}
	want := normalizeTitle(name)
	pos := 0
	for i, c := range doc.Children {
		size := c.Size()
		if c.Type == document.Heading && headingMatches(normalizeTitle(c.InlineText()), want) {
			from := pos + size
			to := doc.Size()
			p := from
			for _, sib := range doc.Children[i+1:] {
				if sib.Type == document.Heading && sib.Level <= c.Level {
					to = p
					break
				}
				p += sib.Size()
			}
			return SectionMatch{Found: true, From: from, To: to, HeadingPos: pos}
		}
		pos += size
	}
	return SectionMatch{}
}

// FindInSection runs a phrase search scoped to the named section. Offsets are
// into the full projection, not the section slice.
func FindInSection(doc *document.Doc, name, phrase string) Match {
	sec := FindSection(doc, name)
	if !sec.Found {
		return Match{}
	}
	full := []rune(doc.PlainText())
	lo := doc.TextOffsetAtPos(sec.From)
	hi := doc.TextOffsetAtPos(sec.To)
	if lo < 0 || hi > len(full) || lo >= hi {
		return Match{}
	}
	m := FindPhrase(string(full[lo:hi]), phrase)
	if !m.Found {
		return Match{}
	}
	return Match{Found: true, Start: m.Start + lo, End: m.End + lo}
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		ok := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

type token struct {
	norm  string
	start int
	end   int
}

func tokenize(text string) []token {
	var out []token
	var cur []rune
	start := 0
	for i, r := range []rune(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if len(cur) == 0 {
				start = i
			}
			cur = append(cur, unicode.ToLower(r))
			continue
		}
		if len(cur) > 0 {
			out = append(out, token{norm: string(cur), start: start, end: i})
			cur = nil
		}
	}
	if len(cur) > 0 {
		runes := []rune(text)
		out = append(out, token{norm: string(cur), start: start, end: len(runes)})
	}
	return out
}

func normalizeWords(phrase string) []string {
	toks := tokenize(phrase)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.norm
	}
	return out
}

func wordsMatch(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) >= 5 && len(b) >= 5 {
		return editDistance(a, b) <= 1
	}
	return false
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(min(cur[j-1]+1, prev[j]+1), prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func headingMatches(got, want string) bool {
	if got == want {
		return true
	}
	return want != "" && strings.Contains(got, want)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
