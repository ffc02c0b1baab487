package engine

import (
	"fmt"

	"github.com/nvalandra/redraft/internal/document"
)

// guardRange validates a range against the current document bounds and clamps
// it when needed. Clamping that collapses a non-empty range to empty means the
// range lies entirely outside the document; that is an error rather than a
// silent no-op delete. Runs immediately before every mutating call, not just
// at resolution time.
func guardRange(doc *document.Doc, from, to int) (document.Range, error) {
	size := doc.Size()
	cf := clamp(from, 0, size)
	ct := clamp(to, 0, size)
	if ct < cf {
		ct = cf
	}
	if cf == ct && from != to {
		return document.Range{}, fmt.Errorf("range [%d, %d) is outside the document bounds [0, %d]", from, to, size)
	}
	return document.Range{From: cf, To: ct}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
