package engine

import (
	"fmt"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/locator"
)

// Resolution methods, recorded as target provenance.
const (
	MethodBlockID = "blockId"
	MethodText    = "text"
	MethodSection = "section"
)

// TargetArgs is the approximate target description supplied by the caller.
type TargetArgs struct {
	BlockID      string
	Section      string
	SearchPhrase string
}

// Target is a resolved [From, To) range plus the method that produced it.
type Target struct {
	Found   bool
	From    int
	To      int
	BlockID string
	Method  string
}

// resolveTarget resolves an approximate target against the live document.
// Strategies run in strict precedence order, first success wins: stable block
// id, then phrase search (scoped to the section when one is given), then the
// named section's content bounds. A failed block id lookup logs and falls
// through; it is never fatal by itself.
func (e *Engine) resolveTarget(doc *document.Doc, args TargetArgs) Target {
	if args.BlockID != "" {
		if pos, node := doc.FindBlockByID(args.BlockID); node != nil {
			return Target{
				Found:   true,
				From:    pos,
				To:      pos + node.Size(),
				BlockID: args.BlockID,
				Method:  MethodBlockID,
			}
		}
		e.log.Info("block id not found, trying other strategies", "block_id", args.BlockID)
	}

	if args.SearchPhrase != "" {
		m := e.findPhrase(doc, args.Section, args.SearchPhrase)
		if m.Found {
			if args.BlockID != "" {
				// Permissive by policy: a match outside the requested
				// block still proceeds.
				e.log.Warn("phrase matched outside requested block", "block_id", args.BlockID)
			}
			return Target{
				Found:  true,
				From:   doc.PosAtTextOffset(m.Start),
				To:     doc.PosAtTextOffset(m.End),
				Method: MethodText,
			}
		}
	}

	if args.Section != "" {
		if sec := locator.FindSection(doc, args.Section); sec.Found {
			return Target{Found: true, From: sec.From, To: sec.To, Method: MethodSection}
		}
	}

	return Target{}
}

// findPhrase searches scoped to a section first, then document-wide. A match
// outside the requested section proceeds with a warning.
func (e *Engine) findPhrase(doc *document.Doc, section, phrase string) locator.Match {
	if section != "" {
		if m := locator.FindInSection(doc, section, phrase); m.Found {
			return m
		}
		m := locator.FindPhrase(doc.PlainText(), phrase)
		if m.Found {
			e.log.Warn("phrase matched outside requested section", "section", section)
		}
		return m
	}
	return locator.FindPhrase(doc.PlainText(), phrase)
}

// targetFailureMessage is a pure function of which arguments were supplied.
func targetFailureMessage(args TargetArgs) string {
	switch {
	case args.BlockID != "":
		return fmt.Sprintf("Could not find block %q in the document", args.BlockID)
	case args.SearchPhrase != "":
		return fmt.Sprintf("Could not find text %q in the document", truncatePhrase(args.SearchPhrase, 50))
	case args.Section != "":
		return fmt.Sprintf("Could not find section %q in the document", args.Section)
	default:
		return "No target specified: provide a block id, search phrase, or section"
	}
}

func truncatePhrase(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
