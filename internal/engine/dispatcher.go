package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/locator"
	"github.com/nvalandra/redraft/internal/markdown"
	"github.com/nvalandra/redraft/internal/papers"
)

// Execute runs one named operation against the editor and returns exactly one
// result. It never panics across this boundary: unexpected failures in any
// step are converted to a failed result carrying the failure text.
func (e *Engine) Execute(ed *document.Editor, call ToolCall) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("tool execution panicked", "tool", call.Name, "panic", r)
			res = failure(fmt.Sprintf("%s failed: %v", call.Name, r))
		}
	}()

	lookup := papers.ResolveLookup(call.Papers, e.fallback)
	dispatch := GhostTagging(ed.Dispatch, call.GhostEditID)

	switch call.Name {
	case "insertContent":
		return e.insertContent(ed, dispatch, call.Args, lookup)
	case "replaceBlock":
		return e.replaceBlock(ed, dispatch, call.Args, lookup)
	case "replaceInSection":
		return e.replaceInSection(ed, dispatch, call.Args, lookup)
	case "rewriteSection":
		return e.rewriteSection(ed, dispatch, call.Args, lookup)
	case "deleteContent":
		return e.deleteContent(ed, dispatch, call.Args)
	case "addCitation":
		return e.addCitation(ed, dispatch, call.Args, lookup)
	case "highlightText":
		return e.highlightText(ed, dispatch, call.Args)
	case "addComment":
		return e.addComment(ed, dispatch, call.Args)
	default:
		return failure("Unknown tool: " + call.Name)
	}
}

// insertContent inserts prepared content after a located phrase, after a
// block, or at an explicit location token, defaulting to the cursor.
func (e *Engine) insertContent(ed *document.Editor, dispatch document.Dispatch, args map[string]any, lookup papers.Lookup) Result {
	a, err := parseInsertContent(args)
	if err != nil {
		return failure(err.Error())
	}
	doc := ed.Doc()

	pos := -1
	atInline := false
	if a.SearchPhrase != "" {
		if m := e.findPhrase(doc, a.Section, a.SearchPhrase); m.Found {
			pos = doc.PosAtTextOffset(m.End)
			atInline = true
		}
	}
	if pos < 0 && a.BlockID != "" {
		if p, n := doc.FindBlockByID(a.BlockID); n != nil {
			pos = p + n.Size()
		}
	}
	if pos < 0 {
		pos = e.locationPos(ed, a.Location)
	}

	r, err := guardRange(doc, pos, pos)
	if err != nil {
		return failure(err.Error())
	}

	content := markdown.Prepare(a.Content, lookup)
	tr := document.NewTransaction()
	var size int
	if atInline && !content.IsBlocks() {
		size = contentSize(content.Inline)
		tr.InsertInline(r.From, content.Inline)
	} else {
		blocks := content.AsBlocks()
		stampBlockIDs(blocks)
		size = contentSize(blocks)
		tr.InsertBlocks(r.From, blocks)
	}
	dispatch(tr)

	return Result{
		Success:  true,
		Message:  "Inserted content",
		Affected: &document.Range{From: r.From, To: r.From + size},
	}
}

// locationPos resolves an explicit location token. Absent or unrecognized
// tokens fall back to the cursor.
func (e *Engine) locationPos(ed *document.Editor, location string) int {
	doc := ed.Doc()
	switch {
	case location == "end":
		return doc.Size()
	case strings.HasPrefix(location, "after:"):
		if sec := locator.FindSection(doc, strings.TrimPrefix(location, "after:")); sec.Found {
			return sec.To
		}
	case strings.HasPrefix(location, "start:"):
		if sec := locator.FindSection(doc, strings.TrimPrefix(location, "start:")); sec.Found {
			return sec.From
		}
	}
	return ed.Selection().To
}

func (e *Engine) replaceBlock(ed *document.Editor, dispatch document.Dispatch, args map[string]any, lookup papers.Lookup) Result {
	a, err := parseReplaceBlock(args)
	if err != nil {
		return failure(err.Error())
	}
	target := e.resolveTarget(ed.Doc(), TargetArgs{BlockID: a.BlockID})
	if !target.Found {
		return failure(targetFailureMessage(TargetArgs{BlockID: a.BlockID}))
	}
	res := e.applyReplace(ed, dispatch, target, a.Content, lookup)
	res.BlockID = a.BlockID
	return res
}

func (e *Engine) replaceInSection(ed *document.Editor, dispatch document.Dispatch, args map[string]any, lookup papers.Lookup) Result {
	a, err := parseReplaceInSection(args)
	if err != nil {
		return failure(err.Error())
	}
	ta := TargetArgs{Section: a.Section, SearchPhrase: a.SearchPhrase}
	target := e.resolveTarget(ed.Doc(), ta)
	if !target.Found {
		return failure(targetFailureMessage(ta))
	}
	return e.applyReplace(ed, dispatch, target, a.Content, lookup)
}

func (e *Engine) rewriteSection(ed *document.Editor, dispatch document.Dispatch, args map[string]any, lookup papers.Lookup) Result {
	a, err := parseRewriteSection(args)
	if err != nil {
		return failure(err.Error())
	}
	ta := TargetArgs{Section: a.Section}
	target := e.resolveTarget(ed.Doc(), ta)
	if !target.Found {
		return failure(targetFailureMessage(ta))
	}
	return e.applyReplace(ed, dispatch, target, a.Content, lookup)
}

// applyReplace guards the resolved range and replaces it with prepared
// content in a single transaction. Phrase-level targets with plain-text
// replacements stay inline; everything else replaces at the block level.
func (e *Engine) applyReplace(ed *document.Editor, dispatch document.Dispatch, target Target, raw string, lookup papers.Lookup) Result {
	r, err := guardRange(ed.Doc(), target.From, target.To)
	if err != nil {
		return failure(err.Error())
	}

	content := markdown.Prepare(raw, lookup)
	tr := document.NewTransaction()
	var size int
	if target.Method == MethodText && !content.IsBlocks() {
		size = contentSize(content.Inline)
		tr.ReplaceInline(r.From, r.To, content.Inline)
	} else {
		blocks := content.AsBlocks()
		stampBlockIDs(blocks)
		size = contentSize(blocks)
		tr.ReplaceBlocks(r.From, r.To, blocks)
	}
	dispatch(tr)

	return Result{
		Success:  true,
		Message:  fmt.Sprintf("Replaced content (resolved via %s)", target.Method),
		Affected: &document.Range{From: r.From, To: r.From + size},
	}
}

// deleteContent removes the resolved range. Phrase-level deletion takes
// precedence over whole-block deletion when a phrase is given.
func (e *Engine) deleteContent(ed *document.Editor, dispatch document.Dispatch, args map[string]any) Result {
	a, err := parseDeleteContent(args)
	if err != nil {
		return failure(err.Error())
	}
	doc := ed.Doc()

	var target Target
	if a.SearchPhrase != "" {
		if m := e.findPhrase(doc, a.Section, a.SearchPhrase); m.Found {
			target = Target{
				Found:  true,
				From:   doc.PosAtTextOffset(m.Start),
				To:     doc.PosAtTextOffset(m.End),
				Method: MethodText,
			}
		}
	}
	if !target.Found && a.BlockID != "" {
		if p, n := doc.FindBlockByID(a.BlockID); n != nil {
			target = Target{Found: true, From: p, To: p + n.Size(), BlockID: a.BlockID, Method: MethodBlockID}
		}
	}
	if !target.Found && a.Section != "" {
		if sec := locator.FindSection(doc, a.Section); sec.Found {
			target = Target{Found: true, From: sec.From, To: sec.To, Method: MethodSection}
		}
	}
	if !target.Found {
		return failure(targetFailureMessage(TargetArgs{BlockID: a.BlockID, Section: a.Section, SearchPhrase: a.SearchPhrase}))
	}

	r, err := guardRange(doc, target.From, target.To)
	if err != nil {
		return failure(err.Error())
	}
	tr := document.NewTransaction()
	tr.Delete(r.From, r.To)
	dispatch(tr)

	return Result{
		Success:  true,
		Message:  fmt.Sprintf("Deleted content (resolved via %s)", target.Method),
		Affected: &document.Range{From: r.From, To: r.From},
		BlockID:  target.BlockID,
	}
}

// addCitation appends a citation node at the end of a block, after a located
// phrase, or at the cursor as last resort. This path degrades gracefully and
// always reports success.
func (e *Engine) addCitation(ed *document.Editor, dispatch document.Dispatch, args map[string]any, lookup papers.Lookup) Result {
	a, err := parseAddCitation(args)
	if err != nil {
		return failure(err.Error())
	}
	doc := ed.Doc()

	pos := -1
	if a.BlockID != "" {
		if p, n := doc.FindBlockByID(a.BlockID); n != nil {
			pos = p + n.Size() - 1
		}
	}
	if pos < 0 && a.AfterText != "" {
		if m := e.findPhrase(doc, a.Section, a.AfterText); m.Found {
			pos = doc.PosAtTextOffset(m.End)
		}
	}
	warn := ""
	if pos < 0 {
		pos = ed.Selection().To
		warn = " at the cursor (requested location not found)"
		e.log.Warn("citation location unresolved, using cursor", "paper_id", a.PaperID)
	}

	r, err := guardRange(doc, pos, pos)
	if err != nil {
		return failure(err.Error())
	}

	node := markdown.CitationNode(strings.ToLower(a.PaperID), nil, lookup)
	tr := document.NewTransaction()
	tr.InsertInline(r.From, []*document.Node{node})
	dispatch(tr)

	msg := fmt.Sprintf("Added citation %s%s", a.PaperID, warn)
	if _, ok := lookup.Get(a.PaperID); !ok {
		msg += " (paper not in registry; inserted as a stub)"
	}
	return Result{
		Success:  true,
		Message:  msg,
		Affected: &document.Range{From: r.From, To: r.From + 1},
	}
}

// highlightText applies a highlight mark over the resolved range. Resolution
// failure is a failure for this operation.
func (e *Engine) highlightText(ed *document.Editor, dispatch document.Dispatch, args map[string]any) Result {
	a, err := parseHighlightText(args)
	if err != nil {
		return failure(err.Error())
	}
	ta := TargetArgs{BlockID: a.BlockID, Section: a.Section, SearchPhrase: a.SearchPhrase}
	target := e.resolveTarget(ed.Doc(), ta)
	if !target.Found {
		return failure(targetFailureMessage(ta))
	}
	r, err := guardRange(ed.Doc(), target.From, target.To)
	if err != nil {
		return failure(err.Error())
	}

	tr := document.NewTransaction()
	tr.AddMark(r.From, r.To, document.Mark{Type: document.Highlight, Color: a.Color})
	dispatch(tr)

	return Result{
		Success:  true,
		Message:  "Highlighted text",
		Affected: &r,
		BlockID:  target.BlockID,
	}
}

// addComment attaches a comment mark to the resolved range. The selection
// step is best-effort: an unresolved target is reported but not fatal.
func (e *Engine) addComment(ed *document.Editor, dispatch document.Dispatch, args map[string]any) Result {
	a, err := parseAddComment(args)
	if err != nil {
		return failure(err.Error())
	}
	ta := TargetArgs{BlockID: a.BlockID, Section: a.Section, SearchPhrase: a.SearchPhrase}
	target := e.resolveTarget(ed.Doc(), ta)
	if !target.Found {
		return Result{
			Success: true,
			Message: "Comment noted, but its target was not found: " + targetFailureMessage(ta),
		}
	}
	r, err := guardRange(ed.Doc(), target.From, target.To)
	if err != nil {
		return Result{Success: true, Message: "Comment noted, but its target is out of range: " + err.Error()}
	}

	tr := document.NewTransaction()
	tr.AddMark(r.From, r.To, document.Mark{
		Type:        document.Comment,
		CommentID:   uuid.NewString(),
		CommentText: a.Comment,
	})
	dispatch(tr)

	return Result{
		Success:  true,
		Message:  "Comment added",
		Affected: &r,
		BlockID:  target.BlockID,
	}
}

func contentSize(nodes []*document.Node) int {
	s := 0
	for _, n := range nodes {
		s += n.Size()
	}
	return s
}
