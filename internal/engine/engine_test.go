package engine

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/papers"
)

func newTestEngine() *Engine {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func para(id, text string) *document.Node {
	return &document.Node{Type: document.Paragraph, ID: id, Children: []*document.Node{document.TextNode(text, nil)}}
}

func heading(id string, level int, text string) *document.Node {
	return &document.Node{Type: document.Heading, ID: id, Level: level, Children: []*document.Node{document.TextNode(text, nil)}}
}

func paperDoc() *document.Doc {
	return document.NewDoc(
		heading("h1", 1, "Introduction"),
		para("p1", "The opening paragraph."),
		heading("h2", 1, "Methods"),
		para("p2", "We measured the results carefully."),
	)
}

func TestResolveTargetBlockIDWins(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()

	target := e.resolveTarget(doc, TargetArgs{BlockID: "p2", SearchPhrase: "opening paragraph"})
	if !target.Found || target.Method != MethodBlockID {
		t.Fatalf("target = %+v, want blockId resolution", target)
	}
	pos, n := doc.FindBlockByID("p2")
	if target.From != pos || target.To != pos+n.Size() {
		t.Fatalf("target bounds = [%d, %d), want [%d, %d)", target.From, target.To, pos, pos+n.Size())
	}
}

func TestResolveTargetInvalidBlockIDFallsThroughToText(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()

	target := e.resolveTarget(doc, TargetArgs{BlockID: "gone", SearchPhrase: "opening paragraph"})
	if !target.Found || target.Method != MethodText {
		t.Fatalf("target = %+v, want text resolution", target)
	}
}

func TestResolveTargetSectionLast(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()

	target := e.resolveTarget(doc, TargetArgs{Section: "Methods"})
	if !target.Found || target.Method != MethodSection {
		t.Fatalf("target = %+v, want section resolution", target)
	}
}

func TestResolveTargetNothingFound(t *testing.T) {
	e := newTestEngine()
	if target := e.resolveTarget(paperDoc(), TargetArgs{SearchPhrase: "not in the document at all"}); target.Found {
		t.Fatalf("target = %+v, want not found", target)
	}
}

func TestTargetFailureMessagePrecedence(t *testing.T) {
	tests := []struct {
		args TargetArgs
		want string
	}{
		{TargetArgs{BlockID: "b-7", SearchPhrase: "x", Section: "y"}, `Could not find block "b-7" in the document`},
		{TargetArgs{SearchPhrase: "missing phrase", Section: "y"}, `Could not find text "missing phrase" in the document`},
		{TargetArgs{Section: "Methods"}, `Could not find section "Methods" in the document`},
		{TargetArgs{}, "No target specified: provide a block id, search phrase, or section"},
	}
	for _, tt := range tests {
		if got := targetFailureMessage(tt.args); got != tt.want {
			t.Errorf("targetFailureMessage(%+v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestTargetFailureMessageTruncatesPhrase(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := targetFailureMessage(TargetArgs{SearchPhrase: long})
	if !strings.Contains(got, strings.Repeat("a", 50)+"...") {
		t.Fatalf("phrase not truncated: %q", got)
	}
	if strings.Contains(got, strings.Repeat("a", 51)) {
		t.Fatalf("phrase longer than 50 runes: %q", got)
	}
}

func TestGuardRangeInBounds(t *testing.T) {
	doc := document.NewDoc(para("a", strings.Repeat("x", 18))) // size 20
	r, err := guardRange(doc, 5, 10)
	if err != nil {
		t.Fatalf("guardRange returned error: %v", err)
	}
	if r.From != 5 || r.To != 10 {
		t.Fatalf("range = %+v, want [5, 10)", r)
	}
}

func TestGuardRangeClampsOverhang(t *testing.T) {
	doc := document.NewDoc(para("a", strings.Repeat("x", 18))) // size 20
	r, err := guardRange(doc, 15, 30)
	if err != nil {
		t.Fatalf("guardRange returned error: %v", err)
	}
	if r.From != 15 || r.To != 20 {
		t.Fatalf("range = %+v, want [15, 20)", r)
	}
	r, err = guardRange(doc, -3, 4)
	if err != nil || r.From != 0 || r.To != 4 {
		t.Fatalf("range = %+v, err = %v, want [0, 4)", r, err)
	}
}

func TestGuardRangeCollapsedOutsideIsError(t *testing.T) {
	doc := document.NewDoc(para("a", strings.Repeat("x", 18))) // size 20
	_, err := guardRange(doc, 25, 30)
	if err == nil {
		t.Fatal("expected error for range entirely past the end")
	}
	want := "range [25, 30) is outside the document bounds [0, 20]"
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestGuardRangeEmptyRangeAllowed(t *testing.T) {
	doc := document.NewDoc(para("a", "xy"))
	if _, err := guardRange(doc, 2, 2); err != nil {
		t.Fatalf("collapsed-as-given range errored: %v", err)
	}
	// Clamping an already-empty range is fine too.
	r, err := guardRange(doc, 99, 99)
	if err != nil || r.From != doc.Size() {
		t.Fatalf("range = %+v, err = %v", r, err)
	}
}

func TestGhostTaggingTagsContentOnly(t *testing.T) {
	var seen *document.Transaction
	next := func(tr *document.Transaction) { seen = tr }

	d := GhostTagging(next, "ghost-1")
	tr := document.NewTransaction()
	tr.Delete(0, 2)
	d(tr)
	if id, _ := seen.Meta(document.GhostEditMetaKey).(string); id != "ghost-1" {
		t.Fatalf("content transaction meta = %q, want ghost-1", id)
	}

	tr = document.NewTransaction()
	tr.SetSelection(0, 0)
	d(tr)
	if seen.Meta(document.GhostEditMetaKey) != nil {
		t.Fatal("selection-only transaction was tagged")
	}
}

func TestGhostTaggingEmptyIDPassthrough(t *testing.T) {
	called := false
	next := func(tr *document.Transaction) { called = true }
	d := GhostTagging(next, "")
	tr := document.NewTransaction()
	tr.Delete(0, 1)
	d(tr)
	if !called {
		t.Fatal("wrapped dispatch not forwarded")
	}
	if tr.Meta(document.GhostEditMetaKey) != nil {
		t.Fatal("transaction tagged despite empty id")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e := newTestEngine()
	ed := document.NewEditor(paperDoc())

	res := e.Execute(ed, ToolCall{Name: "frobnicate"})
	if res.Success {
		t.Fatal("unknown tool reported success")
	}
	if res.Message != "Unknown tool: frobnicate" {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	e := newTestEngine()

	// A nil editor makes the operation panic; the dispatcher boundary must
	// convert that into a failed result.
	res := e.Execute(nil, ToolCall{Name: "insertContent", Args: map[string]any{"content": "x"}})
	if res.Success {
		t.Fatal("panicking call reported success")
	}
	if !strings.HasPrefix(res.Message, "insertContent failed:") {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestInsertContentAtEnd(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)
	before := doc.Size()

	res := e.Execute(ed, ToolCall{Name: "insertContent", Args: map[string]any{
		"content":  "A closing remark.",
		"location": "end",
	}})
	if !res.Success {
		t.Fatalf("insertContent failed: %s", res.Message)
	}
	if res.Affected == nil || res.Affected.From != before {
		t.Fatalf("affected = %+v, want start at %d", res.Affected, before)
	}
	if !strings.HasSuffix(doc.PlainText(), "A closing remark.") {
		t.Fatalf("document tail = %q", doc.PlainText())
	}
	last := doc.Children[len(doc.Children)-1]
	if last.ID == "" {
		t.Fatal("inserted block was not stamped with an id")
	}
}

func TestInsertContentMissingContent(t *testing.T) {
	e := newTestEngine()
	res := e.Execute(document.NewEditor(paperDoc()), ToolCall{Name: "insertContent", Args: map[string]any{}})
	if res.Success {
		t.Fatal("expected failure without content")
	}
}

func TestReplaceBlock(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{Name: "replaceBlock", Args: map[string]any{
		"blockId": "p1",
		"content": "A rewritten opening.",
	}})
	if !res.Success {
		t.Fatalf("replaceBlock failed: %s", res.Message)
	}
	if res.BlockID != "p1" {
		t.Fatalf("BlockID = %q, want p1", res.BlockID)
	}
	if res.Message != "Replaced content (resolved via blockId)" {
		t.Fatalf("message = %q", res.Message)
	}
	if !strings.Contains(doc.PlainText(), "A rewritten opening.") {
		t.Fatalf("content not replaced: %q", doc.PlainText())
	}
	if strings.Contains(doc.PlainText(), "The opening paragraph.") {
		t.Fatal("old content still present")
	}
}

func TestReplaceBlockMissingID(t *testing.T) {
	e := newTestEngine()
	res := e.Execute(document.NewEditor(paperDoc()), ToolCall{Name: "replaceBlock", Args: map[string]any{
		"blockId": "nope",
		"content": "x",
	}})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Message != `Could not find block "nope" in the document` {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestReplaceInSectionInlinePhrase(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{Name: "replaceInSection", Args: map[string]any{
		"section":      "Methods",
		"searchPhrase": "measured the results",
		"content":      "recorded the outcomes",
	}})
	if !res.Success {
		t.Fatalf("replaceInSection failed: %s", res.Message)
	}
	if res.Message != "Replaced content (resolved via text)" {
		t.Fatalf("message = %q", res.Message)
	}
	if !strings.Contains(doc.PlainText(), "We recorded the outcomes carefully.") {
		t.Fatalf("inline replacement broke the sentence: %q", doc.PlainText())
	}
}

func TestRewriteSection(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{Name: "rewriteSection", Args: map[string]any{
		"section": "Methods",
		"content": "## Methods\n\nEntirely new methods.",
	}})
	if !res.Success {
		t.Fatalf("rewriteSection failed: %s", res.Message)
	}
	if strings.Contains(doc.PlainText(), "measured the results") {
		t.Fatal("old section content survived")
	}
	if !strings.Contains(doc.PlainText(), "Entirely new methods.") {
		t.Fatalf("new content absent: %q", doc.PlainText())
	}
}

func TestDeleteContentPhraseBeatsBlock(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{Name: "deleteContent", Args: map[string]any{
		"blockId":      "p1",
		"searchPhrase": "measured the results ",
	}})
	if !res.Success {
		t.Fatalf("deleteContent failed: %s", res.Message)
	}
	if res.Message != "Deleted content (resolved via text)" {
		t.Fatalf("message = %q", res.Message)
	}
	// The phrase lived in p2; p1 must be untouched.
	if !strings.Contains(doc.PlainText(), "The opening paragraph.") {
		t.Fatal("block p1 was deleted")
	}
	if strings.Contains(doc.PlainText(), "measured the results") {
		t.Fatal("phrase still present")
	}
	if res.Affected == nil || res.Affected.From != res.Affected.To {
		t.Fatalf("affected = %+v, want collapsed", res.Affected)
	}
}

func TestDeleteContentByBlock(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{Name: "deleteContent", Args: map[string]any{"blockId": "p1"}})
	if !res.Success {
		t.Fatalf("deleteContent failed: %s", res.Message)
	}
	if res.BlockID != "p1" {
		t.Fatalf("BlockID = %q", res.BlockID)
	}
	if _, n := doc.FindBlockByID("p1"); n != nil {
		t.Fatal("block p1 still present")
	}
}

func TestDeleteContentNotFound(t *testing.T) {
	e := newTestEngine()
	res := e.Execute(document.NewEditor(paperDoc()), ToolCall{Name: "deleteContent", Args: map[string]any{
		"searchPhrase": "text that does not exist anywhere",
	}})
	if res.Success {
		t.Fatal("expected failure")
	}
}

func TestAddCitationResolved(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{
		Name: "addCitation",
		Args: map[string]any{"paperId": "Smith-2020", "blockId": "p2"},
		Papers: []papers.Paper{{
			ID:    "smith-2020",
			Title: "A Study",
			Year:  2020,
		}},
	})
	if !res.Success {
		t.Fatalf("addCitation failed: %s", res.Message)
	}
	if strings.Contains(res.Message, "stub") {
		t.Fatalf("resolved citation reported as stub: %q", res.Message)
	}

	var cit *document.Node
	_, p2 := doc.FindBlockByID("p2")
	for _, c := range p2.Children {
		if c.Type == document.Citation {
			cit = c
		}
	}
	if cit == nil {
		t.Fatal("no citation node in target block")
	}
	if cit.Citation.ID != "smith-2020" || cit.Citation.Title != "A Study" {
		t.Fatalf("citation attrs = %+v", cit.Citation)
	}
}

func TestAddCitationUnknownPaperStillSucceeds(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{Name: "addCitation", Args: map[string]any{
		"paperId": "mystery-paper",
		"blockId": "p1",
	}})
	if !res.Success {
		t.Fatalf("addCitation failed: %s", res.Message)
	}
	if !strings.Contains(res.Message, "stub") {
		t.Fatalf("message = %q, want stub note", res.Message)
	}
	_, p1 := doc.FindBlockByID("p1")
	var found bool
	for _, c := range p1.Children {
		if c.Type == document.Citation && c.Citation.ID == "mystery-paper" {
			found = true
		}
	}
	if !found {
		t.Fatal("stub citation not inserted")
	}
}

func TestAddCitationFallsBackToCursor(t *testing.T) {
	e := newTestEngine()
	ed := document.NewEditor(paperDoc())

	res := e.Execute(ed, ToolCall{Name: "addCitation", Args: map[string]any{
		"paperId":   "smith-2020",
		"afterText": "phrase that is nowhere",
	}})
	if !res.Success {
		t.Fatalf("addCitation failed: %s", res.Message)
	}
	if !strings.Contains(res.Message, "cursor") {
		t.Fatalf("message = %q, want cursor fallback note", res.Message)
	}
}

func TestHighlightText(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{Name: "highlightText", Args: map[string]any{
		"searchPhrase": "opening paragraph",
		"color":        "yellow",
	}})
	if !res.Success {
		t.Fatalf("highlightText failed: %s", res.Message)
	}

	_, p1 := doc.FindBlockByID("p1")
	var marked bool
	for _, c := range p1.Children {
		for _, m := range c.Marks {
			if m.Type == document.Highlight && m.Color == "yellow" {
				marked = true
			}
		}
	}
	if !marked {
		t.Fatal("no highlight mark applied")
	}
}

func TestHighlightTextNotFoundFails(t *testing.T) {
	e := newTestEngine()
	res := e.Execute(document.NewEditor(paperDoc()), ToolCall{Name: "highlightText", Args: map[string]any{
		"searchPhrase": "phrase that is nowhere",
	}})
	if res.Success {
		t.Fatal("expected failure for unresolvable highlight")
	}
}

func TestAddCommentAttachesMark(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)

	res := e.Execute(ed, ToolCall{Name: "addComment", Args: map[string]any{
		"comment":      "needs a reference",
		"searchPhrase": "measured the results",
	}})
	if !res.Success {
		t.Fatalf("addComment failed: %s", res.Message)
	}

	_, p2 := doc.FindBlockByID("p2")
	var mark *document.Mark
	for _, c := range p2.Children {
		for i, m := range c.Marks {
			if m.Type == document.Comment {
				mark = &c.Marks[i]
			}
		}
	}
	if mark == nil {
		t.Fatal("no comment mark applied")
	}
	if mark.CommentText != "needs a reference" || mark.CommentID == "" {
		t.Fatalf("comment mark = %+v", mark)
	}
}

func TestAddCommentMissingTargetStillSucceeds(t *testing.T) {
	e := newTestEngine()
	res := e.Execute(document.NewEditor(paperDoc()), ToolCall{Name: "addComment", Args: map[string]any{
		"comment":      "orphaned note",
		"searchPhrase": "phrase that is nowhere",
	}})
	if !res.Success {
		t.Fatal("comment on missing target must not fail")
	}
	if !strings.Contains(res.Message, "target was not found") {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestExecuteGhostAcceptanceRetiresOnlyTaggedPreview(t *testing.T) {
	e := newTestEngine()
	doc := paperDoc()
	ed := document.NewEditor(doc)
	reg := document.NewGhostRegistry()
	reg.Track(ed)

	reg.Add(&document.GhostEdit{ID: "g1", Content: "a", CreatedAt: time.Now()})
	reg.Add(&document.GhostEdit{ID: "g2", Content: "b", CreatedAt: time.Now()})

	res := e.Execute(ed, ToolCall{
		Name:        "replaceBlock",
		Args:        map[string]any{"blockId": "p1", "content": "accepted suggestion"},
		GhostEditID: "g1",
	})
	if !res.Success {
		t.Fatalf("replaceBlock failed: %s", res.Message)
	}
	if reg.Has("g1") {
		t.Error("accepted preview g1 still pending")
	}
	if !reg.Has("g2") {
		t.Error("unrelated preview g2 was retired")
	}
}

func TestExecuteUntaggedEditClearsAllPreviews(t *testing.T) {
	e := newTestEngine()
	ed := document.NewEditor(paperDoc())
	reg := document.NewGhostRegistry()
	reg.Track(ed)
	reg.Add(&document.GhostEdit{ID: "g1", CreatedAt: time.Now()})

	res := e.Execute(ed, ToolCall{
		Name: "replaceBlock",
		Args: map[string]any{"blockId": "p1", "content": "manual edit"},
	})
	if !res.Success {
		t.Fatalf("replaceBlock failed: %s", res.Message)
	}
	if len(reg.Pending()) != 0 {
		t.Fatal("untagged edit left previews pending")
	}
}
