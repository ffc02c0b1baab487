// Package engine is the edit resolution and application core: it turns a
// named tool call with an approximate target into one exact, guarded mutation
// against a live document, coexisting with pending ghost-edit previews.
package engine

import (
	"log/slog"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/papers"
)

// Engine executes tool calls against editors. Safe to share across documents;
// all per-call state is constructed fresh per invocation. The only long-lived
// state is the fallback paper context for callers that pass no explicit set.
type Engine struct {
	log      *slog.Logger
	fallback *papers.Context
}

// New creates an engine. The fallback paper context may be nil.
func New(log *slog.Logger, fallback *papers.Context) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if fallback == nil {
		fallback = papers.NewContext()
	}
	return &Engine{log: log, fallback: fallback}
}

// FallbackPapers returns the shared fallback paper context.
func (e *Engine) FallbackPapers() *papers.Context {
	return e.fallback
}

// ToolCall is one named operation with its loosely-typed argument bag.
// GhostEditID, when set, marks this call as accepting a specific pending
// preview. Papers, when non-empty, takes precedence over the fallback context.
type ToolCall struct {
	Name        string         `json:"tool"`
	Args        map[string]any `json:"args"`
	GhostEditID string         `json:"ghostEditId,omitempty"`
	Papers      []papers.Paper `json:"papers,omitempty"`
}

// Result is the only value the engine returns to callers. Field names follow
// the tool-call wire contract, which is camelCase like the argument bags.
type Result struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Affected *document.Range `json:"affectedRange,omitempty"`
	BlockID  string          `json:"blockId,omitempty"`
}

func failure(msg string) Result {
	return Result{Success: false, Message: msg}
}
