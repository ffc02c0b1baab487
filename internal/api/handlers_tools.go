package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/engine"
	"github.com/nvalandra/redraft/internal/papers"
)

type toolRequest struct {
	Tool        string         `json:"tool"`
	Args        map[string]any `json:"args"`
	GhostEditID string         `json:"ghostEditId,omitempty"`
	Papers      []papers.Paper `json:"papers,omitempty"`
}

// handleToolCall executes one edit operation against a document session.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	sess := s.docs.Get(chi.URLParam(r, "docID"))
	if sess == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Tool == "" {
		jsonError(w, "tool is required", http.StatusBadRequest)
		return
	}

	// Request-supplied papers win; otherwise the session's loaded set applies.
	supplied := req.Papers
	if len(supplied) == 0 {
		supplied = sess.Papers.Papers()
	}

	sess.Lock()
	defer sess.Unlock()

	res := s.engine.Execute(sess.Editor, engine.ToolCall{
		Name:        req.Tool,
		Args:        req.Args,
		GhostEditID: req.GhostEditID,
		Papers:      supplied,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// handleListGhosts returns the session's pending ghost edits.
func (s *Server) handleListGhosts(w http.ResponseWriter, r *http.Request) {
	sess := s.docs.Get(chi.URLParam(r, "docID"))
	if sess == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ghosts": sess.Ghosts.Pending()})
}

type ghostRequest struct {
	ID      string         `json:"id,omitempty"`
	Range   document.Range `json:"range"`
	Content string         `json:"content"`
}

// handleAddGhost registers a pending preview for later acceptance.
func (s *Server) handleAddGhost(w http.ResponseWriter, r *http.Request) {
	sess := s.docs.Get(chi.URLParam(r, "docID"))
	if sess == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var req ghostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ghost := &document.GhostEdit{
		ID:        req.ID,
		Range:     req.Range,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	sess.Ghosts.Add(ghost)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ghost)
}
