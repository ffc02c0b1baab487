// Package store holds the open document sessions the service is editing.
package store

import (
	"sync"
	"time"

	"github.com/nvalandra/redraft/internal/document"
	"github.com/nvalandra/redraft/internal/papers"
)

// Session is one open document: its editor, its pending ghost-edit previews,
// and the paper context used when a tool call supplies no explicit set. The
// engine is single-threaded per document; callers hold Lock across each tool
// invocation.
type Session struct {
	ID     string
	Title  string
	Editor *document.Editor
	Ghosts *document.GhostRegistry
	Papers *papers.Context

	mu        sync.Mutex
	createdAt time.Time
	updatedAt time.Time
}

// NewSession wraps a document in a fresh session with ghost tracking wired.
func NewSession(id, title string, doc *document.Doc) *Session {
	ed := document.NewEditor(doc)
	ghosts := document.NewGhostRegistry()
	ghosts.Track(ed)
	now := time.Now()
	return &Session{
		ID:        id,
		Title:     title,
		Editor:    ed,
		Ghosts:    ghosts,
		Papers:    papers.NewContext(),
		createdAt: now,
		updatedAt: now,
	}
}

// Lock serialises access to the session's editor.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session and bumps its activity timestamp.
func (s *Session) Unlock() {
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// List returns all open sessions.
func (s *Store) List() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Cleanup removes sessions idle past the TTL.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.updatedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
