package document

import (
	"sync"
	"time"
)

// GhostEditMetaKey is the transaction metadata key carrying the id of the
// pending preview being accepted. Only content-changing transactions are
// tagged with it.
const GhostEditMetaKey = "ghostEditId"

// GhostEdit is one pending, not-yet-applied suggested change shown as a
// preview overlay.
type GhostEdit struct {
	ID        string    `json:"id"`
	Range     Range     `json:"range"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GhostRegistry tracks pending previews for one editor. It observes every
// dispatched transaction: a content transaction tagged with a ghost edit id
// retires exactly that preview, an untagged content transaction invalidates
// all of them (their anchor positions can no longer be trusted), and
// transactions that change no content leave previews alone.
type GhostRegistry struct {
	mu      sync.Mutex
	pending map[string]*GhostEdit
}

func NewGhostRegistry() *GhostRegistry {
	return &GhostRegistry{pending: make(map[string]*GhostEdit)}
}

// Track subscribes the registry to the editor's transactions.
func (g *GhostRegistry) Track(ed *Editor) {
	ed.OnTransaction(g.observe)
}

// Add registers a pending preview.
func (g *GhostRegistry) Add(ghost *GhostEdit) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending[ghost.ID] = ghost
}

// Pending returns the previews still awaiting a decision.
func (g *GhostRegistry) Pending() []*GhostEdit {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*GhostEdit, 0, len(g.pending))
	for _, ghost := range g.pending {
		out = append(out, ghost)
	}
	return out
}

// Has reports whether the preview is still pending.
func (g *GhostRegistry) Has(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[id]
	return ok
}

func (g *GhostRegistry) observe(tr *Transaction) {
	if !tr.DocChanged() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := tr.Meta(GhostEditMetaKey).(string); ok && id != "" {
		delete(g.pending, id)
		return
	}
	g.pending = make(map[string]*GhostEdit)
}
