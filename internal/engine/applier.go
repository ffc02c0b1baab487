package engine

import (
	"github.com/google/uuid"

	"github.com/nvalandra/redraft/internal/document"
)

// GhostTagging returns a dispatch that tags content-changing transactions
// with the ghost edit id before forwarding them, so a preview layer observing
// all transactions can retire exactly the accepted preview and leave sibling
// previews alone. Transactions that change no content pass through untagged.
//
// The wrapper is passed by parameter for the duration of one operation; the
// editor's own dispatch is never replaced, so nothing leaks even when the
// operation panics mid-mutation.
func GhostTagging(next document.Dispatch, ghostEditID string) document.Dispatch {
	if ghostEditID == "" {
		return next
	}
	return func(tr *document.Transaction) {
		if tr.DocChanged() {
			tr.SetMeta(document.GhostEditMetaKey, ghostEditID)
		}
		next(tr)
	}
}

// stampBlockIDs assigns a stable identifier to every inserted top-level block
// that lacks one, so follow-up edits can target the new content directly.
func stampBlockIDs(blocks []*document.Node) {
	for _, b := range blocks {
		if !document.IsInline(b.Type) && b.ID == "" {
			b.ID = uuid.NewString()
		}
	}
}
