package document

// Dispatch consumes one transaction. The editor's own Dispatch method is the
// canonical implementation; wrappers may decorate it for the duration of a
// single operation.
type Dispatch func(*Transaction)

// Editor owns a live document, the current selection, and the set of
// transaction listeners. It is not safe for concurrent use; callers serialise
// access per document.
type Editor struct {
	doc       *Doc
	selection Range
	listeners []func(*Transaction)
}

// NewEditor wraps a document in an editor with the selection at the start.
func NewEditor(doc *Doc) *Editor {
	if doc == nil {
		doc = NewDoc()
	}
	return &Editor{doc: doc}
}

// Doc returns the live document.
func (e *Editor) Doc() *Doc {
	return e.doc
}

// Selection returns the current selection range.
func (e *Editor) Selection() Range {
	return e.selection
}

// OnTransaction registers a listener invoked after every dispatched
// transaction, content-changing or not.
func (e *Editor) OnTransaction(fn func(*Transaction)) {
	e.listeners = append(e.listeners, fn)
}

// Dispatch applies every step of the transaction to the document and then
// notifies listeners once.
func (e *Editor) Dispatch(tr *Transaction) {
	for _, s := range tr.steps {
		switch st := s.(type) {
		case replaceStep:
			e.doc.replaceRange(st.from, st.to, st.blocks, st.inline)
		case markStep:
			e.doc.addMarkRange(st.from, st.to, st.mark)
		case selectionStep:
			e.selection = Range{From: st.from, To: st.to}
		}
	}
	for _, fn := range e.listeners {
		fn(tr)
	}
}
