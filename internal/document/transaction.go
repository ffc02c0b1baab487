package document

// Transaction is an ordered list of steps applied atomically through an
// Editor's dispatch, with attachable metadata for observing layers.
type Transaction struct {
	steps []step
	meta  map[string]any
}

type step interface {
	// content reports whether the step changes document content.
	content() bool
}

type replaceStep struct {
	from, to int
	blocks   []*Node
	inline   []*Node
}

type markStep struct {
	from, to int
	mark     Mark
}

type selectionStep struct {
	from, to int
}

func (replaceStep) content() bool   { return true }
func (markStep) content() bool      { return true }
func (selectionStep) content() bool { return false }

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// ReplaceBlocks deletes [from, to) and inserts block nodes at from.
func (t *Transaction) ReplaceBlocks(from, to int, blocks []*Node) *Transaction {
	t.steps = append(t.steps, replaceStep{from: from, to: to, blocks: blocks})
	return t
}

// ReplaceInline deletes [from, to) and splices inline nodes at from.
func (t *Transaction) ReplaceInline(from, to int, inline []*Node) *Transaction {
	t.steps = append(t.steps, replaceStep{from: from, to: to, inline: inline})
	return t
}

// Delete removes [from, to).
func (t *Transaction) Delete(from, to int) *Transaction {
	t.steps = append(t.steps, replaceStep{from: from, to: to})
	return t
}

// InsertBlocks inserts block nodes at pos.
func (t *Transaction) InsertBlocks(pos int, blocks []*Node) *Transaction {
	t.steps = append(t.steps, replaceStep{from: pos, to: pos, blocks: blocks})
	return t
}

// InsertInline splices inline nodes at pos.
func (t *Transaction) InsertInline(pos int, inline []*Node) *Transaction {
	t.steps = append(t.steps, replaceStep{from: pos, to: pos, inline: inline})
	return t
}

// AddMark applies a mark across [from, to).
func (t *Transaction) AddMark(from, to int, mark Mark) *Transaction {
	t.steps = append(t.steps, markStep{from: from, to: to, mark: mark})
	return t
}

// SetSelection moves the editor selection without touching content.
func (t *Transaction) SetSelection(from, to int) *Transaction {
	t.steps = append(t.steps, selectionStep{from: from, to: to})
	return t
}

// DocChanged reports whether any step changes document content.
func (t *Transaction) DocChanged() bool {
	for _, s := range t.steps {
		if s.content() {
			return true
		}
	}
	return false
}

// SetMeta attaches metadata visible to transaction listeners.
func (t *Transaction) SetMeta(key string, value any) {
	if t.meta == nil {
		t.meta = make(map[string]any)
	}
	t.meta[key] = value
}

// Meta returns attached metadata, or nil.
func (t *Transaction) Meta(key string) any {
	return t.meta[key]
}
