package papers

import (
	"strings"
	"sync"
)

// Paper is one entry in the citation registry. Immutable for the duration of
// a single edit operation.
type Paper struct {
	ID      string   `json:"id"`
	Authors []string `json:"authors"`
	Title   string   `json:"title"`
	Year    int      `json:"year,omitempty"`
	Journal string   `json:"journal,omitempty"`
	DOI     string   `json:"doi,omitempty"`
}

// Lookup is an id-keyed view over a paper set, built once per invocation.
type Lookup map[string]Paper

// BuildLookup indexes papers by lowercased id.
func BuildLookup(list []Paper) Lookup {
	l := make(Lookup, len(list))
	for _, p := range list {
		l[strings.ToLower(p.ID)] = p
	}
	return l
}

// Get returns the paper for an id, case-insensitively.
func (l Lookup) Get(id string) (Paper, bool) {
	p, ok := l[strings.ToLower(id)]
	return p, ok
}

// Context is the shared fallback paper set for callers that do not pass an
// explicit set per call. Caller-supplied papers always take precedence.
type Context struct {
	mu     sync.RWMutex
	papers []Paper
}

func NewContext() *Context {
	return &Context{}
}

// Set replaces the fallback paper set.
func (c *Context) Set(list []Paper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.papers = append([]Paper(nil), list...)
}

// Papers returns a copy of the fallback paper set.
func (c *Context) Papers() []Paper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Paper(nil), c.papers...)
}

// ResolveLookup builds the lookup for one invocation: the caller-supplied set
// when non-empty, otherwise the shared fallback context.
func ResolveLookup(supplied []Paper, fallback *Context) Lookup {
	if len(supplied) > 0 {
		return BuildLookup(supplied)
	}
	if fallback != nil {
		return BuildLookup(fallback.Papers())
	}
	return Lookup{}
}
