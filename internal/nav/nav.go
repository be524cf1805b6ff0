// Package nav owns the viewer's navigation state: which view is showing,
// the currently opened case, and the live filter query. It is toolkit
// independent; the UI adapter consults it during event handling.
package nav

import (
	"sync"

	"github.com/jtorresq/pericias-console/internal/pericias"
)

// View identifies the active screen.
type View int

const (
	ViewList View = iota
	ViewDetail
)

// Controller tracks navigation state. Detail loads are tagged with a
// generation token; a load that completes after the user has navigated
// away (new selection, back, refresh) carries a stale token and is
// discarded instead of overwriting newer state.
type Controller struct {
	mu      sync.Mutex
	view    View
	current *pericias.CaseDetail
	query   pericias.Query
	gen     uint64
}

// NewController starts at the list view with no filters.
func NewController() *Controller {
	return &Controller{view: ViewList}
}

// View returns the active view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Current returns the opened case detail, or nil outside the detail view.
func (c *Controller) Current() *pericias.CaseDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Query returns the live filter query. It survives navigation: going into
// a detail and back re-applies the same term and estado.
func (c *Controller) Query() pericias.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// SetTerm updates the free-text search term.
func (c *Controller) SetTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Term = term
}

// SetEstado updates the estado filter ("" clears it).
func (c *Controller) SetEstado(estado pericias.Estado) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Estado = estado
}

// BeginLoad marks the start of a detail fetch and returns its token.
// Any previously issued token becomes stale.
func (c *Controller) BeginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.gen
}

// CompleteLoad installs a fetched detail and switches to the detail view,
// unless the token is stale or the fetch failed. It reports whether the
// result was accepted.
func (c *Controller) CompleteLoad(token uint64, detail *pericias.CaseDetail) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.gen || detail == nil {
		return false
	}
	c.current = detail
	c.view = ViewDetail
	return true
}

// Back returns to the list view, dropping the current detail. The filter
// query is left intact for the list to re-apply. In-flight detail loads
// become stale.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.view = ViewList
	c.gen++
}

// Reset returns to the list view after a full index reload, regardless of
// the current state. In-flight detail loads become stale.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.view = ViewList
	c.gen++
}
