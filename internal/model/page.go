package model

import (
	"sync"
	"sync/atomic"
)

// ArticleType values derived from a page's namespace.
const (
	// ArticleTypeArticle is the type of pages in the main namespace.
	ArticleTypeArticle = "article"

	// ArticleTypeList is the type of main-namespace pages titled "List of ...".
	ArticleTypeList = "list"
)

// Page is a node of the link graph.
//
// The identity fields (id and link) are fixed once the page has been handed
// to a store. Everything else is guarded by the page's own lock so that one
// goroutine can rewrite the neighbor set while others read titles or add
// reconciled edges.
type Page struct {
	id   atomic.Int64
	link WikiLink

	mu          sync.RWMutex
	title       string
	description string
	articleType string
	isRedirect  bool
	removed     bool

	// neighbors is the outbound edge list in insertion order.
	neighbors []*Page
	// neighborKeys indexes neighbors by link identity so AddNeighbor is
	// idempotent.
	neighborKeys map[string]struct{}
	// generation counts neighbor-set mutations.
	generation uint64
	// outbound is the latest declared outbound link set, nil when unknown.
	outbound LinkSet
}

// NewPage creates a page without an id. Stores assign ids on creation.
func NewPage(title string, link WikiLink) *Page {
	return &Page{
		link:         link,
		title:        title,
		articleType:  ArticleTypeArticle,
		neighborKeys: make(map[string]struct{}),
	}
}

// NewPageFromCandidate creates a page whose fields are taken from an analysis
// candidate.
func NewPageFromCandidate(link WikiLink, c Candidate) *Page {
	p := NewPage(c.Title, link)
	p.Apply(c)
	return p
}

// ID returns the page id, or 0 if the page has not been stored yet.
func (p *Page) ID() int64 {
	return p.id.Load()
}

// SetID assigns the page id. It is called by stores before the page becomes
// visible to other goroutines.
func (p *Page) SetID(id int64) {
	p.id.Store(id)
}

// Link returns the page identity.
func (p *Page) Link() WikiLink {
	return p.link
}

// Title returns the page title.
func (p *Page) Title() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.title
}

// SetTitle replaces the page title.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// Description returns the page description.
func (p *Page) Description() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.description
}

// ArticleType returns the page's article type.
func (p *Page) ArticleType() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.articleType
}

// IsRedirect reports whether the page is a redirect.
func (p *Page) IsRedirect() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRedirect
}

// Removed reports whether the page is tombstoned.
func (p *Page) Removed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.removed
}

// SetRemoved sets or clears the tombstone.
func (p *Page) SetRemoved(removed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = removed
}

// Apply overwrites title, description, redirect flag and article type from
// an analysis candidate. It returns the previous title.
func (p *Page) Apply(c Candidate) (oldTitle string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	oldTitle = p.title
	p.title = c.Title
	p.description = c.Description
	p.isRedirect = c.IsRedirect
	p.articleType = c.ArticleType
	if p.articleType == "" {
		p.articleType = ArticleTypeArticle
	}
	return oldTitle
}

// Restore sets every mutable field at once. Stores use it when loading
// persisted pages.
func (p *Page) Restore(description, articleType string, isRedirect, removed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.description = description
	p.articleType = articleType
	p.isRedirect = isRedirect
	p.removed = removed
}

// Neighbors returns a snapshot of the outbound neighbors.
func (p *Page) Neighbors() []*Page {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Page, len(p.neighbors))
	copy(out, p.neighbors)
	return out
}

// NeighborCount returns the number of outbound neighbors.
func (p *Page) NeighborCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.neighbors)
}

// HasNeighbor reports whether an edge to link exists.
func (p *Page) HasNeighbor(link WikiLink) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.neighborKeys[link.Key()]
	return ok
}

// AddNeighbor adds an edge to n. It returns false if the edge already exists.
func (p *Page) AddNeighbor(n *Page) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := n.link.Key()
	if _, ok := p.neighborKeys[key]; ok {
		return false
	}
	p.neighborKeys[key] = struct{}{}
	p.neighbors = append(p.neighbors, n)
	p.generation++
	return true
}

// AddDeclaredNeighbor adds an edge to n only if n is still declared in the
// latest outbound set. Pages without a known outbound set accept any edge.
func (p *Page) AddDeclaredNeighbor(n *Page) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outbound != nil && !p.outbound.Contains(n.link) {
		return false
	}
	key := n.link.Key()
	if _, ok := p.neighborKeys[key]; ok {
		return false
	}
	p.neighborKeys[key] = struct{}{}
	p.neighbors = append(p.neighbors, n)
	p.generation++
	return true
}

// SetOutbound records links as the latest declared outbound set.
func (p *Page) SetOutbound(links LinkSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outbound = links
}

// Relink records links as the latest declared outbound set and removes every
// outbound edge in one step.
func (p *Page) Relink(links LinkSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outbound = links
	p.neighbors = nil
	p.neighborKeys = make(map[string]struct{})
	p.generation++
}

// Generation returns a counter that changes whenever the neighbor set is
// mutated. Equal generations mean the neighbor set was left untouched.
func (p *Page) Generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

// SameNeighbors reports whether the neighbor set equals links by identity.
// Duplicate links are collapsed before comparing.
func (p *Page) SameNeighbors(links LinkSet) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(links) != len(p.neighborKeys) {
		return false
	}
	for key := range links {
		if _, ok := p.neighborKeys[key]; !ok {
			return false
		}
	}
	return true
}
