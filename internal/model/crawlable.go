package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LinkState is a snapshot of a CrawlableLink's crawl flags.
type LinkState struct {
	// Processed is true once at least one fetch attempt has been resolved.
	Processed bool

	// Registered is true while the link is queued or in flight.
	Registered bool

	// PageFound is true if the last resolved attempt produced a page.
	PageFound bool

	// LastProcessedAt is the time of the last resolved attempt.
	// The zero time means the link has never been processed.
	LastProcessedAt time.Time
}

// CrawlableLink holds the crawl state of one link and the pages that
// referenced it before a page existed for it (pending references).
//
// All transitions take the record's own lock, which makes
// check-policy-then-register and drain-pending single atomic steps per
// record without any registry-wide lock.
type CrawlableLink struct {
	id   uuid.UUID
	link WikiLink

	mu      sync.Mutex
	state   LinkState
	pending []*Page
	// pendingKeys dedupes pending referrers by link identity.
	pendingKeys map[string]struct{}
}

// NewCrawlableLink creates a never-processed record with a fresh id.
func NewCrawlableLink(link WikiLink) *CrawlableLink {
	return RestoreCrawlableLink(uuid.New(), link, LinkState{})
}

// RestoreCrawlableLink recreates a persisted record.
func RestoreCrawlableLink(id uuid.UUID, link WikiLink, state LinkState) *CrawlableLink {
	return &CrawlableLink{
		id:          id,
		link:        link,
		state:       state,
		pendingKeys: make(map[string]struct{}),
	}
}

// ID returns the stable record id.
func (c *CrawlableLink) ID() uuid.UUID {
	return c.id
}

// Link returns the link this record tracks.
func (c *CrawlableLink) Link() WikiLink {
	return c.link
}

// State returns a snapshot of the crawl flags.
func (c *CrawlableLink) State() LinkState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ShouldRecrawl reports whether the link may be scheduled: it is not
// registered and its last attempt is older than revisit.
func (c *CrawlableLink) ShouldRecrawl(revisit time.Duration, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldRecrawlLocked(revisit, now)
}

func (c *CrawlableLink) shouldRecrawlLocked(revisit time.Duration, now time.Time) bool {
	if c.state.Registered {
		return false
	}
	if c.state.LastProcessedAt.IsZero() {
		return true
	}
	return now.Sub(c.state.LastProcessedAt) > revisit
}

// TryRegister marks the link registered if ShouldRecrawl holds and reports
// whether it did. Exactly one of several concurrent callers wins.
func (c *CrawlableLink) TryRegister(revisit time.Duration, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.shouldRecrawlLocked(revisit, now) {
		return false
	}
	c.state.Registered = true
	return true
}

// Register marks the link registered unconditionally.
func (c *CrawlableLink) Register() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Registered = true
}

// RegisterIfIdle marks the link registered unless it already is, ignoring
// the revisit interval. It reports whether it did.
func (c *CrawlableLink) RegisterIfIdle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Registered {
		return false
	}
	c.state.Registered = true
	return true
}

// Deregister clears the registered flag without recording an attempt.
func (c *CrawlableLink) Deregister() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Registered = false
}

// MarkProcessed records the resolution of a fetch attempt.
func (c *CrawlableLink) MarkProcessed(pageFound bool, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = LinkState{
		Processed:       true,
		Registered:      false,
		PageFound:       pageFound,
		LastProcessedAt: now,
	}
}

// AddPending records referrer as a pending reference. It returns false if
// referrer was already pending.
func (c *CrawlableLink) AddPending(referrer *Page) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addPendingLocked(referrer)
}

func (c *CrawlableLink) addPendingLocked(referrer *Page) bool {
	key := referrer.Link().Key()
	if _, ok := c.pendingKeys[key]; ok {
		return false
	}
	c.pendingKeys[key] = struct{}{}
	c.pending = append(c.pending, referrer)
	return true
}

// DrainPending removes and returns every pending reference in one step.
func (c *CrawlableLink) DrainPending() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drainLocked()
}

func (c *CrawlableLink) drainLocked() []*Page {
	out := c.pending
	c.pending = nil
	clear(c.pendingKeys)
	return out
}

// Pending returns a snapshot of the pending references.
func (c *CrawlableLink) Pending() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Page, len(c.pending))
	copy(out, c.pending)
	return out
}

// ResolveOrDefer looks up the page for this link while holding the record
// lock. If lookup returns a page it is returned; otherwise referrer is added
// as a pending reference and nil is returned.
//
// Together with PublishAndDrain this guarantees that a reference is either
// resolved against a published page or delivered by that page's drain, never
// lost in between.
func (c *CrawlableLink) ResolveOrDefer(referrer *Page, lookup func() *Page) *Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	if target := lookup(); target != nil {
		return target
	}
	c.addPendingLocked(referrer)
	return nil
}

// PublishAndDrain runs publish while holding the record lock and, if it
// succeeds, drains the pending references in the same critical section.
// publish must not call back into this record.
func (c *CrawlableLink) PublishAndDrain(publish func() error) ([]*Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if publish != nil {
		if err := publish(); err != nil {
			return nil, err
		}
	}
	return c.drainLocked(), nil
}
