package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/wikigraph/internal/model"
	"github.com/nao1215/wikigraph/internal/store"
)

// DefaultRevisitInterval is the minimum age of a processed link before it
// becomes eligible for a recrawl.
const DefaultRevisitInterval = 100 * time.Second

// Registry is the link registry.
type Registry struct {
	links   store.LinkRepository
	revisit time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithRevisitInterval sets the revisit interval.
func WithRevisitInterval(d time.Duration) Option {
	return func(r *Registry) {
		r.revisit = d
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry backed by links.
func New(links store.LinkRepository, opts ...Option) *Registry {
	r := &Registry{
		links:   links,
		revisit: DefaultRevisitInterval,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RevisitInterval returns the configured revisit interval.
func (r *Registry) RevisitInterval() time.Duration {
	return r.revisit
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.now()
}

// GetOrMake returns the record for link, creating it if needed. Concurrent
// calls for the same link return the same record.
func (r *Registry) GetOrMake(ctx context.Context, link model.WikiLink) (*model.CrawlableLink, error) {
	rec, err := r.links.GetOrMakeLink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to get or make link %s: %w", link, err)
	}
	return rec, nil
}

// GetOrMakeAll is the batch form of GetOrMake.
func (r *Registry) GetOrMakeAll(ctx context.Context, links []model.WikiLink) ([]*model.CrawlableLink, error) {
	recs, err := r.links.GetOrMakeLinks(ctx, links)
	if err != nil {
		return nil, fmt.Errorf("failed to get or make %d links: %w", len(links), err)
	}
	return recs, nil
}

// Get returns the record for link, or nil if the link was never observed.
func (r *Registry) Get(ctx context.Context, link model.WikiLink) (*model.CrawlableLink, error) {
	return r.links.Link(ctx, link)
}

// ShouldRecrawl reports whether rec may be scheduled. A nil record means the
// link was never observed and is always eligible.
func (r *Registry) ShouldRecrawl(rec *model.CrawlableLink) bool {
	if rec == nil {
		return true
	}
	return rec.ShouldRecrawl(r.revisit, r.now())
}

// TryRegister atomically checks the revisit policy and marks rec registered.
// It returns true for exactly one of several concurrent callers.
func (r *Registry) TryRegister(ctx context.Context, rec *model.CrawlableLink) (bool, error) {
	if !rec.TryRegister(r.revisit, r.now()) {
		return false, nil
	}
	if err := r.links.UpdateLink(ctx, rec); err != nil {
		return true, fmt.Errorf("failed to persist registration of %s: %w", rec.Link(), err)
	}
	return true, nil
}

// Register marks the record for link registered regardless of the revisit
// interval, unless it is already registered. It is used for seeds and
// manually added links and reports whether the link was registered by this
// call.
func (r *Registry) Register(ctx context.Context, link model.WikiLink) (*model.CrawlableLink, bool, error) {
	rec, err := r.GetOrMake(ctx, link)
	if err != nil {
		return nil, false, err
	}
	if !rec.RegisterIfIdle() {
		return rec, false, nil
	}
	if err := r.links.UpdateLink(ctx, rec); err != nil {
		return rec, true, fmt.Errorf("failed to persist registration of %s: %w", link, err)
	}
	return rec, true, nil
}

// MarkProcessed records the resolution of a fetch attempt for rec.
func (r *Registry) MarkProcessed(ctx context.Context, rec *model.CrawlableLink, pageFound bool) error {
	rec.MarkProcessed(pageFound, r.now())
	if err := r.links.UpdateLink(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist processed state of %s: %w", rec.Link(), err)
	}
	return nil
}

// Stash marks link processed without a page so that it is retried after the
// revisit interval.
func (r *Registry) Stash(ctx context.Context, link model.WikiLink) error {
	rec, err := r.GetOrMake(ctx, link)
	if err != nil {
		return err
	}
	r.logger.Debug("stashing link for retry", "link", link.String())
	return r.MarkProcessed(ctx, rec, false)
}

// Deregister clears the registered flag of link without recording an
// attempt, making it eligible again under the normal policy.
func (r *Registry) Deregister(ctx context.Context, link model.WikiLink) error {
	rec, err := r.links.Link(ctx, link)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	rec.Deregister()
	return r.links.UpdateLink(ctx, rec)
}

// AddPendingReference records that referrer links to rec's link, which has no
// page yet.
func (r *Registry) AddPendingReference(ctx context.Context, rec *model.CrawlableLink, referrer *model.Page) error {
	if !rec.AddPending(referrer) {
		return nil
	}
	return r.links.UpdateLink(ctx, rec)
}

// DrainPendingReferences removes and returns the pending references of rec.
// No reference is returned twice.
func (r *Registry) DrainPendingReferences(ctx context.Context, rec *model.CrawlableLink) ([]*model.Page, error) {
	pages := rec.DrainPending()
	if len(pages) == 0 {
		return nil, nil
	}
	return pages, r.links.UpdateLink(ctx, rec)
}

// Persist writes the current state of rec.
func (r *Registry) Persist(ctx context.Context, rec *model.CrawlableLink) error {
	return r.links.UpdateLink(ctx, rec)
}

// StaleBefore returns processed records whose last attempt is older than t.
func (r *Registry) StaleBefore(ctx context.Context, t time.Time) ([]*model.CrawlableLink, error) {
	recs, err := r.links.LinksProcessedBefore(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to list links processed before %s: %w", t.Format(time.RFC3339), err)
	}
	return recs, nil
}

// Due returns the records that are currently eligible for a recrawl.
func (r *Registry) Due(ctx context.Context) ([]*model.CrawlableLink, error) {
	now := r.now()
	recs, err := r.StaleBefore(ctx, now.Add(-r.revisit))
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, rec := range recs {
		if rec.ShouldRecrawl(r.revisit, now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count returns the number of known links.
func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.links.LinkCount(ctx)
}
