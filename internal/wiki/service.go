package wiki

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nao1215/wikigraph/internal/model"
	"github.com/nao1215/wikigraph/internal/pathfind"
	"github.com/nao1215/wikigraph/internal/registry"
	"github.com/nao1215/wikigraph/internal/store"
)

// DefaultCreatesUntilBulkPublish is the number of staged creates that
// triggers a flush to the primary store.
const DefaultCreatesUntilBulkPublish = 1000

// pageLockStripes is the number of page lock stripes.
const pageLockStripes = 256

// Scheduler accepts links for crawling. The crawl supervisor implements it.
type Scheduler interface {
	Schedule(ctx context.Context, link model.WikiLink) error
}

// Service is the graph service.
type Service struct {
	pages    store.PageRepository
	registry *registry.Registry
	finder   *pathfind.Finder
	logger   *slog.Logger

	// scheduler receives newly discovered links. It may be nil.
	scheduler Scheduler

	// staging holds unflushed creates when staging is enabled.
	staging   *store.Memory
	threshold int64
	staged    atomic.Int64
	// publishMu is held for reading by every staging-aware read or write and
	// for writing while a batch moves from staging to the primary store.
	publishMu sync.RWMutex

	seed  maphash.Seed
	locks [pageLockStripes]sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithStaging enables the staging store. Pages are flushed after threshold
// creates; a threshold below 1 uses DefaultCreatesUntilBulkPublish.
func WithStaging(threshold int) Option {
	return func(s *Service) {
		if threshold < 1 {
			threshold = DefaultCreatesUntilBulkPublish
		}
		s.staging = store.NewMemory()
		s.threshold = int64(threshold)
	}
}

// WithScheduler sets the scheduler for newly discovered links.
func WithScheduler(sched Scheduler) Option {
	return func(s *Service) {
		s.scheduler = sched
	}
}

// WithFinder replaces the shortest path finder.
func WithFinder(f *pathfind.Finder) Option {
	return func(s *Service) {
		s.finder = f
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a graph service over pages and reg.
func NewService(pages store.PageRepository, reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		pages:    pages,
		registry: reg,
		finder:   pathfind.NewFinder(),
		logger:   slog.Default(),
		seed:     maphash.MakeSeed(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetScheduler sets the scheduler after construction. It must be called
// before the service is used concurrently.
func (s *Service) SetScheduler(sched Scheduler) {
	s.scheduler = sched
}

// Registry returns the link registry the service writes to.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// lockPage locks the stripe of link and returns the unlock function.
func (s *Service) lockPage(link model.WikiLink) func() {
	mu := &s.locks[maphash.String(s.seed, link.Key())%pageLockStripes]
	mu.Lock()
	return mu.Unlock
}

// lookup returns the page for link, consulting staging first.
func (s *Service) lookup(ctx context.Context, link model.WikiLink) (*model.Page, error) {
	s.publishMu.RLock()
	defer s.publishMu.RUnlock()
	if s.staging != nil {
		if p, _ := s.staging.PageByLink(ctx, link); p != nil {
			return p, nil
		}
	}
	return s.pages.PageByLink(ctx, link)
}

// PageByLink returns the page for link, or nil.
func (s *Service) PageByLink(ctx context.Context, link model.WikiLink) (*model.Page, error) {
	return s.lookup(ctx, link)
}

// PageByTitle returns the page with the given title, or nil.
func (s *Service) PageByTitle(ctx context.Context, title string) (*model.Page, error) {
	s.publishMu.RLock()
	defer s.publishMu.RUnlock()
	if s.staging != nil {
		if p, _ := s.staging.PageByTitle(ctx, title); p != nil {
			return p, nil
		}
	}
	return s.pages.PageByTitle(ctx, title)
}

// PageByID returns the page with the given id, or nil.
func (s *Service) PageByID(ctx context.Context, id int64) (*model.Page, error) {
	s.publishMu.RLock()
	defer s.publishMu.RUnlock()
	if s.staging != nil {
		if p, _ := s.staging.PageByID(ctx, id); p != nil {
			return p, nil
		}
	}
	return s.pages.PageByID(ctx, id)
}

// PageCount returns the number of pages, staged ones included.
func (s *Service) PageCount(ctx context.Context) (int, error) {
	s.publishMu.RLock()
	defer s.publishMu.RUnlock()
	n, err := s.pages.PageCount(ctx)
	if err != nil {
		return 0, err
	}
	if s.staging != nil {
		staged, _ := s.staging.PageCount(ctx)
		n += staged
	}
	return n, nil
}

// insert writes a new page to staging or to the primary store.
func (s *Service) insert(ctx context.Context, p *model.Page) error {
	s.publishMu.RLock()
	defer s.publishMu.RUnlock()

	if existing, _ := s.pages.PageByLink(ctx, p.Link()); existing != nil {
		return fmt.Errorf("%w: %s", ErrPageExists, p.Link())
	}
	if s.staging != nil {
		if staged, _ := s.staging.PageByLink(ctx, p.Link()); staged != nil {
			return fmt.Errorf("%w: %s", ErrPageExists, p.Link())
		}
	}
	// Rejected creates must not consume an id.
	if p.ID() == 0 {
		p.SetID(s.pages.NextID())
	}
	if s.staging == nil {
		return s.pages.CreatePage(ctx, p)
	}
	if err := s.staging.CreatePage(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicatePage) {
			return fmt.Errorf("%w: %s", ErrPageExists, p.Link())
		}
		return err
	}
	s.staged.Add(1)
	return nil
}

// save persists p wherever it currently lives.
func (s *Service) save(ctx context.Context, p *model.Page, updateLinks bool) error {
	s.publishMu.RLock()
	defer s.publishMu.RUnlock()
	if s.staging != nil {
		if staged, _ := s.staging.PageByID(ctx, p.ID()); staged == p {
			return nil
		}
	}
	return s.pages.SavePage(ctx, p, updateLinks)
}

// rename moves p from oldTitle in the by-title index of its store.
func (s *Service) rename(ctx context.Context, oldTitle string, p *model.Page) error {
	s.publishMu.RLock()
	defer s.publishMu.RUnlock()
	if s.staging != nil {
		if staged, _ := s.staging.PageByID(ctx, p.ID()); staged == p {
			return s.staging.Rename(ctx, oldTitle, p)
		}
	}
	return s.pages.Rename(ctx, oldTitle, p)
}

// Create adds a new page and links it to outbound. It returns the outbound
// links that have no page yet.
func (s *Service) Create(ctx context.Context, page *model.Page, outbound []model.WikiLink) ([]model.WikiLink, error) {
	unindexed, err := s.create(ctx, page, outbound)
	if err != nil {
		return unindexed, err
	}
	if s.staging != nil && s.staged.Load() >= s.threshold {
		if err := s.PublishStaged(ctx); err != nil {
			return unindexed, err
		}
	}
	return unindexed, nil
}

// create runs the create-time linking procedure while owning page.
func (s *Service) create(ctx context.Context, page *model.Page, outbound []model.WikiLink) ([]model.WikiLink, error) {
	unlock := s.lockPage(page.Link())
	defer unlock()

	rec, err := s.registry.GetOrMake(ctx, page.Link())
	if err != nil {
		return nil, err
	}
	links := model.NewLinkSet(outbound)
	page.SetOutbound(links)

	referrers, err := rec.PublishAndDrain(func() error {
		return s.insert(ctx, page)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create page %s: %w", page.Link(), err)
	}

	unindexed, err := s.linkAll(ctx, page, links)
	if err != nil {
		return unindexed, err
	}
	if err := s.resolveReferrers(ctx, rec, page, referrers); err != nil {
		return unindexed, err
	}
	if err := s.registry.MarkProcessed(ctx, rec, true); err != nil {
		return unindexed, err
	}

	s.logger.Debug("page created",
		"page", page.Title(),
		"id", page.ID(),
		"neighbors", page.NeighborCount(),
		"unindexed", len(unindexed),
		"referrers", len(referrers),
	)
	return unindexed, nil
}

// Update refreshes an existing page from a fresh analysis. Fields are always
// overwritten; the neighbor set is rebuilt only when outbound differs from it.
// It returns the outbound links that have no page yet when relinking
// happened, and nil otherwise.
func (s *Service) Update(ctx context.Context, page *model.Page, c model.Candidate, outbound []model.WikiLink) ([]model.WikiLink, error) {
	unlock := s.lockPage(page.Link())
	defer unlock()

	rec, err := s.registry.GetOrMake(ctx, page.Link())
	if err != nil {
		return nil, err
	}

	oldTitle := page.Apply(c)
	page.SetRemoved(false)
	if oldTitle != page.Title() {
		if err := s.rename(ctx, oldTitle, page); err != nil {
			return nil, fmt.Errorf("failed to rename %q: %w", oldTitle, err)
		}
	}

	links := model.NewLinkSet(outbound)
	var unindexed []model.WikiLink
	relink := !page.SameNeighbors(links)
	if relink {
		page.Relink(links)
		if unindexed, err = s.linkAll(ctx, page, links); err != nil {
			return unindexed, err
		}
		referrers, err := rec.PublishAndDrain(nil)
		if err != nil {
			return unindexed, err
		}
		if err := s.resolveReferrers(ctx, rec, page, referrers); err != nil {
			return unindexed, err
		}
	} else {
		page.SetOutbound(links)
	}

	if err := s.save(ctx, page, false); err != nil {
		return unindexed, fmt.Errorf("failed to save page %s: %w", page.Link(), err)
	}
	if err := s.registry.MarkProcessed(ctx, rec, true); err != nil {
		return unindexed, err
	}

	s.logger.Debug("page updated", "page", page.Title(), "relinked", relink)
	return unindexed, nil
}

// linkAll adds an edge from page to every link in links that has a page and
// records page as a pending reference on the others, which are scheduled for
// crawling when the revisit policy allows it.
func (s *Service) linkAll(ctx context.Context, page *model.Page, links model.LinkSet) ([]model.WikiLink, error) {
	var unindexed []model.WikiLink
	for _, link := range links.Slice() {
		rec, err := s.registry.GetOrMake(ctx, link)
		if err != nil {
			return unindexed, err
		}

		var lookupErr error
		target := rec.ResolveOrDefer(page, func() *model.Page {
			p, err := s.lookup(ctx, link)
			lookupErr = err
			return p
		})
		if lookupErr != nil {
			return unindexed, fmt.Errorf("failed to look up %s: %w", link, lookupErr)
		}

		if target != nil {
			page.AddNeighbor(target)
			continue
		}

		unindexed = append(unindexed, link)
		if err := s.registry.Persist(ctx, rec); err != nil {
			return unindexed, err
		}
		if err := s.schedule(ctx, rec); err != nil {
			return unindexed, err
		}
	}

	if err := s.save(ctx, page, true); err != nil {
		return unindexed, fmt.Errorf("failed to save edges of %s: %w", page.Link(), err)
	}
	return unindexed, nil
}

// schedule hands rec's link to the scheduler if the registry lets it
// register.
func (s *Service) schedule(ctx context.Context, rec *model.CrawlableLink) error {
	if s.scheduler == nil {
		return nil
	}
	ok, err := s.registry.TryRegister(ctx, rec)
	if err != nil || !ok {
		return err
	}
	return s.scheduler.Schedule(ctx, rec.Link())
}

// resolveReferrers adds the edge referrer→page for every drained referrer
// that still declares page among its outbound links.
func (s *Service) resolveReferrers(ctx context.Context, rec *model.CrawlableLink, page *model.Page, referrers []*model.Page) error {
	if len(referrers) == 0 {
		return nil
	}
	if err := s.registry.Persist(ctx, rec); err != nil {
		return err
	}
	for _, ref := range referrers {
		if !ref.AddDeclaredNeighbor(page) {
			continue
		}
		if err := s.save(ctx, ref, true); err != nil {
			return fmt.Errorf("failed to save edges of %s: %w", ref.Link(), err)
		}
	}
	return nil
}

// Remove marks link processed without a page and tombstones its page if one
// exists.
func (s *Service) Remove(ctx context.Context, link model.WikiLink) error {
	rec, err := s.registry.GetOrMake(ctx, link)
	if err != nil {
		return err
	}
	if err := s.registry.MarkProcessed(ctx, rec, false); err != nil {
		return err
	}

	page, err := s.lookup(ctx, link)
	if err != nil || page == nil || page.Removed() {
		return err
	}

	unlock := s.lockPage(link)
	defer unlock()
	page.SetRemoved(true)
	if err := s.save(ctx, page, false); err != nil {
		return fmt.Errorf("failed to tombstone %s: %w", link, err)
	}
	s.logger.Debug("page removed", "page", page.Title())
	return nil
}

// Index creates or updates the page described by a successful analysis.
// created reports which of the two happened.
func (s *Service) Index(ctx context.Context, a model.Analysis) (created bool, unindexed []model.WikiLink, err error) {
	existing, err := s.lookup(ctx, a.Link)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		unindexed, err = s.Create(ctx, model.NewPageFromCandidate(a.Link, a.Candidate), a.Links)
		if !errors.Is(err, ErrPageExists) {
			return err == nil, unindexed, err
		}
		if existing, err = s.lookup(ctx, a.Link); err != nil || existing == nil {
			return false, nil, err
		}
	}
	unindexed, err = s.Update(ctx, existing, a.Candidate, a.Links)
	return false, unindexed, err
}

// PublishStaged moves every staged page to the primary store in one batch.
func (s *Service) PublishStaged(ctx context.Context) error {
	if s.staging == nil {
		return nil
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	pages := s.staging.DrainPages()
	s.staged.Store(0)
	if len(pages) == 0 {
		return nil
	}
	if err := s.pages.CreatePages(ctx, pages); err != nil {
		// Put the batch back so the pages stay visible and the next flush
		// retries it.
		if rerr := s.staging.CreatePages(ctx, pages); rerr != nil {
			s.logger.Error("failed to restore staged pages", "error", rerr)
		}
		s.staged.Store(int64(len(pages)))
		return fmt.Errorf("failed to publish %d staged pages: %w", len(pages), err)
	}
	s.logger.Info("published staged pages", "count", len(pages))
	return nil
}

// ShortestPaths returns every shortest path from start to end.
func (s *Service) ShortestPaths(ctx context.Context, start, end *model.Page) ([][]*model.Page, error) {
	return s.finder.ShortestPaths(ctx, start, end)
}

// ShortestPathsByTitle resolves both titles and returns every shortest path
// between them.
func (s *Service) ShortestPathsByTitle(ctx context.Context, from, to string) ([][]*model.Page, error) {
	start, err := s.PageByTitle(ctx, from)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, from)
	}
	end, err := s.PageByTitle(ctx, to)
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, to)
	}
	return s.ShortestPaths(ctx, start, end)
}
