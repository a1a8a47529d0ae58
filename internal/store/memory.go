package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/nao1215/wikigraph/internal/model"
)

// Memory is an in-memory Store.
//
// Each index is a sharded map, so there is no store-wide lock: creating a
// page locks one shard per index, and crawl records are created under the
// lock of a single shard, which is what makes GetOrMakeLink atomic.
type Memory struct {
	pagesByLink  *shardedMap[string, *model.Page]
	pagesByID    *shardedMap[int64, *model.Page]
	pagesByTitle *shardedMap[string, *model.Page]
	links        *shardedMap[string, *model.CrawlableLink]

	lastID atomic.Int64
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		pagesByLink:  newShardedMap[string, *model.Page](),
		pagesByID:    newShardedMap[int64, *model.Page](),
		pagesByTitle: newShardedMap[string, *model.Page](),
		links:        newShardedMap[string, *model.CrawlableLink](),
	}
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// PageByTitle implements PageRepository.
func (m *Memory) PageByTitle(_ context.Context, title string) (*model.Page, error) {
	p, _ := m.pagesByTitle.load(title)
	return p, nil
}

// PageByID implements PageRepository.
func (m *Memory) PageByID(_ context.Context, id int64) (*model.Page, error) {
	p, _ := m.pagesByID.load(id)
	return p, nil
}

// PageByLink implements PageRepository.
func (m *Memory) PageByLink(_ context.Context, link model.WikiLink) (*model.Page, error) {
	return m.lookup(link), nil
}

// lookup is the error-free form of PageByLink used on hot paths.
func (m *Memory) lookup(link model.WikiLink) *model.Page {
	p, _ := m.pagesByLink.load(link.Key())
	return p
}

// PagesByLinks implements PageRepository.
func (m *Memory) PagesByLinks(_ context.Context, links []model.WikiLink) ([]*model.Page, error) {
	out := make([]*model.Page, 0, len(links))
	for _, l := range links {
		if p := m.lookup(l); p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// Neighbors implements PageRepository.
func (m *Memory) Neighbors(_ context.Context, id int64) ([]*model.Page, error) {
	p, ok := m.pagesByID.load(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrPageNotFound, id)
	}
	return p.Neighbors(), nil
}

// AllPages implements PageRepository.
func (m *Memory) AllPages(_ context.Context) ([]*model.Page, error) {
	pages := m.pagesByID.values()
	slices.SortFunc(pages, func(a, b *model.Page) int { return cmp.Compare(a.ID(), b.ID()) })
	return pages, nil
}

// CreatePage implements PageRepository.
func (m *Memory) CreatePage(_ context.Context, p *model.Page) error {
	return m.insert(p)
}

func (m *Memory) insert(p *model.Page) error {
	if p.ID() == 0 {
		p.SetID(m.NextID())
	} else {
		m.observeID(p.ID())
	}
	if _, loaded := m.pagesByLink.loadOrCreate(p.Link().Key(), func() *model.Page { return p }); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicatePage, p.Link())
	}
	m.pagesByID.store(p.ID(), p)
	m.pagesByTitle.store(p.Title(), p)
	return nil
}

// observeID raises lastID to id so ids assigned elsewhere are never reused.
func (m *Memory) observeID(id int64) {
	for {
		cur := m.lastID.Load()
		if id <= cur || m.lastID.CompareAndSwap(cur, id) {
			return
		}
	}
}

// CreatePages implements PageRepository.
func (m *Memory) CreatePages(_ context.Context, pages []*model.Page) error {
	for _, p := range pages {
		if err := m.insert(p); err != nil {
			return err
		}
	}
	return nil
}

// SavePage implements PageRepository. Pages are shared by pointer, so there
// is nothing to write; it only checks that the page exists.
func (m *Memory) SavePage(_ context.Context, p *model.Page, _ bool) error {
	if _, ok := m.pagesByID.load(p.ID()); !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, p.Link())
	}
	return nil
}

// Rename implements PageRepository.
func (m *Memory) Rename(_ context.Context, oldTitle string, p *model.Page) error {
	if _, ok := m.pagesByID.load(p.ID()); !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, p.Link())
	}
	m.pagesByTitle.compareAndDelete(oldTitle, func(cur *model.Page) bool { return cur == p })
	m.pagesByTitle.store(p.Title(), p)
	return nil
}

// NextID implements PageRepository.
func (m *Memory) NextID() int64 {
	return m.lastID.Add(1)
}

// PageCount implements PageRepository.
func (m *Memory) PageCount(_ context.Context) (int, error) {
	return m.pagesByID.len(), nil
}

// DrainPages removes every page from the store and returns them ordered by
// id. Crawl records are left untouched. It is used to flush a staging store.
func (m *Memory) DrainPages() []*model.Page {
	pages := m.pagesByID.values()
	slices.SortFunc(pages, func(a, b *model.Page) int { return cmp.Compare(a.ID(), b.ID()) })
	for _, p := range pages {
		m.pagesByID.delete(p.ID())
		m.pagesByLink.compareAndDelete(p.Link().Key(), func(cur *model.Page) bool { return cur == p })
		m.pagesByTitle.compareAndDelete(p.Title(), func(cur *model.Page) bool { return cur == p })
	}
	return pages
}

// GetOrMakeLink implements LinkRepository.
func (m *Memory) GetOrMakeLink(_ context.Context, link model.WikiLink) (*model.CrawlableLink, error) {
	rec, _ := m.links.loadOrCreate(link.Key(), func() *model.CrawlableLink {
		return model.NewCrawlableLink(link)
	})
	return rec, nil
}

// getOrMake reports whether the record was created by this call.
func (m *Memory) getOrMake(link model.WikiLink) (*model.CrawlableLink, bool) {
	rec, loaded := m.links.loadOrCreate(link.Key(), func() *model.CrawlableLink {
		return model.NewCrawlableLink(link)
	})
	return rec, !loaded
}

// GetOrMakeLinks implements LinkRepository.
func (m *Memory) GetOrMakeLinks(ctx context.Context, links []model.WikiLink) ([]*model.CrawlableLink, error) {
	out := make([]*model.CrawlableLink, len(links))
	for i, l := range links {
		out[i], _ = m.GetOrMakeLink(ctx, l)
	}
	return out, nil
}

// Link implements LinkRepository.
func (m *Memory) Link(_ context.Context, link model.WikiLink) (*model.CrawlableLink, error) {
	rec, _ := m.links.load(link.Key())
	return rec, nil
}

// AllLinks implements LinkRepository.
func (m *Memory) AllLinks(_ context.Context) ([]*model.CrawlableLink, error) {
	recs := m.links.values()
	slices.SortFunc(recs, func(a, b *model.CrawlableLink) int {
		return cmp.Compare(a.Link().Key(), b.Link().Key())
	})
	return recs, nil
}

// UpdateLink implements LinkRepository. Records are shared by pointer; an
// unknown record is inserted.
func (m *Memory) UpdateLink(_ context.Context, rec *model.CrawlableLink) error {
	m.links.loadOrCreate(rec.Link().Key(), func() *model.CrawlableLink { return rec })
	return nil
}

// UpdateLinks implements LinkRepository.
func (m *Memory) UpdateLinks(ctx context.Context, recs []*model.CrawlableLink) error {
	for _, rec := range recs {
		if err := m.UpdateLink(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// CreateLink implements LinkRepository.
func (m *Memory) CreateLink(_ context.Context, rec *model.CrawlableLink) error {
	if _, loaded := m.links.loadOrCreate(rec.Link().Key(), func() *model.CrawlableLink { return rec }); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateLink, rec.Link())
	}
	return nil
}

// DeleteLink implements LinkRepository.
func (m *Memory) DeleteLink(_ context.Context, link model.WikiLink) error {
	m.links.delete(link.Key())
	return nil
}

// LinksProcessedBefore implements LinkRepository.
func (m *Memory) LinksProcessedBefore(_ context.Context, t time.Time) ([]*model.CrawlableLink, error) {
	var out []*model.CrawlableLink
	for _, rec := range m.links.values() {
		st := rec.State()
		if st.Processed && st.LastProcessedAt.Before(t) {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b *model.CrawlableLink) int {
		return cmp.Compare(a.Link().Key(), b.Link().Key())
	})
	return out, nil
}

// LinkCount implements LinkRepository.
func (m *Memory) LinkCount(_ context.Context) (int, error) {
	return m.links.len(), nil
}
