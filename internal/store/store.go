package store

import (
	"context"
	"time"

	"github.com/nao1215/wikigraph/internal/model"
)

// PageRepository stores pages and their outbound edges.
type PageRepository interface {
	// PageByTitle returns the page with the given title.
	PageByTitle(ctx context.Context, title string) (*model.Page, error)
	// PageByID returns the page with the given id.
	PageByID(ctx context.Context, id int64) (*model.Page, error)
	// PageByLink returns the page identified by link.
	PageByLink(ctx context.Context, link model.WikiLink) (*model.Page, error)
	// PagesByLinks returns the stored pages among links, skipping unknown ones.
	PagesByLinks(ctx context.Context, links []model.WikiLink) ([]*model.Page, error)
	// Neighbors returns the outbound neighbors of the page with the given id.
	Neighbors(ctx context.Context, id int64) ([]*model.Page, error)
	// AllPages returns every stored page ordered by id.
	AllPages(ctx context.Context) ([]*model.Page, error)
	// CreatePage stores a new page, assigning an id if it has none.
	CreatePage(ctx context.Context, p *model.Page) error
	// CreatePages stores a batch of new pages.
	CreatePages(ctx context.Context, pages []*model.Page) error
	// SavePage persists the page fields and, if updateLinks is set, its
	// current neighbor set.
	SavePage(ctx context.Context, p *model.Page, updateLinks bool) error
	// Rename moves the page from oldTitle to its current title in the
	// by-title index.
	Rename(ctx context.Context, oldTitle string, p *model.Page) error
	// NextID returns a fresh, dense, monotonically increasing page id.
	NextID() int64
	// PageCount returns the number of stored pages.
	PageCount(ctx context.Context) (int, error)
}

// LinkRepository stores per-link crawl records.
type LinkRepository interface {
	// GetOrMakeLink returns the record for link, creating it if needed.
	// Concurrent calls for the same link return the same record.
	GetOrMakeLink(ctx context.Context, link model.WikiLink) (*model.CrawlableLink, error)
	// GetOrMakeLinks is the batch form of GetOrMakeLink.
	GetOrMakeLinks(ctx context.Context, links []model.WikiLink) ([]*model.CrawlableLink, error)
	// Link returns the record for link, or nil.
	Link(ctx context.Context, link model.WikiLink) (*model.CrawlableLink, error)
	// AllLinks returns every record.
	AllLinks(ctx context.Context) ([]*model.CrawlableLink, error)
	// UpdateLink persists the current state of a record.
	UpdateLink(ctx context.Context, rec *model.CrawlableLink) error
	// UpdateLinks is the batch form of UpdateLink.
	UpdateLinks(ctx context.Context, recs []*model.CrawlableLink) error
	// CreateLink stores a new record.
	CreateLink(ctx context.Context, rec *model.CrawlableLink) error
	// DeleteLink removes the record for link.
	DeleteLink(ctx context.Context, link model.WikiLink) error
	// LinksProcessedBefore returns processed records whose last attempt is
	// older than t.
	LinksProcessedBefore(ctx context.Context, t time.Time) ([]*model.CrawlableLink, error)
	// LinkCount returns the number of records.
	LinkCount(ctx context.Context) (int, error)
}

// Store is a backend implementing both repositories.
type Store interface {
	PageRepository
	LinkRepository
	Close() error
}
