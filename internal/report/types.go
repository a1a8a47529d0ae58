package report

import (
	"slices"
	"strings"
	"time"

	"github.com/nao1215/wikigraph/internal/crawler"
	"github.com/nao1215/wikigraph/internal/model"
)

// PageSummary is a snapshot of one page.
type PageSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	ArticleType string `json:"articleType"`
	IsRedirect  bool   `json:"isRedirect,omitempty"`
	Removed     bool   `json:"removed,omitempty"`
	Neighbors   int    `json:"neighbors"`
}

// NewPageSummary snapshots p.
func NewPageSummary(p *model.Page) PageSummary {
	link := p.Link()
	return PageSummary{
		ID:          p.ID(),
		Title:       p.Title(),
		Link:        link.Path(),
		URL:         link.URL(model.DefaultLocale),
		Description: p.Description(),
		ArticleType: p.ArticleType(),
		IsRedirect:  p.IsRedirect(),
		Removed:     p.Removed(),
		Neighbors:   p.NeighborCount(),
	}
}

// PathReport lists every shortest path between two pages.
type PathReport struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Paths       [][]PageSummary `json:"paths"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// NewPathReport builds a path report. Paths keep the order they were found
// in.
func NewPathReport(from, to string, paths [][]*model.Page) *PathReport {
	r := &PathReport{
		From:        from,
		To:          to,
		Paths:       make([][]PageSummary, 0, len(paths)),
		GeneratedAt: time.Now(),
	}
	for _, path := range paths {
		hops := make([]PageSummary, len(path))
		for i, p := range path {
			hops[i] = NewPageSummary(p)
		}
		r.Paths = append(r.Paths, hops)
	}
	return r
}

// Found reports whether at least one path exists.
func (r *PathReport) Found() bool {
	return len(r.Paths) > 0
}

// Distance returns the number of hops of the shortest paths, or -1.
func (r *PathReport) Distance() int {
	if !r.Found() {
		return -1
	}
	return len(r.Paths[0]) - 1
}

// PageReport describes one page and its outbound neighbors.
type PageReport struct {
	Page      PageSummary       `json:"page"`
	Locales   map[string]string `json:"locales,omitempty"`
	Neighbors []PageSummary     `json:"neighbors"`
}

// NewPageReport builds a page report. Neighbors are sorted by title.
func NewPageReport(p *model.Page) *PageReport {
	neighbors := p.Neighbors()
	r := &PageReport{
		Page:      NewPageSummary(p),
		Locales:   p.Link().Alternates(),
		Neighbors: make([]PageSummary, len(neighbors)),
	}
	for i, n := range neighbors {
		r.Neighbors[i] = NewPageSummary(n)
	}
	slices.SortFunc(r.Neighbors, func(a, b PageSummary) int {
		return strings.Compare(a.Title, b.Title)
	})
	return r
}

// GraphReport holds statistics about the stored graph.
type GraphReport struct {
	Pages            int            `json:"pages"`
	RemovedPages     int            `json:"removedPages"`
	Redirects        int            `json:"redirects"`
	Edges            int            `json:"edges"`
	ArticleTypes     map[string]int `json:"articleTypes"`
	Links            int            `json:"links"`
	UnprocessedLinks int            `json:"unprocessedLinks"`
	MissingLinks     int            `json:"missingLinks"`
	RegisteredLinks  int            `json:"registeredLinks"`
}

// NewGraphReport computes statistics over pages and link records.
func NewGraphReport(pages []*model.Page, links []*model.CrawlableLink) *GraphReport {
	r := &GraphReport{
		Pages:        len(pages),
		ArticleTypes: make(map[string]int),
		Links:        len(links),
	}
	for _, p := range pages {
		if p.Removed() {
			r.RemovedPages++
		}
		if p.IsRedirect() {
			r.Redirects++
		}
		r.Edges += p.NeighborCount()
		r.ArticleTypes[p.ArticleType()]++
	}
	for _, rec := range links {
		s := rec.State()
		switch {
		case !s.Processed:
			r.UnprocessedLinks++
		case !s.PageFound:
			r.MissingLinks++
		}
		if s.Registered {
			r.RegisteredLinks++
		}
	}
	return r
}

// CrawlReport summarizes a finished crawl.
type CrawlReport struct {
	Seed        string        `json:"seed"`
	Fetched     int64         `json:"fetched"`
	Created     int64         `json:"created"`
	Updated     int64         `json:"updated"`
	Removed     int64         `json:"removed"`
	Stashed     int64         `json:"stashed"`
	Failures    int64         `json:"failures"`
	Duration    time.Duration `json:"duration"`
	Graph       *GraphReport  `json:"graph,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// NewCrawlReport builds a crawl report from supervisor statistics.
func NewCrawlReport(seed string, st crawler.Stats, graph *GraphReport) *CrawlReport {
	return &CrawlReport{
		Seed:        seed,
		Fetched:     st.Fetched,
		Created:     st.Created,
		Updated:     st.Updated,
		Removed:     st.Removed,
		Stashed:     st.Stashed,
		Failures:    st.Failures,
		Duration:    st.Duration,
		Graph:       graph,
		GeneratedAt: time.Now(),
	}
}

// Indexed returns the number of pages created or updated.
func (r *CrawlReport) Indexed() int64 {
	return r.Created + r.Updated
}
