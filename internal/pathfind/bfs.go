package pathfind

import (
	"context"
	"slices"

	"github.com/nao1215/wikigraph/internal/model"
)

// NeighborFunc returns the outbound neighbors of a page.
type NeighborFunc func(p *model.Page) []*model.Page

// Finder runs shortest path queries.
type Finder struct {
	neighbors NeighborFunc
	maxDepth  int
	maxPaths  int
}

// Option configures a Finder.
type Option func(*Finder)

// WithNeighbors replaces the neighbor lookup. The default reads the page's
// in-memory neighbor set.
func WithNeighbors(fn NeighborFunc) Option {
	return func(f *Finder) {
		f.neighbors = fn
	}
}

// WithMaxDepth stops the search after depth layers. Zero means unlimited.
func WithMaxDepth(depth int) Option {
	return func(f *Finder) {
		f.maxDepth = depth
	}
}

// WithMaxPaths caps the number of returned paths. Zero means unlimited.
func WithMaxPaths(n int) Option {
	return func(f *Finder) {
		f.maxPaths = n
	}
}

// NewFinder creates a Finder.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		neighbors: (*model.Page).Neighbors,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// node is the per-page search state.
type node struct {
	page  *model.Page
	layer int
	prev  []*node
	start bool
}

// ShortestPaths returns every path of minimum length from start to end, each
// ordered from start to end. It returns [[start]] when start and end are the
// same page and an empty slice when end is unreachable.
//
// The context is checked between layers.
func (f *Finder) ShortestPaths(ctx context.Context, start, end *model.Page) ([][]*model.Page, error) {
	if start == nil || end == nil || start.Removed() || end.Removed() {
		return [][]*model.Page{}, nil
	}
	if start.Link().Equal(end.Link()) {
		return [][]*model.Page{{end}}, nil
	}

	root := &node{page: start, layer: 0, start: true}
	visited := map[string]*node{start.Link().Key(): root}
	current := []*node{root}
	var target *node

	for layer := 1; len(current) > 0 && target == nil; layer++ {
		if f.maxDepth > 0 && layer > f.maxDepth {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next []*node
		for _, n := range current {
			for _, nb := range f.neighbors(n.page) {
				if nb.Removed() {
					continue
				}
				key := nb.Link().Key()
				seen, ok := visited[key]
				switch {
				case !ok:
					seen = &node{page: nb, layer: layer, prev: []*node{n}}
					visited[key] = seen
					next = append(next, seen)
				case seen.layer == layer && !slices.Contains(seen.prev, n):
					seen.prev = append(seen.prev, n)
				default:
					continue
				}
				if target == nil && nb.Link().Equal(end.Link()) {
					target = seen
				}
			}
		}
		current = next
	}

	if target == nil {
		return [][]*model.Page{}, nil
	}
	return f.backtrack(target), nil
}

// frame is one step of the backtracking walk: a node and the index of the
// next predecessor to explore.
type frame struct {
	n    *node
	next int
}

// backtrack enumerates every predecessor chain from end back to the start
// node using an explicit stack.
func (f *Finder) backtrack(end *node) [][]*model.Page {
	var paths [][]*model.Page
	stack := []frame{{n: end}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.n.start {
			path := make([]*model.Page, len(stack))
			for i, fr := range stack {
				path[len(stack)-1-i] = fr.n.page
			}
			paths = append(paths, path)
			if f.maxPaths > 0 && len(paths) >= f.maxPaths {
				break
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if top.next >= len(top.n.prev) {
			stack = stack[:len(stack)-1]
			continue
		}
		p := top.n.prev[top.next]
		top.next++
		stack = append(stack, frame{n: p})
	}
	return paths
}

// ShortestPaths runs a query with a default Finder.
func ShortestPaths(ctx context.Context, start, end *model.Page) ([][]*model.Page, error) {
	return NewFinder().ShortestPaths(ctx, start, end)
}
