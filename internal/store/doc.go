// Package store provides the persistence layer of the link graph.
//
// It defines two repository interfaces:
//   - PageRepository: pages, their by-title/by-id/by-link indexes and edges
//   - LinkRepository: per-link crawl records (model.CrawlableLink)
//
// and two backends implementing both of them:
//   - Memory: sharded in-memory maps, also used as the staging store for
//     bulk publishing
//   - SQLite: write-through persistence on top of Memory, using
//     modernc.org/sqlite so no CGO is required
//
// Design decision: The SQLite backend hydrates the full graph into memory on
// open and writes every mutation through to the database. Shortest path
// queries walk in-memory neighbor slices instead of issuing one query per
// node, and identity of *model.Page values stays stable for the lifetime of
// the process, which the graph service relies on for per-page locking.
//
// Lookups return (nil, nil) when the requested entity does not exist.
package store
