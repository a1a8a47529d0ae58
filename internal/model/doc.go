// Package model defines the core data structures shared by the crawler,
// the graph service and the shortest path engine.
//
// This package contains the following main types:
//   - WikiLink: canonical, immutable identity of a page
//   - CrawlableLink: per-link crawl state and pending forward references
//   - Page: a graph node with its outbound neighbor set
//   - FetchResult: the outcome of fetching one link
//   - Analysis: the outcome of analyzing one fetched document
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The registry, store, graph service and crawler all use these
// types, so centralizing them prevents import cycles.
//
// CrawlableLink and Page carry their own locks. Synchronization is per record
// and per page rather than global, so workers touching different links never
// contend with each other.
package model
