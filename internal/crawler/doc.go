// Package crawler runs the crawl pipeline: it pulls links from a frontier,
// fetches and analyzes them with pluggable collaborators, and feeds the
// results to the graph service.
//
// # Architecture
//
// The Supervisor owns three fixed worker pools, each run as an errgroup:
//
//   - fetch workers pop links from the Frontier, call the Fetcher and push
//     successful results into a bounded parsed-results buffer
//   - analysis workers pull from that buffer, call the Analyzer and create
//     or update pages through the graph service, which schedules newly
//     discovered links back onto the frontier
//   - revisit workers periodically rescan crawl records whose last attempt
//     is older than the revisit interval and re-enqueue them
//
// The parsed buffer is bounded: when analysis falls behind, fetch workers
// block on it, which throttles fetching to the analysis rate.
//
// # Shutdown
//
// Workers stop on a poison token (one per worker per pool) or when the run
// context is cancelled, and only check for it between blocking operations,
// never in the middle of linking a page. Shutdown is idempotent: concurrent
// triggers collapse into one, and Await unblocks once every pool has exited,
// staged pages have been published and links still waiting in the frontier
// have been deregistered so a later crawl picks them up again.
//
// An in-flight counter tracks links that are queued or being processed.
// When it drains to zero the supervisor either shuts down
// (Config.ShutdownOnDrain) or releases the revisit workers.
//
// # Collaborators
//
//   - HTTPFetcher: fetches pages over HTTP(S), optionally through a SOCKS5
//     proxy, with a token-bucket rate limit
//   - FileFetcher: serves pages from a directory, for offline crawls
//   - WikiAnalyzer: extracts title, description, outbound links and
//     interlanguage links from MediaWiki article HTML
package crawler
