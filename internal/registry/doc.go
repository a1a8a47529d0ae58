// Package registry tracks the crawl state of every link the crawler has ever
// observed and decides when a link may be crawled again.
//
// The registry wraps a store.LinkRepository. Every state transition is made
// on the record itself under the record's own lock and then written through
// to the repository, so two workers touching different links never contend
// and two workers touching the same link are serialized.
//
// Revisit policy: a link may be scheduled when it is not currently
// registered (queued or in flight) and its last resolved attempt is older
// than the revisit interval. Links that were never processed are always
// eligible.
package registry
