// Package wiki implements the graph service: it turns analyzed pages into
// graph nodes and edges, reconciles forward references, and answers
// shortest path queries.
//
// # Linking
//
// An edge A→B is only stored once B's page exists. When A is linked before
// B has been indexed, A is recorded as a pending reference on B's crawl
// record. When B is created, its pending references are drained and each
// referrer gains its edge to B exactly once.
//
// Design decision: The lookup "does B have a page?" and the deferral "add A
// to B's pending set" run under B's record lock, and B's creation publishes
// the page and drains the pending set under the same lock. A reference is
// therefore either resolved against the published page or delivered by the
// drain; it can never fall between the two.
//
// # Per-page exclusivity
//
// Create and Update hold a lock for the page being written for the whole
// call, so no two writers rewrite the same page's neighbor set at once.
// Locks are striped by link identity; a call only ever holds one stripe.
//
// # Staging
//
// With staging enabled, new pages are written to an in-memory staging store
// and flushed to the primary store in batches once a threshold of creates is
// reached, or when PublishStaged is called at shutdown. Every read consults
// the staging store first, so unflushed pages remain visible to linking.
package wiki
