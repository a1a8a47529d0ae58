package crawler

import "time"

// Stats is a snapshot of crawl statistics.
type Stats struct {
	// Fetched counts fetch attempts.
	Fetched int64
	// Created counts new pages.
	Created int64
	// Updated counts re-analyzed pages.
	Updated int64
	// Removed counts links tombstoned as missing or malformed.
	Removed int64
	// Stashed counts links set aside for a retry.
	Stashed int64
	// Failures counts unexpected errors caught by workers.
	Failures int64
	// InFlight is the number of links queued or being processed.
	InFlight int
	// Queued is the number of items in the frontier.
	Queued int
	// Duration is the time since Start.
	Duration time.Duration
}

// Indexed returns the number of pages created or updated.
func (s Stats) Indexed() int64 {
	return s.Created + s.Updated
}

// Stats returns a snapshot of the crawl statistics.
func (s *Supervisor) Stats() Stats {
	s.mu.Lock()
	inFlight := s.inFlight
	startedAt := s.startedAt
	s.mu.Unlock()

	var d time.Duration
	if !startedAt.IsZero() {
		d = time.Since(startedAt)
	}
	return Stats{
		Fetched:  s.stats.fetched.Load(),
		Created:  s.stats.created.Load(),
		Updated:  s.stats.updated.Load(),
		Removed:  s.stats.removed.Load(),
		Stashed:  s.stats.stashed.Load(),
		Failures: s.stats.failures.Load(),
		InFlight: inFlight,
		Queued:   s.frontier.Len(),
		Duration: d,
	}
}
