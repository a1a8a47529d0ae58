package crawler

import "time"

// Default pool sizes and thresholds.
const (
	// DefaultFetchWorkers is high because fetching is network bound.
	DefaultFetchWorkers = 60

	// DefaultAnalysisWorkers is 1: analysis is CPU bound and cheap compared
	// to fetching, and a single writer keeps SQLite contention low.
	DefaultAnalysisWorkers = 1

	// DefaultRevisitWorkers is the number of revisit scanners.
	DefaultRevisitWorkers = 1

	// DefaultParsedCapacity bounds the parsed-results buffer.
	DefaultParsedCapacity = 1000

	// DefaultRevisitScanInterval is the pause between revisit scans.
	DefaultRevisitScanInterval = 10 * time.Second
)

// Config is the immutable configuration of a Supervisor. It is validated
// once by New.
type Config struct {
	// FetchWorkers is the size of the fetch pool.
	FetchWorkers int

	// AnalysisWorkers is the size of the analysis pool.
	AnalysisWorkers int

	// RevisitWorkers is the size of the revisit pool. Zero disables
	// revisiting.
	RevisitWorkers int

	// ParsedCapacity bounds the buffer between fetch and analysis workers.
	ParsedCapacity int

	// RevisitScanInterval is the pause between two scans of a revisit
	// worker.
	RevisitScanInterval time.Duration

	// MaxPages stops the crawl once this many pages have been indexed.
	// Zero means unlimited.
	MaxPages int

	// ShutdownOnDrain shuts the crawl down when no link is queued or in
	// flight. When false, the revisit workers are released instead and the
	// crawl runs until Shutdown is called.
	ShutdownOnDrain bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FetchWorkers:        DefaultFetchWorkers,
		AnalysisWorkers:     DefaultAnalysisWorkers,
		RevisitWorkers:      DefaultRevisitWorkers,
		ParsedCapacity:      DefaultParsedCapacity,
		RevisitScanInterval: DefaultRevisitScanInterval,
		ShutdownOnDrain:     true,
	}
}

// Validate checks the configuration and returns the first problem found.
func (c Config) Validate() error {
	if c.FetchWorkers <= 0 {
		return ErrInvalidFetchWorkers
	}
	if c.AnalysisWorkers <= 0 {
		return ErrInvalidAnalysisWorkers
	}
	if c.RevisitWorkers < 0 {
		return ErrInvalidRevisitWorkers
	}
	if c.ParsedCapacity <= 0 {
		return ErrInvalidParsedCapacity
	}
	if c.RevisitWorkers > 0 && c.RevisitScanInterval <= 0 {
		return ErrInvalidRevisitScanInterval
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	return nil
}
