package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidFetchWorkers is returned when the fetch pool size is not positive.
	ErrInvalidFetchWorkers = errors.New("invalid fetch workers: must be positive")

	// ErrInvalidAnalysisWorkers is returned when the analysis pool size is not positive.
	ErrInvalidAnalysisWorkers = errors.New("invalid analysis workers: must be positive")

	// ErrInvalidRevisitWorkers is returned when the revisit pool size is negative.
	ErrInvalidRevisitWorkers = errors.New("invalid revisit workers: must be non-negative")

	// ErrInvalidParsedCapacity is returned when the parsed buffer capacity is not positive.
	ErrInvalidParsedCapacity = errors.New("invalid parsed capacity: must be positive")

	// ErrInvalidRevisitInterval is returned when the revisit interval is not positive.
	// A zero interval would recrawl every page as soon as it is processed.
	ErrInvalidRevisitInterval = errors.New("invalid revisit interval: must be positive")

	// ErrInvalidScanInterval is returned when the revisit scan interval is not positive.
	ErrInvalidScanInterval = errors.New("invalid revisit scan interval: must be positive")

	// ErrInvalidBulkPublish is returned when the staging threshold is negative.
	ErrInvalidBulkPublish = errors.New("invalid creates until bulk publish: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidEnv is returned when a WIKIGRAPH_* variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)
