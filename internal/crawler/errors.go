package crawler

import "errors"

var (
	// ErrShutDown is returned when work is submitted to a supervisor that has
	// been shut down.
	ErrShutDown = errors.New("crawler has been shut down")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("crawler already started")

	// ErrNotHTML is the cause attached to results whose content type is not
	// HTML.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrUnexpectedStatus is the cause attached to results with a retryable
	// HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNoDocument is returned by analyzers given a result without a
	// document.
	ErrNoDocument = errors.New("fetch result has no document")

	// ErrInvalidProxyAddress is returned when a proxy address is not in
	// "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrInvalidFetchWorkers is returned when the fetch pool size is not
	// positive.
	ErrInvalidFetchWorkers = errors.New("invalid fetch workers: must be positive")

	// ErrInvalidAnalysisWorkers is returned when the analysis pool size is
	// not positive.
	ErrInvalidAnalysisWorkers = errors.New("invalid analysis workers: must be positive")

	// ErrInvalidRevisitWorkers is returned when the revisit pool size is
	// negative.
	ErrInvalidRevisitWorkers = errors.New("invalid revisit workers: must be non-negative")

	// ErrInvalidParsedCapacity is returned when the parsed buffer capacity is
	// not positive.
	ErrInvalidParsedCapacity = errors.New("invalid parsed buffer capacity: must be positive")

	// ErrInvalidRevisitScanInterval is returned when revisit workers are
	// configured with a non-positive scan interval.
	ErrInvalidRevisitScanInterval = errors.New("invalid revisit scan interval: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")
)
