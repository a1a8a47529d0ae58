package model

// FetchStatus classifies the outcome of fetching a link.
type FetchStatus int

const (
	// FetchSuccess means a document was retrieved.
	FetchSuccess FetchStatus = iota

	// FetchDoesNotExist means the page is permanently absent.
	// The link is tombstoned and not retried automatically.
	FetchDoesNotExist

	// FetchConnectionError means the attempt failed transiently.
	// The link becomes eligible for retry after the revisit interval.
	FetchConnectionError
)

// String returns a human-readable status name.
func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "success"
	case FetchDoesNotExist:
		return "does_not_exist"
	case FetchConnectionError:
		return "connection_error"
	default:
		return "unknown"
	}
}

// Document is a fetched, not yet analyzed, page body.
// The crawl core treats it opaquely and hands it to an analyzer.
type Document struct {
	// URL is the location the document was fetched from.
	URL string

	// ContentType is the MIME type reported by the source, if any.
	ContentType string

	// Body is the raw document.
	Body []byte
}

// FetchResult is the outcome of fetching one link.
// Document is set only when Status is FetchSuccess; Err optionally carries
// the cause of a failure for logging.
type FetchResult struct {
	Link     WikiLink
	Status   FetchStatus
	Document *Document
	Err      error
}

// Fetched returns a successful result.
func Fetched(link WikiLink, doc *Document) FetchResult {
	return FetchResult{Link: link, Status: FetchSuccess, Document: doc}
}

// NotFound returns a does-not-exist result.
func NotFound(link WikiLink) FetchResult {
	return FetchResult{Link: link, Status: FetchDoesNotExist}
}

// ConnectionFailed returns a transient failure result.
func ConnectionFailed(link WikiLink, err error) FetchResult {
	return FetchResult{Link: link, Status: FetchConnectionError, Err: err}
}
