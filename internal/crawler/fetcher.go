package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/nao1215/wikigraph/internal/model"
)

const (
	// DefaultBaseURL is the wiki that relative links are resolved against.
	DefaultBaseURL = "https://en.wikipedia.org"

	// DefaultUserAgent identifies the crawler to the wiki.
	DefaultUserAgent = "wikigraph/1.0 (+https://github.com/nao1215/wikigraph)"

	// DefaultMaxBodySize caps the bytes read from one response.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	// DefaultRequestsPerSecond and DefaultBurst are the default rate limit.
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 20
)

// HTTPFetcher fetches pages over HTTP.
//
// Status mapping: 404 and 410 mean the page does not exist, as does a
// non-HTML body. Transport errors, 429, 5xx and any other non-2xx status
// are connection errors so the link is retried later.
type HTTPFetcher struct {
	client      *http.Client
	baseURL     *url.URL
	limiter     *rate.Limiter
	userAgent   string
	maxBodySize int64
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithBaseURL sets the wiki root. Invalid URLs are ignored.
func WithBaseURL(raw string) FetcherOption {
	return func(f *HTTPFetcher) {
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
			f.baseURL = u
		}
	}
}

// WithRateLimit sets the request rate. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) FetcherOption {
	return func(f *HTTPFetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the response size.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// NewHTTPFetcher creates a fetcher. A nil client gets NewHTTPClient defaults.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client, _ = NewHTTPClient(ClientOptions{}) //nolint:errcheck // no proxy, cannot fail
	}
	base, _ := url.Parse(DefaultBaseURL) //nolint:errcheck // constant
	f := &HTTPFetcher{
		client:      client,
		baseURL:     base,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URLFor returns the absolute URL fetched for link.
func (f *HTTPFetcher) URLFor(link model.WikiLink) string {
	return f.baseURL.JoinPath(link.Path()).String()
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, link model.WikiLink) model.FetchResult {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return model.ConnectionFailed(link, err)
		}
	}

	target := f.URLFor(link)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return model.ConnectionFailed(link, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return model.ConnectionFailed(link, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return model.NotFound(link)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return model.ConnectionFailed(link, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		r := model.NotFound(link)
		r.Err = fmt.Errorf("%w: %s", ErrNotHTML, contentType)
		return r
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.ConnectionFailed(link, err)
		}
		return model.ConnectionFailed(link, fmt.Errorf("failed to read body: %w", err))
	}

	return model.Fetched(link, &model.Document{
		URL:         resp.Request.URL.String(),
		ContentType: contentType,
		Body:        body,
	})
}

// isHTML reports whether contentType is an HTML type. An empty type is
// accepted because some servers omit it.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml" || strings.HasSuffix(mt, "+html")
}
