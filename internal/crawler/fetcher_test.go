package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/wikigraph/internal/model"
)

func TestHTTPFetcherStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		contentType string
		want        model.FetchStatus
		wantErr     error
	}{
		{name: "ok", status: http.StatusOK, contentType: "text/html; charset=UTF-8", want: model.FetchSuccess},
		{name: "not found", status: http.StatusNotFound, contentType: "text/html", want: model.FetchDoesNotExist},
		{name: "gone", status: http.StatusGone, contentType: "text/html", want: model.FetchDoesNotExist},
		{name: "too many requests", status: http.StatusTooManyRequests, contentType: "text/html", want: model.FetchConnectionError, wantErr: ErrUnexpectedStatus},
		{name: "server error", status: http.StatusBadGateway, contentType: "text/html", want: model.FetchConnectionError, wantErr: ErrUnexpectedStatus},
		{name: "not html", status: http.StatusOK, contentType: "application/json", want: model.FetchDoesNotExist, wantErr: ErrNotHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<html><body>hello</body></html>"))
			}))
			defer srv.Close()

			f := NewHTTPFetcher(srv.Client(), WithBaseURL(srv.URL), WithRateLimit(0, 0))
			res := f.Fetch(context.Background(), model.NewWikiLink("/wiki/Go"))

			if res.Status != tt.want {
				t.Errorf("Status = %v, want %v", res.Status, tt.want)
			}
			if tt.wantErr != nil && !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", res.Err, tt.wantErr)
			}
			if tt.want == model.FetchSuccess {
				if res.Document == nil || !strings.Contains(string(res.Document.Body), "hello") {
					t.Errorf("Document = %+v, want body", res.Document)
				}
			}
		})
	}
}

func TestHTTPFetcherRequest(t *testing.T) {
	t.Parallel()

	var gotPath, gotUA, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Crawler")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(ClientOptions{Headers: map[string]string{"X-Crawler": "wikigraph"}})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	f := NewHTTPFetcher(client,
		WithBaseURL(srv.URL),
		WithUserAgent("test-agent"),
		WithMaxBodySize(4),
		WithRateLimit(1000, 1),
	)

	res := f.Fetch(context.Background(), model.NewWikiLink("/wiki/Café"))
	if res.Status != model.FetchSuccess {
		t.Fatalf("Status = %v (%v), want success", res.Status, res.Err)
	}
	if gotPath != "/wiki/Café" {
		t.Errorf("path = %q, want %q", gotPath, "/wiki/Café")
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "test-agent")
	}
	if gotCustom != "wikigraph" {
		t.Errorf("X-Crawler = %q, want %q", gotCustom, "wikigraph")
	}
	if string(res.Document.Body) != "0123" {
		t.Errorf("Body = %q, want it capped to %q", res.Document.Body, "0123")
	}
}

func TestHTTPFetcherTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(nil, WithBaseURL(url), WithRateLimit(0, 0))
	res := f.Fetch(context.Background(), model.NewWikiLink("/wiki/Go"))
	if res.Status != model.FetchConnectionError {
		t.Errorf("Status = %v, want %v", res.Status, model.FetchConnectionError)
	}
	if res.Err == nil {
		t.Error("Err = nil, want transport error")
	}
}

func TestHTTPFetcherURLFor(t *testing.T) {
	t.Parallel()

	f := NewHTTPFetcher(nil)
	if got, want := f.URLFor(model.NewWikiLink("/wiki/Go")), "https://en.wikipedia.org/wiki/Go"; got != want {
		t.Errorf("URLFor() = %q, want %q", got, want)
	}

	f = NewHTTPFetcher(nil, WithBaseURL("not a url"))
	if got, want := f.URLFor(model.NewWikiLink("/wiki/Go")), "https://en.wikipedia.org/wiki/Go"; got != want {
		t.Errorf("URLFor() with invalid base = %q, want %q", got, want)
	}
}

func TestNewHTTPClientProxy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		wantErr bool
	}{
		{address: "127.0.0.1:9050"},
		{address: "localhost:1080"},
		{address: "[::1]:9050"},
		{address: "127.0.0.1", wantErr: true},
		{address: ":9050", wantErr: true},
		{address: "127.0.0.1:0", wantErr: true},
		{address: "127.0.0.1:70000", wantErr: true},
		{address: "127.0.0.1:port", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			_, err := NewHTTPClient(ClientOptions{ProxyAddress: tt.address})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidProxyAddress) {
					t.Errorf("NewHTTPClient(%q) error = %v, want %v", tt.address, err, ErrInvalidProxyAddress)
				}
				return
			}
			if err != nil {
				t.Errorf("NewHTTPClient(%q) error = %v", tt.address, err)
			}
		})
	}
}

func TestFileFetcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Go.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	f := NewFileFetcher(dir)

	t.Run("existing page", func(t *testing.T) {
		t.Parallel()
		res := f.Fetch(context.Background(), model.NewWikiLink("/wiki/Go"))
		if res.Status != model.FetchSuccess {
			t.Fatalf("Status = %v (%v), want success", res.Status, res.Err)
		}
		if string(res.Document.Body) != "<html></html>" {
			t.Errorf("Body = %q", res.Document.Body)
		}
	})

	t.Run("missing page", func(t *testing.T) {
		t.Parallel()
		res := f.Fetch(context.Background(), model.NewWikiLink("/wiki/Rust"))
		if res.Status != model.FetchDoesNotExist {
			t.Errorf("Status = %v, want %v", res.Status, model.FetchDoesNotExist)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := f.Fetch(ctx, model.NewWikiLink("/wiki/Go"))
		if res.Status != model.FetchConnectionError {
			t.Errorf("Status = %v, want %v", res.Status, model.FetchConnectionError)
		}
	})
}
