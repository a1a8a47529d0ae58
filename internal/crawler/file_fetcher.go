package crawler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/wikigraph/internal/model"
)

// FileFetcher serves pages from a directory of saved HTML files, one per
// page, named after the last segment of the link path: /wiki/Go is read
// from <dir>/Go.html. It is used for offline crawls and tests.
type FileFetcher struct {
	dir string
}

// NewFileFetcher creates a fetcher reading from dir.
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{dir: dir}
}

// PathFor returns the file that backs link.
func (f *FileFetcher) PathFor(link model.WikiLink) string {
	p := link.Path()
	name := p[strings.LastIndex(p, "/")+1:]
	return filepath.Join(f.dir, name+".html")
}

// Fetch implements Fetcher. A missing file means the page does not exist;
// any other read error is a connection error.
func (f *FileFetcher) Fetch(ctx context.Context, link model.WikiLink) model.FetchResult {
	if err := ctx.Err(); err != nil {
		return model.ConnectionFailed(link, err)
	}

	path := f.PathFor(link)
	if filepath.Base(path) == ".html" {
		return model.NotFound(link)
	}

	body, err := os.ReadFile(path) //nolint:gosec // path is confined to dir by construction
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NotFound(link)
		}
		return model.ConnectionFailed(link, fmt.Errorf("failed to read %s: %w", path, err))
	}

	return model.Fetched(link, &model.Document{
		URL:         "file://" + filepath.ToSlash(path),
		ContentType: "text/html; charset=utf-8",
		Body:        body,
	})
}
