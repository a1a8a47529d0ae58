package crawler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/wikigraph/internal/model"
	"github.com/nao1215/wikigraph/internal/registry"
	"github.com/nao1215/wikigraph/internal/store"
	"github.com/nao1215/wikigraph/internal/wiki"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Go (programming language) - Wikipedia</title></head>
<body>
<h1 id="firstHeading"><span class="mw-page-title-main">Go (programming language)</span></h1>
<div id="mw-content-text"><div class="mw-parser-output">
<p class="mw-empty-elt"></p>
<p id="coordinates">Somewhere</p>
<p><b>Go</b> is a <a href="/wiki/Programming_language">programming language</a> designed at <a href="/wiki/Google">Google</a>.<sup class="reference"><a href="#cite_note-1">[1]</a></sup></p>
<p>Second paragraph linking <a href="/wiki/Google#History">Google again</a> and <a href="/wiki/Go_(programming_language)">itself</a>.</p>
<a href="/wiki/File:Go_Logo_Blue.svg">logo</a>
<a href="/wiki/Special:Random">random</a>
<a href="https://golang.org/">external</a>
<a href="/w/index.php?title=Go&action=edit">edit</a>
<a href="#section">anchor</a>
</div></div>
<div id="catlinks"><a href="/wiki/Category:Programming_languages">Programming languages</a></div>
<div id="p-lang"><ul>
<li class="interlanguage-link"><a href="https://fr.wikipedia.org/wiki/Go_(langage)" hreflang="fr">Français</a></li>
<li class="interlanguage-link"><a href="//de.wikipedia.org/wiki/Go_(Programmiersprache)" hreflang="de">Deutsch</a></li>
</ul></div>
</body></html>`

const redirectHTML = `<html><body>
<h1 id="firstHeading"><span class="mw-page-title-main">Golang</span></h1>
<div id="mw-content-text"><div class="redirectMsg"><p>Redirect to:</p>
<ul class="redirectText"><li><a href="/wiki/Go_(programming_language)">Go (programming language)</a></li></ul></div>
<p>Unrelated <a href="/wiki/Other">other</a></p></div>
</body></html>`

func analyze(t *testing.T, path, body string) model.Analysis {
	t.Helper()
	link := model.NewWikiLink(path)
	a, err := NewWikiAnalyzer().Analyze(model.Fetched(link, &model.Document{Body: []byte(body)}))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return a
}

func linkPaths(links []model.WikiLink) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.Path()
	}
	return out
}

func TestWikiAnalyzerArticle(t *testing.T) {
	t.Parallel()

	a := analyze(t, "/wiki/Go_(programming_language)", articleHTML)
	if a.Malformed {
		t.Fatalf("Analyze() malformed: %s", a.Reason)
	}

	c := a.Candidate
	if c.Title != "Go (programming language)" {
		t.Errorf("Title = %q", c.Title)
	}
	if want := "Go is a programming language designed at Google."; c.Description != want {
		t.Errorf("Description = %q, want %q", c.Description, want)
	}
	if c.IsRedirect {
		t.Error("IsRedirect = true, want false")
	}
	if c.ArticleType != model.ArticleTypeArticle {
		t.Errorf("ArticleType = %q, want %q", c.ArticleType, model.ArticleTypeArticle)
	}

	wantLinks := []string{"/wiki/Programming_language", "/wiki/Google", "/wiki/Category:Programming_languages"}
	if got := linkPaths(a.Links); !slices.Equal(got, wantLinks) {
		t.Errorf("Links = %v, want %v", got, wantLinks)
	}

	if p, ok := a.Link.PathFor("fr"); !ok || p != "/wiki/Go_(langage)" {
		t.Errorf("PathFor(fr) = %q, %v", p, ok)
	}
	if p, ok := a.Link.PathFor("de"); !ok || p != "/wiki/Go_(Programmiersprache)" {
		t.Errorf("PathFor(de) = %q, %v", p, ok)
	}
}

func TestWikiAnalyzerRedirect(t *testing.T) {
	t.Parallel()

	a := analyze(t, "/wiki/Golang", redirectHTML)
	if a.Malformed {
		t.Fatalf("Analyze() malformed: %s", a.Reason)
	}
	if !a.Candidate.IsRedirect {
		t.Error("IsRedirect = false, want true")
	}
	if a.Candidate.Description != "Golang redirect" {
		t.Errorf("Description = %q, want %q", a.Candidate.Description, "Golang redirect")
	}
	if got := linkPaths(a.Links); !slices.Equal(got, []string{"/wiki/Go_(programming_language)"}) {
		t.Errorf("Links = %v, want only the redirect target", got)
	}
}

func TestWikiAnalyzerArticleType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		title string
		want  string
	}{
		{path: "/wiki/Go", title: "Go", want: model.ArticleTypeArticle},
		{path: "/wiki/List_of_programming_languages", title: "List of programming languages", want: model.ArticleTypeList},
		{path: "/wiki/Category:Programming_languages", title: "Programming languages", want: "category"},
		{path: "/wiki/Portal:Technology", title: "Technology", want: "portal"},
		{path: "/wiki/Star_Wars:_Episode_I", title: "Star Wars: Episode I", want: model.ArticleTypeArticle},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			body := `<html><body><span class="mw-page-title-main">` + tt.title +
				`</span><div id="mw-content-text"><p>x</p></div></body></html>`
			a := analyze(t, tt.path, body)
			if a.Candidate.ArticleType != tt.want {
				t.Errorf("ArticleType = %q, want %q", a.Candidate.ArticleType, tt.want)
			}
		})
	}
}

func TestWikiAnalyzerMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "no title", body: `<html><body><div id="mw-content-text"><p>x</p></div></body></html>`},
		{name: "no content", body: `<html><body><span class="mw-page-title-main">T</span></body></html>`},
		{name: "empty document", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := analyze(t, "/wiki/T", tt.body)
			if !a.Malformed {
				t.Errorf("Malformed = false, want true")
			}
			if a.Reason == "" {
				t.Error("Reason is empty")
			}
		})
	}
}

func TestWikiAnalyzerFallbackHeading(t *testing.T) {
	t.Parallel()

	body := `<html><body><h1 id="firstHeading">Old skin</h1><div id="mw-content-text"><p>Body</p></div></body></html>`
	a := analyze(t, "/wiki/Old_skin", body)
	if a.Candidate.Title != "Old skin" {
		t.Errorf("Title = %q, want %q", a.Candidate.Title, "Old skin")
	}
}

func TestWikiAnalyzerNoDocument(t *testing.T) {
	t.Parallel()

	_, err := NewWikiAnalyzer().Analyze(model.NotFound(model.NewWikiLink("/wiki/X")))
	if !errors.Is(err, ErrNoDocument) {
		t.Errorf("Analyze() error = %v, want %v", err, ErrNoDocument)
	}
}

// TestOfflineCrawl runs the whole pipeline over saved pages.
func TestOfflineCrawl(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pages := map[string]string{
		"Alpha": `<a href="/wiki/Beta">b</a> <a href="/wiki/Gamma">g</a>`,
		"Beta":  `<a href="/wiki/Delta">d</a>`,
		"Gamma": `<a href="/wiki/Delta">d</a> <a href="/wiki/Nowhere">n</a>`,
		"Delta": `<a href="/wiki/Alpha">a</a>`,
	}
	for name, links := range pages {
		body := `<html><body><span class="mw-page-title-main">` + name +
			`</span><div id="mw-content-text"><p>` + name + ` is a page. ` + links + `</p></div></body></html>`
		if err := os.WriteFile(filepath.Join(dir, name+".html"), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	mem := store.NewMemory()
	svc := wiki.NewService(mem, registry.New(mem), wiki.WithStaging(2))
	cfg := testConfig()
	sup, err := New(cfg, svc, NewFileFetcher(dir), NewWikiAnalyzer())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := sup.Start(context.Background(), model.NewWikiLink("/wiki/Alpha")); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sup.Await(ctx); err != nil {
		t.Fatalf("Await() error = %v", err)
	}

	n, err := mem.PageCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("PageCount() = %d, want 4 after publishing staged pages", n)
	}
	paths, err := svc.ShortestPathsByTitle(context.Background(), "Alpha", "Delta")
	if err != nil {
		t.Fatalf("ShortestPathsByTitle() error = %v", err)
	}
	if len(paths) != 2 || len(paths[0]) != 3 {
		t.Errorf("paths = %d (len %d), want 2 paths of 3 pages", len(paths), len(paths[0]))
	}
	if got := sup.Stats().Removed; got != 1 {
		t.Errorf("Stats().Removed = %d, want 1", got)
	}
}
