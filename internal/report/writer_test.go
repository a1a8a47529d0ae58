package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wikigraph/internal/crawler"
	"github.com/nao1215/wikigraph/internal/model"
)

// testGraph returns A -> B -> D and A -> C -> D with ids set.
func testGraph() map[string]*model.Page {
	pages := make(map[string]*model.Page)
	for i, name := range []string{"A", "B", "C", "D"} {
		p := model.NewPageFromCandidate(
			model.NewWikiLink("/wiki/"+name).WithLocale("fr", "/wiki/"+name+"_fr"),
			model.Candidate{Title: name, Description: name + " is a test page."},
		)
		p.SetID(int64(i + 1))
		pages[name] = p
	}
	pages["A"].AddNeighbor(pages["C"])
	pages["A"].AddNeighbor(pages["B"])
	pages["B"].AddNeighbor(pages["D"])
	pages["C"].AddNeighbor(pages["D"])
	return pages
}

func testPathReport() *PathReport {
	g := testGraph()
	return NewPathReport("A", "D", [][]*model.Page{
		{g["A"], g["B"], g["D"]},
		{g["A"], g["C"], g["D"]},
	})
}

func testCrawlReport() *CrawlReport {
	g := testGraph()
	pages := []*model.Page{g["A"], g["B"], g["C"], g["D"]}
	missing := model.NewCrawlableLink(model.NewWikiLink("/wiki/Missing"))
	missing.MarkProcessed(false, time.Now())
	unseen := model.NewCrawlableLink(model.NewWikiLink("/wiki/Unseen"))
	graph := NewGraphReport(pages, []*model.CrawlableLink{missing, unseen})

	return NewCrawlReport("/wiki/A", crawler.Stats{
		Fetched:  6,
		Created:  4,
		Removed:  1,
		Stashed:  1,
		Duration: 1500 * time.Millisecond,
	}, graph)
}

func TestNewReports(t *testing.T) {
	t.Parallel()

	t.Run("path report", func(t *testing.T) {
		t.Parallel()
		r := testPathReport()
		if !r.Found() || r.Distance() != 2 {
			t.Errorf("expected 2 hops, got found=%v distance=%d", r.Found(), r.Distance())
		}
		if r.Paths[0][2].Title != "D" || r.Paths[0][2].URL != "https://en.wikipedia.org/wiki/D" {
			t.Errorf("unexpected last hop %+v", r.Paths[0][2])
		}

		empty := NewPathReport("A", "Z", nil)
		if empty.Found() || empty.Distance() != -1 {
			t.Errorf("expected no path, got found=%v distance=%d", empty.Found(), empty.Distance())
		}
	})

	t.Run("page report sorts neighbors", func(t *testing.T) {
		t.Parallel()
		r := NewPageReport(testGraph()["A"])
		if len(r.Neighbors) != 2 || r.Neighbors[0].Title != "B" || r.Neighbors[1].Title != "C" {
			t.Errorf("unexpected neighbors %+v", r.Neighbors)
		}
		if r.Locales["fr"] != "/wiki/A_fr" {
			t.Errorf("expected fr locale, got %v", r.Locales)
		}
	})

	t.Run("graph report", func(t *testing.T) {
		t.Parallel()
		g := testCrawlReport().Graph
		if g.Pages != 4 || g.Edges != 4 || g.Links != 2 {
			t.Errorf("unexpected graph report %+v", g)
		}
		if g.MissingLinks != 1 || g.UnprocessedLinks != 1 {
			t.Errorf("expected one missing and one unprocessed link, got %+v", g)
		}
		if g.ArticleTypes[model.ArticleTypeArticle] != 4 {
			t.Errorf("expected 4 articles, got %v", g.ArticleTypes)
		}
	})
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes paths", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WritePaths(testPathReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"2 shortest path(s)", "1. A -> B -> D", "2. A -> C -> D"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("writes missing path", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WritePaths(NewPathReport("A", "Z", nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `No path from "A" to "Z"`) {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("writes page", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		if _, err := w.WritePage(NewPageReport(testGraph()["A"])); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"A is a test page.", "LINKS (2)", "[+] B", "https://en.wikipedia.org/wiki/C", "fr"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("writes crawl summary", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteCrawl(testCrawlReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"WIKIGRAPH CRAWL", "FETCHED:   6", "CREATED:   4", "PAGES:       4", "1.5s"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "FAILURES") {
			t.Error("expected failures to be hidden when zero")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid path JSON", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WritePaths(testPathReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded PathReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if len(decoded.Paths) != 2 || decoded.Paths[1][1].Title != "C" {
			t.Errorf("unexpected decoded paths %+v", decoded.Paths)
		}
		if strings.Contains(buf.String(), "\n  ") {
			t.Error("expected compact JSON by default")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteGraph(testCrawlReport().Graph); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"pages\": 4") {
			t.Errorf("expected indented JSON, got %s", buf.String())
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent("", "\t")).WriteCrawl(testCrawlReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n\t\"seed\": \"/wiki/A\"") {
			t.Errorf("expected tab-indented JSON, got %s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes paths table", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WritePaths(testPathReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Shortest paths: A → D", "Step 2", "[B](https://en.wikipedia.org/wiki/B)", "wikigraph"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("writes note when no path exists", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WritePaths(NewPathReport("A", "Z", nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!NOTE]") {
			t.Errorf("expected a note alert, got:\n%s", buf.String())
		}
	})

	t.Run("writes page", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WritePage(NewPageReport(testGraph()["B"])); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# B", "## Languages", "## Links", "[D](https://en.wikipedia.org/wiki/D)"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("writes crawl report with chart", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteCrawl(testCrawlReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Wikigraph Crawl Report", "```mermaid", "Indexed", "[!IMPORTANT]", "### Article types"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()
		var text, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := m.WritePaths(testPathReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()
		var after bytes.Buffer
		m := NewMultiWriter(NewJSONWriter(failingWriter{}), NewJSONWriter(&after))
		if _, err := m.WriteGraph(testCrawlReport().Graph); err == nil {
			t.Fatal("expected error, got nil")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, ok := New(FormatJSON, &buf).(*JSONWriter); !ok {
		t.Error("expected JSONWriter for json format")
	}
	if _, ok := New(FormatMarkdown, &buf).(*MarkdownWriter); !ok {
		t.Error("expected MarkdownWriter for markdown format")
	}
	if _, ok := New("", &buf).(*SimpleWriter); !ok {
		t.Error("expected SimpleWriter by default")
	}
}
