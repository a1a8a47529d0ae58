package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose adds descriptions and URLs to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// WritePaths implements Writer.
func (w *SimpleWriter) WritePaths(r *PathReport) (int, error) {
	var sb strings.Builder

	if !r.Found() {
		fmt.Fprintf(&sb, "No path from %q to %q.\n", r.From, r.To)
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%d shortest path(s) from %q to %q, %d hop(s):\n\n",
		len(r.Paths), r.From, r.To, r.Distance())
	for i, path := range r.Paths {
		titles := make([]string, len(path))
		for j, p := range path {
			titles[j] = p.Title
		}
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, strings.Join(titles, " -> "))
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WritePage implements Writer.
func (w *SimpleWriter) WritePage(r *PageReport) (int, error) {
	var sb strings.Builder
	p := r.Page

	writeSection(&sb, strings.ToUpper(p.Title))
	fmt.Fprintf(&sb, "ID:           %d\n", p.ID)
	fmt.Fprintf(&sb, "Link:         %s\n", p.Link)
	fmt.Fprintf(&sb, "URL:          %s\n", p.URL)
	fmt.Fprintf(&sb, "Type:         %s\n", p.ArticleType)
	if p.IsRedirect {
		sb.WriteString("Redirect:     yes\n")
	}
	if p.Removed {
		sb.WriteString("Status:       REMOVED\n")
	}
	if p.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", p.Description)
	}
	sb.WriteString("\n")

	if len(r.Locales) > 0 {
		writeSection(&sb, "LANGUAGES")
		locales := make([]string, 0, len(r.Locales))
		for l := range r.Locales {
			locales = append(locales, l)
		}
		slices.Sort(locales)
		for _, l := range locales {
			fmt.Fprintf(&sb, "  %-6s %s\n", l, r.Locales[l])
		}
		sb.WriteString("\n")
	}

	writeSection(&sb, fmt.Sprintf("LINKS (%d)", len(r.Neighbors)))
	if len(r.Neighbors) == 0 {
		sb.WriteString("  No outbound links\n")
	}
	for _, n := range r.Neighbors {
		fmt.Fprintf(&sb, "  [+] %s\n", n.Title)
		if w.verbose && n.URL != "" {
			fmt.Fprintf(&sb, "      %s\n", n.URL)
		}
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteCrawl implements Writer.
func (w *SimpleWriter) WriteCrawl(r *CrawlReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                          WIKIGRAPH CRAWL\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Seed:      %s\n", r.Seed)
	fmt.Fprintf(&sb, "Duration:  %s\n\n", r.Duration.Round(time.Millisecond))

	writeSection(&sb, "CRAWL SUMMARY")
	fmt.Fprintf(&sb, "  FETCHED:   %d\n", r.Fetched)
	fmt.Fprintf(&sb, "  CREATED:   %d\n", r.Created)
	fmt.Fprintf(&sb, "  UPDATED:   %d\n", r.Updated)
	fmt.Fprintf(&sb, "  REMOVED:   %d\n", r.Removed)
	fmt.Fprintf(&sb, "  STASHED:   %d\n", r.Stashed)
	if r.Failures > 0 || w.verbose {
		fmt.Fprintf(&sb, "  FAILURES:  %d\n", r.Failures)
	}
	sb.WriteString("\n")

	if r.Graph != nil {
		w.writeGraph(&sb, r.Graph)
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteGraph implements Writer.
func (w *SimpleWriter) WriteGraph(r *GraphReport) (int, error) {
	var sb strings.Builder
	w.writeGraph(&sb, r)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeGraph(sb *strings.Builder, r *GraphReport) {
	writeSection(sb, "GRAPH")
	fmt.Fprintf(sb, "  PAGES:       %d\n", r.Pages)
	fmt.Fprintf(sb, "  REMOVED:     %d\n", r.RemovedPages)
	fmt.Fprintf(sb, "  REDIRECTS:   %d\n", r.Redirects)
	fmt.Fprintf(sb, "  EDGES:       %d\n", r.Edges)
	fmt.Fprintf(sb, "  LINKS:       %d\n", r.Links)
	fmt.Fprintf(sb, "  UNPROCESSED: %d\n", r.UnprocessedLinks)
	fmt.Fprintf(sb, "  MISSING:     %d\n", r.MissingLinks)
	sb.WriteString("\n")

	if len(r.ArticleTypes) > 0 {
		types := make([]string, 0, len(r.ArticleTypes))
		for t := range r.ArticleTypes {
			types = append(types, t)
		}
		slices.Sort(types)
		sb.WriteString("  Article types:\n")
		for _, t := range types {
			fmt.Fprintf(sb, "    %-12s %d\n", t, r.ArticleTypes[t])
		}
		sb.WriteString("\n")
	}
}
