package report

import (
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WritePaths implements Writer.
func (w *MarkdownWriter) WritePaths(r *PathReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Shortest paths: " + r.From + " → " + r.To)
	md.PlainText("")

	if !r.Found() {
		md.Note("No path exists between these pages in the crawled graph.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Paths", strconv.Itoa(len(r.Paths))},
			{"Hops", strconv.Itoa(r.Distance())},
			{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	header := []string{"#"}
	for i := range r.Paths[0] {
		header = append(header, "Step "+strconv.Itoa(i))
	}
	rows := make([][]string, len(r.Paths))
	for i, path := range r.Paths {
		row := []string{strconv.Itoa(i + 1)}
		for _, p := range path {
			row = append(row, mdLink(p))
		}
		rows[i] = row
	}
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WritePage implements Writer.
func (w *MarkdownWriter) WritePage(r *PageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	p := r.Page

	md.H1(p.Title)
	md.PlainText("")
	if p.Removed {
		md.Warningf("This page no longer exists on the wiki.")
		md.PlainText("")
	}
	if p.Description != "" {
		md.PlainText(p.Description)
		md.PlainText("")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"ID", strconv.FormatInt(p.ID, 10)},
			{"Link", "`" + p.Link + "`"},
			{"Type", p.ArticleType},
			{"Redirect", strconv.FormatBool(p.IsRedirect)},
			{"Outbound links", strconv.Itoa(len(r.Neighbors))},
		},
	})
	md.PlainText("")

	if len(r.Locales) > 0 {
		md.H2("Languages")
		md.PlainText("")
		locales := make([]string, 0, len(r.Locales))
		for l := range r.Locales {
			locales = append(locales, l)
		}
		slices.Sort(locales)
		items := make([]string, len(locales))
		for i, l := range locales {
			items[i] = l + ": `" + r.Locales[l] + "`"
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	md.H2("Links")
	md.PlainText("")
	if len(r.Neighbors) == 0 {
		md.PlainText("No outbound links.")
		md.PlainText("")
	} else {
		items := make([]string, len(r.Neighbors))
		for i, n := range r.Neighbors {
			items[i] = mdLink(n)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteCrawl implements Writer.
func (w *MarkdownWriter) WriteCrawl(r *CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Wikigraph Crawl Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + r.Seed + "`"},
			{"Date", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", r.Duration.String()},
		},
	})
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Fetched", strconv.FormatInt(r.Fetched, 10)},
			{"Created", strconv.FormatInt(r.Created, 10)},
			{"Updated", strconv.FormatInt(r.Updated, 10)},
			{"Removed", strconv.FormatInt(r.Removed, 10)},
			{"Stashed", strconv.FormatInt(r.Stashed, 10)},
			{"Failures", strconv.FormatInt(r.Failures, 10)},
		},
	})
	md.PlainText("")

	if r.Indexed()+r.Removed+r.Stashed > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Link outcomes"),
			piechart.WithShowData(true),
		)
		for _, o := range []struct {
			label string
			n     int64
		}{{"Indexed", r.Indexed()}, {"Removed", r.Removed}, {"Stashed", r.Stashed}} {
			if o.n > 0 {
				chart.LabelAndIntValue(o.label, uint64(o.n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case r.Failures > 0:
		md.Warningf("%d link(s) failed unexpectedly and were stashed for a retry.", r.Failures)
	case r.Stashed > 0:
		md.Importantf("%d link(s) could not be fetched and will be retried after the revisit interval.", r.Stashed)
	default:
		md.Tip("Every fetched link was resolved.")
	}
	md.PlainText("")

	if r.Graph != nil {
		w.writeGraph(md, r.Graph)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteGraph implements Writer.
func (w *MarkdownWriter) WriteGraph(r *GraphReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Wikigraph Statistics")
	md.PlainText("")
	w.writeGraph(md, r)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeGraph(md *markdown.Markdown, r *GraphReport) {
	md.H2("Graph")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Pages", strconv.Itoa(r.Pages)},
			{"Removed pages", strconv.Itoa(r.RemovedPages)},
			{"Redirects", strconv.Itoa(r.Redirects)},
			{"Edges", strconv.Itoa(r.Edges)},
			{"Known links", strconv.Itoa(r.Links)},
			{"Unprocessed links", strconv.Itoa(r.UnprocessedLinks)},
			{"Missing links", strconv.Itoa(r.MissingLinks)},
		},
	})
	md.PlainText("")

	if len(r.ArticleTypes) > 0 {
		types := make([]string, 0, len(r.ArticleTypes))
		for t := range r.ArticleTypes {
			types = append(types, t)
		}
		slices.Sort(types)
		rows := make([][]string, len(types))
		for i, t := range types {
			rows[i] = []string{t, strconv.Itoa(r.ArticleTypes[t])}
		}
		md.PlainText("### Article types")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"Type", "Pages"}, Rows: rows})
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wikigraph](https://github.com/nao1215/wikigraph)*")
}

// mdLink renders a page as a markdown link to its article.
func mdLink(p PageSummary) string {
	title := strings.NewReplacer("[", "\\[", "]", "\\]", "|", "\\|").Replace(p.Title)
	if p.URL == "" {
		return title
	}
	return "[" + title + "](" + p.URL + ")"
}
