// Package report renders wikigraph results: shortest paths, single pages,
// crawl summaries and graph statistics.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown for sharing
//
// Design decision: Report data structures are plain values built from the
// graph by the New* constructors, so writers never touch live pages and
// their locks.
package report
