package report

import (
	"io"
)

// Writer defines the interface for report output.
// Implementations write results in various formats and return the number
// of bytes written.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or both with
// the same API.
type Writer interface {
	WritePaths(r *PathReport) (int, error)
	WritePage(r *PageReport) (int, error)
	WriteCrawl(r *CrawlReport) (int, error)
	WriteGraph(r *GraphReport) (int, error)
}

// Format names accepted by New.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// New returns the writer for format, defaulting to text.
func New(format string, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because each destination may use its own format.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// each calls fn for every writer and stops on the first error.
func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WritePaths implements Writer.
func (m *MultiWriter) WritePaths(r *PathReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WritePaths(r) })
}

// WritePage implements Writer.
func (m *MultiWriter) WritePage(r *PageReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WritePage(r) })
}

// WriteCrawl implements Writer.
func (m *MultiWriter) WriteCrawl(r *CrawlReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteCrawl(r) })
}

// WriteGraph implements Writer.
func (m *MultiWriter) WriteGraph(r *GraphReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteGraph(r) })
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
