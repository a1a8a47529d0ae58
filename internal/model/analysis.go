package model

// Candidate holds the page fields extracted by an analyzer.
type Candidate struct {
	Title       string
	Description string
	IsRedirect  bool
	ArticleType string

	// Locales maps interlanguage locales to paths on that locale's wiki.
	Locales map[string]string
}

// Analysis is the outcome of analyzing a fetched document: either a usable
// candidate page with its outbound links, or a malformed page.
type Analysis struct {
	Link      WikiLink
	Candidate Candidate
	Links     []WikiLink

	// Malformed is true when the document could not be interpreted as a
	// page. Reason explains why.
	Malformed bool
	Reason    string
}

// Analyzed returns a successful analysis. The link is enriched with the
// candidate's interlanguage paths.
func Analyzed(link WikiLink, c Candidate, links []WikiLink) Analysis {
	for locale, path := range c.Locales {
		link = link.WithLocale(locale, path)
	}
	return Analysis{Link: link, Candidate: c, Links: links}
}

// MalformedPage returns a malformed analysis.
func MalformedPage(link WikiLink, reason string) Analysis {
	return Analysis{Link: link, Malformed: true, Reason: reason}
}
