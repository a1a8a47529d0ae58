package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/wikigraph/internal/model"
)

// Page structure selectors of MediaWiki's default skin.
const (
	selTitle       = ".mw-page-title-main"
	selHeading     = "#firstHeading"
	selContent     = "#mw-content-text"
	selCategories  = "#catlinks"
	selLanguages   = "#p-lang"
	selRedirectMsg = ".redirectMsg"

	articlePathPrefix = "/wiki/"
)

// skippedNamespaces are namespaces whose pages are never crawled.
var skippedNamespaces = map[string]bool{
	"file":    true,
	"image":   true,
	"media":   true,
	"special": true,
}

// WikiAnalyzer extracts pages from MediaWiki HTML.
type WikiAnalyzer struct{}

// NewWikiAnalyzer creates an analyzer.
func NewWikiAnalyzer() *WikiAnalyzer {
	return &WikiAnalyzer{}
}

// Analyze implements Analyzer.
//
// A page without a title or without a content block is malformed. Redirect
// pages are recognized by their redirect notice; they link only to their
// target and are described as "<title> redirect".
func (a *WikiAnalyzer) Analyze(res model.FetchResult) (model.Analysis, error) {
	if res.Document == nil {
		return model.Analysis{}, ErrNoDocument
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Document.Body))
	if err != nil {
		return model.MalformedPage(res.Link, fmt.Sprintf("unparsable HTML: %v", err)), nil
	}

	title := pageTitle(doc)
	if title == "" {
		return model.MalformedPage(res.Link, "page has no title"), nil
	}

	c := model.Candidate{
		Title:       title,
		ArticleType: articleType(res.Link, title),
		Locales:     languageLinks(doc),
	}

	if redirect := doc.Find(selRedirectMsg).First(); redirect.Length() > 0 {
		c.IsRedirect = true
		c.Description = title + " redirect"
		return model.Analyzed(res.Link, c, collectLinks(res.Link, redirect)), nil
	}

	content := doc.Find(selContent).First()
	if content.Length() == 0 {
		return model.MalformedPage(res.Link, "page has no content"), nil
	}

	c.Description = firstParagraph(content)
	links := collectLinks(res.Link, content, doc.Find(selCategories))
	return model.Analyzed(res.Link, c, links), nil
}

func pageTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find(selTitle).First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find(selHeading).First().Text())
}

// articleType is the lower-cased namespace of the page, "list" for list
// articles, or model.ArticleTypeArticle.
func articleType(link model.WikiLink, title string) string {
	if ns := namespace(link.Path()); ns != "" {
		return ns
	}
	if strings.HasPrefix(title, "List of ") || strings.HasPrefix(title, "Lists of ") {
		return model.ArticleTypeList
	}
	return model.ArticleTypeArticle
}

// namespace returns the lower-cased namespace of an article path, or "" for
// the main namespace.
func namespace(path string) string {
	name, ok := strings.CutPrefix(path, articlePathPrefix)
	if !ok {
		return ""
	}
	ns, _, found := strings.Cut(name, ":")
	if !found || ns == "" || strings.ContainsAny(ns, " _") {
		return ""
	}
	// Casers keep state, so one is built per call.
	return cases.Lower(language.English).String(ns)
}

// collectLinks returns the internal article links found in the selections,
// deduplicated in document order. Self links are dropped.
func collectLinks(self model.WikiLink, sels ...*goquery.Selection) []model.WikiLink {
	seen := map[string]bool{self.Key(): true}
	var out []model.WikiLink
	for _, sel := range sels {
		sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			link, ok := internalLink(href)
			if !ok || seen[link.Key()] {
				return
			}
			seen[link.Key()] = true
			out = append(out, link)
		})
	}
	return out
}

// internalLink parses href as a link to another article of the same wiki.
func internalLink(href string) (model.WikiLink, bool) {
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return model.WikiLink{}, false
	}
	if !strings.HasPrefix(u.Path, articlePathPrefix) || len(u.Path) == len(articlePathPrefix) {
		return model.WikiLink{}, false
	}
	if skippedNamespaces[namespace(u.Path)] {
		return model.WikiLink{}, false
	}
	link, err := model.ParseWikiLink(u.Path)
	if err != nil {
		return model.WikiLink{}, false
	}
	return link, true
}

// languageLinks maps the locale of each interlanguage link to its path.
// The locale is the first label of the link's host, e.g. "fr" for
// fr.wikipedia.org.
func languageLinks(doc *goquery.Document) map[string]string {
	locales := make(map[string]string)
	doc.Find(selLanguages).Find("li a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "//") {
			href = "https:" + href
		}
		u, err := url.Parse(href)
		if err != nil || u.Host == "" || u.Path == "" {
			return
		}
		locale, _, _ := strings.Cut(u.Hostname(), ".")
		if locale == "" || locale == model.DefaultLocale {
			return
		}
		if _, dup := locales[locale]; !dup {
			locales[locale] = u.Path
		}
	})
	if len(locales) == 0 {
		return nil
	}
	return locales
}

// firstParagraph returns the text of the first paragraph without a class or
// id attribute, omitting citation markers.
func firstParagraph(content *goquery.Selection) string {
	var desc string
	content.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, ok := s.Attr("class"); ok {
			return true
		}
		if _, ok := s.Attr("id"); ok {
			return true
		}
		var b strings.Builder
		for _, n := range s.Nodes {
			writeText(&b, n)
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			return true
		}
		desc = text
		return false
	})
	return desc
}

// writeText appends the text below n, skipping citation superscripts and
// style blocks.
func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Style || n.DataAtom == atom.Script {
			return
		}
		if n.DataAtom == atom.Sup && hasClass(n, "reference") {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}
