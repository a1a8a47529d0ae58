package model

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultLocale is the locale whose path defines a link's identity.
	DefaultLocale = "en"

	// WikiHostSuffix is the registrable domain accepted by ParseWikiLink for
	// absolute URLs. Any host ending in it (en.wikipedia.org, de.wikipedia.org)
	// is considered internal.
	WikiHostSuffix = "wikipedia.org"
)

// WikiLink is the canonical identity of a wiki page.
// It maps locales to relative paths; equality is defined solely by the
// default-locale path, so two links that differ only in their interlanguage
// alternates are the same link.
//
// WikiLink is an immutable value. WithLocale returns a modified copy and the
// locale map is never mutated after construction, which makes it safe to
// share between goroutines without locking.
type WikiLink struct {
	// path is the NFC-normalized default-locale path, e.g. "/wiki/Go".
	path string

	// locales holds alternate paths keyed by locale. It never contains
	// DefaultLocale.
	locales map[string]string
}

// NewWikiLink creates a link from a default-locale relative path.
// The path is normalized to Unicode NFC and given a leading slash.
func NewWikiLink(path string) WikiLink {
	return WikiLink{path: normalizePath(path)}
}

// ParseWikiLink parses a relative path or an absolute wiki URL into a link.
// Query strings and fragments are discarded because they address the same
// page. Absolute URLs must point at a host under WikiHostSuffix.
func ParseWikiLink(raw string) (WikiLink, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return WikiLink{}, fmt.Errorf("failed to parse link %q: %w", raw, err)
	}
	if u.Host != "" && !isWikiHost(u.Hostname()) {
		return WikiLink{}, fmt.Errorf("%w: %s", ErrExternalLink, raw)
	}
	if u.Path == "" || u.Path == "/" {
		return WikiLink{}, fmt.Errorf("%w: %q", ErrEmptyLinkPath, raw)
	}
	return NewWikiLink(u.Path), nil
}

// MustParseWikiLink is like ParseWikiLink but panics on error.
// It is intended for constants and tests.
func MustParseWikiLink(raw string) WikiLink {
	l, err := ParseWikiLink(raw)
	if err != nil {
		panic(err)
	}
	return l
}

func isWikiHost(host string) bool {
	host = strings.ToLower(host)
	return host == WikiHostSuffix || strings.HasSuffix(host, "."+WikiHostSuffix)
}

func normalizePath(path string) string {
	path = norm.NFC.String(strings.TrimSpace(path))
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Key returns the identity of the link, suitable as a map key.
func (l WikiLink) Key() string {
	return l.path
}

// Path returns the default-locale relative path.
func (l WikiLink) Path() string {
	return l.path
}

// IsZero reports whether l is the zero link.
func (l WikiLink) IsZero() bool {
	return l.path == ""
}

// Equal reports whether l and o identify the same page.
func (l WikiLink) Equal(o WikiLink) bool {
	return l.path == o.path
}

// String implements fmt.Stringer.
func (l WikiLink) String() string {
	return l.path
}

// PathFor returns the path for the given locale.
func (l WikiLink) PathFor(locale string) (string, bool) {
	if locale == DefaultLocale {
		return l.path, l.path != ""
	}
	p, ok := l.locales[locale]
	return p, ok
}

// Locales returns every locale the link has a path for, sorted, with
// DefaultLocale first.
func (l WikiLink) Locales() []string {
	out := []string{DefaultLocale}
	return append(out, slices.Sorted(maps.Keys(l.locales))...)
}

// Alternates returns a copy of the non-default locale paths.
func (l WikiLink) Alternates() map[string]string {
	return maps.Clone(l.locales)
}

// WithLocale returns a copy of l with an alternate path for locale.
// Setting DefaultLocale is ignored because it would change the identity.
func (l WikiLink) WithLocale(locale, path string) WikiLink {
	if locale == "" || locale == DefaultLocale {
		return l
	}
	locales := make(map[string]string, len(l.locales)+1)
	maps.Copy(locales, l.locales)
	locales[locale] = normalizePath(path)
	return WikiLink{path: l.path, locales: locales}
}

// URL returns the absolute URL of the link on the given locale's wiki.
func (l WikiLink) URL(locale string) string {
	p, ok := l.PathFor(locale)
	if !ok {
		locale, p = DefaultLocale, l.path
	}
	return "https://" + locale + "." + WikiHostSuffix + p
}

// Name returns a human readable guess of the page name derived from the last
// path segment, e.g. "/wiki/Go_(language)" becomes "Go (language)".
func (l WikiLink) Name() string {
	seg := l.path[strings.LastIndex(l.path, "/")+1:]
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	return strings.ReplaceAll(seg, "_", " ")
}

// LinkSet is a set of links keyed by identity.
type LinkSet map[string]WikiLink

// NewLinkSet builds a set from links, collapsing duplicates.
func NewLinkSet(links []WikiLink) LinkSet {
	s := make(LinkSet, len(links))
	for _, l := range links {
		if !l.IsZero() {
			s[l.Key()] = l
		}
	}
	return s
}

// Contains reports whether the set holds a link equal to l.
func (s LinkSet) Contains(l WikiLink) bool {
	_, ok := s[l.Key()]
	return ok
}

// Slice returns the links sorted by path.
func (s LinkSet) Slice() []WikiLink {
	keys := slices.Sorted(maps.Keys(s))
	out := make([]WikiLink, len(keys))
	for i, k := range keys {
		out[i] = s[k]
	}
	return out
}
