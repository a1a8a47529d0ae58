package model

import "errors"

var (
	// ErrEmptyLinkPath is returned when a link has no path component.
	ErrEmptyLinkPath = errors.New("link has an empty path")

	// ErrExternalLink is returned when a URL points outside the wiki, that is,
	// when it carries a host that is not a wiki host.
	ErrExternalLink = errors.New("link points outside the wiki")
)
