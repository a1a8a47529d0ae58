package store

import "errors"

var (
	// ErrDuplicatePage is returned when creating a page whose link is already
	// stored.
	ErrDuplicatePage = errors.New("page already exists")

	// ErrPageNotFound is returned when saving or renaming a page that was
	// never created.
	ErrPageNotFound = errors.New("page not found")

	// ErrDuplicateLink is returned when creating a crawl record whose link is
	// already stored.
	ErrDuplicateLink = errors.New("link already exists")
)
