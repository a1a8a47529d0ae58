package wiki

import "errors"

var (
	// ErrPageNotFound is returned by lookups that require a page to exist.
	ErrPageNotFound = errors.New("page not found")

	// ErrPageExists is returned by Create when the link already has a page.
	ErrPageExists = errors.New("page already exists")
)
