package chatexport

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrInvalidFormat = errors.New("invalid output format")
)
