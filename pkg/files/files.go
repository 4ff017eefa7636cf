// Package files abstracts where static file bytes come from.
//
// The server's static resolver sanitizes the URL path first and only
// then asks a Source for the named file, so implementations receive
// clean, slash-separated relative names and never see traversal
// attempts.
package files

import (
	"context"
	"errors"
)

// ErrNotFound reports that a source has no regular file under the given
// name.
var ErrNotFound = errors.New("files: not found")

// Source yields file contents by sanitized relative name.
// Implementations must be safe for concurrent use.
type Source interface {
	// Open returns the full contents of the named file. A missing or
	// non-regular file yields ErrNotFound; other errors indicate a
	// backend failure.
	Open(ctx context.Context, name string) ([]byte, error)
}
