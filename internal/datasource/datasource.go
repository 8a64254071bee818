// Package datasource provides fetch-by-path access to the artifact tree
// produced by the analysis, over either a live endpoint or an in-memory
// archive.
package datasource

import (
	"context"
	"errors"
)

// ErrNotFound reports that an artifact path has no entry in the source.
// Callers recover from it locally with an empty result; it never reaches
// the render layer.
var ErrNotFound = errors.New("artifact not found")

// ErrUnavailable reports that every fallback data source has been
// exhausted. It is the only failure class that changes top-level UI state.
var ErrUnavailable = errors.New("no data source available")

// Source is the uniform fetch contract shared by all backends. Paths are
// relative to the data root, e.g. "data/functions.json".
type Source interface {
	FetchJSON(ctx context.Context, path string, v any) error
	FetchText(ctx context.Context, path string) (string, error)
	// Origin describes the backend for status output ("live", "archive").
	Origin() string
}
