package crawler

import (
	"context"

	"xdigest/pkg/timeline"
)

// PageFetcher retrieves one timeline page. An empty cursor asks for the
// first page. *timeline.Client satisfies it.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor timeline.Cursor) (*timeline.Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher
type PageFetcherFunc func(ctx context.Context, cursor timeline.Cursor) (*timeline.Page, error)

// FetchPage calls f(ctx, cursor)
func (f PageFetcherFunc) FetchPage(ctx context.Context, cursor timeline.Cursor) (*timeline.Page, error) {
	return f(ctx, cursor)
}
