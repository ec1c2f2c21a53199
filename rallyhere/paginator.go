package rallyhere

import (
	"context"
)

// Page is one page of a cursor-paginated list.
type Page[T any] struct {
	Items  []T
	Cursor string
}

// PageFetcher fetches the page following cursor. The first call receives
// an empty cursor.
type PageFetcher[T any] func(ctx context.Context, cursor string, pageSize int) (Page[T], error)

// FetchAll collects pages until one is empty or shorter than pageSize, the
// cursor runs out, or maxItems items are collected. The result is truncated
// to maxItems; maxItems <= 0 means no limit. A failing page aborts the
// whole walk with a *PaginationError and no items.
func FetchAll[T any](ctx context.Context, endpoint string, fetch PageFetcher[T], pageSize, maxItems int) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var (
		all    []T
		cursor string
	)
	for page := 1; ; page++ {
		p, err := fetch(ctx, cursor, pageSize)
		if err != nil {
			return nil, &PaginationError{
				Endpoint: endpoint,
				Page:     page,
				Fetched:  len(all),
				Err:      err,
			}
		}

		all = append(all, p.Items...)

		switch {
		case maxItems > 0 && len(all) >= maxItems:
			return all[:maxItems], nil
		case len(p.Items) < pageSize, p.Cursor == "":
			return all, nil
		}
		cursor = p.Cursor
	}
}
