package services

import (
	"context"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
)

// PageFunc fetches the rows of one page starting at offset from.
type PageFunc func(ctx context.Context, from, size int) ([]domain.Row, error)

// PageCursor walks a paginated query by offset until a page comes back empty.
// It is lazy and single-use: rows are fetched one page per Next call and the
// cursor cannot be rewound. It never retries or filters; a failed page ends
// the walk and the error is handed to the caller.
type PageCursor struct {
	fetch PageFunc
	size  int
	from  int
	pages int
	done  bool
}

// NewPageCursor creates a cursor with the given page size.
// Sizes below 1 fall back to domain.DefaultPageSize.
func NewPageCursor(fetch PageFunc, size int) *PageCursor {
	if size < 1 {
		size = domain.DefaultPageSize
	}
	return &PageCursor{fetch: fetch, size: size}
}

// Next returns the next non-empty page. ok is false once an empty page
// was returned or a request failed.
func (c *PageCursor) Next(ctx context.Context) (rows []domain.Row, ok bool, err error) {
	if c.done {
		return nil, false, nil
	}

	if err := ctx.Err(); err != nil {
		c.done = true
		return nil, false, err
	}

	c.pages++
	rows, err = c.fetch(ctx, c.from, c.size)
	if err != nil {
		c.done = true
		return nil, false, err
	}
	if len(rows) == 0 {
		c.done = true
		return nil, false, nil
	}

	c.from += c.size
	return rows, true, nil
}

// Each calls fn for every row across all pages, in remote order.
// It stops at the first error from the query or from fn.
func (c *PageCursor) Each(ctx context.Context, fn func(domain.Row) error) error {
	for {
		rows, ok, err := c.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		for _, row := range rows {
			if err := fn(row); err != nil {
				c.done = true
				return err
			}
		}
	}
}

// Pages returns the number of page requests issued so far.
func (c *PageCursor) Pages() int {
	return c.pages
}

// searchPages adapts a transport search to a PageFunc.
func searchPages(search func(context.Context, domain.SearchQuery) ([]domain.Row, error), build domain.QueryFunc) PageFunc {
	return func(ctx context.Context, from, size int) ([]domain.Row, error) {
		return search(ctx, build(from, size))
	}
}
