// Package pagination provides page cursors for the catalog API and parallel
// batch fetching of every page of a paginated endpoint.
//
// The catalog API takes 1-based "page" and "per_page" query parameters and
// does not always report a total. A page is considered the last one when
// the API says so (X-Total-Pages / X-Pages header) or, failing that, when it
// returns fewer items than requested.
//
// Example usage:
//
//	cursor := pagination.NewCursor(2)     // page=2&per_page=15
//	info := pagination.PageInfo{Cursor: cursor, Returned: 8}
//	info.HasNext()                        // false, short page
//	info.HasPrev()                        // true
//
// Walking a whole collection:
//
//	fetcher := pagination.NewBatchFetcher[catalog.Product](pager, pagination.DefaultConfig())
//	pages, err := fetcher.FetchAllPages(ctx)
//	products := pagination.Flatten(pages)
//
// The batch fetcher:
//   - Fetches the first page to learn the total page count, if any
//   - Fans the remaining pages out over a worker pool when the total is known
//   - Otherwise fetches waves of MaxConcurrency pages until a short page
//   - Returns partial results together with the first worker error
package pagination
