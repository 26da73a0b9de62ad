// Package resource models one remote resource as seen by a page: a query
// that is idle, loading, failed or ready, never more than one at a time.
//
// A Query owns a single in-flight fetch. Starting a new load cancels the
// previous fetch's context and bumps a generation counter; a result that
// arrives for an older generation is dropped, so a slow response to an
// earlier page can never overwrite a newer one.
//
// # Basic Usage
//
//	q := resource.New[[]catalog.Product]("products")
//
//	snap := q.Load(ctx, func(ctx context.Context) ([]catalog.Product, error) {
//		page, err := api.ListProducts(ctx, cursor)
//		return page.Products, err
//	})
//
//	switch snap.State {
//	case resource.Ready:
//		// render snap.Data
//	case resource.Error:
//		// render snap.Message() with a retry action
//	}
//
// Retry re-issues the last fetch with the same parameters. Cancel abandons
// an in-flight load, e.g. when the caller navigates away before it settles.
package resource
