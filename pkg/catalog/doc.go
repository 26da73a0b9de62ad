// Package catalog holds the storefront's view of the remote catalog API:
// the Product and Department shapes it returns and the four read
// operations the pages need.
//
// Entities are transient. They are decoded from a response, rendered and
// dropped; nothing here persists or mutates them.
//
//	api := catalog.NewAPI(httpClient)
//	page, err := api.ListProducts(ctx, pagination.NewCursor(2))
//	if err != nil {
//		var fe *catalog.FetchError
//		errors.As(err, &fe) // fe.StatusCode is 0 for transport failures
//	}
package catalog
