// Package storefront serves the four catalog pages as server-rendered HTML.
//
// Each page is a small component owning one resource.Query: it is mounted
// with its route parameters, loads through the CatalogAPI and exposes a
// view model that the templates render. Navigation (next, previous, retry,
// back) is expressed as links back into the same routes, so every page
// view starts from a fresh cursor taken from the URL.
//
// The HTTP handlers only mount pages. Next, Prev, Retry and SetID drive a
// long-lived page instance for interactive callers that keep one page
// across several loads; reading View while such a load is in flight is
// what yields the Loading, FullPageSpinner and InlineLoading states the
// templates handle.
//
//	/                   product list, ?page=n
//	/product/{id}       product detail
//	/departments        department list
//	/departments/{id}   department products, ?page=n
package storefront
