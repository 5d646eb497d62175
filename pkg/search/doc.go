// Package search provides the client side of the external search service
// that can take over paging of feed queries.
//
// The feed only needs one operation from the search service: compute a
// bounded page of results for a query, together with a continuation token
// for the next page. [Engine] captures that contract; [Client] implements it
// over HTTP/JSON and guards the upstream with a circuit breaker so that an
// unhealthy search service makes [Engine.Available] report false and the
// feed falls back to database paging.
package search
