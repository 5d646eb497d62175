package search

import "errors"

// Sentinel errors for search operations.
var (
	// ErrUnavailable is returned when the search service answered with a
	// server error or could not be reached.
	ErrUnavailable = errors.New("search service unavailable")

	// ErrCircuitOpen is returned when the breaker rejects a call without
	// contacting the search service.
	ErrCircuitOpen = errors.New("search circuit breaker is open")
)
