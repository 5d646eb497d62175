package search

import (
	"context"

	"github.com/rhuss/packagefeed/pkg/api"
)

// MaxPageSize bounds every page computed by the search service.
const MaxPageSize = 40

// Request describes one page to compute. Path and RawQuery carry the
// inbound feed request so the search service can log and correlate it.
type Request struct {
	EntityType        string
	Path              string
	RawQuery          string
	SearchTerm        string
	TargetFramework   string
	IncludePrerelease bool
	LatestOnly        bool
	OrderBy           string
	Skip              int
	Top               int
	MaxPageSize       int
}

// PageSize returns the number of results to request, honoring both the
// caller's $top and the page size bound.
func (r Request) PageSize() int {
	limit := r.MaxPageSize
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if r.Top > 0 && r.Top < limit {
		return r.Top
	}
	return limit
}

// Page is one bounded page of search results.
type Page struct {
	Packages  []api.Package
	TotalHits int
	// ContinuationToken is the $skip value of the next page, or empty when
	// this page is the last one.
	ContinuationToken string
}

// Engine computes pages of feed results on behalf of the feed.
type Engine interface {
	// ComputePage returns at most req.PageSize() packages.
	ComputePage(ctx context.Context, req Request) (*Page, error)

	// Available reports whether the engine should be used for the current
	// request. It must not block.
	Available() bool
}
