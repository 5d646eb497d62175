package feed

import (
	"context"

	"github.com/rhuss/packagefeed/pkg/search"
)

// PagingProvider is the paging strategy chosen for one request.
type PagingProvider interface {
	// Name is "default" or "search"; used as a metric label and in logs.
	Name() string
}

// DefaultPaging delegates paging to the persistence layer.
type DefaultPaging struct{}

// Name implements PagingProvider.
func (DefaultPaging) Name() string { return "default" }

// SearchPaging computes pages with the search engine, bounded by MaxPageSize.
type SearchPaging struct {
	Engine      search.Engine
	Request     RequestContext
	MaxPageSize int
}

// Name implements PagingProvider.
func (*SearchPaging) Name() string { return "search" }

// ComputePage asks the engine for one page of q, stamped with the request
// the provider was chosen for and its page-size bound.
func (p *SearchPaging) ComputePage(ctx context.Context, q search.Request) (*search.Page, error) {
	q.Path = p.Request.Path
	q.RawQuery = p.Request.RawQuery
	q.MaxPageSize = p.MaxPageSize
	return p.Engine.ComputePage(ctx, q)
}

// SelectPaging chooses search paging when an engine is configured and
// reports itself available, and default paging otherwise. The choice is made
// per call; nothing is cached between requests.
func SelectPaging(engine search.Engine, rc RequestContext, maxPageSize int) PagingProvider {
	if engine == nil || !engine.Available() {
		return DefaultPaging{}
	}
	return &SearchPaging{Engine: engine, Request: rc, MaxPageSize: maxPageSize}
}

// IsDefaultPaging reports whether p pages through the persistence layer.
func IsDefaultPaging(p PagingProvider) bool {
	_, ok := p.(DefaultPaging)
	return ok
}
