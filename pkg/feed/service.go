package feed

import (
	"errors"
	"net/url"
	"time"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/observability"
	"github.com/rhuss/packagefeed/pkg/search"
)

// ErrNoContentAddresser is returned by NewService when no ContentAddresser
// is supplied.
var ErrNoContentAddresser = errors.New("feed: content addresser is required")

// CapabilityKind names a capability a protocol layer may ask the feed for.
type CapabilityKind int

const (
	// CapabilityStream asks for the binary-stream provider.
	CapabilityStream CapabilityKind = iota + 1
	// CapabilityPaging asks for the paging provider of the current request.
	CapabilityPaging
)

// Clock returns the current time.
type Clock func() time.Time

// Options configures a Service.
type Options struct {
	// Links resolves the site root. Required.
	Links *LinkResolver
	// Search is the optional search engine. Nil means default paging only.
	Search search.Engine
	// MaxPageSize bounds search pages; defaults to search.MaxPageSize.
	MaxPageSize int
	// Clock defaults to time.Now.
	Clock Clock
}

// Service is the feed endpoint's policy layer: capability gate, paging
// selection, cache policy and link resolution.
type Service struct {
	StreamProvider

	content     ContentAddresser
	links       *LinkResolver
	engine      search.Engine
	maxPageSize int
	clock       Clock
	config      ServiceConfiguration
}

// NewService creates a Service. The returned service is safe for concurrent
// use.
func NewService(content ContentAddresser, opts Options) (*Service, error) {
	if content == nil {
		return nil, ErrNoContentAddresser
	}
	if opts.Links == nil {
		return nil, errors.New("feed: link resolver is required")
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = search.MaxPageSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		content:     content,
		links:       opts.Links,
		engine:      opts.Search,
		maxPageSize: opts.MaxPageSize,
		clock:       opts.Clock,
		config:      InitializeService(),
	}, nil
}

// Capability answers a capability query for a request: the stream provider
// for CapabilityStream, the paging provider for CapabilityPaging, nil for
// anything else.
func (s *Service) Capability(kind CapabilityKind, rc RequestContext) any {
	switch kind {
	case CapabilityStream:
		return s.StreamProvider
	case CapabilityPaging:
		return s.PagingProvider(rc)
	default:
		return nil
	}
}

// PagingProvider selects the paging strategy for a request.
func (s *Service) PagingProvider(rc RequestContext) PagingProvider {
	p := SelectPaging(s.engine, rc, s.maxPageSize)
	observability.PagingProviderTotal.WithLabelValues(p.Name()).Inc()
	return p
}

// CachePolicy evaluates the cache policy for a request at the service clock
// and returns the directive with the instant it was evaluated at.
func (s *Service) CachePolicy(rc RequestContext) (CacheDirective, time.Time) {
	now := s.clock()
	return EvaluateCachePolicy(rc, now), now
}

// SiteRoot returns the site root for links in the response to rc.
func (s *Service) SiteRoot(rc RequestContext) string {
	return s.links.SiteRoot(rc)
}

// ContentAddress returns the download URL of a package's content.
func (s *Service) ContentAddress(rc RequestContext, pkg *api.Package) (*url.URL, error) {
	return s.content.ContentAddress(rc, pkg)
}

// Configuration returns the startup configuration.
func (s *Service) Configuration() ServiceConfiguration {
	return s.config
}
