package query

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/feed"
	"github.com/rhuss/packagefeed/pkg/search"
	"github.com/rhuss/packagefeed/pkg/storage"
)

// Result is one page of packages plus what the serializer needs to link to
// the next page.
type Result struct {
	Packages  []api.Package
	TotalHits int
	// NextLink is the absolute URL of the next page, empty on the last page.
	NextLink string
	// Provider names the paging provider that produced the page.
	Provider string
}

// Engine answers feed queries for one feed version.
type Engine struct {
	repo       storage.PackageRepository
	feed       *feed.Service
	apiVersion string
	logger     *slog.Logger
}

// NewEngine creates an engine serving apiVersion ("v1" or "v2"). If logger
// is nil, slog.Default() is used.
func NewEngine(repo storage.PackageRepository, svc *feed.Service, apiVersion string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, feed: svc, apiVersion: apiVersion, logger: logger}
}

// Service returns the policy service the engine consults.
func (e *Engine) Service() *feed.Service { return e.feed }

// APIVersion returns the feed version the engine serves.
func (e *Engine) APIVersion() string { return e.apiVersion }

// Package returns a single package version.
func (e *Engine) Package(ctx context.Context, id, version string) (*api.Package, error) {
	p, err := e.repo.Get(ctx, id, version)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, api.NewNotFoundError("package " + id + " " + version + " not found")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Packages lists the Packages entity set.
func (e *Engine) Packages(ctx context.Context, rc feed.RequestContext, opts Options) (*Result, error) {
	return e.page(ctx, rc, opts)
}

// Search runs the Search service operation.
func (e *Engine) Search(ctx context.Context, rc feed.RequestContext, opts Options) (*Result, error) {
	return e.page(ctx, rc, opts)
}

// FindPackagesByID runs the FindPackagesById service operation. It always
// reads from the repository so that every version, unlisted included, is
// returned in version order.
func (e *Engine) FindPackagesByID(ctx context.Context, rc feed.RequestContext, opts Options) (*Result, error) {
	if opts.ID == "" {
		return nil, api.NewInvalidRequestError("id", "id is required")
	}
	versions, err := e.repo.FindByID(ctx, opts.ID)
	if err != nil {
		return nil, err
	}

	res := &Result{TotalHits: len(versions), Provider: feed.DefaultPaging{}.Name()}
	rest := versions
	if opts.Skip >= len(rest) {
		rest = nil
	} else {
		rest = rest[opts.Skip:]
	}
	want := e.pageSize(opts)
	more := len(rest) > want
	if more {
		rest = rest[:want]
	}
	res.Packages = rest

	if more {
		res.NextLink = e.nextLink(rc, opts, len(rest), url.Values{
			"$skip": {strconv.Itoa(opts.Skip + len(rest))},
		}, "$skiptoken")
	}
	return res, nil
}

// pageSize is the number of results to return: the entity set page size,
// lowered by $top.
func (e *Engine) pageSize(opts Options) int {
	n := e.feed.Configuration().EntitySetPageSize(feed.EntitySetPackages)
	if n <= 0 {
		n = search.MaxPageSize
	}
	if opts.HasTop && opts.Top < n {
		n = opts.Top
	}
	return n
}

func (e *Engine) page(ctx context.Context, rc feed.RequestContext, opts Options) (*Result, error) {
	provider := e.feed.PagingProvider(rc)
	want := e.pageSize(opts)
	if want == 0 {
		// $top=0 still reports the total through $inlinecount.
		want = 1
	}

	var (
		res *Result
		err error
	)
	switch p := provider.(type) {
	case *feed.SearchPaging:
		if reason := searchBypass(opts); reason != "" {
			e.logger.Debug("search paging bypassed", "path", rc.Path, "reason", reason)
			provider = feed.DefaultPaging{}
			res, err = e.defaultPage(ctx, rc, opts, want)
			break
		}
		res, err = e.searchPage(ctx, rc, p, opts, want)
	default:
		res, err = e.defaultPage(ctx, rc, opts, want)
	}
	if err != nil {
		return nil, err
	}
	res.Provider = provider.Name()

	if opts.HasTop && opts.Top == 0 {
		res.Packages = res.Packages[:0]
		res.NextLink = ""
	}
	return res, nil
}

func (e *Engine) searchPage(ctx context.Context, rc feed.RequestContext, p *feed.SearchPaging, opts Options, want int) (*Result, error) {
	sp, err := p.ComputePage(ctx, search.Request{
		EntityType:        api.EntityTypePackage,
		SearchTerm:        opts.SearchTerm,
		TargetFramework:   opts.TargetFramework,
		IncludePrerelease: opts.IncludePrerelease,
		LatestOnly:        opts.LatestOnly,
		OrderBy:           searchSort(opts),
		Skip:              opts.Skip,
		Top:               want,
	})
	if err != nil {
		e.logger.Warn("search paging failed", "path", rc.Path, "error", err)
		return nil, api.NewUpstreamError("search service request failed")
	}

	res := &Result{Packages: sp.Packages, TotalHits: sp.TotalHits}
	if sp.ContinuationToken != "" {
		res.NextLink = e.nextLink(rc, opts, len(sp.Packages), url.Values{
			"$skip": {sp.ContinuationToken},
		}, "$skiptoken")
	}
	return res, nil
}

func (e *Engine) defaultPage(ctx context.Context, rc feed.RequestContext, opts Options, want int) (*Result, error) {
	page, err := e.repo.List(ctx, storage.Query{
		ID:                opts.ID,
		SearchTerm:        opts.SearchTerm,
		IncludePrerelease: opts.IncludePrerelease,
		LatestOnly:        opts.LatestOnly,
		OrderBy:           opts.OrderBy,
		Descending:        opts.Descending,
		After:             opts.SkipToken,
		Skip:              opts.Skip,
		Top:               want,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Packages: page.Packages, TotalHits: page.TotalHits}
	if page.More && len(page.Packages) > 0 {
		if opts.OrderBy == storage.OrderByKey {
			last := storage.KeyOf(&page.Packages[len(page.Packages)-1])
			res.NextLink = e.nextLink(rc, opts, len(page.Packages), url.Values{
				"$skiptoken": {quote(last.ID) + "," + quote(last.Version)},
			}, "$skip")
		} else {
			res.NextLink = e.nextLink(rc, opts, len(page.Packages), url.Values{
				"$skip": {strconv.Itoa(opts.Skip + len(page.Packages))},
			}, "$skiptoken")
		}
	}
	return res, nil
}

// nextLink builds the absolute URL of the page after one holding returned
// results. It keeps the request's parameters, applies set, removes drop and
// lowers $top by what was returned. It returns "" when $top is exhausted.
func (e *Engine) nextLink(rc feed.RequestContext, opts Options, returned int, set url.Values, drop string) string {
	params, _ := url.ParseQuery(rc.RawQuery)
	if params == nil {
		params = url.Values{}
	}
	if opts.HasTop {
		remaining := opts.Top - returned
		if remaining <= 0 {
			return ""
		}
		params.Set("$top", strconv.Itoa(remaining))
	}
	params.Del(drop)
	for k, v := range set {
		params[k] = v
	}
	return e.feed.SiteRoot(rc) + strings.TrimPrefix(rc.Path, "/") + "?" + params.Encode()
}

// searchBypass names the option that the search service cannot honor, or
// returns "" when it can serve the request. It filters by neither id nor
// key position, and sorts dates in one direction only.
func searchBypass(opts Options) string {
	switch {
	case opts.ID != "":
		return "id filter"
	case opts.SkipToken != nil:
		return "skiptoken"
	case opts.Descending && (opts.OrderBy == storage.OrderByPublished || opts.OrderBy == storage.OrderByLastUpdated):
		return "descending " + string(opts.OrderBy)
	}
	return ""
}

// searchSort maps a feed order onto the search service's sortBy values.
// Date orders are ascending only; see searchBypass.
func searchSort(opts Options) string {
	dir := "asc"
	if opts.Descending {
		dir = "desc"
	}
	switch opts.OrderBy {
	case storage.OrderByDownloadCount:
		return "totalDownloads-" + dir
	case storage.OrderByPublished:
		return "published"
	case storage.OrderByLastUpdated:
		return "lastEdited"
	case storage.OrderByTitle:
		return "title-" + dir
	}
	return ""
}
