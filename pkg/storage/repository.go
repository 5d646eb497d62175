package storage

import (
	"context"
	"strings"

	"github.com/rhuss/packagefeed/pkg/api"
)

// PackageRepository is the persistence collaborator behind default paging
// and single-entity reads.
type PackageRepository interface {
	// List returns one page of listed packages matching q.
	List(ctx context.Context, q Query) (*Page, error)

	// Get returns one package version. Unlisted versions are returned.
	// Returns ErrNotFound when it does not exist.
	Get(ctx context.Context, id, version string) (*api.Package, error)

	// FindByID returns every version of a package, unlisted included,
	// ordered by ascending version.
	FindByID(ctx context.Context, id string) ([]api.Package, error)

	// Put inserts or replaces a package version and recomputes the latest
	// flags of its package id.
	Put(ctx context.Context, pkg *api.Package) error

	HealthCheck(ctx context.Context) error
	Close() error
}

// Order is a sort order for List. The zero value sorts by Key.
type Order string

const (
	OrderByKey           Order = ""
	OrderByDownloadCount Order = "DownloadCount"
	OrderByPublished     Order = "Published"
	OrderByLastUpdated   Order = "LastUpdated"
	OrderByTitle         Order = "Title"
)

// ParseOrder maps a feed $orderby property name to an Order.
func ParseOrder(field string) (Order, bool) {
	switch {
	case strings.EqualFold(field, "Id"):
		return OrderByKey, true
	case strings.EqualFold(field, string(OrderByDownloadCount)):
		return OrderByDownloadCount, true
	case strings.EqualFold(field, string(OrderByPublished)):
		return OrderByPublished, true
	case strings.EqualFold(field, string(OrderByLastUpdated)):
		return OrderByLastUpdated, true
	case strings.EqualFold(field, string(OrderByTitle)):
		return OrderByTitle, true
	}
	return "", false
}

// Key identifies a package version in key order.
type Key struct {
	ID      string
	Version string
}

// KeyOf returns the key of a package.
func KeyOf(p *api.Package) Key {
	return Key{ID: p.ID, Version: p.NormalizedVersion}
}

// Compare orders keys by case-folded id, then by normalized version bytes.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(strings.ToLower(k.ID), strings.ToLower(o.ID)); c != 0 {
		return c
	}
	return strings.Compare(k.Version, o.Version)
}

// Query selects and pages packages for List.
type Query struct {
	// ID restricts results to one package id, case-insensitively.
	ID string
	// SearchTerm requires every whitespace-separated term to occur in the
	// id, title, tags or description, case-insensitively.
	SearchTerm        string
	IncludePrerelease bool
	// LatestOnly keeps only the latest version of each package: the latest
	// stable one, or the absolute latest when IncludePrerelease is set.
	LatestOnly bool

	OrderBy    Order
	Descending bool

	// After resumes a key-ordered listing strictly after this key. It is
	// ignored for other orders.
	After *Key
	Skip  int
	// Top is the page size; zero or negative means unbounded.
	Top int
}

// Page is one page of List results.
type Page struct {
	Packages []api.Package
	// TotalHits counts all matches before Skip, After and Top are applied.
	TotalHits int
	// More reports whether further matches follow this page.
	More bool
}
