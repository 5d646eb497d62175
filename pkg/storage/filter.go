package storage

import (
	"sort"
	"strings"

	"github.com/rhuss/packagefeed/pkg/api"
)

// Matches reports whether a package satisfies the filter part of q.
// Unlisted packages never match.
func Matches(p *api.Package, q Query) bool {
	if !p.Listed {
		return false
	}
	if q.ID != "" && !strings.EqualFold(p.ID, q.ID) {
		return false
	}
	if !q.IncludePrerelease && p.IsPrerelease {
		return false
	}
	if q.LatestOnly {
		if q.IncludePrerelease && !p.IsAbsoluteLatestVersion {
			return false
		}
		if !q.IncludePrerelease && !p.IsLatestVersion {
			return false
		}
	}
	for _, term := range strings.Fields(strings.ToLower(q.SearchTerm)) {
		if !containsFold(p, term) {
			return false
		}
	}
	return true
}

func containsFold(p *api.Package, term string) bool {
	for _, field := range []string{p.ID, p.Title, p.Tags, p.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Sort orders packages for q. Ties in every order are broken by Key so that
// paging is deterministic.
func Sort(pkgs []api.Package, q Query) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		c := compareBy(&pkgs[i], &pkgs[j], q.OrderBy)
		if c == 0 {
			c = KeyOf(&pkgs[i]).Compare(KeyOf(&pkgs[j]))
		}
		if q.Descending {
			return c > 0
		}
		return c < 0
	})
}

func compareBy(a, b *api.Package, o Order) int {
	switch o {
	case OrderByDownloadCount:
		return compareInt64(a.DownloadCount, b.DownloadCount)
	case OrderByPublished:
		return a.Published.Compare(b.Published)
	case OrderByLastUpdated:
		return a.LastUpdated.Compare(b.LastUpdated)
	case OrderByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Paginate applies After, Skip and Top to sorted matches.
func Paginate(sorted []api.Package, q Query) *Page {
	page := &Page{TotalHits: len(sorted)}

	rest := sorted
	if q.After != nil && q.OrderBy == OrderByKey {
		idx := sort.Search(len(rest), func(i int) bool {
			c := KeyOf(&rest[i]).Compare(*q.After)
			if q.Descending {
				return c < 0
			}
			return c > 0
		})
		rest = rest[idx:]
	}
	if q.Skip > 0 {
		if q.Skip >= len(rest) {
			rest = nil
		} else {
			rest = rest[q.Skip:]
		}
	}
	if q.Top > 0 && len(rest) > q.Top {
		page.More = true
		rest = rest[:q.Top]
	}

	page.Packages = make([]api.Package, len(rest))
	copy(page.Packages, rest)
	return page
}

// MarkLatest recomputes IsLatestVersion and IsAbsoluteLatestVersion across
// all versions of one package id. Only listed versions can be latest.
func MarkLatest(versions []*api.Package) {
	var latest, absolute *api.Package
	for _, p := range versions {
		p.IsLatestVersion = false
		p.IsAbsoluteLatestVersion = false
		if !p.Listed {
			continue
		}
		if absolute == nil || api.CompareVersions(p.Version, absolute.Version) > 0 {
			absolute = p
		}
		if !p.IsPrerelease && (latest == nil || api.CompareVersions(p.Version, latest.Version) > 0) {
			latest = p
		}
	}
	if latest != nil {
		latest.IsLatestVersion = true
	}
	if absolute != nil {
		absolute.IsAbsoluteLatestVersion = true
	}
}

// Prepare validates a package for storage and fills derived fields.
func Prepare(p *api.Package) error {
	if !api.ValidatePackageID(p.ID) || !api.ValidateVersion(p.Version) {
		return ErrInvalidPackage
	}
	p.NormalizedVersion = api.NormalizeVersion(p.Version)
	p.IsPrerelease = api.IsPrereleaseVersion(p.Version)
	if p.Title == "" {
		p.Title = p.ID
	}
	return nil
}
