// Package memory provides an in-memory implementation of
// storage.PackageRepository for tests and small mirrors. Packages are lost
// when the process restarts.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/storage"
)

// Store is an in-memory PackageRepository.
type Store struct {
	mu sync.RWMutex
	// byID maps the case-folded package id to its versions, keyed by
	// normalized version.
	byID map[string]map[string]*api.Package
}

// Ensure Store implements storage.PackageRepository at compile time.
var _ storage.PackageRepository = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{byID: make(map[string]map[string]*api.Package)}
}

// Put inserts or replaces a package version.
func (s *Store) Put(_ context.Context, pkg *api.Package) error {
	p := *pkg
	if err := storage.Prepare(&p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.ToLower(p.ID)
	versions, ok := s.byID[id]
	if !ok {
		versions = make(map[string]*api.Package)
		s.byID[id] = versions
	}
	versions[p.NormalizedVersion] = &p

	all := make([]*api.Package, 0, len(versions))
	for _, v := range versions {
		all = append(all, v)
	}
	storage.MarkLatest(all)
	return nil
}

// Get returns one package version by id and version. Either form of the
// version (as published or normalized) is accepted.
func (s *Store) Get(_ context.Context, id, version string) (*api.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[strings.ToLower(id)][api.NormalizeVersion(version)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// FindByID returns every version of a package in ascending version order.
func (s *Store) FindByID(_ context.Context, id string) ([]api.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.byID[strings.ToLower(id)]
	out := make([]api.Package, 0, len(versions))
	for _, p := range versions {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b api.Package) int {
		return api.CompareVersions(a.Version, b.Version)
	})
	return out, nil
}

// List returns one page of listed packages matching q.
func (s *Store) List(_ context.Context, q storage.Query) (*storage.Page, error) {
	s.mu.RLock()
	var matches []api.Package
	for _, versions := range s.byID {
		for _, p := range versions {
			if storage.Matches(p, q) {
				matches = append(matches, *p)
			}
		}
	}
	s.mu.RUnlock()

	storage.Sort(matches, q)
	return storage.Paginate(matches, q), nil
}

// Len returns the number of stored package versions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, versions := range s.byID {
		n += len(versions)
	}
	return n
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
