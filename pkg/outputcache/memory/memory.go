// Package memory provides an in-process outputcache.Store. Entries are
// lost on restart. An optional entry limit evicts the least recently used
// response.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rhuss/packagefeed/pkg/outputcache"
)

type entry struct {
	key       string
	resp      *outputcache.Response
	expiresAt time.Time
	lruElem   *list.Element
}

// Store is an in-memory outputcache.Store with optional LRU eviction.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List // front = most recently used
	maxSize int        // 0 = unlimited
	now     func() time.Time
}

// Ensure Store implements outputcache.Store at compile time.
var _ outputcache.Store = (*Store)(nil)

// New creates a store holding at most maxSize responses. A maxSize of 0
// means no limit.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the live entry for key and marks it recently used. Expired
// entries are dropped on access.
func (s *Store) Get(_ context.Context, key string) (*outputcache.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, outputcache.ErrCacheMiss
	}
	if !s.now().Before(e.expiresAt) {
		s.remove(e)
		return nil, outputcache.ErrCacheMiss
	}
	s.lruList.MoveToFront(e.lruElem)
	return e.resp, nil
}

// Set stores resp under key until ttl elapses, replacing any existing entry.
func (s *Store) Set(_ context.Context, key string, resp *outputcache.Response, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.remove(old)
	}
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	e := &entry{key: key, resp: resp, expiresAt: s.now().Add(ttl)}
	e.lruElem = s.lruList.PushFront(e)
	s.entries[key] = e
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close releases all entries.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	s.lruList.Init()
	return nil
}

func (s *Store) evictOldest() {
	if back := s.lruList.Back(); back != nil {
		s.remove(back.Value.(*entry))
	}
}

// remove must be called with mu held.
func (s *Store) remove(e *entry) {
	s.lruList.Remove(e.lruElem)
	delete(s.entries, e.key)
}
