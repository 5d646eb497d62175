// Package outputcache keeps rendered feed responses on the server for as
// long as their cache directive allows, so repeated reads of the same
// package entity skip the repository and the serializer.
//
// Backends:
//   - memory: bounded LRU for single-instance deployments
//   - redis: shared cache for multi-instance deployments
package outputcache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrCacheMiss is returned by Store.Get when no live entry exists.
var ErrCacheMiss = errors.New("outputcache: miss")

// Response is a stored response.
type Response struct {
	Status    int         `json:"status"`
	Header    http.Header `json:"header"`
	Body      []byte      `json:"body"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Store is a backend for cached responses. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the entry for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (*Response, error)

	// Set stores resp under key for ttl.
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration) error

	Close() error
}

// NullStore never stores anything. It disables output caching while
// keeping cache headers.
type NullStore struct{}

// Get always returns ErrCacheMiss.
func (NullStore) Get(context.Context, string) (*Response, error) { return nil, ErrCacheMiss }

// Set does nothing.
func (NullStore) Set(context.Context, string, *Response, time.Duration) error { return nil }

// Close does nothing.
func (NullStore) Close() error { return nil }

// Ensure NullStore implements Store.
var _ Store = NullStore{}
