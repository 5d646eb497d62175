package outputcache

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/packagefeed/pkg/feed"
	"github.com/rhuss/packagefeed/pkg/observability"
)

// Evaluator returns the cache directive for a request and the instant it
// was evaluated at.
type Evaluator func(r *http.Request) (feed.CacheDirective, time.Time)

// HeaderCache reports whether a response came from the output cache.
const HeaderCache = "X-Cache"

// storedHeaders are the response headers kept with a cached body.
var storedHeaders = []string{"Content-Type", "DataServiceVersion"}

// Middleware applies the cache directive of every request to its response
// headers and, for directives that allow server caching, serves and records
// responses through store. Store failures degrade to pass-through.
func Middleware(store Store, evaluate Evaluator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, now := evaluate(r)
			if !d.Cacheable() {
				next.ServeHTTP(w, r)
				return
			}
			d.Apply(w.Header(), now)
			if !d.Cacheability.CachesOnServer() {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := Key(r, d)

			if d.ValidUntilExpires || !clientBypass(r) {
				cached, err := store.Get(ctx, key)
				switch {
				case err == nil && cached.ExpiresAt.After(now):
					observability.OutputCacheTotal.WithLabelValues("hit").Inc()
					serve(w, cached, d, now)
					return
				case err != nil && !errors.Is(err, ErrCacheMiss):
					observability.OutputCacheTotal.WithLabelValues("error").Inc()
					logger.Warn("output cache read failed", "error", err)
				}
			}

			observability.OutputCacheTotal.WithLabelValues("miss").Inc()
			w.Header().Set(HeaderCache, "MISS")
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status != http.StatusOK || !strings.EqualFold(r.Method, http.MethodGet) {
				return
			}
			ttl := d.ExpiresAt.Sub(now)
			if ttl <= 0 {
				return
			}
			resp := &Response{
				Status:    rec.status,
				Header:    http.Header{},
				Body:      rec.body.Bytes(),
				ExpiresAt: d.ExpiresAt,
			}
			for _, h := range storedHeaders {
				if v := w.Header().Values(h); len(v) > 0 {
					resp.Header[h] = v
				}
			}
			if err := store.Set(ctx, key, resp, ttl); err != nil {
				observability.OutputCacheTotal.WithLabelValues("error").Inc()
				logger.Warn("output cache write failed", "error", err)
			}
		})
	}
}

// serve writes a cached response. Cache headers are re-rendered against
// the stored expiry so max-age counts down.
func serve(w http.ResponseWriter, cached *Response, d feed.CacheDirective, now time.Time) {
	h := w.Header()
	for k, v := range cached.Header {
		h[k] = v
	}
	d.ExpiresAt = cached.ExpiresAt
	d.Apply(h, now)
	h.Set(HeaderCache, "HIT")
	w.WriteHeader(cached.Status)
	w.Write(cached.Body)
}

// clientBypass reports whether the client asked to skip cached copies.
func clientBypass(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Cache-Control")), "no-cache") ||
		strings.EqualFold(r.Header.Get("Pragma"), "no-cache")
}

// recorder tees the response body while passing it through.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
