package feed

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cacheability says who may cache a response.
type Cacheability int

const (
	// NoCache forbids caching anywhere.
	NoCache Cacheability = iota + 1
	// Private allows caching by the requesting client only.
	Private
	// ServerAndPrivate allows caching on the origin server and by the
	// requesting client, but not by shared intermediaries.
	ServerAndPrivate
	// Public allows caching everywhere.
	Public
)

func (c Cacheability) String() string {
	switch c {
	case NoCache:
		return "no-cache"
	case Private:
		return "private"
	case ServerAndPrivate:
		return "server-and-private"
	case Public:
		return "public"
	default:
		return "unset"
	}
}

// CachesOnServer reports whether the origin server may keep a copy.
func (c Cacheability) CachesOnServer() bool {
	return c == ServerAndPrivate || c == Public
}

// OutputCacheDuration is how long an eligible response stays cached.
const OutputCacheDuration = 5 * time.Minute

// OutputCacheVaryHeaders are the request headers an eligible response varies by.
var OutputCacheVaryHeaders = []string{"Accept", "Accept-Charset", "Accept-Encoding"}

var (
	packagesByIDPathV1 = regexp.MustCompile(`(?i)/api/v1/Packages\(.*\)`)
	packagesByIDPathV2 = regexp.MustCompile(`(?i)/api/v2/Packages\(.*\)`)
)

// CacheDirective is the set of caching instructions applied to one response.
// The zero value sets nothing, which leaves the response uncached.
type CacheDirective struct {
	Cacheability      Cacheability
	ExpiresAt         time.Time
	VaryHeaders       []string
	VaryAllParams     bool
	ValidUntilExpires bool
}

// Cacheable reports whether the directive carries any instruction at all.
func (d CacheDirective) Cacheable() bool {
	return d.Cacheability != 0
}

// Apply writes Cache-Control, Expires and Vary headers for the directive.
func (d CacheDirective) Apply(h http.Header, now time.Time) {
	if !d.Cacheable() {
		return
	}

	var cc string
	switch d.Cacheability {
	case NoCache:
		cc = "no-cache"
		h.Set("Pragma", "no-cache")
	case Private, ServerAndPrivate:
		cc = "private"
	case Public:
		cc = "public"
	}
	if d.Cacheability != NoCache && !d.ExpiresAt.IsZero() {
		maxAge := int(d.ExpiresAt.Sub(now) / time.Second)
		if maxAge < 0 {
			maxAge = 0
		}
		cc += ", max-age=" + strconv.Itoa(maxAge)
	}
	h.Set("Cache-Control", cc)

	if !d.ExpiresAt.IsZero() {
		h.Set("Expires", d.ExpiresAt.UTC().Format(http.TimeFormat))
	}
	if len(d.VaryHeaders) > 0 {
		h.Set("Vary", strings.Join(d.VaryHeaders, ", "))
	}
}

// ShouldCacheOutput reports whether a request is eligible for output
// caching: a GET without query string for a single package addressed by key.
// Listings, searches and any request with a query string vary per caller in
// ways the fixed Vary set cannot express, so they are never cached.
func ShouldCacheOutput(rc RequestContext) bool {
	return strings.EqualFold(rc.Method, http.MethodGet) &&
		rc.RawQuery == "" &&
		(packagesByIDPathV2.MatchString(rc.Path) || packagesByIDPathV1.MatchString(rc.Path))
}

// EvaluateCachePolicy returns the directive for a request at time now.
func EvaluateCachePolicy(rc RequestContext, now time.Time) CacheDirective {
	if !ShouldCacheOutput(rc) {
		return CacheDirective{}
	}
	vary := make([]string, len(OutputCacheVaryHeaders))
	copy(vary, OutputCacheVaryHeaders)
	return CacheDirective{
		Cacheability:      ServerAndPrivate,
		ExpiresAt:         now.UTC().Add(OutputCacheDuration),
		VaryHeaders:       vary,
		VaryAllParams:     true,
		ValidUntilExpires: true,
	}
}
