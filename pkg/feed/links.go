package feed

import "strings"

// SiteRootSource returns the configured site root for a scheme.
type SiteRootSource interface {
	SiteRoot(useHTTPS bool) string
}

// SiteRootFunc is an adapter that allows using an ordinary function as a
// SiteRootSource.
type SiteRootFunc func(useHTTPS bool) string

// SiteRoot calls f(useHTTPS).
func (f SiteRootFunc) SiteRoot(useHTTPS bool) string {
	return f(useHTTPS)
}

// SchemePolicy decides whether links for a request use https.
type SchemePolicy func(rc RequestContext) bool

// MirrorRequestScheme uses https exactly when the inbound request was secure.
func MirrorRequestScheme(rc RequestContext) bool { return rc.Secure }

// ForceHTTPS always uses https.
func ForceHTTPS(RequestContext) bool { return true }

// ForceHTTP always uses http.
func ForceHTTP(RequestContext) bool { return false }

// LinkResolver computes the base URL embedded in absolute resource links.
type LinkResolver struct {
	roots    SiteRootSource
	useHTTPS SchemePolicy
}

// NewLinkResolver creates a resolver. A nil policy mirrors the scheme of the
// inbound request.
func NewLinkResolver(roots SiteRootSource, policy SchemePolicy) *LinkResolver {
	if policy == nil {
		policy = MirrorRequestScheme
	}
	return &LinkResolver{roots: roots, useHTTPS: policy}
}

// SiteRoot returns the site root for the request, always ending in exactly
// one "/".
func (l *LinkResolver) SiteRoot(rc RequestContext) string {
	return EnsureTrailingSlash(l.roots.SiteRoot(l.useHTTPS(rc)))
}

// EnsureTrailingSlash appends "/" unless s already ends with one.
func EnsureTrailingSlash(s string) string {
	if !strings.HasSuffix(s, "/") {
		return s + "/"
	}
	return s
}
