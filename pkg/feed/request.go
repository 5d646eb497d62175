package feed

import (
	"net/http"
	"strings"
)

// RequestContext is the read-only view of an inbound request that the
// policy layer needs.
type RequestContext struct {
	Method   string
	Path     string
	RawQuery string
	Secure   bool
}

// RequestContextFrom builds a RequestContext from an HTTP request. The
// request counts as secure when it arrived over TLS, or, when
// trustForwardedProto is set, when a proxy reported X-Forwarded-Proto: https.
func RequestContextFrom(r *http.Request, trustForwardedProto bool) RequestContext {
	secure := r.TLS != nil
	if !secure && trustForwardedProto {
		proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
		secure = strings.EqualFold(strings.TrimSpace(proto), "https")
	}
	return RequestContext{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Secure:   secure,
	}
}
