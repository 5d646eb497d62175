package outputcache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rhuss/packagefeed/pkg/feed"
)

// Key derives the cache key of a request under directive d: method, scheme
// and path, every query parameter when the directive varies by all
// parameters, and the value of every Vary header. The scheme counts because
// rendered links differ between http and https. The result is a hex SHA-256
// digest.
func Key(r *http.Request, d feed.CacheDirective) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(r.Method))
	b.WriteByte('\n')
	if r.TLS != nil {
		b.WriteString("tls")
	}
	b.WriteByte('\n')
	b.WriteString(r.Header.Get("X-Forwarded-Proto"))
	b.WriteByte('\n')
	b.WriteString(r.URL.Path)
	b.WriteByte('\n')
	if d.VaryAllParams {
		// Encode sorts by key.
		b.WriteString(r.URL.Query().Encode())
	}
	for _, h := range d.VaryHeaders {
		b.WriteByte('\n')
		b.WriteString(textproto.CanonicalMIMEHeaderKey(h))
		b.WriteByte(':')
		b.WriteString(strings.Join(r.Header.Values(h), ","))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
