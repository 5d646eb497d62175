package feed

import (
	"testing"

	"pgregory.net/rapid"
)

func staticRoots(http, https string) SiteRootFunc {
	return func(useHTTPS bool) string {
		if useHTTPS {
			return https
		}
		return http
	}
}

func TestLinkResolverSiteRoot(t *testing.T) {
	roots := staticRoots("http://example.org", "https://example.org/")

	tests := []struct {
		name   string
		policy SchemePolicy
		secure bool
		want   string
	}{
		{"mirror insecure", nil, false, "http://example.org/"},
		{"mirror secure", nil, true, "https://example.org/"},
		{"force https on insecure request", ForceHTTPS, false, "https://example.org/"},
		{"force http on secure request", ForceHTTP, true, "http://example.org/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLinkResolver(roots, tt.policy)
			if got := l.SiteRoot(RequestContext{Secure: tt.secure}); got != tt.want {
				t.Errorf("SiteRoot = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureTrailingSlash(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://example.org", "http://example.org/"},
		{"http://example.org/", "http://example.org/"},
		{"http://example.org/gallery", "http://example.org/gallery/"},
		{"", "/"},
	}
	for _, tt := range tests {
		if got := EnsureTrailingSlash(tt.in); got != tt.want {
			t.Errorf("EnsureTrailingSlash(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPropertyTrailingSlashIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		host := rapid.StringMatching(`[a-z]{1,12}\.(org|com|net)`).Draw(t, "host")
		root := "http://" + host
		slashed := root + "/"

		a := NewLinkResolver(staticRoots(root, root), nil).SiteRoot(RequestContext{})
		b := NewLinkResolver(staticRoots(slashed, slashed), nil).SiteRoot(RequestContext{})

		if a != slashed || b != slashed {
			t.Fatalf("roots resolved to %q and %q, want %q", a, b, slashed)
		}
		if EnsureTrailingSlash(a) != a {
			t.Fatalf("normalization not idempotent for %q", a)
		}
	})
}
