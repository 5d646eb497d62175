package feed

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rhuss/packagefeed/pkg/api"
)

func newTestService(t *testing.T, engine *fakeEngine) *Service {
	t.Helper()
	links := NewLinkResolver(staticRoots("http://example.org", "https://example.org"), nil)
	opts := Options{
		Links: links,
		Clock: func() time.Time { return testNow },
	}
	if engine != nil {
		opts.Search = engine
	}
	svc, err := NewService(V2Content(links), opts)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewServiceRequiresContentAddresser(t *testing.T) {
	links := NewLinkResolver(staticRoots("http://example.org", ""), nil)
	if _, err := NewService(nil, Options{Links: links}); !errors.Is(err, ErrNoContentAddresser) {
		t.Fatalf("error = %v, want ErrNoContentAddresser", err)
	}
	if _, err := NewService(V1Content(links), Options{}); err == nil {
		t.Fatal("expected error without link resolver")
	}
}

func TestServiceCapability(t *testing.T) {
	svc := newTestService(t, &fakeEngine{available: true})
	rc := RequestContext{Method: "GET", Path: "/api/v2/Packages"}

	if _, ok := svc.Capability(CapabilityStream, rc).(StreamProvider); !ok {
		t.Errorf("CapabilityStream returned %T", svc.Capability(CapabilityStream, rc))
	}
	paging, ok := svc.Capability(CapabilityPaging, rc).(*SearchPaging)
	if !ok {
		t.Fatalf("CapabilityPaging returned %T", svc.Capability(CapabilityPaging, rc))
	}
	if paging.MaxPageSize != 40 {
		t.Errorf("MaxPageSize = %d, want 40", paging.MaxPageSize)
	}
	if got := svc.Capability(CapabilityKind(99), rc); got != nil {
		t.Errorf("unknown capability returned %v", got)
	}
}

func TestServiceContentAddress(t *testing.T) {
	svc := newTestService(t, nil)
	pkg := &api.Package{ID: "Newtonsoft.Json", Version: "13.0.3"}

	tests := []struct {
		secure bool
		want   string
	}{
		{false, "http://example.org/api/v2/package/Newtonsoft.Json/13.0.3"},
		{true, "https://example.org/api/v2/package/Newtonsoft.Json/13.0.3"},
	}
	for _, tt := range tests {
		u, err := svc.ContentAddress(RequestContext{Secure: tt.secure}, pkg)
		if err != nil {
			t.Fatalf("ContentAddress: %v", err)
		}
		if u.String() != tt.want {
			t.Errorf("secure=%v: ContentAddress = %q, want %q", tt.secure, u, tt.want)
		}
	}

	if _, err := svc.ContentAddress(RequestContext{}, &api.Package{ID: "A"}); err == nil {
		t.Error("expected error for package without version")
	}
}

func TestV1ContentAddress(t *testing.T) {
	links := NewLinkResolver(staticRoots("http://example.org/gallery", ""), nil)
	u, err := V1Content(links).ContentAddress(RequestContext{}, &api.Package{ID: "A", Version: "1.0"})
	if err != nil {
		t.Fatalf("ContentAddress: %v", err)
	}
	if want := "http://example.org/gallery/api/v1/package/A/1.0"; u.String() != want {
		t.Errorf("ContentAddress = %q, want %q", u, want)
	}
}

// TestScenarioKeyedV1Request walks one request through every policy: a
// keyed v1 entity read over plain http with no search engine.
func TestScenarioKeyedV1Request(t *testing.T) {
	svc := newTestService(t, nil)
	r := httptest.NewRequest("GET", "/api/v1/Packages(Id='A',Version='1.0')", nil)
	rc := RequestContextFrom(r, false)

	if rc.Secure {
		t.Fatal("request should not be secure")
	}

	d, now := svc.CachePolicy(rc)
	if !now.Equal(testNow) {
		t.Errorf("evaluated at %v, want %v", now, testNow)
	}
	if d.Cacheability != ServerAndPrivate || !d.ExpiresAt.Equal(testNow.Add(5*time.Minute)) {
		t.Errorf("directive = %+v", d)
	}

	if p := svc.PagingProvider(rc); !IsDefaultPaging(p) {
		t.Errorf("paging provider = %s, want default", p.Name())
	}

	streams := svc.Capability(CapabilityStream, rc).(StreamProvider)
	if _, err := streams.GetReadStream(&api.Package{ID: "A", Version: "1.0"}, "", nil); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("GetReadStream error = %v", err)
	}

	if got := svc.SiteRoot(rc); got != "http://example.org/" {
		t.Errorf("SiteRoot = %q", got)
	}
}

func TestRequestContextFrom(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		proto   string
		trust   bool
		wantSec bool
	}{
		{"plain http", "http://example.org/api/v2/Packages", "", true, false},
		{"tls", "https://example.org/api/v2/Packages", "", false, true},
		{"forwarded but untrusted", "http://example.org/api/v2/Packages", "https", false, false},
		{"forwarded and trusted", "http://example.org/api/v2/Packages", "https", true, true},
		{"forwarded list", "http://example.org/api/v2/Packages", "HTTPS, http", true, true},
		{"forwarded http", "http://example.org/api/v2/Packages", "http", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target+"?$top=5", nil)
			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rc := RequestContextFrom(r, tt.trust)
			if rc.Secure != tt.wantSec {
				t.Errorf("Secure = %v, want %v", rc.Secure, tt.wantSec)
			}
			if rc.Method != "GET" || rc.Path != "/api/v2/Packages" || rc.RawQuery != "$top=5" {
				t.Errorf("unexpected context %+v", rc)
			}
		})
	}
}
