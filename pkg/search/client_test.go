package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rhuss/packagefeed/pkg/api"
)

func newSearchServer(t *testing.T, total int, handler func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler != nil {
			handler(r)
		}
		take := 0
		json.Unmarshal([]byte(r.URL.Query().Get("take")), &take)
		data := make([]api.Package, 0, take)
		for i := 0; i < take; i++ {
			data = append(data, api.Package{ID: "Pkg", Version: "1.0.0"})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"totalHits": total, "data": data})
	}))
}

func TestClientComputePageSendsQuery(t *testing.T) {
	var got *http.Request
	srv := newSearchServer(t, 100, func(r *http.Request) { got = r })
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	page, err := c.ComputePage(context.Background(), Request{
		SearchTerm:        "json",
		Skip:              10,
		Top:               5,
		IncludePrerelease: true,
		MaxPageSize:       MaxPageSize,
	})
	if err != nil {
		t.Fatalf("ComputePage: %v", err)
	}

	if got.URL.Path != "/search/query" {
		t.Errorf("path = %q, want /search/query", got.URL.Path)
	}
	q := got.URL.Query()
	for key, want := range map[string]string{"q": "json", "skip": "10", "take": "5", "prerelease": "true"} {
		if q.Get(key) != want {
			t.Errorf("query %s = %q, want %q", key, q.Get(key), want)
		}
	}
	if got.Header.Get("X-Api-Key") != "secret" {
		t.Errorf("X-Api-Key = %q, want %q", got.Header.Get("X-Api-Key"), "secret")
	}

	if len(page.Packages) != 5 {
		t.Errorf("len(Packages) = %d, want 5", len(page.Packages))
	}
	if page.ContinuationToken != "15" {
		t.Errorf("ContinuationToken = %q, want %q", page.ContinuationToken, "15")
	}
}

func TestClientComputePageBoundsPageSize(t *testing.T) {
	var take string
	srv := newSearchServer(t, 1000, func(r *http.Request) { take = r.URL.Query().Get("take") })
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL}, nil)
	if _, err := c.ComputePage(context.Background(), Request{Top: 500, MaxPageSize: 1000}); err != nil {
		t.Fatalf("ComputePage: %v", err)
	}
	if take != "40" {
		t.Errorf("take = %q, want %q", take, "40")
	}
}

func TestClientComputePageLastPageHasNoToken(t *testing.T) {
	srv := newSearchServer(t, 12, nil)
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL}, nil)
	page, err := c.ComputePage(context.Background(), Request{Skip: 2, Top: 10})
	if err != nil {
		t.Fatalf("ComputePage: %v", err)
	}
	if page.ContinuationToken != "" {
		t.Errorf("ContinuationToken = %q, want empty on last page", page.ContinuationToken)
	}
}

func TestClientOpensBreakerOnServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(Config{
		BaseURL: srv.URL,
		Breaker: BreakerConfig{MaxFailures: 2, Timeout: time.Hour},
	}, nil)

	if !c.Available() {
		t.Fatal("new client should be available")
	}

	for i := 0; i < 2; i++ {
		_, err := c.ComputePage(context.Background(), Request{})
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: err = %v, want ErrUnavailable", i, err)
		}
	}

	if c.Available() {
		t.Error("client should be unavailable once the breaker opens")
	}
	if _, err := c.ComputePage(context.Background(), Request{}); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestClientCallerDeadlineKeepsBreakerClosed(t *testing.T) {
	srv := newSearchServer(t, 10, func(*http.Request) { time.Sleep(50 * time.Millisecond) })
	defer srv.Close()

	c, _ := NewClient(Config{
		BaseURL: srv.URL,
		Breaker: BreakerConfig{MaxFailures: 2, Timeout: time.Hour},
	}, nil)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_, err := c.ComputePage(ctx, Request{SearchTerm: "json"})
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: err = %v, want context.DeadlineExceeded", i, err)
		}
		if errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: caller deadline reported as ErrUnavailable", i)
		}
	}

	if !c.Available() {
		t.Fatal("caller deadlines must not open the breaker")
	}
	if _, err := c.ComputePage(context.Background(), Request{SearchTerm: "json"}); err != nil {
		t.Errorf("ComputePage after aborts: %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}, nil); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestRequestPageSize(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want int
	}{
		{"defaults to bound", Request{}, MaxPageSize},
		{"top below bound", Request{Top: 7}, 7},
		{"top above bound", Request{Top: 100}, MaxPageSize},
		{"configured smaller bound", Request{MaxPageSize: 10}, 10},
		{"configured bound above constant", Request{MaxPageSize: 500}, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.PageSize(); got != tt.want {
				t.Errorf("PageSize() = %d, want %d", got, tt.want)
			}
		})
	}
}
