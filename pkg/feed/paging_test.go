package feed

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/rhuss/packagefeed/pkg/search"
)

type fakeEngine struct {
	available bool
	page      *search.Page
	err       error
	got       search.Request
	calls     int
}

func (f *fakeEngine) Available() bool { return f.available }

func (f *fakeEngine) ComputePage(_ context.Context, req search.Request) (*search.Page, error) {
	f.calls++
	f.got = req
	return f.page, f.err
}

func TestSelectPaging(t *testing.T) {
	rc := RequestContext{Method: "GET", Path: "/api/v2/Search()", RawQuery: "searchTerm='json'"}

	tests := []struct {
		name        string
		engine      search.Engine
		wantDefault bool
	}{
		{"no engine", nil, true},
		{"engine unavailable", &fakeEngine{available: false}, true},
		{"engine available", &fakeEngine{available: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := SelectPaging(tt.engine, rc, 40)
			if IsDefaultPaging(p) != tt.wantDefault {
				t.Fatalf("IsDefaultPaging = %v, want %v", IsDefaultPaging(p), tt.wantDefault)
			}
			if tt.wantDefault {
				if p.Name() != "default" {
					t.Errorf("Name = %q", p.Name())
				}
				return
			}
			sp, ok := p.(*SearchPaging)
			if !ok {
				t.Fatalf("provider is %T, want *SearchPaging", p)
			}
			if sp.MaxPageSize != 40 || sp.Request != rc || sp.Engine != tt.engine {
				t.Errorf("unexpected search paging %+v", sp)
			}
		})
	}
}

func TestSelectPagingReevaluatesAvailability(t *testing.T) {
	engine := &fakeEngine{available: true}
	rc := RequestContext{Method: "GET", Path: "/api/v2/Packages"}

	if IsDefaultPaging(SelectPaging(engine, rc, 40)) {
		t.Fatal("expected search paging while available")
	}
	engine.available = false
	if !IsDefaultPaging(SelectPaging(engine, rc, 40)) {
		t.Fatal("expected default paging after engine became unavailable")
	}
}

func TestSearchPagingComputePage(t *testing.T) {
	want := &search.Page{TotalHits: 1}
	engine := &fakeEngine{available: true, page: want}
	rc := RequestContext{Method: "GET", Path: "/api/v2/Search()", RawQuery: "searchTerm='json'&$top=10"}

	p := &SearchPaging{Engine: engine, Request: rc, MaxPageSize: 25}
	got, err := p.ComputePage(context.Background(), search.Request{SearchTerm: "json", Top: 10, MaxPageSize: 1000})
	if err != nil {
		t.Fatalf("ComputePage: %v", err)
	}
	if got != want {
		t.Errorf("page = %v, want %v", got, want)
	}
	if engine.got.MaxPageSize != 25 {
		t.Errorf("MaxPageSize = %d, want 25", engine.got.MaxPageSize)
	}
	if engine.got.Path != rc.Path || engine.got.RawQuery != rc.RawQuery {
		t.Errorf("request not stamped: %+v", engine.got)
	}
	if engine.got.SearchTerm != "json" || engine.got.Top != 10 {
		t.Errorf("query fields lost: %+v", engine.got)
	}
}

func TestSearchPagingPropagatesError(t *testing.T) {
	engine := &fakeEngine{available: true, err: search.ErrUnavailable}
	p := &SearchPaging{Engine: engine, MaxPageSize: 40}

	if _, err := p.ComputePage(context.Background(), search.Request{}); !errors.Is(err, search.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestPropertyPagingSelectionIsPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		configured := rapid.Bool().Draw(t, "configured")
		available := rapid.Bool().Draw(t, "available")
		maxPage := rapid.IntRange(1, 1000).Draw(t, "max page size")
		rc := RequestContext{
			Method: "GET",
			Path:   rapid.SampledFrom([]string{"/api/v2/Packages", "/api/v2/Search()", "/api/v1/Packages"}).Draw(t, "path"),
			Secure: rapid.Bool().Draw(t, "secure"),
		}

		var engine search.Engine
		if configured {
			engine = &fakeEngine{available: available}
		}

		first := SelectPaging(engine, rc, maxPage)
		second := SelectPaging(engine, rc, maxPage)

		wantDefault := !configured || !available
		if IsDefaultPaging(first) != wantDefault || IsDefaultPaging(second) != wantDefault {
			t.Fatalf("configured=%v available=%v: got %s then %s", configured, available, first.Name(), second.Name())
		}
		if !wantDefault && first.(*SearchPaging).MaxPageSize != maxPage {
			t.Fatalf("MaxPageSize = %d, want %d", first.(*SearchPaging).MaxPageSize, maxPage)
		}
	})
}
