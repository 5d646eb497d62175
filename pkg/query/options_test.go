package query

import (
	"errors"
	"net/url"
	"testing"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/storage"
)

func TestParseOptions(t *testing.T) {
	v, _ := url.ParseQuery("$top=10&$skip=5&$orderby=DownloadCount desc&$inlinecount=allpages" +
		"&searchTerm='json'&targetFramework='net8.0'&includePrerelease=true")

	o, err := ParseOptions(v)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if !o.HasTop || o.Top != 10 || o.Skip != 5 {
		t.Errorf("top/skip = %v %d %d", o.HasTop, o.Top, o.Skip)
	}
	if o.OrderBy != storage.OrderByDownloadCount || !o.Descending {
		t.Errorf("order = %q desc=%v", o.OrderBy, o.Descending)
	}
	if !o.InlineCount {
		t.Error("InlineCount = false")
	}
	if o.SearchTerm != "json" || o.TargetFramework != "net8.0" || !o.IncludePrerelease {
		t.Errorf("service operation params = %+v", o)
	}
}

func TestParseOptionsSkipToken(t *testing.T) {
	v := url.Values{"$skiptoken": {"'Newtonsoft.Json','13.0.3.0'"}}
	o, err := ParseOptions(v)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if o.SkipToken == nil || *o.SkipToken != (storage.Key{ID: "Newtonsoft.Json", Version: "13.0.3"}) {
		t.Errorf("SkipToken = %+v", o.SkipToken)
	}
}

func TestParseOptionsFilters(t *testing.T) {
	tests := []struct {
		filter     string
		latest     bool
		prerelease bool
		id         string
	}{
		{"IsLatestVersion", true, false, ""},
		{"IsAbsoluteLatestVersion", true, true, ""},
		{"Id eq 'Foo'", false, false, "Foo"},
		{"tolower(Id) eq 'foo'", false, false, "foo"},
	}
	for _, tt := range tests {
		o, err := ParseOptions(url.Values{"$filter": {tt.filter}})
		if err != nil {
			t.Errorf("$filter=%s: %v", tt.filter, err)
			continue
		}
		if o.LatestOnly != tt.latest || o.IncludePrerelease != tt.prerelease || o.ID != tt.id {
			t.Errorf("$filter=%s: got %+v", tt.filter, o)
		}
	}
}

func TestParseOptionsErrors(t *testing.T) {
	tests := []struct {
		query string
		param string
	}{
		{"$top=-1", "$top"},
		{"$top=ten", "$top"},
		{"$skip=x", "$skip"},
		{"$skiptoken='only-one'", "$skiptoken"},
		{"$orderby=Size", "$orderby"},
		{"$orderby=Id sideways", "$orderby"},
		{"$inlinecount=some", "$inlinecount"},
		{"$format=atom", "$format"},
		{"$filter=Title eq 'x'", "$filter"},
		{"searchTerm='open", "searchTerm"},
		{"includePrerelease=maybe", "includePrerelease"},
	}
	for _, tt := range tests {
		v, _ := url.ParseQuery(tt.query)
		_, err := ParseOptions(v)
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("%s: expected *api.APIError, got %v", tt.query, err)
			continue
		}
		if apiErr.Type != api.ErrorTypeInvalidRequest || apiErr.Param != tt.param {
			t.Errorf("%s: got type=%s param=%s", tt.query, apiErr.Type, apiErr.Param)
		}
	}
}
