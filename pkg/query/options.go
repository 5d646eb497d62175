package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/storage"
)

// Options are the parsed query options of one feed request.
type Options struct {
	Top    int
	HasTop bool
	Skip   int
	// SkipToken resumes a key-ordered listing after the given package.
	SkipToken *storage.Key

	OrderBy    storage.Order
	Descending bool

	ID                string
	SearchTerm        string
	TargetFramework   string
	IncludePrerelease bool
	LatestOnly        bool

	InlineCount bool
}

// ParseOptions parses feed query options. Errors are *api.APIError values
// of type invalid_request naming the offending parameter.
func ParseOptions(v url.Values) (Options, error) {
	var o Options

	if s := v.Get("$top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return o, api.NewInvalidRequestError("$top", "$top must be a non-negative integer")
		}
		o.Top, o.HasTop = n, true
	}
	if s := v.Get("$skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return o, api.NewInvalidRequestError("$skip", "$skip must be a non-negative integer")
		}
		o.Skip = n
	}
	if s := v.Get("$skiptoken"); s != "" {
		parts, err := parseLiteralList(s)
		if err != nil || len(parts) != 2 {
			return o, api.NewInvalidRequestError("$skiptoken", "$skiptoken must be 'Id','Version'")
		}
		o.SkipToken = &storage.Key{ID: parts[0], Version: api.NormalizeVersion(parts[1])}
	}
	if s := v.Get("$orderby"); s != "" {
		if err := o.parseOrderBy(s); err != nil {
			return o, err
		}
	}
	if s := v.Get("$inlinecount"); s != "" {
		switch s {
		case "allpages":
			o.InlineCount = true
		case "none":
		default:
			return o, api.NewInvalidRequestError("$inlinecount", "$inlinecount must be allpages or none")
		}
	}
	if s := v.Get("$format"); s != "" && !strings.EqualFold(s, "json") {
		return o, api.NewInvalidRequestError("$format", "only the json format is supported")
	}
	if s := v.Get("$filter"); s != "" {
		if err := o.parseFilter(s); err != nil {
			return o, err
		}
	}

	var err error
	if o.SearchTerm, err = literalParam(v, "searchTerm"); err != nil {
		return o, err
	}
	if o.TargetFramework, err = literalParam(v, "targetFramework"); err != nil {
		return o, err
	}
	id, err := literalParam(v, "id")
	if err != nil {
		return o, err
	}
	if id != "" {
		o.ID = id
	}
	if s := v.Get("includePrerelease"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return o, api.NewInvalidRequestError("includePrerelease", "includePrerelease must be true or false")
		}
		o.IncludePrerelease = o.IncludePrerelease || b
	}

	return o, nil
}

func literalParam(v url.Values, name string) (string, error) {
	s, err := parseLiteral(v.Get(name))
	if err != nil {
		return "", api.NewInvalidRequestError(name, name+" must be a string literal")
	}
	return s, nil
}

func (o *Options) parseOrderBy(s string) error {
	first, _, _ := strings.Cut(s, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 || len(fields) > 2 {
		return api.NewInvalidRequestError("$orderby", "malformed $orderby")
	}
	order, ok := storage.ParseOrder(fields[0])
	if !ok {
		return api.NewInvalidRequestError("$orderby", "cannot order by "+fields[0])
	}
	o.OrderBy = order
	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "asc":
		case "desc":
			o.Descending = true
		default:
			return api.NewInvalidRequestError("$orderby", "sort direction must be asc or desc")
		}
	}
	return nil
}

// parseFilter accepts the filter shapes package clients send:
// IsLatestVersion, IsAbsoluteLatestVersion, and an id equality optionally
// wrapped in tolower().
func (o *Options) parseFilter(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "IsLatestVersion"):
		o.LatestOnly = true
		return nil
	case strings.EqualFold(s, "IsAbsoluteLatestVersion"):
		o.LatestOnly = true
		o.IncludePrerelease = true
		return nil
	}

	lhs, rhs, ok := cutFold(s, " eq ")
	if ok {
		lhs = strings.TrimSpace(lhs)
		if strings.EqualFold(lhs, "Id") || strings.EqualFold(lhs, "tolower(Id)") {
			id, err := parseLiteral(rhs)
			if err == nil && strings.HasPrefix(strings.TrimSpace(rhs), "'") {
				o.ID = id
				return nil
			}
		}
	}
	return api.NewInvalidRequestError("$filter", "unsupported $filter expression")
}

func cutFold(s, sep string) (before, after string, found bool) {
	i := strings.Index(strings.ToLower(s), strings.ToLower(sep))
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
