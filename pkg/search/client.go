package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rhuss/packagefeed/pkg/api"
	"github.com/rhuss/packagefeed/pkg/observability"
)

// Config holds settings for the HTTP search client.
type Config struct {
	// BaseURL of the search service, e.g. "http://search.internal:8080".
	BaseURL string

	// APIKey is sent as X-Api-Key when set.
	APIKey string

	// Timeout bounds a single search call (default: 10s).
	Timeout time.Duration

	Breaker BreakerConfig
}

// Client implements Engine against a search service exposing
// GET /search/query.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *Breaker
	logger     *slog.Logger
}

// Ensure Client implements Engine at compile time.
var _ Engine = (*Client)(nil)

// NewClient creates a search client. It performs no network I/O.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("search base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing search base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    NewBreaker(cfg.Breaker),
		logger:     logger,
	}, nil
}

// Available reports whether the breaker would admit a call.
func (c *Client) Available() bool {
	ready := c.breaker.Ready()
	if ready {
		observability.SearchBreakerOpen.Set(0)
	} else {
		observability.SearchBreakerOpen.Set(1)
	}
	return ready
}

// queryResponse is the JSON body returned by the search service.
type queryResponse struct {
	TotalHits int           `json:"totalHits"`
	Data      []api.Package `json:"data"`
}

// ComputePage asks the search service for one page of results.
func (c *Client) ComputePage(ctx context.Context, req Request) (*Page, error) {
	var page *Page
	err := c.breaker.Execute(func() error {
		var callErr error
		page, callErr = c.query(ctx, req)
		return callErr
	})

	status := "ok"
	if err != nil {
		switch {
		case errors.Is(err, ErrCircuitOpen):
			status = "rejected"
		case isCallerAbort(err):
			status = "canceled"
		default:
			status = "error"
		}
		c.logger.Warn("search request failed",
			"path", req.Path,
			"search_term", req.SearchTerm,
			"error", err,
		)
	}
	observability.SearchRequestsTotal.WithLabelValues(status).Inc()

	if err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) query(ctx context.Context, req Request) (*Page, error) {
	take := req.PageSize()

	q := url.Values{}
	q.Set("q", req.SearchTerm)
	q.Set("skip", strconv.Itoa(req.Skip))
	q.Set("take", strconv.Itoa(take))
	q.Set("prerelease", strconv.FormatBool(req.IncludePrerelease))
	q.Set("latestOnly", strconv.FormatBool(req.LatestOnly))
	if req.OrderBy != "" {
		q.Set("sortBy", req.OrderBy)
	}
	if req.TargetFramework != "" {
		q.Set("supportedFramework", req.TargetFramework)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/query?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned status %d", resp.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("decoding search response: %v", err)
	}

	if len(qr.Data) > take {
		qr.Data = qr.Data[:take]
	}

	page := &Page{
		Packages:  qr.Data,
		TotalHits: qr.TotalHits,
	}
	if next := req.Skip + len(qr.Data); len(qr.Data) > 0 && next < qr.TotalHits {
		page.ContinuationToken = strconv.Itoa(next)
	}
	return page, nil
}
