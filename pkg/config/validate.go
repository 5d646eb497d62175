package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"server.read_header_timeout", c.Server.ReadHeaderTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
	} {
		if t.d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", t.name, t.d))
		}
	}

	// feed.site_root is required; links are absolute.
	if c.Feed.SiteRoot == "" {
		errs = append(errs, fmt.Errorf("feed.site_root is required"))
	} else if u, err := url.Parse(c.Feed.SiteRoot); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("feed.site_root must be an absolute URL, got %q", c.Feed.SiteRoot))
	}
	switch c.Feed.LinkScheme {
	case "request", "https", "http":
	default:
		errs = append(errs, fmt.Errorf("feed.link_scheme must be \"request\", \"https\" or \"http\", got %q", c.Feed.LinkScheme))
	}
	if c.Feed.MaxPageSize <= 0 {
		errs = append(errs, fmt.Errorf("feed.max_page_size must be > 0, got %d", c.Feed.MaxPageSize))
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Search.Enabled() {
		if u, err := url.Parse(c.Search.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("search.url must be an absolute URL, got %q", c.Search.URL))
		}
	}

	switch c.Cache.Type {
	case "memory", "none":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("cache.redis.addr is required when cache.type is \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.type must be \"memory\", \"redis\" or \"none\", got %q", c.Cache.Type))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
