// Package config provides unified configuration for the package feed server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (PACKAGEFEED_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"strings"
	"time"
)

// Config holds all configuration for the package feed server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Feed          FeedConfig          `yaml:"feed"`
	Storage       StorageConfig       `yaml:"storage"`
	Search        SearchConfig        `yaml:"search"`
	Cache         CacheConfig         `yaml:"cache"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `yaml:"port"`                // default: 8080
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"` // default: 10s
	IdleTimeout       time.Duration `yaml:"idle_timeout"`        // default: 120s
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`    // default: 30s

	// TrustForwardedProto lets a fronting proxy's X-Forwarded-Proto header
	// mark requests as HTTPS.
	TrustForwardedProto bool `yaml:"trust_forwarded_proto"`
}

// FeedConfig holds the public addressing of the feed.
type FeedConfig struct {
	SiteRoot      string `yaml:"site_root"`       // required, e.g. "http://nuget.example.com"
	SiteRootHTTPS string `yaml:"site_root_https"` // default: site_root with an https scheme

	// LinkScheme picks the site root for links: "request" mirrors the
	// request's scheme, "https" and "http" force one. Default: "request".
	LinkScheme string `yaml:"link_scheme"`

	MaxPageSize int `yaml:"max_page_size"` // default: 40
}

// SiteRoots returns the configured site roots.
func (c FeedConfig) SiteRoots() SiteRoots {
	return SiteRoots{HTTP: c.SiteRoot, HTTPS: c.SiteRootHTTPS}
}

// SiteRoots is the pair of site roots links are built from.
type SiteRoots struct {
	HTTP  string
	HTTPS string
}

// SiteRoot returns the root for the requested scheme. Without an explicit
// HTTPS root, the HTTP root is rewritten to the https scheme.
func (s SiteRoots) SiteRoot(useHTTPS bool) string {
	if !useHTTPS {
		return s.HTTP
	}
	if s.HTTPS != "" {
		return s.HTTPS
	}
	if rest, ok := strings.CutPrefix(s.HTTP, "http://"); ok {
		return "https://" + rest
	}
	return s.HTTP
}

// StorageConfig holds package repository settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`

	// SeedFile is a JSON array of packages loaded into the repository at
	// startup. Optional.
	SeedFile string `yaml:"seed_file"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// SearchConfig holds the optional search service settings. An empty URL
// disables search paging.
type SearchConfig struct {
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"api_key"`
	APIKeyFile string        `yaml:"api_key_file"` // _file variant for api_key
	Timeout    time.Duration `yaml:"timeout"`      // default: 10s
	Breaker    BreakerConfig `yaml:"breaker"`
}

// Enabled reports whether a search service is configured.
func (c SearchConfig) Enabled() bool {
	return c.URL != ""
}

// BreakerConfig holds circuit breaker thresholds for the search service.
type BreakerConfig struct {
	MaxFailures int           `yaml:"max_failures"` // default: 5
	Timeout     time.Duration `yaml:"timeout"`      // default: 30s
}

// CacheConfig holds server-side output cache settings.
type CacheConfig struct {
	Type       string      `yaml:"type"`        // "memory", "redis" or "none", default: "memory"
	MaxEntries int         `yaml:"max_entries"` // for memory cache, default: 10000
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
	KeyPrefix    string `yaml:"key_prefix"` // default: "packagefeed:output:"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn" or "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Feed: FeedConfig{
			LinkScheme:  "request",
			MaxPageSize: 40,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Search: SearchConfig{
			Timeout: 10 * time.Second,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
			},
		},
		Cache: CacheConfig{
			Type:       "memory",
			MaxEntries: 10000,
			Redis: RedisConfig{
				KeyPrefix: "packagefeed:output:",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
