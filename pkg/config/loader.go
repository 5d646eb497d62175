package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "PACKAGEFEED_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, PACKAGEFEED_CONFIG env, ./config.yaml, /etc/packagefeed/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PACKAGEFEED_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/packagefeed/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv(EnvPrefix + "CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/packagefeed/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps PACKAGEFEED_* environment variables to config
// fields. Malformed numeric or boolean values are errors.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"SITE_ROOT":       &cfg.Feed.SiteRoot,
		"SITE_ROOT_HTTPS": &cfg.Feed.SiteRootHTTPS,
		"LINK_SCHEME":     &cfg.Feed.LinkScheme,
		"STORAGE":         &cfg.Storage.Type,
		"POSTGRES_DSN":    &cfg.Storage.Postgres.DSN,
		"SEED_FILE":       &cfg.Storage.SeedFile,
		"SEARCH_URL":      &cfg.Search.URL,
		"SEARCH_API_KEY":  &cfg.Search.APIKey,
		"CACHE":           &cfg.Cache.Type,
		"REDIS_ADDR":      &cfg.Cache.Redis.Addr,
		"REDIS_PASSWORD":  &cfg.Cache.Redis.Password,
		"LOG_LEVEL":       &cfg.Logging.Level,
		"LOG_FORMAT":      &cfg.Logging.Format,
	}
	for name, field := range strs {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		"PORT":              &cfg.Server.Port,
		"MAX_PAGE_SIZE":     &cfg.Feed.MaxPageSize,
		"CACHE_MAX_ENTRIES": &cfg.Cache.MaxEntries,
		"REDIS_DB":          &cfg.Cache.Redis.DB,
	}
	for name, field := range ints {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %q is not an integer", EnvPrefix, name, v)
		}
		*field = n
	}

	bools := map[string]*bool{
		"TRUST_FORWARDED_PROTO": &cfg.Server.TrustForwardedProto,
		"METRICS_ENABLED":       &cfg.Observability.Metrics.Enabled,
		"MIGRATE_ON_START":      &cfg.Storage.Postgres.MigrateOnStart,
	}
	for name, field := range bools {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %q is not a boolean", EnvPrefix, name, v)
		}
		*field = b
	}

	return nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	refs := []struct {
		name  string
		file  string
		value *string
	}{
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"search.api_key_file", cfg.Search.APIKeyFile, &cfg.Search.APIKey},
		{"cache.redis.password_file", cfg.Cache.Redis.PasswordFile, &cfg.Cache.Redis.Password},
	}
	for _, ref := range refs {
		if ref.file == "" || *ref.value != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.value = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
