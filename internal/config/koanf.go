package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/soundboxd/config.yaml",
}

// envMappings maps environment variables to koanf paths.
var envMappings = map[string]string{
	"http_addr":           "server.addr",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"session_ttl":         "server.session_ttl",
	"write_timeout":       "server.write_timeout",
	"secure_cookies":      "server.secure_cookies",
	"database_url":        "database.url",
	"auto_migrate":        "database.auto_migrate",
	"spotify_id":          "spotify.client_id",
	"spotify_secret":      "spotify.client_secret",
	"spotify_redirect":    "spotify.redirect_url",
	"catalog_base_url":    "catalog.base_url",
	"catalog_country":     "catalog.country",
	"catalog_timeout":     "catalog.timeout",
	"catalog_cache_ttl":   "catalog.cache_ttl",
	"feed_page_size":      "feed.page_size",
	"match_delay":         "matcher.default_delay",
	"match_max_delay":     "matcher.max_delay",
	"match_max_tracks":    "matcher.max_tracks",
	"log_level":           "logging.level",
	"log_format":          "logging.format",
	"log_caller":          "logging.caller",
}

// Load builds the configuration: defaults, then the YAML file (if any), then
// environment variables. The result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// envKey translates an environment variable name into a koanf path.
// Unknown variables are dropped.
func envKey(key string) string {
	return envMappings[strings.ToLower(key)]
}

// sliceFields are config paths that arrive from the environment as
// comma-separated strings.
var sliceFields = []string{"server.cors_origins"}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("setting %s: %w", path, err)
		}
	}
	return nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
