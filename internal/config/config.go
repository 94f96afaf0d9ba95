// Package config loads SoundBoxd configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Sentinel errors returned by Validate.
var (
	ErrMissingDatabaseURL        = errors.New("missing DATABASE_URL")
	ErrMissingSpotifyCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET")
	ErrMatchExceedsWriteTimeout  = errors.New("matcher limits exceed server write timeout")
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Feed     FeedConfig     `koanf:"feed"`
	Matcher  MatcherConfig  `koanf:"matcher"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	SessionTTL        time.Duration `koanf:"session_ttl"`
	SecureCookies     bool          `koanf:"secure_cookies"`
	// WriteTimeout bounds a whole response, so it must cover the slowest
	// match request the matcher limits allow.
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	URL         string `koanf:"url"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// SpotifyConfig holds the streaming provider OAuth client settings.
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

// CatalogConfig configures the public catalog search client.
type CatalogConfig struct {
	BaseURL  string        `koanf:"base_url"`
	Country  string        `koanf:"country"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// FeedConfig configures the feed composer.
type FeedConfig struct {
	PageSize int `koanf:"page_size"`
}

// MatcherConfig configures the catalog matcher endpoints.
type MatcherConfig struct {
	DefaultDelay time.Duration `koanf:"default_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
	MaxTracks    int           `koanf:"max_tracks"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              "127.0.0.1:8080",
			CORSOrigins:       []string{},
			RateLimitRequests: 20,
			RateLimitWindow:   time.Minute,
			SessionTTL:        24 * time.Hour,
			WriteTimeout:      15 * time.Minute,
		},
		Database: DatabaseConfig{
			AutoMigrate: true,
		},
		Spotify: SpotifyConfig{
			RedirectURL: "http://127.0.0.1:8080/callback",
		},
		Catalog: CatalogConfig{
			BaseURL:  "https://itunes.apple.com",
			Country:  "US",
			Timeout:  10 * time.Second,
			CacheTTL: 30 * time.Minute,
		},
		Feed: FeedConfig{
			PageSize: 5,
		},
		Matcher: MatcherConfig{
			DefaultDelay: 800 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			MaxTracks:    50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return ErrMissingSpotifyCredentials
	}
	if _, err := url.ParseRequestURI(c.Spotify.RedirectURL); err != nil {
		return fmt.Errorf("invalid spotify redirect URL %q: %w", c.Spotify.RedirectURL, err)
	}
	if _, err := url.ParseRequestURI(c.Catalog.BaseURL); err != nil {
		return fmt.Errorf("invalid catalog base URL %q: %w", c.Catalog.BaseURL, err)
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("feed page size must be positive, got %d", c.Feed.PageSize)
	}
	if c.Matcher.DefaultDelay < 0 || c.Matcher.MaxDelay < c.Matcher.DefaultDelay {
		return fmt.Errorf("matcher delay out of range: default %s, max %s", c.Matcher.DefaultDelay, c.Matcher.MaxDelay)
	}
	if c.Matcher.MaxTracks <= 0 {
		return fmt.Errorf("matcher max tracks must be positive, got %d", c.Matcher.MaxTracks)
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("rate limit requests must not be negative, got %d", c.Server.RateLimitRequests)
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog timeout must be positive, got %s", c.Catalog.Timeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}
	if worst := c.MatchWorstCase(); worst > c.Server.WriteTimeout {
		return fmt.Errorf("%w: %d tracks at up to %s each need %s, write timeout is %s",
			ErrMatchExceedsWriteTimeout, c.Matcher.MaxTracks, c.Matcher.MaxDelay+c.Catalog.Timeout, worst, c.Server.WriteTimeout)
	}
	return nil
}

// MatchWorstCase is the longest a single match request may take: every
// track waits the maximum delay and a full catalog timeout.
func (c *Config) MatchWorstCase() time.Duration {
	return time.Duration(c.Matcher.MaxTracks) * (c.Matcher.MaxDelay + c.Catalog.Timeout)
}
