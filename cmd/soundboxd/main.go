// Command soundboxd runs the SoundBoxd API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/auth"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/catalog"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/config"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/feed"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/matcher"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/social"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/spotify"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/web"
)

const sessionSweepInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	authenticator, err := auth.NewAuthenticator(auth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURL,
	})
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	catalogClient := catalog.NewClient(catalog.Config{
		BaseURL:  cfg.Catalog.BaseURL,
		Country:  cfg.Catalog.Country,
		Timeout:  cfg.Catalog.Timeout,
		CacheTTL: cfg.Catalog.CacheTTL,
	})

	server, err := web.NewServer(web.ServerConfig{
		Addr:              cfg.Server.Addr,
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		WriteTimeout:      cfg.Server.WriteTimeout,
		DefaultMatchDelay: cfg.Matcher.DefaultDelay,
		MaxMatchDelay:     cfg.Matcher.MaxDelay,
		MaxMatchTracks:    cfg.Matcher.MaxTracks,
	}, web.Deps{
		Sessions: web.NewSessionManager(database.Sessions(), cfg.Server.SessionTTL, cfg.Server.SecureCookies),
		OAuth:    authenticator,
		Users:    database.Users(),
		Tokens:   auth.NewTokenStore(database.Tokens(), authenticator),
		Provider: func(ctx context.Context, accessToken string) spotify.API {
			return authenticator.Client(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
		},
		Feed:    feed.New(feed.NewDBStore(database), feed.WithPageSize(cfg.Feed.PageSize)),
		Matcher: matcher.New(catalogClient),
		Catalog: catalogClient,
		Social:  social.NewService(social.StoresFromDB(database)),
		Health:  database,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	go sweepSessions(ctx, database.Sessions())

	return server.Run(ctx)
}

// sweepSessions deletes expired sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions *db.SessionRepository) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("deleting expired sessions")
				continue
			}
			if n > 0 {
				logging.Debug().Int64("deleted", n).Msg("deleted expired sessions")
			}
		}
	}
}
