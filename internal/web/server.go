// Package web provides the SoundBoxd HTTP API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/catalog"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/feed"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/matcher"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/social"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/spotify"
)

// FeedComposer builds feed pages.
type FeedComposer interface {
	Compose(ctx context.Context, req feed.Request) ([]db.Review, error)
}

// TrackMatcher matches artist/title pairs against the catalog.
type TrackMatcher interface {
	MatchTracks(ctx context.Context, inputs []matcher.TrackQuery, delay time.Duration) ([]matcher.MatchedTrack, error)
}

// CatalogSearcher searches the public catalog.
type CatalogSearcher interface {
	Search(ctx context.Context, term string, entity catalog.Entity, limit int) ([]catalog.Result, error)
	Lookup(ctx context.Context, id string, entity catalog.Entity) ([]catalog.Result, error)
}

// OAuthProvider runs the streaming provider login.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, expectedState string, r *http.Request) (*oauth2.Token, error)
}

// UserStore persists accounts.
type UserStore interface {
	Get(ctx context.Context, id string) (*db.User, error)
	Upsert(ctx context.Context, user *db.User) error
}

// TokenStore persists and refreshes provider tokens.
type TokenStore interface {
	Save(ctx context.Context, userID string, token *oauth2.Token) error
	GetValidToken(ctx context.Context, userID string) (string, error)
	Disconnect(ctx context.Context, userID string) error
}

// ProviderFunc returns a provider API client authorized with accessToken.
type ProviderFunc func(ctx context.Context, accessToken string) spotify.API

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Social is the interaction service used by the social routes.
type Social interface {
	PostReview(ctx context.Context, author string, in social.ReviewInput) (*db.Review, error)
	DeleteReview(ctx context.Context, author string, id int64) error
	Review(ctx context.Context, id int64) (*db.Review, []db.Comment, error)
	ReviewsForItem(ctx context.Context, itemID string) ([]db.Review, error)
	ReviewsByUser(ctx context.Context, userID string) ([]db.Review, error)
	ReviewLiked(ctx context.Context, viewer string, reviewID int64) (bool, error)
	ReviewCount(ctx context.Context) (int, error)
	ItemStats(ctx context.Context, itemID, viewer string) (*social.ItemStats, error)
	ToggleAlbumLike(ctx context.Context, author string, item db.CatalogItem) (bool, error)
	ToggleReviewLike(ctx context.Context, author string, reviewID int64) (bool, error)
	CommentOnReview(ctx context.Context, author string, reviewID int64, body string) (*db.Comment, error)
	CommentOnItem(ctx context.Context, author string, item db.CatalogItem, body string) (*db.Comment, error)
	ToggleFollow(ctx context.Context, follower, followee string) (bool, error)
	Followers(ctx context.Context, userID string) ([]social.UserRef, error)
	Following(ctx context.Context, userID string) ([]social.UserRef, error)
	Profile(ctx context.Context, userID string) (*social.ProfileView, error)
	UpdateProfile(ctx context.Context, owner string, in social.ProfileInput) (*db.Profile, error)
	SetTopAlbums(ctx context.Context, owner string, items []db.ProfileItem) error
	SetTopTracks(ctx context.Context, owner string, items []db.ProfileItem) error
	CreateList(ctx context.Context, owner string, in social.ListInput) (*db.List, error)
	GetList(ctx context.Context, id int64) (*db.List, error)
	ListsForOwner(ctx context.Context, owner string) ([]db.List, error)
	UpdateList(ctx context.Context, owner string, id int64, in social.ListInput) (*db.List, error)
	DeleteList(ctx context.Context, owner string, id int64) error
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr              string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// WriteTimeout defaults to 15 minutes when zero.
	WriteTimeout time.Duration
	// PostLoginURL is where the OAuth callback redirects after signing in.
	PostLoginURL string

	DefaultMatchDelay time.Duration
	MaxMatchDelay     time.Duration
	MaxMatchTracks    int
}

// Deps are the services the server routes to.
type Deps struct {
	Sessions *SessionManager
	OAuth    OAuthProvider
	Users    UserStore
	Tokens   TokenStore
	Provider ProviderFunc
	Feed     FeedComposer
	Matcher  TrackMatcher
	Catalog  CatalogSearcher
	Social   Social
	Health   Pinger
}

// Server is the HTTP server.
type Server struct {
	cfg      ServerConfig
	router   chi.Router
	server   *http.Server
	sessions *SessionManager

	oauth    OAuthProvider
	users    UserStore
	tokens   TokenStore
	provider ProviderFunc
	feed     FeedComposer
	matcher  TrackMatcher
	catalog  CatalogSearcher
	social   Social
	health   Pinger
}

// NewServer creates a new HTTP server.
func NewServer(cfg ServerConfig, deps Deps) (*Server, error) {
	if deps.Sessions == nil {
		return nil, errors.New("web: session manager is required")
	}
	if cfg.PostLoginURL == "" {
		cfg.PostLoginURL = "/"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 15 * time.Minute
	}

	r := chi.NewRouter()

	s := &Server{
		cfg:      cfg,
		router:   r,
		sessions: deps.Sessions,
		oauth:    deps.OAuth,
		users:    deps.Users,
		tokens:   deps.Tokens,
		provider: deps.Provider,
		feed:     deps.Feed,
		matcher:  deps.Matcher,
		catalog:  deps.Catalog,
		social:   deps.Social,
		health:   deps.Health,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(requestIDWithLogging)
	s.router.Use(middleware.RealIP)
	s.router.Use(corsHandler(s.cfg.CORSOrigins))
	s.router.Use(s.withSession)
	s.router.Use(accessLog)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/auth/login", s.handleLogin)
	s.router.Get("/callback", s.handleCallback)
	s.router.Post("/auth/logout", s.handleLogout)

	s.router.Route("/api", func(r chi.Router) {
		r.With(requireUser).Get("/me", s.handleMe)
		r.Post("/feed", s.handleFeed)
		r.Get("/search", s.handleSearch)
		r.Get("/catalog/{id}", s.handleLookup)
		r.Get("/stats", s.handleStats)

		r.Group(func(r chi.Router) {
			r.Use(rateLimit(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow))
			r.Post("/match", s.handleMatch)
			r.Post("/match/text", s.handleMatchText)
			r.With(requireUser).Post("/spotify/playlists/{id}/match", s.handleMatchPlaylist)
		})

		r.Get("/reviews/{id}", s.handleGetReview)
		r.Get("/items/{itemID}", s.handleItemStats)
		r.Get("/items/{itemID}/reviews", s.handleItemReviews)
		r.Get("/users/{userID}", s.handleGetProfile)
		r.Get("/users/{userID}/followers", s.handleFollowers)
		r.Get("/users/{userID}/following", s.handleFollowing)
		r.Get("/users/{userID}/reviews", s.handleUserReviews)
		r.Get("/users/{userID}/lists", s.handleUserLists)
		r.Get("/lists/{id}", s.handleGetList)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Use(rateLimit(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow))

			r.Post("/reviews", s.handlePostReview)
			r.Delete("/reviews/{id}", s.handleDeleteReview)
			r.Post("/reviews/{id}/like", s.handleLikeReview)
			r.Post("/reviews/{id}/comments", s.handleCommentReview)

			r.Post("/items/like", s.handleLikeItem)
			r.Post("/items/comments", s.handleCommentItem)

			r.Delete("/spotify/connection", s.handleDisconnect)

			r.Post("/users/{userID}/follow", s.handleFollow)
			r.Put("/me/profile", s.handleUpdateProfile)
			r.Put("/me/top-albums", s.handleSetTopAlbums)
			r.Put("/me/top-tracks", s.handleSetTopTracks)

			r.Post("/lists", s.handleCreateList)
			r.Put("/lists/{id}", s.handleUpdateList)
			r.Delete("/lists/{id}", s.handleDeleteList)
			r.Post("/lists/{id}/export", s.handleExportList)
		})
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.cfg.Addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and blocks until ctx is done or SIGINT/SIGTERM arrives,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logging.Info().Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logging.Info().Msg("server stopped")
	return nil
}
