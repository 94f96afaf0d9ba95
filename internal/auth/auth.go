// Package auth provides Spotify OAuth2 login and per-user token storage with refresh.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

var (
	// ErrMissingCredentials is returned when the Spotify client ID or secret is empty.
	ErrMissingCredentials = errors.New("missing Spotify client ID or secret")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)

// Config holds Spotify OAuth settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Scopes requested at login: profile, playlist import and playlist export.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Authenticator handles the Spotify OAuth2 authorization code flow.
type Authenticator struct {
	auth *spotifyauth.Authenticator
	// oauth refreshes tokens; it shares credentials with auth.
	oauth *oauth2.Config
}

// NewAuthenticator creates an Authenticator from cfg.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(Scopes...),
	)

	return &Authenticator{
		auth: auth,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
	}, nil
}

// AuthURL returns the provider consent URL for state.
func (a *Authenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange validates the callback request and trades its code for a token.
func (a *Authenticator) Exchange(ctx context.Context, expectedState string, r *http.Request) (*oauth2.Token, error) {
	if r.URL.Query().Get("state") != expectedState {
		return nil, ErrStateMismatch
	}
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		return nil, fmt.Errorf("spotify auth error: %s", errMsg)
	}

	token, err := a.auth.Token(ctx, expectedState, r)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	return token, nil
}

// Client returns a Spotify API client authorized with token.
func (a *Authenticator) Client(ctx context.Context, token *oauth2.Token) *spotify.Client {
	return spotify.New(a.auth.Client(ctx, token))
}

// Refresh obtains a new access token using token's refresh token, even if
// token has not expired yet.
func (a *Authenticator) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token.RefreshToken == "" {
		return nil, errors.New("token has no refresh token")
	}

	// TokenSource only refreshes expired tokens.
	stale := *token
	stale.AccessToken = ""
	stale.Expiry = stale.Expiry.AddDate(-1, 0, 0)

	fresh, err := a.oauth.TokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	return fresh, nil
}

// GenerateState creates a random state string for OAuth.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
