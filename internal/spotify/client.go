// Package spotify provides a wrapper around the Spotify Web API for playlist
// import and export.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
)

// API is the subset of *spotify.Client the wrapper uses.
type API interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
	CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotify.FullPlaylist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error)
}

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api API
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api API) *Client {
	return &Client{api: api}
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, nil
}

// CurrentUser returns the authenticated account as a db.User. Accounts
// without a display name fall back to their ID.
func (c *Client) CurrentUser(ctx context.Context) (*db.User, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return &db.User{ID: user.ID, DisplayName: name, Email: user.Email}, nil
}
