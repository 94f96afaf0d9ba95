package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
)

const maxTracksPerRequest = 100

// ErrNothingToExport is returned when none of a list's songs exist on Spotify.
var ErrNothingToExport = errors.New("no list items found on Spotify")

// ExportResult summarizes a list export.
type ExportResult struct {
	PlaylistID string `json:"playlistId"`
	Added      int    `json:"added"`
	NotFound   int    `json:"notFound"`
	// Skipped counts non-song entries, which have no single track to add.
	Skipped int `json:"skipped"`
}

// CreatePlaylist creates a new playlist for the current user.
// Returns the playlist ID.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return "", err
	}

	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return "", fmt.Errorf("creating playlist: %w", err)
	}

	return playlist.ID.String(), nil
}

// AddTracksToPlaylist adds tracks to a playlist, handling batching for large sets.
// Spotify allows max 100 tracks per request.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		batch := ids[i:end]

		_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
		if err != nil {
			return fmt.Errorf("adding tracks (batch %d-%d): %w", i+1, end, err)
		}
	}

	return nil
}

// FindTrack searches Spotify for a song and returns its ID, or "" if nothing matches.
func (c *Client) FindTrack(ctx context.Context, title, artist string) (string, error) {
	query := fmt.Sprintf("track:%s", quote(title))
	if artist != "" {
		query += fmt.Sprintf(" artist:%s", quote(artist))
	}

	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return "", fmt.Errorf("searching track: %w", err)
	}
	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return "", nil
	}
	return result.Tracks.Tracks[0].ID.String(), nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

// ExportList creates a private playlist holding the songs of a curated list.
// Songs are looked up one at a time; a failed lookup counts as not found.
func (c *Client) ExportList(ctx context.Context, name, description string, items []db.ListItem) (*ExportResult, error) {
	log := logging.Ctx(ctx)
	result := &ExportResult{}

	var trackIDs []string
	for _, item := range items {
		if item.Type != "song" {
			result.Skipped++
			continue
		}
		id, err := c.FindTrack(ctx, item.Name, item.Artist)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug().Err(err).Str("name", item.Name).Msg("spotify lookup failed")
		}
		if id == "" {
			result.NotFound++
			continue
		}
		trackIDs = append(trackIDs, id)
	}

	if len(trackIDs) == 0 {
		return nil, ErrNothingToExport
	}

	playlistID, err := c.CreatePlaylist(ctx, name, description, false)
	if err != nil {
		return nil, err
	}
	if err := c.AddTracksToPlaylist(ctx, playlistID, trackIDs); err != nil {
		return nil, err
	}

	result.PlaylistID = playlistID
	result.Added = len(trackIDs)
	return result, nil
}
