package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/matcher"
)

const playlistPageSize = 100

// ImportPlaylist reads every track of a playlist as an (artist, title) query
// for the catalog matcher. Episodes and unavailable tracks are skipped.
func (c *Client) ImportPlaylist(ctx context.Context, playlistID string) ([]matcher.TrackQuery, error) {
	var queries []matcher.TrackQuery

	offset := 0
	for {
		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(playlistPageSize), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("fetching playlist items (offset %d): %w", offset, err)
		}

		for _, item := range page.Items {
			track := item.Track.Track
			if track == nil || track.Name == "" {
				continue
			}
			queries = append(queries, convertTrack(track))
		}

		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= int(page.Total) {
			break
		}
	}

	if queries == nil {
		queries = []matcher.TrackQuery{}
	}
	return queries, nil
}

// convertTrack joins artist names with ", ".
func convertTrack(t *spotify.FullTrack) matcher.TrackQuery {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}
	return matcher.TrackQuery{
		Artist: strings.Join(artists, ", "),
		Title:  t.Name,
	}
}
