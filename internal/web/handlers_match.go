package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/matcher"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/spotify"
)

// matchOptions are shared by every match endpoint.
type matchOptions struct {
	DelayMs     *int `json:"delayMs"`
	OnlyMatched bool `json:"onlyMatched"`
}

type matchRequest struct {
	matchOptions
	Tracks []matcher.TrackQuery `json:"tracks"`
}

type matchTextRequest struct {
	matchOptions
	Text string `json:"text"`
}

type matchResponse struct {
	Results []matcher.MatchedTrack `json:"results"`
	// Truncated is set when a playlist held more tracks than one request may match.
	Truncated bool `json:"truncated,omitempty"`
}

// delay resolves the requested inter-request delay. Negative values are left
// for the matcher to reject.
func (s *Server) delay(opts matchOptions) (time.Duration, error) {
	if opts.DelayMs == nil {
		return s.cfg.DefaultMatchDelay, nil
	}
	d := time.Duration(*opts.DelayMs) * time.Millisecond
	if s.cfg.MaxMatchDelay > 0 && d > s.cfg.MaxMatchDelay {
		return 0, badRequestf("delayMs must be at most %d", s.cfg.MaxMatchDelay.Milliseconds())
	}
	return d, nil
}

func (s *Server) checkTrackCount(n int) error {
	if n == 0 {
		return badRequestf("at least one track is required")
	}
	if s.cfg.MaxMatchTracks > 0 && n > s.cfg.MaxMatchTracks {
		return badRequestf("at most %d tracks per request", s.cfg.MaxMatchTracks)
	}
	return nil
}

// runMatch matches tracks and writes the results.
func (s *Server) runMatch(w http.ResponseWriter, r *http.Request, tracks []matcher.TrackQuery, opts matchOptions, truncated bool) {
	delay, err := s.delay(opts)
	if err != nil {
		fail(w, r, err)
		return
	}

	results, err := s.matcher.MatchTracks(r.Context(), tracks, delay)
	if err != nil {
		fail(w, r, err)
		return
	}
	if opts.OnlyMatched {
		results = matcher.MatchedOnly(results)
	}
	if results == nil {
		results = []matcher.MatchedTrack{}
	}
	writeJSON(w, http.StatusOK, matchResponse{Results: results, Truncated: truncated})
}

// handleMatch matches explicit artist/title pairs (POST /api/match).
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := s.checkTrackCount(len(req.Tracks)); err != nil {
		fail(w, r, err)
		return
	}
	s.runMatch(w, r, req.Tracks, req.matchOptions, false)
}

// handleMatchText parses a pasted tracklist and matches it (POST /api/match/text).
func (s *Server) handleMatchText(w http.ResponseWriter, r *http.Request) {
	var req matchTextRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	tracks := matcher.Parse(req.Text)
	if err := s.checkTrackCount(len(tracks)); err != nil {
		fail(w, r, err)
		return
	}
	s.runMatch(w, r, tracks, req.matchOptions, false)
}

// handleMatchPlaylist imports one of the viewer's Spotify playlists and
// matches its tracks (POST /api/spotify/playlists/{id}/match). Playlists
// longer than the per-request limit are cut to it.
func (s *Server) handleMatchPlaylist(w http.ResponseWriter, r *http.Request) {
	var opts matchOptions
	if !decodeJSON(w, r, &opts, true) {
		return
	}

	ctx := r.Context()
	token, err := s.tokens.GetValidToken(ctx, viewerID(ctx))
	if err != nil {
		fail(w, r, err)
		return
	}

	playlistID := chi.URLParam(r, "id")
	tracks, err := spotify.New(s.provider(ctx, token)).ImportPlaylist(ctx, playlistID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if len(tracks) == 0 {
		writeJSON(w, http.StatusOK, matchResponse{Results: []matcher.MatchedTrack{}})
		return
	}

	truncated := false
	if s.cfg.MaxMatchTracks > 0 && len(tracks) > s.cfg.MaxMatchTracks {
		logging.Ctx(ctx).Info().
			Str("playlist_id", playlistID).
			Int("tracks", len(tracks)).
			Msg("truncating playlist for matching")
		tracks = tracks[:s.cfg.MaxMatchTracks]
		truncated = true
	}
	s.runMatch(w, r, tracks, opts, truncated)
}
