// Package matcher resolves free-text track titles to catalog entries.
//
// Matching is strictly sequential: one catalog request in flight per call,
// with a fixed delay between requests and none after the last.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/catalog"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/metrics"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/validation"
)

// ErrInvalidInput is returned by Validate and MatchTracks for malformed input.
var ErrInvalidInput = errors.New("invalid match input")

// Searcher is the subset of the catalog client used for matching.
type Searcher interface {
	Search(ctx context.Context, term string, entity catalog.Entity, limit int) ([]catalog.Result, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// MatchedTrack is the outcome of matching one TrackQuery.
type MatchedTrack struct {
	ID             string `json:"id"`
	AlbumID        string `json:"albumId,omitempty"`
	Name           string `json:"name"`
	Artist         string `json:"artist"`
	Image          string `json:"image"`
	PreviewURL     string `json:"previewUrl,omitempty"`
	Year           *int   `json:"year,omitempty"`
	MatchFound     bool   `json:"matchFound"`
	OriginalTitle  string `json:"originalTitle"`
	OriginalArtist string `json:"originalArtist"`
}

// Matcher matches track queries against a catalog.
type Matcher struct {
	searcher Searcher
	sleep    Sleeper
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithSleeper replaces the inter-request wait, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(m *Matcher) {
		m.sleep = s
	}
}

// New creates a Matcher backed by searcher.
func New(searcher Searcher, opts ...Option) *Matcher {
	m := &Matcher{
		searcher: searcher,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Validate rejects inputs before any catalog request is made.
func Validate(inputs []TrackQuery, delay time.Duration) error {
	if delay < 0 {
		return fmt.Errorf("%w: delay must not be negative", ErrInvalidInput)
	}
	for i := range inputs {
		if err := validation.Struct(&inputs[i]); err != nil {
			return fmt.Errorf("%w: track %d: %w", ErrInvalidInput, i, err)
		}
	}
	return nil
}

// MatchTracks resolves every input in order. The result has the same length
// and order as inputs; catalog failures and empty results both produce an
// entry with MatchFound false. The only errors are invalid input and
// cancellation of ctx.
func (m *Matcher) MatchTracks(ctx context.Context, inputs []TrackQuery, delay time.Duration) ([]MatchedTrack, error) {
	if err := Validate(inputs, delay); err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	results := make([]MatchedTrack, len(inputs))
	matched := 0

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results[i] = m.matchOne(ctx, in)
		if results[i].MatchFound {
			matched++
			metrics.MatchOutcomes.WithLabelValues("matched").Inc()
		} else {
			metrics.MatchOutcomes.WithLabelValues("unmatched").Inc()
		}

		if i < len(inputs)-1 && delay > 0 {
			if err := m.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	log.Debug().
		Int("tracks", len(inputs)).
		Int("matched", matched).
		Dur("delay", delay).
		Msg("matched tracks")

	return results, nil
}

func (m *Matcher) matchOne(ctx context.Context, in TrackQuery) MatchedTrack {
	term := NormalizeTerm(in.Title, in.Artist)

	found, err := m.searcher.Search(ctx, term, catalog.EntitySong, 1)
	if err != nil || len(found) == 0 || found[0].ID() == "" {
		ev := logging.Ctx(ctx).Debug().Str("term", term)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("no catalog match")
		return unmatched(in)
	}

	r := found[0]
	track := MatchedTrack{
		ID:             r.ID(),
		AlbumID:        r.AlbumID(),
		Name:           r.DisplayName(),
		Artist:         r.ArtistName,
		Image:          r.HighResArtwork(),
		PreviewURL:     r.PreviewURL,
		MatchFound:     true,
		OriginalTitle:  in.Title,
		OriginalArtist: in.Artist,
	}
	if year, ok := r.ReleaseYear(); ok {
		track.Year = &year
	}
	return track
}

func unmatched(in TrackQuery) MatchedTrack {
	return MatchedTrack{
		ID:             "temp-" + uuid.NewString(),
		Name:           in.Title,
		Artist:         in.Artist,
		MatchFound:     false,
		OriginalTitle:  in.Title,
		OriginalArtist: in.Artist,
	}
}

// MatchedOnly keeps the entries with MatchFound set, preserving order.
func MatchedOnly(tracks []MatchedTrack) []MatchedTrack {
	out := make([]MatchedTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.MatchFound {
			out = append(out, t)
		}
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
