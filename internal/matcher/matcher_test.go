package matcher

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/catalog"
)

// mockSearcher implements Searcher for testing.
type mockSearcher struct {
	// results maps search term to results
	results map[string][]catalog.Result
	// errors maps search term to errors
	errors map[string]error

	callCount atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	terms     []string
}

func newMockSearcher() *mockSearcher {
	return &mockSearcher{
		results: make(map[string][]catalog.Result),
		errors:  make(map[string]error),
	}
}

func (m *mockSearcher) Search(ctx context.Context, term string, entity catalog.Entity, limit int) ([]catalog.Result, error) {
	m.callCount.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	if n > m.maxFlight.Load() {
		m.maxFlight.Store(n)
	}
	m.terms = append(m.terms, term)

	if entity != catalog.EntitySong || limit != 1 {
		return nil, errors.New("unexpected search parameters")
	}
	if err, ok := m.errors[term]; ok {
		return nil, err
	}
	return m.results[term], nil
}

// recordingSleeper counts waits without sleeping.
type recordingSleeper struct {
	calls []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func TestMatchTracks_PreservesOrderAndTagsFailures(t *testing.T) {
	searcher := newMockSearcher()
	searcher.results["Bohemian Rhapsody Queen"] = []catalog.Result{{
		TrackID:       1440650711,
		CollectionID:  1440650428,
		TrackName:     "Bohemian Rhapsody",
		ArtistName:    "Queen",
		ArtworkURL100: "https://img/100x100bb.jpg",
		PreviewURL:    "https://audio/preview.m4a",
		ReleaseDate:   "1975-10-31T12:00:00Z",
	}}
	searcher.errors["Imagine John Lennon"] = catalog.ErrUnavailable

	sleeper := &recordingSleeper{}
	m := New(searcher, WithSleeper(sleeper.sleep))

	inputs := []TrackQuery{
		{Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Artist: "John Lennon", Title: "Imagine"},
		{Artist: "Unknown Artist XYZ123", Title: "Nonexistent Song ABC987"},
	}

	got, err := m.MatchTracks(context.Background(), inputs, 800*time.Millisecond)
	if err != nil {
		t.Fatalf("MatchTracks() error = %v", err)
	}

	if len(got) != len(inputs) {
		t.Fatalf("MatchTracks() got %d results, want %d", len(got), len(inputs))
	}
	for i, in := range inputs {
		if got[i].OriginalArtist != in.Artist || got[i].OriginalTitle != in.Title {
			t.Errorf("result[%d] original = (%q, %q), want (%q, %q)",
				i, got[i].OriginalArtist, got[i].OriginalTitle, in.Artist, in.Title)
		}
	}

	first := got[0]
	if !first.MatchFound || first.ID != "1440650711" || first.AlbumID != "1440650428" {
		t.Errorf("result[0] = %+v, want matched track 1440650711", first)
	}
	if first.Image != "https://img/600x600bb.jpg" {
		t.Errorf("result[0].Image = %q, want high-res artwork", first.Image)
	}
	if first.Year == nil || *first.Year != 1975 {
		t.Errorf("result[0].Year = %v, want 1975", first.Year)
	}

	for _, i := range []int{1, 2} {
		r := got[i]
		if r.MatchFound {
			t.Errorf("result[%d].MatchFound = true, want false", i)
		}
		if !strings.HasPrefix(r.ID, "temp-") {
			t.Errorf("result[%d].ID = %q, want temp- prefix", i, r.ID)
		}
		if r.Image != "" {
			t.Errorf("result[%d].Image = %q, want empty", i, r.Image)
		}
	}
	if got[1].ID == got[2].ID {
		t.Error("unmatched ids should be unique within a call")
	}

	if len(sleeper.calls) != 2 {
		t.Errorf("got %d delays, want 2 (none after the last track)", len(sleeper.calls))
	}
	for _, d := range sleeper.calls {
		if d != 800*time.Millisecond {
			t.Errorf("delay = %v, want 800ms", d)
		}
	}
	if searcher.maxFlight.Load() != 1 {
		t.Errorf("max concurrent searches = %d, want 1", searcher.maxFlight.Load())
	}
}

func TestMatchTracks_ZeroDelaySkipsSleep(t *testing.T) {
	sleeper := &recordingSleeper{}
	m := New(newMockSearcher(), WithSleeper(sleeper.sleep))

	got, err := m.MatchTracks(context.Background(), []TrackQuery{{Title: "a"}, {Title: "b"}}, 0)
	if err != nil {
		t.Fatalf("MatchTracks() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if len(sleeper.calls) != 0 {
		t.Errorf("got %d delays, want 0", len(sleeper.calls))
	}
}

func TestMatchTracks_UsesNormalizedTerm(t *testing.T) {
	searcher := newMockSearcher()
	m := New(searcher, WithSleeper((&recordingSleeper{}).sleep))

	if _, err := m.MatchTracks(context.Background(), []TrackQuery{{Artist: "AC/DC", Title: "T.N.T."}}, 0); err != nil {
		t.Fatalf("MatchTracks() error = %v", err)
	}
	if len(searcher.terms) != 1 || searcher.terms[0] != "TNT ACDC" {
		t.Errorf("terms = %q, want [\"TNT ACDC\"]", searcher.terms)
	}
}

func TestMatchTracks_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		inputs []TrackQuery
		delay  time.Duration
	}{
		{name: "empty title", inputs: []TrackQuery{{Artist: "Queen"}}},
		{name: "negative delay", inputs: []TrackQuery{{Title: "x"}}, delay: -time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := newMockSearcher()
			m := New(searcher)

			_, err := m.MatchTracks(context.Background(), tt.inputs, tt.delay)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("MatchTracks() error = %v, want ErrInvalidInput", err)
			}
			if searcher.callCount.Load() != 0 {
				t.Errorf("made %d searches before validation failed", searcher.callCount.Load())
			}
		})
	}
}

func TestMatchTracks_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	searcher := newMockSearcher()
	m := New(searcher, WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := m.MatchTracks(ctx, []TrackQuery{{Title: "a"}, {Title: "b"}}, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("MatchTracks() error = %v, want context.Canceled", err)
	}
	if searcher.callCount.Load() != 1 {
		t.Errorf("searches = %d, want 1", searcher.callCount.Load())
	}
}

func TestMatchTracks_RealDelay(t *testing.T) {
	m := New(newMockSearcher())

	start := time.Now()
	if _, err := m.MatchTracks(context.Background(), []TrackQuery{{Title: "a"}, {Title: "b"}, {Title: "c"}}, 20*time.Millisecond); err != nil {
		t.Fatalf("MatchTracks() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 40ms", elapsed)
	}
}

func TestMatchedOnly(t *testing.T) {
	in := []MatchedTrack{
		{ID: "1", MatchFound: true},
		{ID: "temp-a"},
		{ID: "2", MatchFound: true},
	}

	got := MatchedOnly(in)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("MatchedOnly() = %+v", got)
	}
}
