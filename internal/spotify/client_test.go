package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zmb3/spotify/v2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
)

// fakeAPI implements API for testing.
type fakeAPI struct {
	// pages are returned by successive GetPlaylistItems calls
	pages     []*spotify.PlaylistItemPage
	pageCalls int

	// tracks maps a search query to a track ID; missing queries find nothing
	tracks    map[string]string
	searchErr error
	queries   []string

	created    []string
	addBatches [][]spotify.ID
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*spotify.PrivateUser, error) {
	return &spotify.PrivateUser{User: spotify.User{ID: "user-1"}}, nil
}

func (f *fakeAPI) GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error) {
	if f.pageCalls >= len(f.pages) {
		return nil, errors.New("unexpected page request")
	}
	p := f.pages[f.pageCalls]
	f.pageCalls++
	return p, nil
}

func (f *fakeAPI) Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error) {
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	id, ok := f.tracks[query]
	if !ok {
		return &spotify.SearchResult{Tracks: &spotify.FullTrackPage{}}, nil
	}
	return &spotify.SearchResult{Tracks: &spotify.FullTrackPage{Tracks: []spotify.FullTrack{
		{SimpleTrack: spotify.SimpleTrack{ID: spotify.ID(id)}},
	}}}, nil
}

func (f *fakeAPI) CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotify.FullPlaylist, error) {
	f.created = append(f.created, userID+"/"+playlistName)
	return &spotify.FullPlaylist{SimplePlaylist: spotify.SimplePlaylist{ID: "playlist-1"}}, nil
}

func (f *fakeAPI) AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error) {
	f.addBatches = append(f.addBatches, trackIDs)
	return "snapshot", nil
}

func playlistItem(name string, artists ...string) spotify.PlaylistItem {
	simple := make([]spotify.SimpleArtist, len(artists))
	for i, a := range artists {
		simple[i] = spotify.SimpleArtist{Name: a}
	}
	return spotify.PlaylistItem{Track: spotify.PlaylistItemTrack{
		Track: &spotify.FullTrack{SimpleTrack: spotify.SimpleTrack{Name: name, Artists: simple}},
	}}
}

func page(total int, items ...spotify.PlaylistItem) *spotify.PlaylistItemPage {
	p := &spotify.PlaylistItemPage{Items: items}
	p.Total = spotify.Numeric(total)
	return p
}

func TestImportPlaylist(t *testing.T) {
	api := &fakeAPI{pages: []*spotify.PlaylistItemPage{
		page(3,
			playlistItem("Bohemian Rhapsody", "Queen"),
			spotify.PlaylistItem{}, // episode or removed track
		),
		page(3, playlistItem("Under Pressure", "Queen", "David Bowie")),
	}}

	got, err := New(api).ImportPlaylist(context.Background(), "pl")
	if err != nil {
		t.Fatalf("ImportPlaylist() error = %v", err)
	}

	if api.pageCalls != 2 {
		t.Errorf("page requests = %d, want 2", api.pageCalls)
	}
	if len(got) != 2 {
		t.Fatalf("ImportPlaylist() got %d queries, want 2", len(got))
	}
	if got[0].Title != "Bohemian Rhapsody" || got[0].Artist != "Queen" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Artist != "Queen, David Bowie" {
		t.Errorf("got[1].Artist = %q, want joined artists", got[1].Artist)
	}
}

func TestImportPlaylist_Empty(t *testing.T) {
	api := &fakeAPI{pages: []*spotify.PlaylistItemPage{page(0)}}

	got, err := New(api).ImportPlaylist(context.Background(), "pl")
	if err != nil {
		t.Fatalf("ImportPlaylist() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ImportPlaylist() = %v, want empty slice", got)
	}
}

func TestExportList(t *testing.T) {
	api := &fakeAPI{tracks: map[string]string{
		`track:"Live Forever" artist:"Oasis"`: "t1",
		`track:"Wonderwall" artist:"Oasis"`:   "t2",
	}}

	items := []db.ListItem{
		{ID: "1", Name: "Definitely Maybe", Artist: "Oasis", Type: "album"},
		{ID: "2", Name: "Live Forever", Artist: "Oasis", Type: "song"},
		{ID: "3", Name: "Wonderwall", Artist: "Oasis", Type: "song"},
		{ID: "4", Name: "Missing \"Song\"", Artist: "Nobody", Type: "song"},
	}

	res, err := New(api).ExportList(context.Background(), "Britpop", "from SoundBoxd", items)
	if err != nil {
		t.Fatalf("ExportList() error = %v", err)
	}

	if res.PlaylistID != "playlist-1" || res.Added != 2 || res.NotFound != 1 || res.Skipped != 1 {
		t.Errorf("ExportList() = %+v", res)
	}
	if len(api.created) != 1 || api.created[0] != "user-1/Britpop" {
		t.Errorf("created = %v", api.created)
	}
	if len(api.queries) != 3 || !strings.Contains(api.queries[2], `"Missing Song"`) {
		t.Errorf("queries = %q", api.queries)
	}
}

func TestExportList_NothingFound(t *testing.T) {
	api := &fakeAPI{searchErr: errors.New("search down")}
	items := []db.ListItem{{ID: "1", Name: "x", Type: "song"}}

	if _, err := New(api).ExportList(context.Background(), "x", "", items); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("ExportList() error = %v, want ErrNothingToExport", err)
	}
	if len(api.created) != 0 {
		t.Error("playlist created with no tracks")
	}
}

func TestAddTracksToPlaylist_Batches(t *testing.T) {
	tests := []struct {
		name          string
		totalTracks   int
		expectedCalls int
	}{
		{"empty", 0, 0},
		{"single track", 1, 1},
		{"exactly 100", 100, 1},
		{"101 tracks", 101, 2},
		{"250 tracks", 250, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			ids := make([]string, tt.totalTracks)
			for i := range ids {
				ids[i] = fmt.Sprintf("t%d", i)
			}

			if err := New(api).AddTracksToPlaylist(context.Background(), "pl", ids); err != nil {
				t.Fatalf("AddTracksToPlaylist() error = %v", err)
			}
			if len(api.addBatches) != tt.expectedCalls {
				t.Errorf("got %d API calls, want %d", len(api.addBatches), tt.expectedCalls)
			}
			for _, b := range api.addBatches {
				if len(b) > maxTracksPerRequest {
					t.Errorf("batch of %d exceeds %d", len(b), maxTracksPerRequest)
				}
			}
		})
	}
}

func TestCurrentUser_FallsBackToID(t *testing.T) {
	c := New(&fakeAPI{})

	user, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.ID != "user-1" || user.DisplayName != "user-1" {
		t.Errorf("CurrentUser() = %+v, want ID and display name user-1", user)
	}
}
