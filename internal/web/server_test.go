package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	zspotify "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/auth"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/catalog"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/feed"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/matcher"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/spotify"
)

// fakeFeed records the last request.
type fakeFeed struct {
	items []db.Review
	err   error
	got   feed.Request
	calls int
}

func (f *fakeFeed) Compose(ctx context.Context, req feed.Request) ([]db.Review, error) {
	f.calls++
	f.got = req
	return f.items, f.err
}

// fakeCatalog returns results for terms containing a known key.
type fakeCatalog struct {
	results map[string]catalog.Result
	err     error
}

func (f *fakeCatalog) Search(ctx context.Context, term string, entity catalog.Entity, limit int) ([]catalog.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []catalog.Result
	for key, res := range f.results {
		if strings.Contains(term, key) {
			out = append(out, res)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCatalog) Lookup(ctx context.Context, id string, entity catalog.Entity) ([]catalog.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []catalog.Result
	for _, res := range f.results {
		if strconv.FormatInt(res.CollectionID, 10) == id || strconv.FormatInt(res.TrackID, 10) == id {
			out = append(out, res)
		}
	}
	return out, nil
}

type fakeOAuth struct {
	token *oauth2.Token
	err   error
}

func (f *fakeOAuth) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (f *fakeOAuth) Exchange(ctx context.Context, expectedState string, r *http.Request) (*oauth2.Token, error) {
	if r.URL.Query().Get("state") != expectedState {
		return nil, auth.ErrStateMismatch
	}
	return f.token, f.err
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]db.User
}

func (m *memUsers) Get(ctx context.Context, id string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) Upsert(ctx context.Context, user *db.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

func (m *memTokens) Save(ctx context.Context, userID string, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = token
	return nil
}

func (m *memTokens) GetValidToken(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[userID]
	if !ok {
		return "", auth.ErrNoToken
	}
	return t.AccessToken, nil
}

func (m *memTokens) Disconnect(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

// fakeProvider implements spotify.API.
type fakeProvider struct {
	user    zspotify.PrivateUser
	items   []zspotify.PlaylistItem
	tracks  map[string]string
	created []string
	added   []zspotify.ID
}

func (f *fakeProvider) CurrentUser(ctx context.Context) (*zspotify.PrivateUser, error) {
	return &f.user, nil
}

func (f *fakeProvider) GetPlaylistItems(ctx context.Context, playlistID zspotify.ID, opts ...zspotify.RequestOption) (*zspotify.PlaylistItemPage, error) {
	p := &zspotify.PlaylistItemPage{Items: f.items}
	p.Total = zspotify.Numeric(len(f.items))
	return p, nil
}

func (f *fakeProvider) Search(ctx context.Context, query string, t zspotify.SearchType, opts ...zspotify.RequestOption) (*zspotify.SearchResult, error) {
	page := &zspotify.FullTrackPage{}
	if id, ok := f.tracks[query]; ok {
		page.Tracks = []zspotify.FullTrack{{SimpleTrack: zspotify.SimpleTrack{ID: zspotify.ID(id)}}}
	}
	return &zspotify.SearchResult{Tracks: page}, nil
}

func (f *fakeProvider) CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*zspotify.FullPlaylist, error) {
	f.created = append(f.created, playlistName)
	return &zspotify.FullPlaylist{SimplePlaylist: zspotify.SimplePlaylist{ID: "new-playlist"}}, nil
}

func (f *fakeProvider) AddTracksToPlaylist(ctx context.Context, playlistID zspotify.ID, trackIDs ...zspotify.ID) (string, error) {
	f.added = append(f.added, trackIDs...)
	return "snapshot", nil
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(ctx context.Context) error { return p.err }

func noSleep(context.Context, time.Duration) error { return nil }

// testEnv is a server wired to in-memory fakes.
type testEnv struct {
	server   *Server
	store    *MemorySessionStore
	feed     *fakeFeed
	catalog  *fakeCatalog
	oauth    *fakeOAuth
	users    *memUsers
	tokens   *memTokens
	provider *fakeProvider
	social   *fakeSocial
}

func newTestEnv(t *testing.T, configure ...func(*ServerConfig)) *testEnv {
	t.Helper()

	env := &testEnv{
		store: NewMemorySessionStore(),
		feed:  &fakeFeed{},
		catalog: &fakeCatalog{results: map[string]catalog.Result{
			"Bohemian": {WrapperType: "track", TrackID: 1440650711, CollectionID: 1440650428, TrackName: "Bohemian Rhapsody", ArtistName: "Queen", ReleaseDate: "1975-10-31T07:00:00Z"},
		}},
		oauth:    &fakeOAuth{token: &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}},
		users:    &memUsers{users: map[string]db.User{}},
		tokens:   &memTokens{tokens: map[string]*oauth2.Token{}},
		provider: &fakeProvider{user: zspotify.PrivateUser{User: zspotify.User{ID: "alice", DisplayName: "Alice"}}},
		social:   newFakeSocial(),
	}

	cfg := ServerConfig{
		Addr:              "127.0.0.1:0",
		DefaultMatchDelay: 0,
		MaxMatchDelay:     time.Second,
		MaxMatchTracks:    3,
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	srv, err := NewServer(cfg, Deps{
		Sessions: NewSessionManager(env.store, time.Hour, false),
		OAuth:    env.oauth,
		Users:    env.users,
		Tokens:   env.tokens,
		Provider: func(ctx context.Context, accessToken string) spotify.API { return env.provider },
		Feed:     env.feed,
		Matcher:  matcher.New(env.catalog, matcher.WithSleeper(noSleep)),
		Catalog:  env.catalog,
		Social:   env.social,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	env.server = srv
	return env
}

// login stores a session for userID and returns its cookie.
func (e *testEnv) login(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	id := "session-" + userID
	err := e.store.Create(context.Background(), &db.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: id}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decode[errorBody](t, rec)
	if body.Error.Code != code {
		t.Errorf("error code = %q, want %q", body.Error.Code, code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	env.server.health = failingPinger{err: errors.New("connection refused")}
	rec = env.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("response has no request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Errorf("request id = %q, want the caller's", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "soundboxd_http_requests_total") {
		t.Error("metrics output missing soundboxd_http_requests_total")
	}
}

func TestFeed(t *testing.T) {
	env := newTestEnv(t)
	env.feed.items = []db.Review{{ID: 7, UserID: "bob"}}

	t.Run("anonymous", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/feed", map[string]any{"excludeIds": []int64{1, 2}})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}
		if env.feed.got.ViewerID != "" {
			t.Errorf("ViewerID = %q, want anonymous", env.feed.got.ViewerID)
		}
		if !slices.Equal(env.feed.got.ExcludeIDs, []int64{1, 2}) {
			t.Errorf("ExcludeIDs = %v, want [1 2]", env.feed.got.ExcludeIDs)
		}
		got := decode[feedResponse](t, rec)
		if len(got.Items) != 1 || got.Items[0].ID != 7 {
			t.Errorf("items = %+v", got.Items)
		}
	})

	t.Run("signed in with empty body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/feed", nil, env.login(t, "alice"))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if env.feed.got.ViewerID != "alice" {
			t.Errorf("ViewerID = %q, want alice", env.feed.got.ViewerID)
		}
	})

	t.Run("expired session is anonymous", func(t *testing.T) {
		_ = env.store.Create(context.Background(), &db.Session{ID: "old", UserID: "carol", ExpiresAt: time.Now().Add(-time.Minute)})
		env.do(t, http.MethodPost, "/api/feed", nil, &http.Cookie{Name: sessionCookieName, Value: "old"})
		if env.feed.got.ViewerID != "" {
			t.Errorf("ViewerID = %q, want anonymous", env.feed.got.ViewerID)
		}
	})

	t.Run("empty page is an empty array", func(t *testing.T) {
		env.feed.items = nil
		rec := env.do(t, http.MethodPost, "/api/feed", nil)
		if !strings.Contains(rec.Body.String(), `"items":[]`) {
			t.Errorf("body = %s, want empty items array", rec.Body.String())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		calls := env.feed.calls
		rec := env.do(t, http.MethodPost, "/api/feed", "{not json")
		assertError(t, rec, http.StatusBadRequest, codeInvalidJSON)
		if env.feed.calls != calls {
			t.Error("feed composed despite malformed body")
		}
	})
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing term", "/api/search", http.StatusBadRequest},
		{"bad entity", "/api/search?term=queen&entity=podcast", http.StatusBadRequest},
		{"limit too large", "/api/search?term=queen&limit=500", http.StatusBadRequest},
		{"limit not a number", "/api/search?term=queen&limit=x", http.StatusBadRequest},
		{"ok", "/api/search?term=Bohemian&entity=song&limit=5", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/search?term=Bohemian", nil)
	got := decode[struct {
		Results []searchResult `json:"results"`
	}](t, rec)
	if len(got.Results) != 1 {
		t.Fatalf("results = %+v, want one", got.Results)
	}
	if r := got.Results[0]; r.ID != "1440650711" || r.AlbumID != "1440650428" || r.Year == nil || *r.Year != 1975 {
		t.Errorf("result = %+v", r)
	}

	env.catalog.err = catalog.ErrUnavailable
	rec = env.do(t, http.MethodGet, "/api/search?term=Bohemian", nil)
	assertError(t, rec, http.StatusBadGateway, codeUnavailable)
}

func TestLookup(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantErr  string
	}{
		{name: "album", target: "/api/catalog/1440650428", wantCode: http.StatusOK},
		{name: "with entity", target: "/api/catalog/1440650711?entity=song", wantCode: http.StatusOK},
		{name: "unknown id", target: "/api/catalog/7", wantCode: http.StatusNotFound, wantErr: codeNotFound},
		{name: "non-numeric id", target: "/api/catalog/abc", wantCode: http.StatusBadRequest, wantErr: codeValidation},
		{name: "bad entity", target: "/api/catalog/1440650428?entity=movie", wantCode: http.StatusBadRequest, wantErr: codeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, nil)
			if tt.wantErr != "" {
				assertError(t, rec, tt.wantCode, tt.wantErr)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			got := decode[map[string][]searchResult](t, rec)
			if len(got["results"]) != 1 {
				t.Errorf("results = %+v, want one", got["results"])
			}
		})
	}
}

func TestWriteTimeout(t *testing.T) {
	if got := newTestEnv(t).server.server.WriteTimeout; got != 15*time.Minute {
		t.Errorf("default WriteTimeout = %s, want 15m", got)
	}
	env := newTestEnv(t, func(cfg *ServerConfig) { cfg.WriteTimeout = time.Hour })
	if got := env.server.server.WriteTimeout; got != time.Hour {
		t.Errorf("WriteTimeout = %s, want 1h", got)
	}
}
