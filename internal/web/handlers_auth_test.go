package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
)

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/login", nil)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("login status = %d, want 307", rec.Code)
	}
	stateCookie := cookieNamed(rec, stateCookieName)
	if stateCookie == nil || stateCookie.Value == "" {
		t.Fatal("login did not set a state cookie")
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil || loc.Query().Get("state") != stateCookie.Value {
		t.Fatalf("redirect %q does not carry the state", rec.Header().Get("Location"))
	}

	rec = env.do(t, http.MethodGet, "/callback?code=abc&state="+stateCookie.Value, nil, stateCookie)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("callback status = %d, want 307 (body %s)", rec.Code, rec.Body.String())
	}

	if u, err := env.users.Get(t.Context(), "alice"); err != nil || u.DisplayName != "Alice" {
		t.Errorf("stored user = %+v, %v", u, err)
	}
	if tok := env.tokens.tokens["alice"]; tok == nil || tok.RefreshToken != "refresh" {
		t.Errorf("stored token = %+v", tok)
	}
	session := cookieNamed(rec, sessionCookieName)
	if session == nil || session.Value == "" {
		t.Fatal("callback did not set a session cookie")
	}
	if cleared := cookieNamed(rec, stateCookieName); cleared == nil || cleared.MaxAge >= 0 {
		t.Error("callback did not clear the state cookie")
	}

	rec = env.do(t, http.MethodGet, "/api/me", nil, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, want 200", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["id"] != "alice" || got["displayName"] != "Alice" {
		t.Errorf("me = %v", got)
	}

	rec = env.do(t, http.MethodPost, "/auth/logout", nil, session)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/me", nil, session)
	assertError(t, rec, http.StatusUnauthorized, codeUnauthorized)
}

func TestCallback_Rejects(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing state cookie", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/callback?code=abc&state=x", nil)
		assertError(t, rec, http.StatusBadRequest, codeValidation)
	})

	t.Run("state mismatch", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/callback?code=abc&state=x", nil, &http.Cookie{Name: stateCookieName, Value: "y"})
		assertError(t, rec, http.StatusBadRequest, codeValidation)
	})

	t.Run("exchange failure", func(t *testing.T) {
		env.oauth.err = errors.New("invalid_grant")
		defer func() { env.oauth.err = nil }()

		rec := env.do(t, http.MethodGet, "/callback?code=abc&state=x", nil, &http.Cookie{Name: stateCookieName, Value: "x"})
		assertError(t, rec, http.StatusBadGateway, codeUnavailable)
		if len(env.users.users) != 0 {
			t.Error("user stored after failed exchange")
		}
	})
}

func TestExportList(t *testing.T) {
	env := newTestEnv(t)
	env.social.lists[1] = db.List{
		ID:     1,
		UserID: "alice",
		Title:  "Road trip",
		Items: []db.ListItem{
			{ID: "1", Name: "Live Forever", Artist: "Oasis", Type: "song"},
			{ID: "2", Name: "Definitely Maybe", Artist: "Oasis", Type: "album"},
		},
	}
	env.provider.tracks = map[string]string{`track:"Live Forever" artist:"Oasis"`: "sp-1"}

	rec := env.do(t, http.MethodPost, "/api/lists/1/export", nil, env.login(t, "bob"))
	assertError(t, rec, http.StatusForbidden, codeForbidden)

	alice := env.login(t, "alice")
	rec = env.do(t, http.MethodPost, "/api/lists/1/export", nil, alice)
	assertError(t, rec, http.StatusUnauthorized, codeNotConnected)

	env.tokens.tokens["alice"] = &oauth2.Token{AccessToken: "access"}
	rec = env.do(t, http.MethodPost, "/api/lists/1/export", nil, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	got := decode[map[string]any](t, rec)
	if got["playlistId"] != "new-playlist" || got["added"] != float64(1) || got["skipped"] != float64(1) {
		t.Errorf("export result = %v", got)
	}
	if len(env.provider.added) != 1 || env.provider.added[0] != "sp-1" {
		t.Errorf("added tracks = %v, want [sp-1]", env.provider.added)
	}

	env.social.lists[2] = db.List{ID: 2, UserID: "alice", Title: "Albums only", Items: []db.ListItem{{ID: "2", Name: "Definitely Maybe", Type: "album"}}}
	rec = env.do(t, http.MethodPost, "/api/lists/2/export", nil, alice)
	assertError(t, rec, http.StatusUnprocessableEntity, codeNothingToSend)

	rec = env.do(t, http.MethodPost, "/api/lists/9/export", nil, alice)
	assertError(t, rec, http.StatusNotFound, codeNotFound)
}

func TestDisconnect(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice")
	env.tokens.tokens["alice"] = &oauth2.Token{AccessToken: "access"}

	rec := env.do(t, http.MethodDelete, "/api/spotify/connection", nil, alice)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, ok := env.tokens.tokens["alice"]; ok {
		t.Error("token still stored after disconnect")
	}

	rec = env.do(t, http.MethodPost, "/api/spotify/playlists/pl/match", map[string]any{}, alice)
	assertError(t, rec, http.StatusUnauthorized, codeNotConnected)
}
