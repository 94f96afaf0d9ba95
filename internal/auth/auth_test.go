package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestNewAuthenticator_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		secret string
	}{
		{"both missing", "", ""},
		{"id missing", "", "secret"},
		{"secret missing", "id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuthenticator(Config{ClientID: tt.id, ClientSecret: tt.secret})
			if !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("NewAuthenticator() error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestAuthURL(t *testing.T) {
	a, err := NewAuthenticator(Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://127.0.0.1:8080/callback",
	})
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	u, err := url.Parse(a.AuthURL("abc"))
	if err != nil {
		t.Fatalf("parsing auth URL: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "abc" || q.Get("client_id") != "test-client-id" {
		t.Errorf("AuthURL() query = %v", q)
	}
	if !strings.Contains(q.Get("scope"), "playlist-read-private") {
		t.Errorf("AuthURL() scope = %q, want playlist-read-private", q.Get("scope"))
	}
}

func TestExchange_StateMismatch(t *testing.T) {
	a, _ := NewAuthenticator(Config{ClientID: "id", ClientSecret: "secret"})
	r := httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=x", nil)

	if _, err := a.Exchange(context.Background(), "expected", r); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("Exchange() error = %v, want ErrStateMismatch", err)
	}
}

func TestRefresh_ForcesRefreshOfUnexpiredToken(t *testing.T) {
	var gotRefresh string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		gotRefresh = r.PostForm.Get("refresh_token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	a, _ := NewAuthenticator(Config{ClientID: "id", ClientSecret: "secret"})
	a.oauth.Endpoint.TokenURL = server.URL

	old := &oauth2.Token{
		AccessToken:  "old-access",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(2 * time.Minute),
	}
	fresh, err := a.Refresh(context.Background(), old)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if fresh.AccessToken != "new-access" {
		t.Errorf("AccessToken = %q, want new-access", fresh.AccessToken)
	}
	if gotRefresh != "refresh-1" {
		t.Errorf("refresh_token sent = %q, want refresh-1", gotRefresh)
	}
	if old.AccessToken != "old-access" {
		t.Error("Refresh() modified its argument")
	}
}

func TestRefresh_NoRefreshToken(t *testing.T) {
	a, _ := NewAuthenticator(Config{ClientID: "id", ClientSecret: "secret"})
	if _, err := a.Refresh(context.Background(), &oauth2.Token{AccessToken: "x"}); err == nil {
		t.Error("Refresh() without refresh token should fail")
	}
}

func TestGenerateState(t *testing.T) {
	state1, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}

	if len(state1) != 32 { // 16 bytes = 32 hex chars
		t.Errorf("GenerateState() length = %d, want 32", len(state1))
	}

	state2, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}

	if state1 == state2 {
		t.Error("GenerateState() returned same value twice")
	}
}
