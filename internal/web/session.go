package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
)

const (
	sessionCookieName = "session_id"
	stateCookieName   = "oauth_state"
	stateCookieMaxAge = 300
)

// SessionStore persists sessions. *db.SessionRepository satisfies it.
type SessionStore interface {
	Create(ctx context.Context, session *db.Session) error
	Get(ctx context.Context, id string) (*db.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionManager ties sessions to cookies.
type SessionManager struct {
	store  SessionStore
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a SessionManager. Cookies are marked Secure when secure is set.
func NewSessionManager(store SessionStore, ttl time.Duration, secure bool) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		store:  store,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Create starts a session for userID and sets its cookie.
func (m *SessionManager) Create(ctx context.Context, w http.ResponseWriter, userID string) (*db.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &db.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
	return session, nil
}

// GetFromRequest returns the session named by the request cookie, or nil.
func (m *SessionManager) GetFromRequest(r *http.Request) *db.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := m.store.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("loading session")
		}
		return nil
	}
	return session
}

// Delete ends the request's session, if any, and clears the cookie.
func (m *SessionManager) Delete(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := m.store.Delete(r.Context(), cookie.Value); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("deleting session")
		}
	}
	m.clearCookie(w, sessionCookieName)
}

// SetState stores the OAuth state in a short-lived cookie.
func (m *SessionManager) SetState(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   stateCookieMaxAge,
	})
}

// PopState returns the stored OAuth state and clears its cookie.
func (m *SessionManager) PopState(w http.ResponseWriter, r *http.Request) (string, bool) {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	m.clearCookie(w, stateCookieName)
	return cookie.Value, true
}

func (m *SessionManager) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		MaxAge:   -1,
	})
}

// MemorySessionStore keeps sessions in memory. It is used in tests and for
// local runs without a database.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]db.Session
	now      func() time.Time
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]db.Session),
		now:      time.Now,
	}
}

// Create stores session.
func (s *MemorySessionStore) Create(_ context.Context, session *db.Session) error {
	s.mu.Lock()
	s.sessions[session.ID] = *session
	s.mu.Unlock()
	return nil
}

// Get returns an unexpired session.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*db.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || !session.ExpiresAt.After(s.now()) {
		return nil, db.ErrNotFound
	}
	return &session, nil
}

// Delete removes a session.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*db.SessionRepository)(nil)
)
