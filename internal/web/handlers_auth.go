package web

import (
	"errors"
	"net/http"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/auth"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/spotify"
)

// handleHealth reports liveness and, when configured, database reachability (GET /healthz).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin initiates the Spotify OAuth flow (GET /auth/login).
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		fail(w, r, err)
		return
	}

	s.sessions.SetState(w, state)
	http.Redirect(w, r, s.oauth.AuthURL(state), http.StatusTemporaryRedirect)
}

// handleCallback finishes the OAuth flow (GET /callback): it records the
// account and its token, then starts a session.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	state, ok := s.sessions.PopState(w, r)
	if !ok {
		writeError(w, http.StatusBadRequest, apiError{Code: codeValidation, Message: "missing OAuth state"})
		return
	}

	ctx := r.Context()
	token, err := s.oauth.Exchange(ctx, state, r)
	if errors.Is(err, auth.ErrStateMismatch) {
		writeError(w, http.StatusBadRequest, apiError{Code: codeValidation, Message: "OAuth state mismatch"})
		return
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("OAuth exchange failed")
		writeError(w, http.StatusBadGateway, apiError{Code: codeUnavailable, Message: "Spotify login failed"})
		return
	}

	user, err := spotify.New(s.provider(ctx, token.AccessToken)).CurrentUser(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("fetching Spotify profile")
		writeError(w, http.StatusBadGateway, apiError{Code: codeUnavailable, Message: "Spotify login failed"})
		return
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		fail(w, r, err)
		return
	}
	if err := s.tokens.Save(ctx, user.ID, token); err != nil {
		fail(w, r, err)
		return
	}
	if _, err := s.sessions.Create(ctx, w, user.ID); err != nil {
		fail(w, r, err)
		return
	}

	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("user logged in")
	http.Redirect(w, r, s.cfg.PostLoginURL, http.StatusTemporaryRedirect)
}

// handleLogout ends the session (POST /auth/logout).
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the signed-in account (GET /api/me).
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), viewerID(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":          user.ID,
		"displayName": user.DisplayName,
		"email":       user.Email,
	})
}

// handleDisconnect forgets the viewer's Spotify token (DELETE /api/spotify/connection).
// The session stays valid; import and export need a new login.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.tokens.Disconnect(r.Context(), viewerID(r.Context())); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
