package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/social"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/spotify"
)

// handleCreateList creates a list owned by the viewer (POST /api/lists).
func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var in social.ListInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	l, err := s.social.CreateList(r.Context(), viewerID(r.Context()), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// handleGetList returns a list (GET /api/lists/{id}).
func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	l, err := s.social.GetList(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleUserLists returns the lists a user owns (GET /api/users/{userID}/lists).
func (s *Server) handleUserLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.social.ListsForOwner(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if lists == nil {
		lists = []db.List{}
	}
	writeJSON(w, http.StatusOK, map[string][]db.List{"lists": lists})
}

// handleUpdateList replaces the content of one of the viewer's lists (PUT /api/lists/{id}).
func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in social.ListInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	l, err := s.social.UpdateList(r.Context(), viewerID(r.Context()), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleDeleteList deletes one of the viewer's lists (DELETE /api/lists/{id}).
func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.social.DeleteList(r.Context(), viewerID(r.Context()), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportList copies one of the viewer's lists into a new private
// Spotify playlist (POST /api/lists/{id}/export).
func (s *Server) handleExportList(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	ctx := r.Context()
	viewer := viewerID(ctx)

	l, err := s.social.GetList(ctx, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if l.UserID != viewer {
		fail(w, r, social.ErrForbidden)
		return
	}

	token, err := s.tokens.GetValidToken(ctx, viewer)
	if err != nil {
		fail(w, r, err)
		return
	}

	result, err := spotify.New(s.provider(ctx, token)).ExportList(ctx, l.Title, l.Description, l.Items)
	if err != nil {
		fail(w, r, err)
		return
	}

	logging.Ctx(ctx).Info().
		Int64("list_id", l.ID).
		Str("playlist_id", result.PlaylistID).
		Int("added", result.Added).
		Int("not_found", result.NotFound).
		Msg("exported list")
	writeJSON(w, http.StatusOK, result)
}
