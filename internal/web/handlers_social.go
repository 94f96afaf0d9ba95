package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/social"
)

type reviewResponse struct {
	Review   *db.Review   `json:"review"`
	Comments []db.Comment `json:"comments"`
	// Liked reports whether the viewer likes the review.
	Liked bool `json:"liked"`
}

type reviewsResponse struct {
	Reviews []db.Review `json:"reviews"`
}

type commentRequest struct {
	Body string `json:"body"`
}

type itemCommentRequest struct {
	Item db.CatalogItem `json:"item"`
	Body string         `json:"body"`
}

type itemsRequest struct {
	Items []db.ProfileItem `json:"items"`
}

func reviews(list []db.Review) reviewsResponse {
	if list == nil {
		list = []db.Review{}
	}
	return reviewsResponse{Reviews: list}
}

// handleGetReview returns a review and its comments (GET /api/reviews/{id}).
func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	rev, comments, err := s.social.Review(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if comments == nil {
		comments = []db.Comment{}
	}
	liked, err := s.social.ReviewLiked(r.Context(), viewerID(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Review: rev, Comments: comments, Liked: liked})
}

// handleStats returns site-wide counters (GET /api/stats).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.social.ReviewCount(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reviews": n})
}

// handleItemStats returns like counts for a catalog item (GET /api/items/{itemID}).
func (s *Server) handleItemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.social.ItemStats(r.Context(), chi.URLParam(r, "itemID"), viewerID(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleItemReviews lists reviews of one catalog item (GET /api/items/{itemID}/reviews).
func (s *Server) handleItemReviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.social.ReviewsForItem(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews(list))
}

// handleUserReviews lists reviews written by a user (GET /api/users/{userID}/reviews).
func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.social.ReviewsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews(list))
}

// handlePostReview creates a review (POST /api/reviews).
func (s *Server) handlePostReview(w http.ResponseWriter, r *http.Request) {
	var in social.ReviewInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	rev, err := s.social.PostReview(r.Context(), viewerID(r.Context()), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

// handleDeleteReview deletes one of the viewer's reviews (DELETE /api/reviews/{id}).
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.social.DeleteReview(r.Context(), viewerID(r.Context()), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLikeReview toggles the viewer's like of a review (POST /api/reviews/{id}/like).
func (s *Server) handleLikeReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	liked, err := s.social.ToggleReviewLike(r.Context(), viewerID(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// handleCommentReview comments on a review (POST /api/reviews/{id}/comments).
func (s *Server) handleCommentReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	c, err := s.social.CommentOnReview(r.Context(), viewerID(r.Context()), id, req.Body)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleLikeItem toggles the viewer's like of a catalog item (POST /api/items/like).
func (s *Server) handleLikeItem(w http.ResponseWriter, r *http.Request) {
	var item db.CatalogItem
	if !decodeJSON(w, r, &item, false) {
		return
	}
	liked, err := s.social.ToggleAlbumLike(r.Context(), viewerID(r.Context()), item)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// handleCommentItem comments on a catalog item (POST /api/items/comments).
func (s *Server) handleCommentItem(w http.ResponseWriter, r *http.Request) {
	var req itemCommentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	c, err := s.social.CommentOnItem(r.Context(), viewerID(r.Context()), req.Item, req.Body)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleFollow toggles following a user (POST /api/users/{userID}/follow).
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	followee := strings.TrimSpace(chi.URLParam(r, "userID"))
	following, err := s.social.ToggleFollow(r.Context(), viewerID(r.Context()), followee)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"following": following})
}

// handleFollowers lists who follows a user (GET /api/users/{userID}/followers).
func (s *Server) handleFollowers(w http.ResponseWriter, r *http.Request) {
	users, err := s.social.Followers(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userRefs(users))
}

// handleFollowing lists who a user follows (GET /api/users/{userID}/following).
func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	users, err := s.social.Following(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userRefs(users))
}

func userRefs(users []social.UserRef) map[string][]social.UserRef {
	if users == nil {
		users = []social.UserRef{}
	}
	return map[string][]social.UserRef{"users": users}
}

// handleGetProfile returns a public profile (GET /api/users/{userID}).
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.social.Profile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUpdateProfile edits the viewer's profile (PUT /api/me/profile).
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in social.ProfileInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	p, err := s.social.UpdateProfile(r.Context(), viewerID(r.Context()), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSetTopAlbums replaces the viewer's top albums (PUT /api/me/top-albums).
func (s *Server) handleSetTopAlbums(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := s.social.SetTopAlbums(r.Context(), viewerID(r.Context()), req.Items); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetTopTracks replaces the viewer's top tracks (PUT /api/me/top-tracks).
func (s *Server) handleSetTopTracks(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := s.social.SetTopTracks(r.Context(), viewerID(r.Context()), req.Items); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
