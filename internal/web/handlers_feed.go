package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/catalog"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/feed"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type feedRequest struct {
	ExcludeIDs []int64 `json:"excludeIds"`
}

type feedResponse struct {
	Items []db.Review `json:"items"`
}

// handleFeed returns the next feed page for the viewer (POST /api/feed).
// Anonymous viewers get the popular and recent stages only.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var req feedRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	items, err := s.feed.Compose(r.Context(), feed.Request{
		ViewerID:   viewerID(r.Context()),
		ExcludeIDs: req.ExcludeIDs,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if items == nil {
		items = []db.Review{}
	}
	writeJSON(w, http.StatusOK, feedResponse{Items: items})
}

// searchResult is the client-facing view of a catalog.Result.
type searchResult struct {
	ID         string `json:"id"`
	AlbumID    string `json:"albumId,omitempty"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Image      string `json:"image"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Year       *int   `json:"year,omitempty"`
	Genre      string `json:"genre,omitempty"`
}

func toSearchResult(res catalog.Result) searchResult {
	out := searchResult{
		ID:         res.ID(),
		AlbumID:    res.AlbumID(),
		Name:       res.DisplayName(),
		Artist:     res.ArtistName,
		Image:      res.HighResArtwork(),
		PreviewURL: res.PreviewURL,
		Genre:      res.Genre,
	}
	if y, ok := res.ReleaseYear(); ok {
		out.Year = &y
	}
	return out
}

// handleSearch proxies a catalog search (GET /api/search?term=&entity=&limit=).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	term := strings.TrimSpace(q.Get("term"))
	if term == "" {
		fail(w, r, badRequestf("term is required"))
		return
	}

	entity, err := entityParam(q.Get("entity"), catalog.EntitySong)
	if err != nil {
		fail(w, r, err)
		return
	}

	limit := defaultSearchLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			fail(w, r, badRequestf("limit must be between 1 and %d", maxSearchLimit))
			return
		}
		limit = n
	}

	results, err := s.catalog.Search(r.Context(), term, entity, limit)
	if err != nil {
		fail(w, r, err)
		return
	}

	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		out = append(out, toSearchResult(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

// handleLookup fetches one catalog item, plus its related items when entity
// is given (GET /api/catalog/{id}?entity=).
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	entity, err := entityParam(r.URL.Query().Get("entity"), "")
	if err != nil {
		fail(w, r, err)
		return
	}

	results, err := s.catalog.Lookup(r.Context(), strconv.FormatInt(id, 10), entity)
	if err != nil {
		fail(w, r, err)
		return
	}
	if len(results) == 0 {
		fail(w, r, fmt.Errorf("catalog item %d: %w", id, db.ErrNotFound))
		return
	}

	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		out = append(out, toSearchResult(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func entityParam(raw string, def catalog.Entity) (catalog.Entity, error) {
	if raw == "" {
		return def, nil
	}
	entity := catalog.Entity(raw)
	if !entity.Valid() {
		return "", badRequestf("entity must be one of: song album artist")
	}
	return entity, nil
}
