package catalog

import (
	"strconv"
	"strings"
)

// Entity selects what kind of catalog item a search returns.
type Entity string

const (
	EntitySong   Entity = "song"
	EntityAlbum  Entity = "album"
	EntityArtist Entity = "artist"
)

// param returns the value the search API expects for the entity parameter.
func (e Entity) param() string {
	if e == EntityArtist {
		return "musicArtist"
	}
	return string(e)
}

// Valid reports whether e is a supported entity.
func (e Entity) Valid() bool {
	switch e {
	case EntitySong, EntityAlbum, EntityArtist:
		return true
	}
	return false
}

// Result is a single catalog entry as returned by the search and lookup endpoints.
type Result struct {
	WrapperType    string `json:"wrapperType"`
	Kind           string `json:"kind,omitempty"`
	TrackID        int64  `json:"trackId,omitempty"`
	CollectionID   int64  `json:"collectionId,omitempty"`
	ArtistID       int64  `json:"artistId,omitempty"`
	TrackName      string `json:"trackName,omitempty"`
	CollectionName string `json:"collectionName,omitempty"`
	ArtistName     string `json:"artistName"`
	ArtworkURL100  string `json:"artworkUrl100,omitempty"`
	PreviewURL     string `json:"previewUrl,omitempty"`
	ReleaseDate    string `json:"releaseDate,omitempty"`
	Genre          string `json:"primaryGenreName,omitempty"`
}

// ID returns the track id, falling back to the collection id and then the artist id.
// The empty string means the result carries no usable identifier.
func (r Result) ID() string {
	switch {
	case r.TrackID != 0:
		return strconv.FormatInt(r.TrackID, 10)
	case r.CollectionID != 0:
		return strconv.FormatInt(r.CollectionID, 10)
	case r.ArtistID != 0:
		return strconv.FormatInt(r.ArtistID, 10)
	}
	return ""
}

// AlbumID returns the parent collection id for songs, or "" when unknown.
func (r Result) AlbumID() string {
	if r.CollectionID == 0 {
		return ""
	}
	return strconv.FormatInt(r.CollectionID, 10)
}

// DisplayName prefers the track name, then the collection name, then the artist.
func (r Result) DisplayName() string {
	switch {
	case r.TrackName != "":
		return r.TrackName
	case r.CollectionName != "":
		return r.CollectionName
	}
	return r.ArtistName
}

// HighResArtwork upgrades the 100x100 artwork URL to its 600x600 variant.
func (r Result) HighResArtwork() string {
	return strings.Replace(r.ArtworkURL100, "100x100", "600x600", 1)
}

// ReleaseYear parses the leading year of ReleaseDate. ok is false when absent or malformed.
func (r Result) ReleaseYear() (year int, ok bool) {
	if len(r.ReleaseDate) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(r.ReleaseDate[:4])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}

// searchResponse is the JSON envelope for both /search and /lookup.
type searchResponse struct {
	ResultCount int      `json:"resultCount"`
	Results     []Result `json:"results"`
}
