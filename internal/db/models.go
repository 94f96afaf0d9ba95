package db

import "time"

// User is an authenticated account, keyed by the streaming provider's user id.
type User struct {
	ID          string
	DisplayName string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session is an authenticated web session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Token is a stored OAuth token for one (user, provider) pair.
type Token struct {
	UserID       string
	Provider     string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	UpdatedAt    time.Time
}

// CatalogItem is the denormalized display metadata of a catalog entry.
type CatalogItem struct {
	ID     string `json:"itemId" validate:"required"`
	Name   string `json:"itemName" validate:"required"`
	Artist string `json:"artistName"`
	Image  string `json:"itemImage"`
}

// Review is one person's opinion of one catalog item. A nil Rating with an
// empty Body is a discovery review, created implicitly on first interaction.
type Review struct {
	ID       int64  `json:"id"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	CatalogItem
	Rating      *int      `json:"rating"`
	Body        string    `json:"body"`
	LikeCount   int       `json:"likeCount"`
	IsDiscovery bool      `json:"isDiscovery"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AlbumLike is a like of a catalog item, independent of any review.
type AlbumLike struct {
	UserID string `json:"userId"`
	CatalogItem
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a text reply attached to a review.
type Comment struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	ReviewID  int64     `json:"reviewId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileItem is one ranked entry of a profile's top albums or tracks.
type ProfileItem struct {
	ID     string `json:"id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Artist string `json:"artist"`
	Image  string `json:"image"`
}

// Profile is the public face of a user.
type Profile struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	AvatarURL string        `json:"avatarUrl"`
	TopAlbums []ProfileItem `json:"topAlbums"`
	TopTracks []ProfileItem `json:"topTracks"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ListItem is one ordered entry of a curated list. For songs TargetID may
// point at the parent album.
type ListItem struct {
	ID       string `json:"id" validate:"required"`
	TargetID string `json:"targetId,omitempty"`
	Name     string `json:"name" validate:"required"`
	Artist   string `json:"artist"`
	Image    string `json:"image"`
	Type     string `json:"type" validate:"required,oneof=album song"`
	Year     *int   `json:"year,omitempty"`
}

// List is a user-curated, ordered collection of catalog items.
type List struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Items       []ListItem `json:"items"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
