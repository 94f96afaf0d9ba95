package social

import (
	"context"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
)

// ReviewStore is the review persistence the service needs.
type ReviewStore interface {
	Create(ctx context.Context, rev *db.Review) error
	Get(ctx context.Context, id int64) (*db.Review, error)
	Delete(ctx context.Context, id int64, userID string) error
	EnsureDiscovery(ctx context.Context, userID string, item db.CatalogItem) (int64, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]db.Review, error)
	ListForItem(ctx context.Context, itemID string, limit int) ([]db.Review, error)
	Count(ctx context.Context) (int, error)
}

// AlbumLikeStore toggles and counts likes of catalog items.
type AlbumLikeStore interface {
	Toggle(ctx context.Context, userID string, item db.CatalogItem) (bool, error)
	Exists(ctx context.Context, userID, itemID string) (bool, error)
	CountForItem(ctx context.Context, itemID string) (int, error)
}

// LikeStore toggles likes of reviews.
type LikeStore interface {
	Toggle(ctx context.Context, userID string, reviewID int64) (bool, error)
	Exists(ctx context.Context, userID string, reviewID int64) (bool, error)
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, c *db.Comment) error
	ListForReview(ctx context.Context, reviewID int64) ([]db.Comment, error)
}

// FollowStore maintains the follow graph.
type FollowStore interface {
	Toggle(ctx context.Context, followerID, followeeID string) (bool, error)
	Counts(ctx context.Context, userID string) (followers, following int, err error)
	Followers(ctx context.Context, userID string) ([]string, error)
	Followees(ctx context.Context, userID string) ([]string, error)
}

// ProfileStore persists profiles.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*db.Profile, error)
	Upsert(ctx context.Context, p *db.Profile) error
	SetTopAlbums(ctx context.Context, id string, items []db.ProfileItem) error
	SetTopTracks(ctx context.Context, id string, items []db.ProfileItem) error
	Usernames(ctx context.Context, ids []string) (map[string]string, error)
}

// ListStore persists curated lists.
type ListStore interface {
	Create(ctx context.Context, l *db.List) error
	Get(ctx context.Context, id int64) (*db.List, error)
	ListForOwner(ctx context.Context, userID string) ([]db.List, error)
	Update(ctx context.Context, l *db.List) error
	Delete(ctx context.Context, id int64, userID string) error
}

// Stores groups the repositories the service writes through.
type Stores struct {
	Reviews    ReviewStore
	AlbumLikes AlbumLikeStore
	Likes      LikeStore
	Comments   CommentStore
	Follows    FollowStore
	Profiles   ProfileStore
	Lists      ListStore
}

// StoresFromDB wires every store to its PostgreSQL repository.
func StoresFromDB(database *db.DB) Stores {
	return Stores{
		Reviews:    database.Reviews(),
		AlbumLikes: database.AlbumLikes(),
		Likes:      database.Likes(),
		Comments:   database.Comments(),
		Follows:    database.Follows(),
		Profiles:   database.Profiles(),
		Lists:      database.Lists(),
	}
}
