package feed

import (
	"context"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
)

// Store is the data the composer reads. Every exclude argument lists review
// IDs that must not be returned.
type Store interface {
	Followees(ctx context.Context, userID string) ([]string, error)
	RecentByAuthors(ctx context.Context, authors []string, exclude []int64, limit int) ([]db.Review, error)
	LikedItemArtists(ctx context.Context, userID string, limit int) ([]string, error)
	LikedReviewArtists(ctx context.Context, userID string, limit int) ([]string, error)
	ByArtists(ctx context.Context, artists []string, exclude []int64, limit int) ([]db.Review, error)
	Popular(ctx context.Context, exclude []int64, limit int) ([]db.Review, error)
	Recent(ctx context.Context, exclude []int64, limit int) ([]db.Review, error)
}

// DBStore implements Store on top of the PostgreSQL repositories.
type DBStore struct {
	db *db.DB
}

// NewDBStore wraps database as a feed Store.
func NewDBStore(database *db.DB) *DBStore {
	return &DBStore{db: database}
}

func (s *DBStore) Followees(ctx context.Context, userID string) ([]string, error) {
	return s.db.Follows().Followees(ctx, userID)
}

func (s *DBStore) RecentByAuthors(ctx context.Context, authors []string, exclude []int64, limit int) ([]db.Review, error) {
	return s.db.Reviews().RecentByAuthors(ctx, authors, exclude, limit)
}

// LikedItemArtists returns the artists of the user's most recent album likes.
func (s *DBStore) LikedItemArtists(ctx context.Context, userID string, limit int) ([]string, error) {
	likes, err := s.db.AlbumLikes().RecentForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	artists := make([]string, len(likes))
	for i, l := range likes {
		artists[i] = l.Artist
	}
	return artists, nil
}

func (s *DBStore) LikedReviewArtists(ctx context.Context, userID string, limit int) ([]string, error) {
	return s.db.Likes().RecentReviewArtists(ctx, userID, limit)
}

func (s *DBStore) ByArtists(ctx context.Context, artists []string, exclude []int64, limit int) ([]db.Review, error) {
	return s.db.Reviews().ByArtists(ctx, artists, exclude, limit)
}

func (s *DBStore) Popular(ctx context.Context, exclude []int64, limit int) ([]db.Review, error) {
	return s.db.Reviews().Popular(ctx, exclude, limit)
}

func (s *DBStore) Recent(ctx context.Context, exclude []int64, limit int) ([]db.Review, error) {
	return s.db.Reviews().Recent(ctx, exclude, limit)
}
