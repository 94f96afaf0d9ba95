package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlbumLikeRepository handles likes of catalog items.
type AlbumLikeRepository struct {
	pool *pgxpool.Pool
}

// Toggle likes item for userID, or removes the like if one exists.
// It reports whether the item is liked afterwards.
func (r *AlbumLikeRepository) Toggle(ctx context.Context, userID string, item CatalogItem) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM album_likes WHERE user_id = $1 AND album_id = $2`, userID, item.ID)
	if err != nil {
		return false, fmt.Errorf("deleting album like: %w", err)
	}
	liked := result.RowsAffected() == 0

	if liked {
		query := `
			INSERT INTO album_likes (user_id, album_id, album_name, artist_name, album_image, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (user_id, album_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, query, userID, item.ID, item.Name, item.Artist, item.Image); err != nil {
			return false, fmt.Errorf("inserting album like: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return liked, nil
}

// Exists reports whether userID likes itemID.
func (r *AlbumLikeRepository) Exists(ctx context.Context, userID, itemID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM album_likes WHERE user_id = $1 AND album_id = $2)`
	if err := r.pool.QueryRow(ctx, query, userID, itemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking album like: %w", err)
	}
	return exists, nil
}

// RecentForUser returns a user's most recent album likes.
func (r *AlbumLikeRepository) RecentForUser(ctx context.Context, userID string, limit int) ([]AlbumLike, error) {
	query := `
		SELECT user_id, album_id, album_name, artist_name, album_image, created_at
		FROM album_likes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying album likes: %w", err)
	}
	defer rows.Close()

	likes := []AlbumLike{}
	for rows.Next() {
		var l AlbumLike
		if err := rows.Scan(&l.UserID, &l.ID, &l.Name, &l.Artist, &l.Image, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning album like: %w", err)
		}
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating album likes: %w", err)
	}
	return likes, nil
}

// CountForItem returns how many users like itemID.
func (r *AlbumLikeRepository) CountForItem(ctx context.Context, itemID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM album_likes WHERE album_id = $1`, itemID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting album likes: %w", err)
	}
	return n, nil
}

// LikeRepository handles likes of reviews.
type LikeRepository struct {
	pool *pgxpool.Pool
}

// Toggle likes a review for userID, or removes the like if one exists, keeping
// the review's like_count in step. It reports whether the review is liked afterwards.
func (r *LikeRepository) Toggle(ctx context.Context, userID string, reviewID int64) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the review so concurrent toggles on it serialize.
	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM reviews WHERE id = $1 FOR UPDATE`, reviewID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("locking review: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND review_id = $2`, userID, reviewID)
	if err != nil {
		return false, fmt.Errorf("deleting like: %w", err)
	}

	liked := result.RowsAffected() == 0
	delta := -1
	if liked {
		result, err = tx.Exec(ctx, `
			INSERT INTO likes (user_id, review_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id, review_id) DO NOTHING
		`, userID, reviewID)
		if err != nil {
			return false, fmt.Errorf("inserting like: %w", err)
		}
		delta = int(result.RowsAffected())
	}

	if delta != 0 {
		query := `UPDATE reviews SET like_count = GREATEST(like_count + $2, 0) WHERE id = $1`
		if _, err := tx.Exec(ctx, query, reviewID, delta); err != nil {
			return false, fmt.Errorf("updating like count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return liked, nil
}

// Exists reports whether userID likes reviewID.
func (r *LikeRepository) Exists(ctx context.Context, userID string, reviewID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND review_id = $2)`
	if err := r.pool.QueryRow(ctx, query, userID, reviewID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking like: %w", err)
	}
	return exists, nil
}

// RecentReviewArtists returns the artist names of the reviews a user liked most
// recently, one entry per like.
func (r *LikeRepository) RecentReviewArtists(ctx context.Context, userID string, limit int) ([]string, error) {
	query := `
		SELECT rv.artist_name
		FROM likes l
		JOIN reviews rv ON rv.id = l.review_id
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying liked review artists: %w", err)
	}
	defer rows.Close()

	artists := []string{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating liked review artists: %w", err)
	}
	return artists, nil
}
