package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewRepository handles review database operations.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

const reviewSelect = `
	SELECT r.id, r.user_id, COALESCE(p.username, ''), r.album_id, r.album_name, r.artist_name,
		r.album_image, r.rating, r.review_text, r.like_count, r.is_discovery, r.created_at
	FROM reviews r
	LEFT JOIN profiles p ON p.id = r.user_id
`

func scanReview(row pgx.Row) (Review, error) {
	var rev Review
	err := row.Scan(
		&rev.ID,
		&rev.UserID,
		&rev.Username,
		&rev.CatalogItem.ID,
		&rev.Name,
		&rev.Artist,
		&rev.Image,
		&rev.Rating,
		&rev.Body,
		&rev.LikeCount,
		&rev.IsDiscovery,
		&rev.CreatedAt,
	)
	return rev, err
}

func (r *ReviewRepository) query(ctx context.Context, what, query string, args ...any) ([]Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", what, err)
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", what, err)
	}
	return reviews, nil
}

// Create inserts an explicit review.
func (r *ReviewRepository) Create(ctx context.Context, rev *Review) error {
	query := `
		INSERT INTO reviews (user_id, album_id, album_name, artist_name, album_image, rating, review_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		rev.UserID,
		rev.CatalogItem.ID,
		rev.Name,
		rev.Artist,
		rev.Image,
		rev.Rating,
		rev.Body,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}
	return nil
}

// Get retrieves a review by ID.
func (r *ReviewRepository) Get(ctx context.Context, id int64) (*Review, error) {
	rev, err := scanReview(r.pool.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying review: %w", err)
	}
	return &rev, nil
}

// Delete removes a review owned by userID.
func (r *ReviewRepository) Delete(ctx context.Context, id int64, userID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureDiscovery returns the ID of the author's review of item, creating a
// discovery review (no rating, empty body) when none exists. Concurrent calls
// for the same pair resolve to the same row.
func (r *ReviewRepository) EnsureDiscovery(ctx context.Context, userID string, item CatalogItem) (int64, error) {
	query := `
		WITH existing AS (
			SELECT id FROM reviews
			WHERE user_id = $1 AND album_id = $2
			ORDER BY is_discovery, created_at DESC
			LIMIT 1
		), inserted AS (
			INSERT INTO reviews (user_id, album_id, album_name, artist_name, album_image, is_discovery)
			SELECT $1, $2, $3, $4, $5, TRUE
			WHERE NOT EXISTS (SELECT 1 FROM existing)
			ON CONFLICT (user_id, album_id) WHERE is_discovery
			DO UPDATE SET album_id = EXCLUDED.album_id
			RETURNING id
		)
		SELECT id FROM existing
		UNION ALL
		SELECT id FROM inserted
		LIMIT 1
	`
	var id int64
	err := r.pool.QueryRow(ctx, query, userID, item.ID, item.Name, item.Artist, item.Image).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensuring discovery review: %w", err)
	}
	return id, nil
}

// ListByUser returns a user's reviews, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Review, error) {
	return r.query(ctx, "user reviews",
		reviewSelect+` WHERE r.user_id = $1 ORDER BY r.created_at DESC LIMIT $2`,
		userID, limit)
}

// ListForItem returns reviews of a catalog item, newest first.
func (r *ReviewRepository) ListForItem(ctx context.Context, itemID string, limit int) ([]Review, error) {
	return r.query(ctx, "item reviews",
		reviewSelect+` WHERE r.album_id = $1 ORDER BY r.created_at DESC LIMIT $2`,
		itemID, limit)
}

// RecentByAuthors returns the newest reviews written by any of authors, skipping exclude.
func (r *ReviewRepository) RecentByAuthors(ctx context.Context, authors []string, exclude []int64, limit int) ([]Review, error) {
	if len(authors) == 0 || limit <= 0 {
		return []Review{}, nil
	}
	return r.query(ctx, "reviews by authors",
		reviewSelect+`
		WHERE r.user_id = ANY($1) AND NOT (r.id = ANY($2))
		ORDER BY r.created_at DESC
		LIMIT $3`,
		authors, idSet(exclude), limit)
}

// ByArtists returns the newest reviews whose artist name is in artists, skipping exclude.
func (r *ReviewRepository) ByArtists(ctx context.Context, artists []string, exclude []int64, limit int) ([]Review, error) {
	if len(artists) == 0 || limit <= 0 {
		return []Review{}, nil
	}
	return r.query(ctx, "reviews by artists",
		reviewSelect+`
		WHERE r.artist_name = ANY($1) AND NOT (r.id = ANY($2))
		ORDER BY r.created_at DESC
		LIMIT $3`,
		artists, idSet(exclude), limit)
}

// Popular returns the most liked reviews, skipping exclude.
func (r *ReviewRepository) Popular(ctx context.Context, exclude []int64, limit int) ([]Review, error) {
	if limit <= 0 {
		return []Review{}, nil
	}
	return r.query(ctx, "popular reviews",
		reviewSelect+`
		WHERE NOT (r.id = ANY($1))
		ORDER BY r.like_count DESC, r.created_at DESC
		LIMIT $2`,
		idSet(exclude), limit)
}

// Recent returns the newest reviews, skipping exclude.
func (r *ReviewRepository) Recent(ctx context.Context, exclude []int64, limit int) ([]Review, error) {
	if limit <= 0 {
		return []Review{}, nil
	}
	return r.query(ctx, "recent reviews",
		reviewSelect+`
		WHERE NOT (r.id = ANY($1))
		ORDER BY r.created_at DESC
		LIMIT $2`,
		idSet(exclude), limit)
}

// Count returns the total number of reviews.
func (r *ReviewRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}
