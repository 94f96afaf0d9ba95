package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FollowRepository handles the follow graph.
type FollowRepository struct {
	pool *pgxpool.Pool
}

// Toggle follows followeeID, or unfollows if already following.
// It reports whether the edge exists afterwards.
func (r *FollowRepository) Toggle(ctx context.Context, followerID, followeeID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("deleting follow: %w", err)
	}
	following := result.RowsAffected() == 0

	if following {
		query := `
			INSERT INTO follows (follower_id, following_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (follower_id, following_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, query, followerID, followeeID); err != nil {
			return false, fmt.Errorf("inserting follow: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return following, nil
}

// Followees returns the IDs userID follows.
func (r *FollowRepository) Followees(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, "followees",
		`SELECT following_id FROM follows WHERE follower_id = $1 ORDER BY created_at`, userID)
}

// Followers returns the IDs following userID.
func (r *FollowRepository) Followers(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, "followers",
		`SELECT follower_id FROM follows WHERE following_id = $1 ORDER BY created_at`, userID)
}

// Counts returns how many users follow userID and how many userID follows.
func (r *FollowRepository) Counts(ctx context.Context, userID string) (followers, following int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE following_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&followers, &following); err != nil {
		return 0, 0, fmt.Errorf("counting follows: %w", err)
	}
	return followers, following, nil
}

func (r *FollowRepository) ids(ctx context.Context, what, query, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", what, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", what, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", what, err)
	}
	return ids, nil
}
