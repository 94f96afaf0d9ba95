package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// foreignKeyViolation is the SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

// CommentRepository handles comment database operations.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// Create appends a comment to a review. It returns ErrNotFound if the review does not exist.
func (r *CommentRepository) Create(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (user_id, review_id, body, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, c.UserID, c.ReviewID, c.Body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// ListForReview returns a review's comments in posting order.
func (r *CommentRepository) ListForReview(ctx context.Context, reviewID int64) ([]Comment, error) {
	query := `
		SELECT c.id, c.user_id, COALESCE(p.username, ''), c.review_id, c.body, c.created_at
		FROM comments c
		LEFT JOIN profiles p ON p.id = c.user_id
		WHERE c.review_id = $1
		ORDER BY c.created_at, c.id
	`
	rows, err := r.pool.Query(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.Username, &c.ReviewID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, nil
}
