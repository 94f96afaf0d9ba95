package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListRepository handles curated list operations. Items are stored as an ordered JSONB array.
type ListRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new list.
func (r *ListRepository) Create(ctx context.Context, l *List) error {
	if l.Items == nil {
		l.Items = []ListItem{}
	}
	query := `
		INSERT INTO lists (user_id, title, description, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, l.UserID, l.Title, l.Description, l.Items).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting list: %w", err)
	}
	return nil
}

// Get retrieves a list by ID.
func (r *ListRepository) Get(ctx context.Context, id int64) (*List, error) {
	query := `
		SELECT id, user_id, title, description, items, created_at, updated_at
		FROM lists
		WHERE id = $1
	`
	var l List
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.UserID,
		&l.Title,
		&l.Description,
		&l.Items,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying list: %w", err)
	}
	return &l, nil
}

// ListForOwner returns a user's lists, newest first.
func (r *ListRepository) ListForOwner(ctx context.Context, userID string) ([]List, error) {
	query := `
		SELECT id, user_id, title, description, items, created_at, updated_at
		FROM lists
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}
	defer rows.Close()

	lists := []List{}
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.UserID, &l.Title, &l.Description, &l.Items, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lists: %w", err)
	}
	return lists, nil
}

// Update replaces the title, description and items of a list owned by l.UserID.
func (r *ListRepository) Update(ctx context.Context, l *List) error {
	if l.Items == nil {
		l.Items = []ListItem{}
	}
	query := `
		UPDATE lists
		SET title = $3, description = $4, items = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, l.ID, l.UserID, l.Title, l.Description, l.Items).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating list: %w", err)
	}
	return nil
}

// Delete removes a list owned by userID.
func (r *ListRepository) Delete(ctx context.Context, id int64, userID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM lists WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting list: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
