// Package db provides PostgreSQL access for SoundBoxd.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

//go:embed schema.sql
var schema string

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates any missing tables and indexes. It is safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Users returns a UserRepository.
func (db *DB) Users() *UserRepository {
	return &UserRepository{pool: db.pool}
}

// Sessions returns a SessionRepository.
func (db *DB) Sessions() *SessionRepository {
	return &SessionRepository{pool: db.pool}
}

// Tokens returns a TokenRepository.
func (db *DB) Tokens() *TokenRepository {
	return &TokenRepository{pool: db.pool}
}

// Profiles returns a ProfileRepository.
func (db *DB) Profiles() *ProfileRepository {
	return &ProfileRepository{pool: db.pool}
}

// Reviews returns a ReviewRepository.
func (db *DB) Reviews() *ReviewRepository {
	return &ReviewRepository{pool: db.pool}
}

// AlbumLikes returns an AlbumLikeRepository.
func (db *DB) AlbumLikes() *AlbumLikeRepository {
	return &AlbumLikeRepository{pool: db.pool}
}

// Likes returns a LikeRepository.
func (db *DB) Likes() *LikeRepository {
	return &LikeRepository{pool: db.pool}
}

// Comments returns a CommentRepository.
func (db *DB) Comments() *CommentRepository {
	return &CommentRepository{pool: db.pool}
}

// Follows returns a FollowRepository.
func (db *DB) Follows() *FollowRepository {
	return &FollowRepository{pool: db.pool}
}

// Lists returns a ListRepository.
func (db *DB) Lists() *ListRepository {
	return &ListRepository{pool: db.pool}
}

// idSet returns a non-nil slice so that `NOT (id = ANY($n))` never compares against NULL.
func idSet(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
