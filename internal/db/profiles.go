package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles profile database operations.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// Get retrieves a profile by user ID.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*Profile, error) {
	query := `
		SELECT id, username, avatar_url, top_albums, top_tracks, updated_at
		FROM profiles
		WHERE id = $1
	`
	var p Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Username,
		&p.AvatarURL,
		&p.TopAlbums,
		&p.TopTracks,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

// Upsert creates or updates the username and avatar of a profile.
func (r *ProfileRepository) Upsert(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (id, username, avatar_url, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query, p.ID, p.Username, p.AvatarURL).Scan(&p.UpdatedAt); err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// SetTopAlbums replaces the ranked top albums of a profile.
func (r *ProfileRepository) SetTopAlbums(ctx context.Context, id string, items []ProfileItem) error {
	return r.setTop(ctx, "top_albums", id, items)
}

// SetTopTracks replaces the ranked top tracks of a profile.
func (r *ProfileRepository) SetTopTracks(ctx context.Context, id string, items []ProfileItem) error {
	return r.setTop(ctx, "top_tracks", id, items)
}

// column is one of two constants, never user input.
func (r *ProfileRepository) setTop(ctx context.Context, column, id string, items []ProfileItem) error {
	if items == nil {
		items = []ProfileItem{}
	}
	query := fmt.Sprintf(`
		INSERT INTO profiles (id, %[1]s, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			%[1]s = EXCLUDED.%[1]s,
			updated_at = NOW()
	`, column)
	if _, err := r.pool.Exec(ctx, query, id, items); err != nil {
		return fmt.Errorf("setting %s: %w", column, err)
	}
	return nil
}

// Usernames maps user IDs to usernames. IDs without a profile are omitted.
func (r *ProfileRepository) Usernames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query := `SELECT id, username FROM profiles WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("querying usernames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning username: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usernames: %w", err)
	}
	return names, nil
}
