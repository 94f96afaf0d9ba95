package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository stores OAuth tokens per (user, provider).
type TokenRepository struct {
	pool *pgxpool.Pool
}

// Get retrieves the token a user holds for provider.
func (r *TokenRepository) Get(ctx context.Context, userID, provider string) (*Token, error) {
	query := `
		SELECT user_id, provider, access_token, refresh_token, token_type, expires_at, updated_at
		FROM oauth_tokens
		WHERE user_id = $1 AND provider = $2
	`
	var t Token
	err := r.pool.QueryRow(ctx, query, userID, provider).Scan(
		&t.UserID,
		&t.Provider,
		&t.AccessToken,
		&t.RefreshToken,
		&t.TokenType,
		&t.Expiry,
		&t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}
	return &t, nil
}

// Upsert stores t, replacing any previous token for the same user and provider.
// An empty refresh token keeps the stored one, since providers may omit it on refresh.
func (r *TokenRepository) Upsert(ctx context.Context, t *Token) error {
	query := `
		INSERT INTO oauth_tokens (user_id, provider, access_token, refresh_token, token_type, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), oauth_tokens.refresh_token),
			token_type = EXCLUDED.token_type,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING refresh_token, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		t.UserID,
		t.Provider,
		t.AccessToken,
		t.RefreshToken,
		t.TokenType,
		t.Expiry,
	).Scan(&t.RefreshToken, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting token: %w", err)
	}
	return nil
}

// Delete removes the token a user holds for provider.
func (r *TokenRepository) Delete(ctx context.Context, userID, provider string) error {
	query := `DELETE FROM oauth_tokens WHERE user_id = $1 AND provider = $2`
	if _, err := r.pool.Exec(ctx, query, userID, provider); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
