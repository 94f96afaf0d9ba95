package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
)

// Provider is the token store key for Spotify tokens.
const Provider = "spotify"

// refreshBuffer is how close to expiry a token may get before it is refreshed.
const refreshBuffer = 5 * time.Minute

// ErrNoToken is returned when the user never connected their Spotify account.
var ErrNoToken = errors.New("no stored token")

// TokenRepository persists tokens per (user, provider).
type TokenRepository interface {
	Get(ctx context.Context, userID, provider string) (*db.Token, error)
	Upsert(ctx context.Context, t *db.Token) error
	Delete(ctx context.Context, userID, provider string) error
}

// Refresher exchanges a refresh token for a new token.
type Refresher interface {
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// TokenStore hands out valid provider tokens, refreshing and persisting them near expiry.
type TokenStore struct {
	repo      TokenRepository
	refresher Refresher
	now       func() time.Time
}

// NewTokenStore creates a TokenStore.
func NewTokenStore(repo TokenRepository, refresher Refresher) *TokenStore {
	return &TokenStore{
		repo:      repo,
		refresher: refresher,
		now:       time.Now,
	}
}

// Save stores token for userID.
func (s *TokenStore) Save(ctx context.Context, userID string, token *oauth2.Token) error {
	if token == nil {
		return errors.New("cannot save nil token")
	}
	row := &db.Token{
		UserID:       userID,
		Provider:     Provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		Expiry:       token.Expiry,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Token returns a token for userID that stays valid for at least the refresh buffer.
func (s *TokenStore) Token(ctx context.Context, userID string) (*oauth2.Token, error) {
	row, err := s.repo.Get(ctx, userID, Provider)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    row.TokenType,
		Expiry:       row.Expiry,
	}
	if row.Expiry.Sub(s.now()) >= refreshBuffer {
		return token, nil
	}

	fresh, err := s.refresher.Refresh(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = token.RefreshToken
	}
	if err := s.Save(ctx, userID, fresh); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().Time("expiry", fresh.Expiry).Msg("refreshed provider token")
	return fresh, nil
}

// GetValidToken returns a usable access token for userID, refreshing it
// first when it expires within the refresh buffer.
func (s *TokenStore) GetValidToken(ctx context.Context, userID string) (string, error) {
	token, err := s.Token(ctx, userID)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Disconnect forgets the stored token for userID.
func (s *TokenStore) Disconnect(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID, Provider); err != nil {
		return fmt.Errorf("disconnecting provider: %w", err)
	}
	return nil
}
