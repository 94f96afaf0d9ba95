// Package social implements reviews, likes, comments, follows, profiles and
// curated lists on top of the relational store. Every mutation is owner-checked.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/validation"
)

// Sentinel errors.
var (
	// ErrForbidden is returned when a user mutates something they do not own.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

const (
	maxTopItems    = 5
	defaultListing = 50
)

// Service is the interaction service.
type Service struct {
	stores Stores
}

// NewService creates a Service writing through stores.
func NewService(stores Stores) *Service {
	return &Service{stores: stores}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ReviewInput is the body of a new review.
type ReviewInput struct {
	Item   db.CatalogItem `json:"item" validate:"required"`
	Rating *int           `json:"rating" validate:"omitempty,min=1,max=5"`
	Body   string         `json:"body" validate:"max=5000"`
}

// PostReview creates an explicit review. It needs a rating, a body, or both.
func (s *Service) PostReview(ctx context.Context, author string, in ReviewInput) (*db.Review, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := validation.Struct(&in); err != nil {
		return nil, invalid(err)
	}
	if in.Rating == nil && in.Body == "" {
		return nil, invalidf("a review needs a rating or text")
	}

	rev := &db.Review{
		UserID:      author,
		CatalogItem: in.Item,
		Rating:      in.Rating,
		Body:        in.Body,
	}
	if err := s.stores.Reviews.Create(ctx, rev); err != nil {
		return nil, fmt.Errorf("posting review: %w", err)
	}
	return rev, nil
}

// DeleteReview removes a review written by author.
func (s *Service) DeleteReview(ctx context.Context, author string, id int64) error {
	rev, err := s.stores.Reviews.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("loading review: %w", err)
	}
	if rev.UserID != author {
		return ErrForbidden
	}
	if err := s.stores.Reviews.Delete(ctx, id, author); err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	return nil
}

// Review returns a review with its comments.
func (s *Service) Review(ctx context.Context, id int64) (*db.Review, []db.Comment, error) {
	rev, err := s.stores.Reviews.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading review: %w", err)
	}
	comments, err := s.stores.Comments.ListForReview(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading comments: %w", err)
	}
	return rev, comments, nil
}

// ReviewsForItem returns the newest reviews of a catalog item.
func (s *Service) ReviewsForItem(ctx context.Context, itemID string) ([]db.Review, error) {
	return s.stores.Reviews.ListForItem(ctx, itemID, defaultListing)
}

// ReviewsByUser returns the newest reviews written by userID.
func (s *Service) ReviewsByUser(ctx context.Context, userID string) ([]db.Review, error) {
	return s.stores.Reviews.ListByUser(ctx, userID, defaultListing)
}

// ToggleAlbumLike likes or unlikes a catalog item and reports the new state.
// Liking also gives the author a discovery review of the item.
func (s *Service) ToggleAlbumLike(ctx context.Context, author string, item db.CatalogItem) (bool, error) {
	if err := validation.Struct(&item); err != nil {
		return false, invalid(err)
	}
	liked, err := s.stores.AlbumLikes.Toggle(ctx, author, item)
	if err != nil {
		return false, fmt.Errorf("toggling album like: %w", err)
	}
	if liked {
		// The like is already committed; a missing discovery review only hides it from feeds.
		if _, err := s.stores.Reviews.EnsureDiscovery(ctx, author, item); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("item_id", item.ID).Msg("creating discovery review")
		}
	}
	return liked, nil
}

// ItemStats summarizes the likes of one catalog item.
type ItemStats struct {
	ItemID string `json:"itemId"`
	Likes  int    `json:"likes"`
	// Liked reports whether the viewer likes the item; false for anonymous viewers.
	Liked bool `json:"liked"`
}

// ItemStats returns like counts for itemID as seen by viewer, who may be "".
func (s *Service) ItemStats(ctx context.Context, itemID, viewer string) (*ItemStats, error) {
	if itemID == "" {
		return nil, invalidf("item id is required")
	}
	n, err := s.stores.AlbumLikes.CountForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("counting item likes: %w", err)
	}
	stats := &ItemStats{ItemID: itemID, Likes: n}
	if viewer != "" {
		if stats.Liked, err = s.stores.AlbumLikes.Exists(ctx, viewer, itemID); err != nil {
			return nil, fmt.Errorf("checking item like: %w", err)
		}
	}
	return stats, nil
}

// ReviewLiked reports whether viewer likes a review.
func (s *Service) ReviewLiked(ctx context.Context, viewer string, reviewID int64) (bool, error) {
	if viewer == "" {
		return false, nil
	}
	liked, err := s.stores.Likes.Exists(ctx, viewer, reviewID)
	if err != nil {
		return false, fmt.Errorf("checking review like: %w", err)
	}
	return liked, nil
}

// ReviewCount returns the number of reviews, discovery reviews included.
func (s *Service) ReviewCount(ctx context.Context) (int, error) {
	n, err := s.stores.Reviews.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}

// ToggleReviewLike likes or unlikes a review and reports the new state.
func (s *Service) ToggleReviewLike(ctx context.Context, author string, reviewID int64) (bool, error) {
	liked, err := s.stores.Likes.Toggle(ctx, author, reviewID)
	if err != nil {
		return false, fmt.Errorf("toggling review like: %w", err)
	}
	return liked, nil
}

func cleanComment(body string) (string, error) {
	body = strings.TrimSpace(body)
	switch {
	case body == "":
		return "", invalidf("comment text is required")
	case len(body) > 2000:
		return "", invalidf("comment text must be at most 2000 bytes")
	}
	return body, nil
}

// CommentOnReview appends a comment to an existing review.
func (s *Service) CommentOnReview(ctx context.Context, author string, reviewID int64, body string) (*db.Comment, error) {
	body, err := cleanComment(body)
	if err != nil {
		return nil, err
	}
	c := &db.Comment{UserID: author, ReviewID: reviewID, Body: body}
	if err := s.stores.Comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("posting comment: %w", err)
	}
	return c, nil
}

// CommentOnItem comments on a catalog item. The comment is attached to the
// author's own review of the item, which is created as a discovery review if needed.
func (s *Service) CommentOnItem(ctx context.Context, author string, item db.CatalogItem, body string) (*db.Comment, error) {
	if err := validation.Struct(&item); err != nil {
		return nil, invalid(err)
	}
	body, err := cleanComment(body)
	if err != nil {
		return nil, err
	}

	reviewID, err := s.stores.Reviews.EnsureDiscovery(ctx, author, item)
	if err != nil {
		return nil, fmt.Errorf("ensuring discovery review: %w", err)
	}
	return s.CommentOnReview(ctx, author, reviewID, body)
}

// ToggleFollow follows or unfollows followee and reports the new state.
func (s *Service) ToggleFollow(ctx context.Context, follower, followee string) (bool, error) {
	switch {
	case followee == "":
		return false, invalidf("user to follow is required")
	case followee == follower:
		return false, invalidf("cannot follow yourself")
	}
	following, err := s.stores.Follows.Toggle(ctx, follower, followee)
	if err != nil {
		return false, fmt.Errorf("toggling follow: %w", err)
	}
	return following, nil
}

// UserRef names a user in follower listings.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Followers returns the users following userID.
func (s *Service) Followers(ctx context.Context, userID string) ([]UserRef, error) {
	ids, err := s.stores.Follows.Followers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading followers: %w", err)
	}
	return s.userRefs(ctx, ids)
}

// Following returns the users userID follows.
func (s *Service) Following(ctx context.Context, userID string) ([]UserRef, error) {
	ids, err := s.stores.Follows.Followees(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading followees: %w", err)
	}
	return s.userRefs(ctx, ids)
}

// userRefs resolves usernames for ids. Users without a profile keep their id
// as the name.
func (s *Service) userRefs(ctx context.Context, ids []string) ([]UserRef, error) {
	names, err := s.stores.Profiles.Usernames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving usernames: %w", err)
	}
	refs := make([]UserRef, 0, len(ids))
	for _, id := range ids {
		name, ok := names[id]
		if !ok || name == "" {
			name = id
		}
		refs = append(refs, UserRef{ID: id, Username: name})
	}
	return refs, nil
}

// ProfileView is a profile with its follow counts.
type ProfileView struct {
	db.Profile
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// Profile returns the public profile of userID.
func (s *Service) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	p, err := s.stores.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	followers, following, err := s.stores.Follows.Counts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading follow counts: %w", err)
	}
	return &ProfileView{Profile: *p, Followers: followers, Following: following}, nil
}

// ProfileInput is an editable subset of a profile.
type ProfileInput struct {
	Username  string `json:"username" validate:"required,min=2,max=30"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

// UpdateProfile changes the owner's username and avatar.
func (s *Service) UpdateProfile(ctx context.Context, owner string, in ProfileInput) (*db.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(&in); err != nil {
		return nil, invalid(err)
	}
	p := &db.Profile{ID: owner, Username: in.Username, AvatarURL: in.AvatarURL}
	if err := s.stores.Profiles.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return p, nil
}

type topItems struct {
	Items []db.ProfileItem `validate:"max=5,dive"`
}

func checkTop(items []db.ProfileItem) error {
	if len(items) > maxTopItems {
		return invalidf("at most %d items allowed", maxTopItems)
	}
	if err := validation.Struct(&topItems{Items: items}); err != nil {
		return invalid(err)
	}
	return nil
}

// SetTopAlbums replaces the owner's ranked top albums.
func (s *Service) SetTopAlbums(ctx context.Context, owner string, items []db.ProfileItem) error {
	if err := checkTop(items); err != nil {
		return err
	}
	if err := s.stores.Profiles.SetTopAlbums(ctx, owner, items); err != nil {
		return fmt.Errorf("setting top albums: %w", err)
	}
	return nil
}

// SetTopTracks replaces the owner's ranked top tracks.
func (s *Service) SetTopTracks(ctx context.Context, owner string, items []db.ProfileItem) error {
	if err := checkTop(items); err != nil {
		return err
	}
	if err := s.stores.Profiles.SetTopTracks(ctx, owner, items); err != nil {
		return fmt.Errorf("setting top tracks: %w", err)
	}
	return nil
}
