// Package feed composes a viewer's home feed from four cascading sources:
// followed users, taste-based recommendations, popular reviews and recent
// reviews. Each stage only fills what the previous ones left open, and a
// failing stage contributes nothing instead of failing the page.
package feed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/logging"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/metrics"
)

const (
	DefaultPageSize = 5

	// socialCap reserves the rest of the page for discovery content.
	socialCap = 3
	// tasteSampleSize is how many recent likes of each kind feed the taste signal.
	tasteSampleSize = 20
	// popularPool is how many top-liked reviews are shuffled in the popularity stage.
	popularPool = 20
)

// Stage names, used in logs and metrics.
const (
	StageSocial  = "social"
	StageTaste   = "taste"
	StagePopular = "popular"
	StageRecent  = "recent"
)

// Shuffler permutes n elements through swap, like rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// Request describes one feed page.
type Request struct {
	// ViewerID is empty for anonymous viewers.
	ViewerID string
	// ExcludeIDs are reviews the viewer has already been shown.
	ExcludeIDs []int64
	// PageSize overrides the composer default when positive.
	PageSize int
}

// Composer builds feed pages.
type Composer struct {
	store    Store
	pageSize int
	shuffle  Shuffler
}

// Option configures a Composer.
type Option func(*Composer)

// WithPageSize sets the default page size.
func WithPageSize(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithShuffler replaces the popularity-stage shuffle.
func WithShuffler(s Shuffler) Option {
	return func(c *Composer) {
		c.shuffle = s
	}
}

// New creates a Composer reading from store.
func New(store Store, opts ...Option) *Composer {
	c := &Composer{
		store:    store,
		pageSize: DefaultPageSize,
		shuffle:  rand.Shuffle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// page accumulates the result and the growing exclusion set.
type page struct {
	size    int
	items   []db.Review
	exclude []int64
	seen    map[int64]bool
}

func newPage(size int, exclude []int64) *page {
	p := &page{
		size:    size,
		items:   make([]db.Review, 0, size),
		exclude: make([]int64, 0, len(exclude)+size),
		seen:    make(map[int64]bool, len(exclude)+size),
	}
	for _, id := range exclude {
		if !p.seen[id] {
			p.seen[id] = true
			p.exclude = append(p.exclude, id)
		}
	}
	return p
}

func (p *page) remaining() int {
	return p.size - len(p.items)
}

// add appends up to limit unseen reviews and returns how many were taken.
func (p *page) add(reviews []db.Review, limit int) int {
	added := 0
	for _, r := range reviews {
		if added == limit || p.remaining() == 0 {
			break
		}
		if p.seen[r.ID] {
			continue
		}
		p.seen[r.ID] = true
		p.exclude = append(p.exclude, r.ID)
		p.items = append(p.items, r)
		added++
	}
	return added
}

// Compose returns up to the page size reviews, none of them in req.ExcludeIDs
// and none repeated. An empty result means there is nothing left to show.
// The only error is cancellation of ctx.
func (c *Composer) Compose(ctx context.Context, req Request) ([]db.Review, error) {
	size := c.pageSize
	if req.PageSize > 0 {
		size = req.PageSize
	}
	p := newPage(size, req.ExcludeIDs)
	log := logging.Ctx(ctx)

	var favoriteArtists []string
	if req.ViewerID != "" {
		favoriteArtists = c.favoriteArtists(ctx, req.ViewerID)
	}

	stages := []struct {
		name string
		run  func() (int, error)
	}{
		{StageSocial, func() (int, error) { return c.social(ctx, req.ViewerID, p) }},
		{StageTaste, func() (int, error) { return c.taste(ctx, favoriteArtists, p) }},
		{StagePopular, func() (int, error) { return c.popular(ctx, p) }},
		{StageRecent, func() (int, error) { return c.recent(ctx, p) }},
	}

	for _, stage := range stages {
		if p.remaining() == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := stage.run()
		if err != nil {
			metrics.FeedStageFailures.WithLabelValues(stage.name).Inc()
			log.Warn().Err(err).Str("stage", stage.name).Msg("feed stage failed")
			continue
		}
		metrics.FeedStageItems.WithLabelValues(stage.name).Add(float64(n))
		log.Debug().Str("stage", stage.name).Int("items", n).Int("remaining", p.remaining()).Msg("feed stage done")
	}

	metrics.FeedPages.WithLabelValues(strconv.FormatBool(p.remaining() == 0)).Inc()
	return p.items, nil
}

// favoriteArtists merges the artists of the viewer's recent album likes and
// liked reviews. Lookups run concurrently; a failed lookup leaves its half empty.
func (c *Composer) favoriteArtists(ctx context.Context, viewerID string) []string {
	var fromItems, fromReviews []string

	var g errgroup.Group
	g.Go(func() error {
		artists, err := c.store.LikedItemArtists(ctx, viewerID, tasteSampleSize)
		if err != nil {
			return fmt.Errorf("loading album likes: %w", err)
		}
		fromItems = artists
		return nil
	})
	g.Go(func() error {
		artists, err := c.store.LikedReviewArtists(ctx, viewerID, tasteSampleSize)
		if err != nil {
			return fmt.Errorf("loading review likes: %w", err)
		}
		fromReviews = artists
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("taste signal incomplete")
	}

	seen := make(map[string]bool)
	artists := make([]string, 0, len(fromItems)+len(fromReviews))
	for _, a := range append(fromItems, fromReviews...) {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		artists = append(artists, a)
	}
	return artists
}

func (c *Composer) social(ctx context.Context, viewerID string, p *page) (int, error) {
	if viewerID == "" {
		return 0, nil
	}
	followees, err := c.store.Followees(ctx, viewerID)
	if err != nil {
		return 0, fmt.Errorf("loading followees: %w", err)
	}
	if len(followees) == 0 {
		return 0, nil
	}

	limit := min(socialCap, p.remaining())
	reviews, err := c.store.RecentByAuthors(ctx, followees, p.exclude, limit)
	if err != nil {
		return 0, fmt.Errorf("loading friends' reviews: %w", err)
	}
	return p.add(reviews, limit), nil
}

func (c *Composer) taste(ctx context.Context, artists []string, p *page) (int, error) {
	if len(artists) == 0 {
		return 0, nil
	}
	limit := p.remaining()
	reviews, err := c.store.ByArtists(ctx, artists, p.exclude, limit)
	if err != nil {
		return 0, fmt.Errorf("loading reviews by favorite artists: %w", err)
	}
	return p.add(reviews, limit), nil
}

func (c *Composer) popular(ctx context.Context, p *page) (int, error) {
	reviews, err := c.store.Popular(ctx, p.exclude, popularPool)
	if err != nil {
		return 0, fmt.Errorf("loading popular reviews: %w", err)
	}
	c.shuffle(len(reviews), func(i, j int) {
		reviews[i], reviews[j] = reviews[j], reviews[i]
	})
	return p.add(reviews, p.remaining()), nil
}

func (c *Composer) recent(ctx context.Context, p *page) (int, error) {
	limit := p.remaining()
	reviews, err := c.store.Recent(ctx, p.exclude, limit)
	if err != nil {
		return 0, fmt.Errorf("loading recent reviews: %w", err)
	}
	return p.add(reviews, limit), nil
}
