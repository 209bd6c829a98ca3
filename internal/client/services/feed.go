package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Nekos-API/Nekos.Land/internal/client/client"
	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/client/repositories/metadata"
	"github.com/Nekos-API/Nekos.Land/internal/client/ui"
	"github.com/Nekos-API/Nekos.Land/internal/colorx"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/Nekos-API/Nekos.Land/internal/optimistic"
)

// GradientDarkening is how much the dominant colour is darkened for the
// background gradient, in percent.
const GradientDarkening = 70

var (
	ErrFeedClosed = errors.New("feed closed")
	ErrSuperseded = errors.New("superseded by a newer refresh")
	ErrNoImage    = errors.New("no image loaded")
	ErrNoArtist   = errors.New("image has no artist")
)

// FeedState is a snapshot of the feed view.
type FeedState struct {
	Image     *models.Image
	Loading   bool
	Err       error
	Reported  bool
	Liked     bool
	Saved     bool
	Following bool
	Ratings   models.RatingSet
}

type FeedService interface {
	// LoadPreferences restores the rating filter saved by an earlier run.
	LoadPreferences(ctx context.Context) error
	Refresh(ctx context.Context) error
	// Pin loads a specific image, as the image route parameter does.
	Pin(ctx context.Context, id string) error
	State() FeedState
	ToggleRating(ctx context.Context, r models.AgeRating) (models.RatingSet, error)
	Like(ctx context.Context) (bool, error)
	Save(ctx context.Context) (bool, error)
	Follow(ctx context.Context) (bool, error)
	MarkReported()
	Close()
}

type feedService struct {
	mu sync.Mutex

	api      client.Client
	sessions SessionReader
	gradient ui.GradientWriter
	prefs    metadata.Repository
	log      logging.Logger

	gen      uint64
	closed   bool
	image    *models.Image
	loading  bool
	err      error
	reported bool
	ratings  models.RatingSet

	liked, saved, following *optimistic.Toggle
}

// NewFeedService wires the feed. The feed is the only writer of gradient.
// prefs may be nil, in which case rating changes are not persisted.
func NewFeedService(api client.Client, sessions SessionReader, gradient ui.GradientWriter, prefs metadata.Repository, log logging.Logger) FeedService {
	f := &feedService{
		api:      api,
		sessions: sessions,
		gradient: gradient,
		prefs:    prefs,
		log:      log,
		ratings:  models.DefaultRatingSet(),
	}
	f.liked = optimistic.New(false, f.rollbackLogger("like"))
	f.saved = optimistic.New(false, f.rollbackLogger("save"))
	f.following = optimistic.New(false, f.rollbackLogger("follow"))
	return f
}

func (f *feedService) rollbackLogger(action string) optimistic.FailureFunc {
	return func(ctx context.Context, target, stale bool, err error) {
		if stale {
			f.log.Debug(ctx, "stale toggle failed", "action", action, "target", target, "error", err)
			return
		}
		f.log.Warn(ctx, "toggle rolled back", "action", action, "target", target, "error", err)
	}
}

func (f *feedService) LoadPreferences(ctx context.Context) error {
	if f.prefs == nil {
		return nil
	}
	raw, err := f.prefs.Get(ctx, metadata.KeyRatings)
	if err != nil || raw == nil {
		return err
	}

	var ratings []models.AgeRating
	for _, part := range strings.Split(string(raw), ",") {
		r, err := models.ParseAgeRating(part)
		if err != nil {
			f.log.Warn(ctx, "ignoring stored rating", "value", part)
			continue
		}
		ratings = append(ratings, r)
	}
	set, err := models.NewRatingSet(ratings...)
	if err != nil {
		return nil
	}

	f.mu.Lock()
	f.ratings = set
	f.mu.Unlock()
	return nil
}

func (f *feedService) Refresh(ctx context.Context) error {
	f.mu.Lock()
	ratings := f.ratings.Clone()
	f.mu.Unlock()

	return f.load(ctx, func(ctx context.Context) (*models.Image, error) {
		return f.api.RandomImage(ctx, ratings)
	})
}

func (f *feedService) Pin(ctx context.Context, id string) error {
	return f.load(ctx, func(ctx context.Context) (*models.Image, error) {
		return f.api.Image(ctx, id)
	})
}

// load runs fetch as a new generation. A response belonging to an older
// generation, or arriving after Close, is dropped. On failure the previous
// image stays on screen.
func (f *feedService) load(ctx context.Context, fetch func(context.Context) (*models.Image, error)) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFeedClosed
	}
	f.gen++
	gen := f.gen
	f.loading = true
	f.reported = false
	f.mu.Unlock()

	img, err := fetch(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFeedClosed
	}
	if gen != f.gen {
		return ErrSuperseded
	}
	f.loading = false

	if err != nil {
		f.err = err
		f.log.Error(ctx, "failed to load image", "error", err)
		return fmt.Errorf("load image: %w", err)
	}

	f.err = nil
	f.image = img
	f.liked.Reset(img.Liked)
	f.saved.Reset(img.Saved)
	f.following.Reset(img.Artist != nil && img.Artist.IsFollowing)
	f.gradient.SetGradient(gradientFor(img))
	return nil
}

func gradientFor(img *models.Image) string {
	if img.Dominant == "" {
		return ui.DefaultGradient
	}
	c, err := colorx.DarkenHex(img.Dominant, GradientDarkening)
	if err != nil {
		return ui.DefaultGradient
	}
	return c
}

func (f *feedService) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := FeedState{
		Loading:   f.loading,
		Err:       f.err,
		Reported:  f.reported,
		Liked:     f.liked.Value(),
		Saved:     f.saved.Value(),
		Following: f.following.Value(),
		Ratings:   f.ratings.Clone(),
	}
	if f.image != nil {
		cp := *f.image
		st.Image = &cp
	}
	return st
}

// ToggleRating flips r in the filter. Removing the last rating fails with
// models.ErrLastRating and leaves the filter as it was.
func (f *feedService) ToggleRating(ctx context.Context, r models.AgeRating) (models.RatingSet, error) {
	f.mu.Lock()
	next := f.ratings.Clone()
	if err := next.Toggle(r); err != nil {
		cur := f.ratings.Clone()
		f.mu.Unlock()
		return cur, err
	}
	f.ratings = next.Clone()
	f.mu.Unlock()

	if f.prefs != nil {
		if err := f.prefs.Set(ctx, metadata.KeyRatings, []byte(next.String())); err != nil {
			f.log.Warn(ctx, "failed to persist rating filter", "error", err)
		}
	}
	return next, nil
}

func (f *feedService) Like(ctx context.Context) (bool, error) {
	return f.flip(ctx, f.liked, client.LikedImages, func(img *models.Image) (string, error) {
		return img.ID, nil
	})
}

func (f *feedService) Save(ctx context.Context) (bool, error) {
	return f.flip(ctx, f.saved, client.SavedImages, func(img *models.Image) (string, error) {
		return img.ID, nil
	})
}

func (f *feedService) Follow(ctx context.Context) (bool, error) {
	return f.flip(ctx, f.following, client.FollowedArtists, func(img *models.Image) (string, error) {
		if img.Artist == nil {
			return "", ErrNoArtist
		}
		return img.Artist.ID, nil
	})
}

func (f *feedService) flip(ctx context.Context, tg *optimistic.Toggle, rel client.Relationship, object func(*models.Image) (string, error)) (bool, error) {
	s, err := signedIn(f.sessions)
	if err != nil {
		return tg.Value(), err
	}

	f.mu.Lock()
	img := f.image
	f.mu.Unlock()
	if img == nil {
		return false, ErrNoImage
	}
	id, err := object(img)
	if err != nil {
		return tg.Value(), err
	}

	return tg.Flip(ctx, func(ctx context.Context, on bool) error {
		return f.api.SetRelationship(ctx, rel, s.UserID, id, on)
	})
}

func (f *feedService) MarkReported() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reported = true
}

func (f *feedService) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// signedIn returns the current session or the reason it cannot be used.
func signedIn(sessions SessionReader) (*models.Session, error) {
	s := sessions.Current()
	switch {
	case s == nil:
		return nil, ErrNotLoggedIn
	case s.Error != "":
		return nil, ErrRefreshFailed
	case !s.Valid():
		return nil, ErrNotLoggedIn
	}
	return s, nil
}
