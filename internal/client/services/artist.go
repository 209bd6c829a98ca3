package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Nekos-API/Nekos.Land/internal/client/client"
	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/Nekos-API/Nekos.Land/internal/optimistic"
	"github.com/Nekos-API/Nekos.Land/internal/paging"
)

var ErrNoArtistOpen = errors.New("no artist open")

// ArtistView is a snapshot of the artist page.
type ArtistView struct {
	Artist    *models.Artist
	Images    []models.Image
	Following bool
	Loading   bool
	Done      bool
	Err       error
}

// ArtistService shows one artist at a time with a gallery that grows page
// by page as its last cell becomes visible.
type ArtistService interface {
	Open(ctx context.Context, id string) (*models.Artist, error)
	// More reports the last gallery cell as visible.
	More(ctx context.Context) (bool, error)
	Visible(ctx context.Context, index int) (bool, error)
	// Retry clears a failed page load and tries it again.
	Retry(ctx context.Context) (bool, error)
	View() ArtistView
	Follow(ctx context.Context) (bool, error)
	Close()
}

type artistService struct {
	mu       sync.Mutex
	api      client.Client
	sessions SessionReader
	log      logging.Logger
	pageSize int

	gen       uint64
	artist    *models.Artist
	loader    *paging.Loader[models.Image]
	following *optimistic.Toggle
}

// NewArtistService returns an artist view using pageSize images per page;
// zero means paging.DefaultPageSize.
func NewArtistService(api client.Client, sessions SessionReader, pageSize int, log logging.Logger) ArtistService {
	a := &artistService{api: api, sessions: sessions, pageSize: pageSize, log: log}
	a.following = optimistic.New(false, func(ctx context.Context, target, stale bool, err error) {
		if !stale {
			a.log.Warn(ctx, "follow rolled back", "target", target, "error", err)
		}
	})
	return a
}

// Open replaces the current artist. The previous gallery is closed so any
// page still in flight for it is discarded.
func (a *artistService) Open(ctx context.Context, id string) (*models.Artist, error) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	if a.loader != nil {
		a.loader.Close()
		a.loader = nil
	}
	a.artist = nil
	a.mu.Unlock()

	artist, err := a.api.Artist(ctx, id)
	if err != nil {
		a.log.Error(ctx, "failed to load artist", "artist", id, "error", err)
		return nil, fmt.Errorf("load artist: %w", err)
	}

	loader := paging.NewLoader(a.pageSize, func(ctx context.Context, limit, offset int) ([]models.Image, error) {
		return a.api.ArtistImages(ctx, id, limit, offset)
	})

	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		loader.Close()
		return nil, ErrSuperseded
	}
	a.artist = artist
	a.loader = loader
	a.following.Reset(artist.IsFollowing)
	a.mu.Unlock()

	if _, err := loader.LoadNext(ctx); err != nil && !errors.Is(err, paging.ErrClosed) {
		a.log.Error(ctx, "failed to load artist images", "artist", id, "error", err)
	}
	cp := *artist
	return &cp, nil
}

func (a *artistService) current() (*paging.Loader[models.Image], error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loader == nil {
		return nil, ErrNoArtistOpen
	}
	return a.loader, nil
}

func (a *artistService) More(ctx context.Context) (bool, error) {
	l, err := a.current()
	if err != nil {
		return false, err
	}
	return l.Visible(ctx, l.Len()-1)
}

func (a *artistService) Visible(ctx context.Context, index int) (bool, error) {
	l, err := a.current()
	if err != nil {
		return false, err
	}
	return l.Visible(ctx, index)
}

func (a *artistService) Retry(ctx context.Context) (bool, error) {
	l, err := a.current()
	if err != nil {
		return false, err
	}
	l.Retry()
	return l.LoadNext(ctx)
}

func (a *artistService) View() ArtistView {
	a.mu.Lock()
	defer a.mu.Unlock()

	var v ArtistView
	if a.artist != nil {
		cp := *a.artist
		v.Artist = &cp
		v.Following = a.following.Value()
	}
	if a.loader != nil {
		v.Images = a.loader.Items()
		v.Loading = a.loader.Loading()
		v.Done = a.loader.Done()
		v.Err = a.loader.Err()
	}
	return v
}

func (a *artistService) Follow(ctx context.Context) (bool, error) {
	s, err := signedIn(a.sessions)
	if err != nil {
		return a.following.Value(), err
	}

	a.mu.Lock()
	artist := a.artist
	a.mu.Unlock()
	if artist == nil {
		return false, ErrNoArtistOpen
	}

	return a.following.Flip(ctx, func(ctx context.Context, on bool) error {
		return a.api.SetRelationship(ctx, client.FollowedArtists, s.UserID, artist.ID, on)
	})
}

func (a *artistService) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	if a.loader != nil {
		a.loader.Close()
	}
}
