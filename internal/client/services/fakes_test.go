package services

import (
	"context"
	"sync"

	"github.com/Nekos-API/Nekos.Land/internal/client/client"
	"github.com/Nekos-API/Nekos.Land/internal/client/models"
)

// fakeAPI implements client.Client; unset funcs fail the call.
type fakeAPI struct {
	mu sync.Mutex

	randomImage   func(ctx context.Context, ratings models.RatingSet) (*models.Image, error)
	image         func(ctx context.Context, id string) (*models.Image, error)
	artist        func(ctx context.Context, id string) (*models.Artist, error)
	artistImages  func(ctx context.Context, artistID string, limit, offset int) ([]models.Image, error)
	usernameTaken func(ctx context.Context, username string) (bool, error)
	updateUser    func(ctx context.Context, u models.User) (*models.User, error)
	me            func(ctx context.Context) (*models.User, error)
	relErr        error
	reportErr     error

	relCalls     []relCall
	reports      []string
	lookups      []string
	updatedUsers []models.User
}

type relCall struct {
	Rel      client.Relationship
	UserID   string
	ObjectID string
	On       bool
}

var _ client.Client = (*fakeAPI)(nil)

func (f *fakeAPI) RandomImage(ctx context.Context, ratings models.RatingSet) (*models.Image, error) {
	return f.randomImage(ctx, ratings)
}

func (f *fakeAPI) Image(ctx context.Context, id string) (*models.Image, error) {
	return f.image(ctx, id)
}

func (f *fakeAPI) Artist(ctx context.Context, id string) (*models.Artist, error) {
	return f.artist(ctx, id)
}

func (f *fakeAPI) ArtistImages(ctx context.Context, artistID string, limit, offset int) ([]models.Image, error) {
	return f.artistImages(ctx, artistID, limit, offset)
}

func (f *fakeAPI) SetRelationship(ctx context.Context, rel client.Relationship, userID, objectID string, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relCalls = append(f.relCalls, relCall{rel, userID, objectID, on})
	return f.relErr
}

func (f *fakeAPI) ReportImage(ctx context.Context, imageID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, imageID+"|"+reason)
	return f.reportErr
}

func (f *fakeAPI) Me(ctx context.Context) (*models.User, error) {
	return f.me(ctx)
}

func (f *fakeAPI) UpdateUser(ctx context.Context, u models.User) (*models.User, error) {
	f.mu.Lock()
	f.updatedUsers = append(f.updatedUsers, u)
	f.mu.Unlock()
	return f.updateUser(ctx, u)
}

func (f *fakeAPI) UsernameTaken(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, username)
	f.mu.Unlock()
	return f.usernameTaken(ctx, username)
}

func (f *fakeAPI) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookups)
}

type fakeSessions struct {
	s *models.Session
}

func (f fakeSessions) Current() *models.Session {
	if f.s == nil {
		return nil
	}
	cp := *f.s
	return &cp
}

func signedInAs(id string) fakeSessions {
	return fakeSessions{s: &models.Session{UserID: id, Username: "neko", AccessToken: "at"}}
}

type recordingGradient struct {
	mu     sync.Mutex
	values []string
}

func (r *recordingGradient) SetGradient(c string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, c)
}

func (r *recordingGradient) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return ""
	}
	return r.values[len(r.values)-1]
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	f.text = text
	return f.err
}
