package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/Nekos-API/Nekos.Land/internal/server/discord"
	"github.com/Nekos-API/Nekos.Land/internal/server/models"
)

type fakeRepo struct {
	created   []models.Report
	createErr error
	delivered []string
	markErr   error
}

func (f *fakeRepo) Create(_ context.Context, r *models.Report) (*models.Report, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *r
	out.ID = "r-1"
	out.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.created = append(f.created, out)
	return &out, nil
}

func (f *fakeRepo) MarkDelivered(_ context.Context, id string) error {
	f.delivered = append(f.delivered, id)
	return f.markErr
}

func (f *fakeRepo) ListByImage(context.Context, string) ([]models.Report, error) {
	return f.created, nil
}

type fakeSender struct {
	sent []discord.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg discord.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

var reporter = &models.User{ID: "u-1", Username: "neko", AvatarImage: "https://cdn.example/a.png"}

func newTestService(repo *fakeRepo, sender *fakeSender) *reportService {
	s := NewReportService(nil, sender, "https://admin.example/", logging.Discard()).(*reportService)
	// a typed nil would make the interface non-nil
	if repo != nil {
		s.repo = repo
	}
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }
	return s
}

func TestReportMessage_Format(t *testing.T) {
	msg := ReportMessage("https://admin.example", reporter,
		ReportRequest{ImageID: "img-1", Message: "wrong artist"},
		time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))

	require.Len(t, msg.Embeds, 1)
	e := msg.Embeds[0]
	assert.Equal(t, "Nekos.Land Image Report", e.Title)
	assert.Equal(t, "wrong artist", e.Description)
	assert.Equal(t, 0xff8787, e.Color)
	assert.Equal(t, "neko", e.Author.Name)
	assert.Equal(t, "https://admin.example/users/user/u-1/change/", e.Author.URL)
	assert.Equal(t, "https://cdn.example/a.png", e.Author.IconURL)
	assert.Equal(t, []discord.Field{
		{Name: "Image ID", Value: "[img-1](https://admin.example/images/image/img-1/change/)"},
		{Name: "User ID", Value: "[u-1](https://admin.example/users/user/u-1/change/)"},
	}, e.Fields)
	assert.Equal(t, "2026-03-01T12:30:00.000Z", e.Timestamp)
}

func TestSubmit_StoresAndForwards(t *testing.T) {
	repo, sender := &fakeRepo{}, &fakeSender{}
	s := newTestService(repo, sender)

	got, err := s.Submit(context.Background(), reporter, ReportRequest{ImageID: " img-1 ", Message: "wrong artist"})
	require.NoError(t, err)

	assert.Equal(t, "r-1", got.ID)
	assert.True(t, got.Delivered)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "img-1", repo.created[0].ImageID)
	assert.Equal(t, []string{"r-1"}, repo.delivered)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "https://admin.example/images/image/img-1/change/", strings.TrimSuffix(
		strings.TrimPrefix(sender.sent[0].Embeds[0].Fields[0].Value, "[img-1]("), ")"))
}

func TestSubmit_WithoutRepository(t *testing.T) {
	sender := &fakeSender{}
	s := newTestService(nil, sender)

	got, err := s.Submit(context.Background(), reporter, ReportRequest{ImageID: "img-1"})
	require.NoError(t, err)
	assert.Empty(t, got.ID)
	assert.Len(t, sender.sent, 1)
}

func TestSubmit_DeliveryFailure(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestService(repo, &fakeSender{err: discord.ErrRejected})

	_, err := s.Submit(context.Background(), reporter, ReportRequest{ImageID: "img-1"})
	require.ErrorIs(t, err, ErrDelivery)
	require.ErrorIs(t, err, discord.ErrRejected)
	assert.Len(t, repo.created, 1)
	assert.Empty(t, repo.delivered)
}

func TestSubmit_StorageFailureStillForwards(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	sender := &fakeSender{}
	s := newTestService(repo, sender)

	got, err := s.Submit(context.Background(), reporter, ReportRequest{ImageID: "img-1"})
	require.NoError(t, err)
	assert.True(t, got.Delivered)
	assert.Len(t, sender.sent, 1)
	assert.Empty(t, repo.delivered)
}

func TestSubmit_Validation(t *testing.T) {
	sender := &fakeSender{}
	s := newTestService(nil, sender)

	cases := []struct {
		name string
		user *models.User
		req  ReportRequest
	}{
		{"missing image", reporter, ReportRequest{ImageID: "  "}},
		{"long message", reporter, ReportRequest{ImageID: "img-1", Message: strings.Repeat("a", MaxMessageLen+1)}},
		{"no user", nil, ReportRequest{ImageID: "img-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Submit(context.Background(), tc.user, tc.req)
			require.ErrorIs(t, err, ErrInvalidReport)
		})
	}
	assert.Empty(t, sender.sent)
}
