package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/client/oauth"
	"github.com/Nekos-API/Nekos.Land/internal/client/repositories/session"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeAuthenticator struct {
	tokens     *oauth.Tokens
	loginErr   error
	refreshed  *oauth2.Token
	refreshErr error
	refreshes  atomic.Int32
	lastRT     string
}

func (f *fakeAuthenticator) Login(ctx context.Context, open oauth.Opener) (*oauth.Tokens, error) {
	return f.tokens, f.loginErr
}

func (f *fakeAuthenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	f.refreshes.Add(1)
	f.lastRT = refreshToken
	return f.refreshed, f.refreshErr
}

func noopOpen(string) error { return nil }

func loginTokens() *oauth.Tokens {
	return &oauth.Tokens{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		Expiry:       time.Now().Add(time.Hour),
		Claims: oauth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
			Username:         "neko",
			IsStaff:          true,
		},
	}
}

func TestAuthService_AnonymousByDefault(t *testing.T) {
	a := NewAuthService(&fakeAuthenticator{}, session.NewMemoryStore(), noopOpen, logging.Discard())

	assert.Nil(t, a.Current())
	tok, err := a.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)

	_, err = a.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAuthService_LoginPersistsSession(t *testing.T) {
	store := session.NewMemoryStore()
	a := NewAuthService(&fakeAuthenticator{tokens: loginTokens()}, store, noopOpen, logging.Discard())
	ctx := context.Background()

	s, err := a.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, "neko", s.DisplayName, "display name falls back to username")
	assert.True(t, s.IsStaff)

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-1", stored.AccessToken)

	tok, err := a.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok)

	// a second process picks the session up
	b := NewAuthService(&fakeAuthenticator{}, store, noopOpen, logging.Discard())
	require.NoError(t, b.Restore(ctx))
	assert.Equal(t, "u-1", b.Current().UserID)
}

func TestAuthService_LoginFailure(t *testing.T) {
	a := NewAuthService(&fakeAuthenticator{loginErr: oauth.ErrStateMismatch}, session.NewMemoryStore(), noopOpen, logging.Discard())

	_, err := a.Login(context.Background())
	require.ErrorIs(t, err, oauth.ErrStateMismatch)
	assert.Nil(t, a.Current())
}

func TestAuthService_SilentRefreshOfExpiredToken(t *testing.T) {
	tokens := loginTokens()
	tokens.Expiry = time.Now().Add(-time.Minute)
	idp := &fakeAuthenticator{
		tokens:    tokens,
		refreshed: &oauth2.Token{AccessToken: "at-2", Expiry: time.Now().Add(time.Hour)},
	}
	store := session.NewMemoryStore()
	a := NewAuthService(idp, store, noopOpen, logging.Discard())
	ctx := context.Background()
	_, err := a.Login(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := a.AccessToken(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "at-2", tok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), idp.refreshes.Load(), "concurrent callers share one refresh")
	assert.Equal(t, "rt-1", idp.lastRT)
	assert.Equal(t, "rt-1", a.Current().RefreshToken, "refresh token kept when not rotated")

	stored, _ := store.Load(ctx)
	assert.Equal(t, "at-2", stored.AccessToken)
}

func TestAuthService_RefreshFailureMarksSession(t *testing.T) {
	idp := &fakeAuthenticator{tokens: loginTokens(), refreshErr: errors.New("invalid_grant")}
	a := NewAuthService(idp, session.NewMemoryStore(), noopOpen, logging.Discard())
	ctx := context.Background()
	_, err := a.Login(ctx)
	require.NoError(t, err)

	_, err = a.Refresh(ctx)
	require.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, models.RefreshAccessTokenError, a.Current().Error)

	_, err = a.AccessToken(ctx)
	require.ErrorIs(t, err, ErrRefreshFailed)
	_, err = a.Refresh(ctx)
	require.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, int32(1), idp.refreshes.Load(), "no retry after failure")

	// signing in again clears the error
	idp.refreshErr = nil
	_, err = a.Login(ctx)
	require.NoError(t, err)
	tok, err := a.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok)
}

func TestAuthService_Logout(t *testing.T) {
	store := session.NewMemoryStore()
	a := NewAuthService(&fakeAuthenticator{tokens: loginTokens()}, store, noopOpen, logging.Discard())
	ctx := context.Background()
	_, err := a.Login(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx))
	assert.Nil(t, a.Current())
	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

type unreadableStore struct {
	session.MemoryStore
	cleared bool
}

func (u *unreadableStore) Load(ctx context.Context) (*models.Session, error) {
	return nil, session.ErrUnreadable
}

func (u *unreadableStore) Clear(ctx context.Context) error {
	u.cleared = true
	return nil
}

func TestAuthService_RestoreDiscardsUnreadableSession(t *testing.T) {
	store := &unreadableStore{}
	a := NewAuthService(&fakeAuthenticator{}, store, noopOpen, logging.Discard())

	require.NoError(t, a.Restore(context.Background()))
	assert.True(t, store.cleared)
	assert.Nil(t, a.Current())
}
