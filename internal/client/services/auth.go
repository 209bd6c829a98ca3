// Package services contains the application services behind the terminal
// client: sign-in and session upkeep, the random feed, artist galleries,
// reports, profile settings and image archiving.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/client/oauth"
	"github.com/Nekos-API/Nekos.Land/internal/client/repositories/session"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"golang.org/x/oauth2"
)

var (
	ErrNotLoggedIn   = errors.New("not logged in")
	ErrRefreshFailed = errors.New("session refresh failed, sign in again")
)

// expirySkew refreshes tokens slightly before they actually expire.
const expirySkew = 30 * time.Second

// Authenticator is the identity provider as seen by AuthService.
type Authenticator interface {
	Login(ctx context.Context, open oauth.Opener) (*oauth.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// SessionReader exposes the current session to services that act on the
// user's behalf.
type SessionReader interface {
	// Current returns a copy of the session, or nil when signed out.
	Current() *models.Session
}

// AuthService owns the session. It is the only component that writes it,
// and it doubles as the API client's token source.
//
// AccessToken returns "" for anonymous use, refreshes an expired token
// silently, and fails with ErrRefreshFailed once a refresh has failed until
// the user signs in again.
type AuthService interface {
	SessionReader
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
	Restore(ctx context.Context) error
	Login(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
}

type authService struct {
	mu       sync.Mutex
	provider Authenticator
	store    session.Store
	open     oauth.Opener
	log      logging.Logger
	now      func() time.Time
	s        *models.Session
}

// NewAuthService returns a signed-out AuthService. Call Restore to pick up
// a session saved by an earlier run.
func NewAuthService(provider Authenticator, store session.Store, open oauth.Opener, log logging.Logger) AuthService {
	return &authService{
		provider: provider,
		store:    store,
		open:     open,
		log:      log,
		now:      time.Now,
	}
}

func (a *authService) Current() *models.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.s == nil {
		return nil
	}
	cp := *a.s
	return &cp
}

func (a *authService) Restore(ctx context.Context) error {
	s, err := a.store.Load(ctx)
	if errors.Is(err, session.ErrUnreadable) {
		a.log.Warn(ctx, "discarding unreadable stored session", "error", err)
		return a.store.Clear(ctx)
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	a.mu.Lock()
	a.s = s
	a.mu.Unlock()
	return nil
}

func (a *authService) Login(ctx context.Context) (*models.Session, error) {
	tokens, err := a.provider.Login(ctx, a.open)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	c := tokens.Claims
	s := &models.Session{
		UserID:       c.Subject,
		Username:     c.Username,
		DisplayName:  c.Nickname,
		AvatarImage:  c.AvatarImage,
		IsActive:     c.IsActive,
		IsStaff:      c.IsStaff,
		IsSuperuser:  c.IsSuperuser,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       tokens.Expiry,
	}
	if s.DisplayName == "" {
		s.DisplayName = s.Username
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.s = s
	if err := a.store.Save(ctx, s); err != nil {
		a.log.Error(ctx, "failed to persist session", "error", err)
	}
	a.log.Info(ctx, "signed in", "user", s.Username)

	cp := *s
	return &cp, nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.s = nil
	a.mu.Unlock()

	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (a *authService) AccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.s == nil:
		return "", nil
	case a.s.Error != "":
		return "", ErrRefreshFailed
	case a.s.Expired(a.now().Add(expirySkew)) && a.s.RefreshToken != "":
		return a.refreshLocked(ctx)
	}
	return a.s.AccessToken, nil
}

func (a *authService) Refresh(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.s == nil {
		return "", ErrNotLoggedIn
	}
	if a.s.Error != "" {
		return "", ErrRefreshFailed
	}
	return a.refreshLocked(ctx)
}

// refreshLocked holds the lock across the token request so concurrent
// callers wait for one refresh instead of racing their own.
func (a *authService) refreshLocked(ctx context.Context) (string, error) {
	tok, err := a.provider.Refresh(ctx, a.s.RefreshToken)
	if err != nil {
		a.s.Error = models.RefreshAccessTokenError
		a.persistLocked(ctx)
		a.log.Warn(ctx, "token refresh failed", "user", a.s.Username, "error", err)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	a.s.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		a.s.RefreshToken = tok.RefreshToken
	}
	a.s.Expiry = tok.Expiry
	a.s.Error = ""
	a.persistLocked(ctx)
	a.log.Debug(ctx, "access token refreshed", "expiry", tok.Expiry)
	return a.s.AccessToken, nil
}

func (a *authService) persistLocked(ctx context.Context) {
	if err := a.store.Save(ctx, a.s); err != nil {
		a.log.Error(ctx, "failed to persist session", "error", err)
	}
}
