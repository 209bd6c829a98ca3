// Package auth resolves the bearer tokens of incoming relay requests to
// Nekos API accounts.
package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// maxCached bounds the token cache. When it is full, expired entries are
// swept and, failing that, the entry closest to expiry is evicted.
const maxCached = 1024

// UserInfoFetcher resolves an access token with the identity provider.
type UserInfoFetcher interface {
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

type cachedUser struct {
	user  models.User
	until time.Time
}

// Resolver maps bearer tokens to users. Answers are cached for the
// configured TTL, never past the token's own expiry.
type Resolver struct {
	upstream UserInfoFetcher
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cache     map[[32]byte]cachedUser
	maxCached int
}

func NewResolver(upstream UserInfoFetcher, ttl time.Duration) *Resolver {
	return &Resolver{
		upstream: upstream,
		ttl:      ttl,
		now:      time.Now,
		cache:    make(map[[32]byte]cachedUser),

		maxCached: maxCached,
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// tokenExpiry reads exp from a JWT access token without verifying it. The
// signature is checked by the identity provider; this only saves a round
// trip for tokens that are already dead. Opaque tokens report ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	now := r.now()
	exp, isJWT := tokenExpiry(token)
	if isJWT && !now.Before(exp) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	key := sha256.Sum256([]byte(token))
	r.mu.Lock()
	c, ok := r.cache[key]
	r.mu.Unlock()
	if ok && now.Before(c.until) {
		u := c.user
		return &u, nil
	}

	info, err := r.upstream.UserInfo(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrMissingToken) {
			return nil, err
		}
		return nil, fmt.Errorf("userinfo: %w", err)
	}

	u := models.User{
		ID:          info.Sub,
		Username:    info.Username,
		Nickname:    info.Nickname,
		AvatarImage: info.AvatarImage,
		IsStaff:     info.IsStaff,
	}
	until := now.Add(r.ttl)
	if isJWT && exp.Before(until) {
		until = exp
	}

	r.mu.Lock()
	if _, cached := r.cache[key]; !cached && len(r.cache) >= r.maxCached {
		r.evictLocked(now)
	}
	r.cache[key] = cachedUser{user: u, until: until}
	r.mu.Unlock()

	return &u, nil
}

// evictLocked drops expired entries, or the one expiring first when every
// entry is still live.
func (r *Resolver) evictLocked(now time.Time) {
	var (
		oldest   [32]byte
		oldestAt time.Time
		found    bool
	)
	for k, c := range r.cache {
		if !now.Before(c.until) {
			delete(r.cache, k)
			continue
		}
		if !found || c.until.Before(oldestAt) {
			oldest, oldestAt, found = k, c.until, true
		}
	}
	if len(r.cache) >= r.maxCached && found {
		delete(r.cache, oldest)
	}
}
