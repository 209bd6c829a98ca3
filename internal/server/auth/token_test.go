package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeUpstream) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &UserInfo{Sub: "u-1", Username: "neko", Nickname: "Neko", AvatarImage: "https://cdn.example/a.png"}, nil
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("idp-secret"))
	require.NoError(t, err)
	return tok
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = BearerToken("  bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc", "abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrMissingToken, h)
	}
}

func TestResolve_OpaqueTokenIsCachedForTTL(t *testing.T) {
	up := &fakeUpstream{}
	r := NewResolver(up, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	u, err := r.Resolve(ctx, "opaque")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "Neko", u.DisplayName())

	_, err = r.Resolve(ctx, "opaque")
	require.NoError(t, err)
	assert.Equal(t, 1, up.calls)

	now = now.Add(time.Minute)
	_, err = r.Resolve(ctx, "opaque")
	require.NoError(t, err)
	assert.Equal(t, 2, up.calls)
}

func TestResolve_ExpiredJWTSkipsUpstream(t *testing.T) {
	up := &fakeUpstream{}
	r := NewResolver(up, time.Minute)

	_, err := r.Resolve(context.Background(), signed(t, time.Now().Add(-time.Second)))
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Zero(t, up.calls)
}

func TestResolve_CacheNeverOutlivesJWT(t *testing.T) {
	up := &fakeUpstream{}
	r := NewResolver(up, time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	tok := signed(t, now.Add(10*time.Second))

	_, err := r.Resolve(context.Background(), tok)
	require.NoError(t, err)

	now = now.Add(10 * time.Second)
	_, err = r.Resolve(context.Background(), tok)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 1, up.calls)
}

func TestResolve_UpstreamErrors(t *testing.T) {
	ctx := context.Background()

	r := NewResolver(&fakeUpstream{err: fmt.Errorf("%w: status 401", ErrInvalidToken)}, time.Minute)
	_, err := r.Resolve(ctx, "bad")
	require.ErrorIs(t, err, ErrInvalidToken)

	r = NewResolver(&fakeUpstream{err: ErrUpstream}, time.Minute)
	_, err = r.Resolve(ctx, "tok")
	require.ErrorIs(t, err, ErrUpstream)
	assert.False(t, errors.Is(err, ErrInvalidToken))

	_, err = r.Resolve(ctx, "")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestResolve_CacheStaysBounded(t *testing.T) {
	up := &fakeUpstream{}
	r := NewResolver(up, time.Hour)
	r.maxCached = 3
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	for i := range 5 {
		_, err := r.Resolve(ctx, fmt.Sprintf("tok-%d", i))
		require.NoError(t, err)
		now = now.Add(time.Second)
	}
	assert.Len(t, r.cache, 3)

	// the first tokens expire first, so they were the ones evicted
	_, err := r.Resolve(ctx, "tok-4")
	require.NoError(t, err)
	assert.Equal(t, 5, up.calls)
	_, err = r.Resolve(ctx, "tok-0")
	require.NoError(t, err)
	assert.Equal(t, 6, up.calls)
	assert.Len(t, r.cache, 3)
}
