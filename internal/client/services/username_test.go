package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 10 * time.Millisecond

func newChecker(t *testing.T, api *fakeAPI) (*UsernameChecker, chan UsernameResult) {
	t.Helper()
	results := make(chan UsernameResult, 16)
	c := NewUsernameChecker(context.Background(), api, func() string { return "Neko" }, testDelay,
		func(r UsernameResult) { results <- r }, logging.Discard())
	t.Cleanup(c.Stop)
	return c, results
}

func next(t *testing.T, ch chan UsernameResult) UsernameResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("no username result")
		return UsernameResult{}
	}
}

func TestUsernameChecker_LocalRulesNeedNoNetwork(t *testing.T) {
	unreachable := &fakeAPI{usernameTaken: func(ctx context.Context, u string) (bool, error) {
		return false, errors.New("unreachable")
	}}

	tests := []struct {
		input string
		want  UsernameStatus
	}{
		{"Neko_Chan", UsernameInvalid},
		{"neko chan", UsernameInvalid},
		{"né", UsernameInvalid},
		{"ab!", UsernameInvalid},
		{"", UsernameInvalid},
		{"abc", UsernameShort},
		{"a.b", UsernameShort},
		{"neko", UsernameAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, results := newChecker(t, unreachable)
			c.Input(tt.input)
			r := next(t, results)
			assert.Equal(t, tt.want, r.Status)
			assert.Equal(t, tt.input, r.Username)
		})
	}
	assert.Zero(t, unreachable.lookupCount())
}

func TestUsernameChecker_ServerLookup(t *testing.T) {
	api := &fakeAPI{usernameTaken: func(ctx context.Context, u string) (bool, error) {
		return u == "taken", nil
	}}

	c, results := newChecker(t, api)
	c.Input("taken")
	assert.Equal(t, UsernameLoading, next(t, results).Status)
	assert.Equal(t, UsernameUnavailable, next(t, results).Status)

	c.Input("free_name")
	assert.Equal(t, UsernameLoading, next(t, results).Status)
	r := next(t, results)
	assert.Equal(t, UsernameAvailable, r.Status)
	assert.Equal(t, r, c.Result())
}

func TestUsernameChecker_LookupError(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeAPI{usernameTaken: func(ctx context.Context, u string) (bool, error) { return false, boom }}

	c, results := newChecker(t, api)
	c.Input("someone")
	assert.Equal(t, UsernameLoading, next(t, results).Status)
	r := next(t, results)
	assert.Equal(t, UsernameError, r.Status)
	assert.ErrorIs(t, r.Err, boom)
}

func TestUsernameChecker_OnlyLatestInputIsChecked(t *testing.T) {
	api := &fakeAPI{usernameTaken: func(ctx context.Context, u string) (bool, error) { return false, nil }}

	c, results := newChecker(t, api)
	for _, v := range []string{"n", "ne", "nek", "nekom", "nekomi"} {
		c.Input(v)
	}
	assert.Equal(t, UsernameLoading, next(t, results).Status)
	r := next(t, results)
	assert.Equal(t, "nekomi", r.Username)
	assert.Equal(t, 1, api.lookupCount())
}

func TestUsernameChecker_SupersededLookupNeverPublishes(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	api := &fakeAPI{usernameTaken: func(ctx context.Context, u string) (bool, error) {
		if u == "slowname" {
			entered <- struct{}{}
			<-release
			return true, nil
		}
		return false, nil
	}}

	c, results := newChecker(t, api)
	c.Input("slowname")
	assert.Equal(t, UsernameLoading, next(t, results).Status)
	<-entered

	c.Input("abc")
	r := next(t, results)
	assert.Equal(t, UsernameShort, r.Status)

	close(release)
	select {
	case r := <-results:
		t.Fatalf("superseded lookup published %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
	require.Equal(t, UsernameShort, c.Result().Status)
}
