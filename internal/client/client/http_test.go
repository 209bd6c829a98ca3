package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const randomImageJSON = `{
  "data": {
    "type": "image",
    "id": "img-1",
    "attributes": {
      "file": "https://cdn.nekosapi.com/images/original/img-1.webp",
      "ageRating": "sfw",
      "verificationStatus": "on_review",
      "colors": {"dominant": "#ff8040", "palette": ["#ff8040", "#102030"]},
      "source": {"url": "https://www.pixiv.net/artworks/1", "name": "Pixiv"}
    },
    "relationships": {"artist": {"data": {"type": "artist", "id": "art-1"}}},
    "meta": {"user": {"liked": true, "saved": false}}
  },
  "included": [
    {"type": "character", "id": "c-1", "attributes": {}},
    {
      "type": "artist",
      "id": "art-1",
      "attributes": {"name": "Neko", "imageUrl": "https://cdn/a.png", "aliases": ["N"], "officialLinks": ["https://twitter.com/neko"]},
      "meta": {"user": {"isFollowing": true}}
    }
  ]
}`

type staticTokens struct {
	token     string
	refreshed string
	refreshes atomic.Int32
	err       error
}

func (s *staticTokens) AccessToken(ctx context.Context) (string, error) { return s.token, nil }
func (s *staticTokens) Refresh(ctx context.Context) (string, error) {
	s.refreshes.Add(1)
	return s.refreshed, s.err
}

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) *HTTPClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewHTTPClient(ts.URL+"/v2/", ts.Client(), tokens)
}

func TestRandomImage_RequestAndDecoding(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = io.WriteString(w, randomImageJSON)
	}, &staticTokens{token: "at-1"})

	img, err := c.RandomImage(context.Background(), models.DefaultRatingSet())
	require.NoError(t, err)

	assert.Equal(t, "/v2/images/random", got.URL.Path)
	assert.Equal(t, "verified,on_review,not_reviewed", got.URL.Query().Get("filter[verificationStatus.in]"))
	assert.Equal(t, "sfw,questionable", got.URL.Query().Get("filter[ageRating.in]"))
	assert.Equal(t, "application/vnd.api+json", got.Header.Get("Accept"))
	assert.Equal(t, "Bearer at-1", got.Header.Get("Authorization"))

	assert.Equal(t, "img-1", img.ID)
	assert.Equal(t, models.RatingSFW, img.AgeRating)
	assert.Equal(t, models.StatusOnReview, img.VerificationStatus)
	assert.Equal(t, "#ff8040", img.Dominant)
	assert.Equal(t, []string{"#ff8040", "#102030"}, img.Palette)
	assert.Equal(t, "Pixiv", img.SourceName)
	assert.True(t, img.Liked)
	assert.False(t, img.Saved)

	require.NotNil(t, img.Artist)
	assert.Equal(t, "art-1", img.Artist.ID)
	assert.Equal(t, "Neko", img.Artist.Name)
	assert.True(t, img.Artist.IsFollowing)
	assert.Equal(t, []string{"https://twitter.com/neko"}, img.Artist.Links)
}

func TestRequests_AnonymousWithoutTokenSource(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"data":{"type":"image","id":"x","attributes":{}}}`)
	}, nil)

	img, err := c.Image(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, auth)
	assert.Nil(t, img.Artist)
}

func TestErrors_StatusMapping(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrUnexpectedStatus},
		{http.StatusTooManyRequests, ErrUnexpectedStatus},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, `{"errors":[]}`)
			}, nil)

			_, err := c.Artist(context.Background(), "a")
			require.ErrorIs(t, err, tt.want)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, "/artists/a", se.Path)
		})
	}
}

func TestErrors_MalformedPayload(t *testing.T) {
	for name, body := range map[string]string{
		"not json":    `<html>`,
		"no data":     `{"meta":{}}`,
		"missing id":  `{"data":{"type":"image"}}`,
		"bad attribs": `{"data":{"type":"image","id":"1","attributes":{"colors":"red"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}, nil)
			_, err := c.Image(context.Background(), "1")
			require.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestErrors_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := ts.URL
	ts.Close()

	c := NewHTTPClient(base, nil, nil)
	_, err := c.RandomImage(context.Background(), models.DefaultRatingSet())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_RefreshesAfter401WithoutResending(t *testing.T) {
	var calls atomic.Int32
	tokens := &staticTokens{token: "stale", refreshed: "fresh"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"type":"user","id":"u-1","attributes":{"username":"neko"}}}`)
	}, tokens)

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), tokens.refreshes.Load())
}

func TestSetRelationship_SingleRequestAfter401(t *testing.T) {
	var posts atomic.Int32
	tokens := &staticTokens{token: "old", refreshed: "new"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		if r.Header.Get("Authorization") == "Bearer old" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}, tokens)

	err := c.SetRelationship(context.Background(), LikedImages, "u1", "img1", true)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), posts.Load(), "a toggle sends one request")
	assert.Equal(t, int32(1), tokens.refreshes.Load())
}

func TestDo_RefreshFailureKeepsUnauthorized(t *testing.T) {
	tokens := &staticTokens{token: "stale", err: assert.AnError}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, tokens)

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int32(1), tokens.refreshes.Load())
}

func TestDo_NoRefreshOn403(t *testing.T) {
	tokens := &staticTokens{token: "t", refreshed: "t2"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, tokens)

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, tokens.refreshes.Load())
}

func TestSetRelationship(t *testing.T) {
	tests := []struct {
		rel        Relationship
		on         bool
		wantMethod string
		wantType   string
	}{
		{LikedImages, true, http.MethodPost, "image"},
		{SavedImages, false, http.MethodDelete, "image"},
		{FollowedArtists, true, http.MethodPost, "artist"},
	}
	for _, tt := range tests {
		t.Run(string(tt.rel), func(t *testing.T) {
			var (
				method, path, ct string
				body             relationshipBody
			)
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				method, path, ct = r.Method, r.URL.Path, r.Header.Get("Content-Type")
				_ = json.NewDecoder(r.Body).Decode(&body)
				w.WriteHeader(http.StatusNoContent)
			}, &staticTokens{token: "t"})

			require.NoError(t, c.SetRelationship(context.Background(), tt.rel, "u-1", "obj-9", tt.on))

			assert.Equal(t, tt.wantMethod, method)
			assert.Equal(t, "/v2/users/u-1/relationships/"+string(tt.rel), path)
			assert.Equal(t, "application/vnd.api+json", ct)
			assert.Equal(t, []identifier{{Type: tt.wantType, ID: "obj-9"}}, body.Data)
		})
	}
}

func TestArtistImages_PageQuery(t *testing.T) {
	var q map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q = map[string]string{
			"artist": r.URL.Query().Get("filter[artist.id]"),
			"limit":  r.URL.Query().Get("page[limit]"),
			"offset": r.URL.Query().Get("page[offset]"),
		}
		_, _ = io.WriteString(w, `{"data":[{"type":"image","id":"1","attributes":{}},{"type":"image","id":"2","attributes":{}}]}`)
	}, nil)

	imgs, err := c.ArtistImages(context.Background(), "art-1", 24, 48)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"artist": "art-1", "limit": "24", "offset": "48"}, q)
	require.Len(t, imgs, 2)
	assert.Equal(t, "2", imgs[1].ID)
}

func TestArtist_Counts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"type":"artist","id":"a","attributes":{"name":"Neko","aliases":[],"officialLinks":[]},
			"relationships":{"followers":{"meta":{"count":12}},"images":{"meta":{"count":50}}},
			"meta":{"user":{"isFollowing":false}}}}`)
	}, nil)

	a, err := c.Artist(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 12, a.FollowerCount)
	assert.Equal(t, 50, a.ImageCount)
	assert.False(t, a.IsFollowing)
}

func TestReportImage(t *testing.T) {
	var method, path, reason string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path, reason = r.Method, r.URL.Path, r.URL.Query().Get("reason")
		w.WriteHeader(http.StatusNoContent)
	}, &staticTokens{token: "t"})

	require.NoError(t, c.ReportImage(context.Background(), "img-1", "wrong rating & artist"))
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/v2/images/img-1/report", path)
	assert.Equal(t, "wrong rating & artist", reason)
}

func TestUpdateUser(t *testing.T) {
	var body userPatchBody
	var method string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"data":{"type":"user","id":"u-1","attributes":{"username":"neko_2","nickname":"Neko","biography":"hi","email":"neko@example.com"}}}`)
	}, &staticTokens{token: "t"})

	u, err := c.UpdateUser(context.Background(), models.User{ID: "u-1", Username: "neko_2", Nickname: "Neko", Biography: "hi", Email: "ignored@x"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "user", body.Data.Type)
	assert.Equal(t, "u-1", body.Data.ID)
	assert.Equal(t, userAttributes{Username: "neko_2", Nickname: "Neko", Biography: "hi"}, body.Data.Attributes)
	assert.Equal(t, "neko@example.com", u.Email)
}

func TestUpdateUser_NoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, &staticTokens{token: "t"})

	u, err := c.UpdateUser(context.Background(), models.User{ID: "u-1", Username: "neko"})
	require.NoError(t, err)
	assert.Equal(t, "neko", u.Username)
}

func TestUsernameTaken(t *testing.T) {
	var fields, filter string
	taken := true
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fields = r.URL.Query().Get("fields[user]")
		filter = r.URL.Query().Get("filter[username.iexact]")
		if taken {
			_, _ = io.WriteString(w, `{"data":[{"type":"user","id":"u-2","attributes":{"username":"neko"}}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":[]}`)
	}, &staticTokens{token: "t"})

	got, err := c.UsernameTaken(context.Background(), "neko")
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, "username", fields)
	assert.Equal(t, "neko", filter)

	taken = false
	got, err = c.UsernameTaken(context.Background(), "fresh_name")
	require.NoError(t, err)
	assert.False(t, got)
}
