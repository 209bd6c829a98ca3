package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/common"
	"github.com/google/go-querystring/query"
)

// DefaultTimeout bounds every API round trip when no http.Client is given.
const DefaultTimeout = 20 * time.Second

const maxBodySize = 4 << 20

type randomImageParams struct {
	VerificationStatus string `url:"filter[verificationStatus.in]"`
	AgeRating          string `url:"filter[ageRating.in]"`
}

type artistImagesParams struct {
	ArtistID string `url:"filter[artist.id]"`
	Limit    int    `url:"page[limit]"`
	Offset   int    `url:"page[offset]"`
}

type usernameLookupParams struct {
	Fields   string `url:"fields[user]"`
	Username string `url:"filter[username.iexact]"`
}

type reportParams struct {
	Reason string `url:"reason"`
}

type request struct {
	method string
	path   string
	query  any
	body   any
	accept string
}

// HTTPClient implements Client over the Nekos API's JSON:API surface.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewHTTPClient returns a client for baseURL. tokens may be nil for
// anonymous use; httpClient may be nil for a client with DefaultTimeout.
func NewHTTPClient(baseURL string, httpClient *http.Client, tokens TokenSource) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

func (c *HTTPClient) RandomImage(ctx context.Context, ratings models.RatingSet) (*models.Image, error) {
	statuses := make([]string, len(models.FeedStatuses))
	for i, s := range models.FeedStatuses {
		statuses[i] = string(s)
	}

	var doc document
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/images/random",
		query: randomImageParams{
			VerificationStatus: strings.Join(statuses, ","),
			AgeRating:          ratings.String(),
		},
	}, &doc)
	if err != nil {
		return nil, err
	}
	return imageFromDocument(&doc)
}

func (c *HTTPClient) Image(ctx context.Context, id string) (*models.Image, error) {
	var doc document
	if err := c.do(ctx, request{method: http.MethodGet, path: "/images/" + url.PathEscape(id)}, &doc); err != nil {
		return nil, err
	}
	return imageFromDocument(&doc)
}

func imageFromDocument(doc *document) (*models.Image, error) {
	r, err := doc.single()
	if err != nil {
		return nil, err
	}
	return toImage(r, doc.Included)
}

func (c *HTTPClient) Artist(ctx context.Context, id string) (*models.Artist, error) {
	var doc document
	if err := c.do(ctx, request{method: http.MethodGet, path: "/artists/" + url.PathEscape(id)}, &doc); err != nil {
		return nil, err
	}
	r, err := doc.single()
	if err != nil {
		return nil, err
	}
	return toArtist(r)
}

func (c *HTTPClient) ArtistImages(ctx context.Context, artistID string, limit, offset int) ([]models.Image, error) {
	var doc document
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/images",
		query:  artistImagesParams{ArtistID: artistID, Limit: limit, Offset: offset},
	}, &doc)
	if err != nil {
		return nil, err
	}

	rs, err := doc.many()
	if err != nil {
		return nil, err
	}
	out := make([]models.Image, 0, len(rs))
	for _, r := range rs {
		img, err := toImage(r, doc.Included)
		if err != nil {
			return nil, err
		}
		out = append(out, *img)
	}
	return out, nil
}

// SetRelationship adds (on) or removes objectID from the user's collection.
func (c *HTTPClient) SetRelationship(ctx context.Context, rel Relationship, userID, objectID string, on bool) error {
	method := http.MethodDelete
	if on {
		method = http.MethodPost
	}
	return c.do(ctx, request{
		method: method,
		path:   "/users/" + url.PathEscape(userID) + "/relationships/" + string(rel),
		body:   relationshipBody{Data: []identifier{{Type: rel.objectType(), ID: objectID}}},
	}, nil)
}

func (c *HTTPClient) ReportImage(ctx context.Context, imageID, reason string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/images/" + url.PathEscape(imageID) + "/report",
		query:  reportParams{Reason: reason},
	}, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var doc document
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/@me"}, &doc); err != nil {
		return nil, err
	}
	r, err := doc.single()
	if err != nil {
		return nil, err
	}
	return toUser(r)
}

// UpdateUser patches username, nickname and biography. When the API answers
// without a document the submitted values are returned.
func (c *HTTPClient) UpdateUser(ctx context.Context, u models.User) (*models.User, error) {
	var body userPatchBody
	body.Data.Type = "user"
	body.Data.ID = u.ID
	body.Data.Attributes = userAttributes{Username: u.Username, Nickname: u.Nickname, Biography: u.Biography}

	var doc document
	err := c.do(ctx, request{method: http.MethodPatch, path: "/users/" + url.PathEscape(u.ID), body: body}, &doc)
	if err != nil {
		return nil, err
	}
	if len(doc.Data) == 0 {
		updated := u
		return &updated, nil
	}
	r, err := doc.single()
	if err != nil {
		return nil, err
	}
	return toUser(r)
}

// UsernameTaken looks username up case-insensitively.
func (c *HTTPClient) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var doc document
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/users",
		query:  usernameLookupParams{Fields: "username", Username: username},
	}, &doc)
	if err != nil {
		return false, err
	}
	rs, err := doc.many()
	if err != nil {
		return false, err
	}
	return len(rs) > 0, nil
}

func (c *HTTPClient) do(ctx context.Context, req request, out any) error {
	var token string
	if c.tokens != nil {
		t, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	err := c.send(ctx, req, token, out)

	var se *StatusError
	if token == "" || !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		return err
	}

	// The request is not replayed. Refreshing here only repairs the session
	// for the next call, or marks it as needing a new sign-in.
	if _, rerr := c.tokens.Refresh(ctx); rerr != nil {
		return fmt.Errorf("%w: %w", err, rerr)
	}
	return err
}

func (c *HTTPClient) send(ctx context.Context, req request, token string, out any) error {
	target := c.baseURL + req.path
	if req.query != nil {
		v, err := query.Values(req.query)
		if err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
		if enc := v.Encode(); enc != "" {
			target += "?" + enc
		}
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return err
	}
	accept := req.accept
	if accept == "" {
		accept = common.JSONAPIMediaType
	}
	hr.Header.Set("Accept", accept)
	hr.Header.Set("User-Agent", common.UserAgent)
	if req.body != nil {
		hr.Header.Set("Content-Type", common.JSONAPIMediaType)
	}
	if token != "" {
		hr.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: req.method, Path: req.path, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return malformed("body", err)
	}
	return nil
}
