package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Nekos-API/Nekos.Land/internal/common"
)

// ErrUpstream means the identity provider could not answer.
var ErrUpstream = errors.New("identity provider unavailable")

// UserInfo is the OIDC userinfo answer for an access token.
type UserInfo struct {
	Sub         string `json:"sub"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	AvatarImage string `json:"avatar_image"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// UserInfoClient asks the Nekos API who owns an access token.
type UserInfoClient struct {
	endpoint string
	http     *http.Client
}

// NewUserInfoClient targets {apiBaseURL}/auth/userinfo. A nil httpClient
// gets a 10 second timeout.
func NewUserInfoClient(apiBaseURL string, httpClient *http.Client) *UserInfoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &UserInfoClient{
		endpoint: strings.TrimRight(apiBaseURL, "/") + "/auth/userinfo",
		http:     httpClient,
	}
}

func (c *UserInfoClient) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, ErrMissingToken
	}

	hc := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, c.http),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.UserAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrInvalidToken, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %w", ErrUpstream, err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: userinfo without sub", ErrUpstream)
	}
	return &info, nil
}
