// Package oauth signs a terminal user in against the Nekos API identity
// provider with the authorization-code flow, PKCE (S256), state and nonce.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested on every sign-in.
var DefaultScopes = []string{"account:public:retrieve", "openid"}

var (
	ErrStateMismatch       = errors.New("oauth state mismatch")
	ErrNonceMismatch       = errors.New("id token nonce mismatch")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrMissingIDToken      = errors.New("token response without id_token")
)

// Config describes the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Claims are the id_token claims the client reads.
type Claims struct {
	jwt.RegisteredClaims
	Nonce       string `json:"nonce"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	AvatarImage string `json:"avatar_image"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Tokens is the outcome of a successful sign-in.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Claims       Claims
}

// Flow is one pending sign-in attempt.
type Flow struct {
	State    string
	Nonce    string
	Verifier string
	URL      string

	cfg *oauth2.Config
}

// CallbackResult carries the query parameters of the redirect.
type CallbackResult struct {
	Code  string
	State string
	Error string
}

type Provider struct {
	cfg        oauth2.Config
	httpClient *http.Client
}

// NewProvider returns a provider for c. httpClient is used for the token
// endpoint; nil means http.DefaultClient.
func NewProvider(c Config, httpClient *http.Client) *Provider {
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &Provider{
		cfg: oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   c.AuthURL,
				TokenURL:  c.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

// RedirectURL is the configured redirect target.
func (p *Provider) RedirectURL() string {
	return p.cfg.RedirectURL
}

// Begin starts a flow redirecting to redirectURL, or to the configured
// redirect when redirectURL is empty.
func (p *Provider) Begin(redirectURL string) *Flow {
	cfg := p.cfg
	if redirectURL != "" {
		cfg.RedirectURL = redirectURL
	}

	f := &Flow{
		State:    uuid.NewString(),
		Nonce:    uuid.NewString(),
		Verifier: oauth2.GenerateVerifier(),
		cfg:      &cfg,
	}
	f.URL = cfg.AuthCodeURL(f.State,
		oauth2.S256ChallengeOption(f.Verifier),
		oauth2.SetAuthURLParam("nonce", f.Nonce),
	)
	return f
}

// Exchange validates the callback against f and trades the code for tokens.
func (p *Provider) Exchange(ctx context.Context, f *Flow, cb CallbackResult) (*Tokens, error) {
	if cb.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrAuthorizationDenied, cb.Error)
	}
	if cb.State != f.State {
		return nil, ErrStateMismatch
	}

	tok, err := f.cfg.Exchange(p.context(ctx), cb.Code, oauth2.VerifierOption(f.Verifier))
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, ErrMissingIDToken
	}
	claims, err := ParseIDToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.Nonce != f.Nonce {
		return nil, ErrNonceMismatch
	}

	return &Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Claims:       *claims,
	}, nil
}

// Refresh redeems refreshToken. When the provider does not rotate the
// refresh token the old one is kept.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ts := p.cfg.TokenSource(p.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// ParseIDToken decodes the claims of an id_token received straight from the
// token endpoint over TLS. The signature is not checked.
func ParseIDToken(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("parse id token: %w", jwt.ErrTokenInvalidSubject)
	}
	return claims, nil
}

func (p *Provider) context(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
