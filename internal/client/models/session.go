package models

import "time"

// RefreshAccessTokenError marks a session whose silent refresh failed. Such
// a session must not be used; the user has to sign in again.
const RefreshAccessTokenError = "RefreshAccessTokenError"

// Session is the signed-in user's identity and token pair.
type Session struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	AvatarImage  string    `json:"avatar_image,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	Error        string    `json:"error,omitempty"`
}

// Valid reports whether s can authorize requests.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.Error == ""
}

// Expired reports whether the access token is past its expiry at now.
// A zero Expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.Expiry.IsZero() && !now.Before(s.Expiry)
}
