// Package client talks to the Nekos API v2.
//
// The Client interface covers everything the terminal client and the report
// relay need: random and pinned images, artists and their galleries,
// relationship toggles, reports, the signed-in user's profile and OIDC
// userinfo. HTTPClient implements it over JSON:API.
//
// # Authentication
//
// Requests carry a bearer token taken from a TokenSource. When the API
// answers 401 and a token was sent, HTTPClient asks the TokenSource for a
// fresh token once and repeats the request.
//
// # Errors
//
// Transport failures wrap ErrUnavailable. Non-2xx answers are returned as
// *StatusError, which matches ErrUnauthorized, ErrNotFound or
// ErrUnexpectedStatus with errors.Is. Bodies that do not decode wrap
// ErrMalformedPayload.
package client
