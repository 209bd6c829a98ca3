package client

import (
	"context"
	"net/http"
	"net/url"
)

// Reporter files image reports. Both HTTPClient and Relay implement it.
type Reporter interface {
	ReportImage(ctx context.Context, imageID, reason string) error
}

type relayReport struct {
	ImageID string `json:"imageID"`
	Message string `json:"message"`
}

// Relay reports images through a Nekos.Land report relay, which forwards
// them to the moderators' Discord channel.
type Relay struct {
	c *HTTPClient
}

// NewRelay returns a relay client for baseURL (the relay's origin).
func NewRelay(baseURL string, httpClient *http.Client, tokens TokenSource) *Relay {
	return &Relay{c: NewHTTPClient(baseURL, httpClient, tokens)}
}

func (r *Relay) ReportImage(ctx context.Context, imageID, reason string) error {
	return r.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/nekos-api/images/" + url.PathEscape(imageID) + "/report",
		body:   relayReport{ImageID: imageID, Message: reason},
		accept: "application/json",
	}, nil)
}
