// Package discord posts messages to a Discord webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/common"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured = errors.New("webhook url not configured")
	ErrRejected      = errors.New("webhook rejected the message")
)

type Author struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color"`
	Author      *Author `json:"author,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Message struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

// Sender delivers messages to a chat channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Webhook sends through one webhook URL. Sends wait for the limiter, so a
// burst of reports queues up instead of hitting Discord's rate limit.
type Webhook struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
}

// NewWebhook returns a sender for url. A nil limiter means no limit; a nil
// httpClient gets a 10 second timeout.
func NewWebhook(url string, httpClient *http.Client, limiter *rate.Limiter) *Webhook {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Webhook{url: url, http: httpClient, limiter: limiter}
}

func (w *Webhook) Send(ctx context.Context, msg Message) error {
	if w.url == "" {
		return ErrNotConfigured
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", common.UserAgent)

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
