package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Nekos-API/Nekos.Land/internal/client/client"
	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/debounce"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
)

// DefaultUsernameDelay is the quiet period before a username is checked.
const DefaultUsernameDelay = time.Second

type UsernameStatus string

const (
	UsernameIdle        UsernameStatus = ""
	UsernameInvalid     UsernameStatus = "invalid"
	UsernameShort       UsernameStatus = "short"
	UsernameLoading     UsernameStatus = "loading"
	UsernameAvailable   UsernameStatus = "available"
	UsernameUnavailable UsernameStatus = "unavailable"
	UsernameError       UsernameStatus = "error"
)

type UsernameResult struct {
	Username string
	Status   UsernameStatus
	Err      error
}

// UsernameChecker checks username availability as the user types. Only the
// latest input is ever checked, and a lookup that has been superseded never
// publishes its result.
type UsernameChecker struct {
	mu       sync.Mutex
	api      client.Client
	current  func() string
	onChange func(UsernameResult)
	log      logging.Logger
	d        *debounce.Debouncer
	result   UsernameResult
}

// NewUsernameChecker returns a checker. current yields the user's present
// username, which always counts as available. onChange may be nil.
func NewUsernameChecker(ctx context.Context, api client.Client, current func() string, delay time.Duration, onChange func(UsernameResult), log logging.Logger) *UsernameChecker {
	if delay <= 0 {
		delay = DefaultUsernameDelay
	}
	return &UsernameChecker{
		api:      api,
		current:  current,
		onChange: onChange,
		log:      log,
		d:        debounce.New(ctx, delay),
	}
}

// classify applies the checks that need no network. It returns
// UsernameLoading when a server lookup is required.
func classify(username, current string) UsernameStatus {
	switch {
	case !usernamePattern.MatchString(username):
		return UsernameInvalid
	case len(username) < models.UsernameMinLen:
		return UsernameShort
	case current != "" && strings.EqualFold(username, current):
		return UsernameAvailable
	}
	return UsernameLoading
}

// Input records a keystroke. The check runs once input has been quiet for
// the configured delay.
func (c *UsernameChecker) Input(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.d.Trigger(func(ctx context.Context, gen uint64) {
		c.run(ctx, gen, username)
	})
}

func (c *UsernameChecker) run(ctx context.Context, gen uint64, username string) {
	status := classify(username, c.current())
	if !c.publish(gen, UsernameResult{Username: username, Status: status}) || status != UsernameLoading {
		return
	}

	taken, err := c.api.UsernameTaken(ctx, username)
	res := UsernameResult{Username: username, Status: UsernameAvailable}
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		c.log.Warn(ctx, "username lookup failed", "username", username, "error", err)
		res.Status, res.Err = UsernameError, err
	case taken:
		res.Status = UsernameUnavailable
	}
	c.publish(gen, res)
}

// publish stores res unless gen has been superseded.
func (c *UsernameChecker) publish(gen uint64, res UsernameResult) bool {
	c.mu.Lock()
	if !c.d.IsCurrent(gen) {
		c.mu.Unlock()
		return false
	}
	c.result = res
	cb := c.onChange
	c.mu.Unlock()

	if cb != nil {
		cb(res)
	}
	return true
}

func (c *UsernameChecker) Result() UsernameResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Stop cancels any pending or running check.
func (c *UsernameChecker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.d.Stop()
}
