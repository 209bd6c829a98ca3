// Package optimistic implements boolean view state that flips immediately on
// user action and converges on the server's answer afterwards.
//
// Every Set is tagged with a per-toggle sequence number. Only the outcome of
// the most recently issued request decides whether the visible value rolls
// back; older outcomes are stale and only advance the last confirmed value.
package optimistic

import (
	"context"
	"sync"
)

// SendFunc performs the remote mutation for the requested target state.
// It is called exactly once per Set and never retried.
type SendFunc func(ctx context.Context, target bool) error

// FailureFunc is notified when a request fails. stale is true when a newer
// request had already been issued by the time the failure arrived.
type FailureFunc func(ctx context.Context, target bool, stale bool, err error)

// Toggle holds one optimistic boolean (liked, saved, following).
// The zero value is ready to use and starts as false.
type Toggle struct {
	mu sync.Mutex

	value        bool
	confirmed    bool
	confirmedSeq uint64
	issued       uint64
	pending      int
	latestFailed bool

	onFailure FailureFunc
}

// New returns a toggle initialised to v.
func New(v bool, onFailure FailureFunc) *Toggle {
	return &Toggle{value: v, confirmed: v, onFailure: onFailure}
}

// Value returns the currently displayed state.
func (t *Toggle) Value() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Pending reports how many issued requests have not resolved yet.
func (t *Toggle) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Reset re-bases the toggle on fresh server data. Requests still in flight
// become stale: their outcomes are ignored.
func (t *Toggle) Reset(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.issued++
	t.value = v
	t.confirmed = v
	t.confirmedSeq = t.issued
	t.latestFailed = false
}

// Set shows target immediately, then calls send. It returns send's error.
// The visible value is rolled back to the last confirmed state only if this
// call is still the latest one when it fails.
func (t *Toggle) Set(ctx context.Context, target bool, send SendFunc) error {
	t.mu.Lock()
	t.issued++
	seq := t.issued
	t.value = target
	t.pending++
	t.latestFailed = false
	t.mu.Unlock()

	err := send(ctx, target)

	t.mu.Lock()
	t.pending--

	// Reset advances confirmedSeq, so outcomes of requests issued before it
	// can neither confirm nor roll back anything.
	if err == nil && seq > t.confirmedSeq {
		t.confirmed = target
		t.confirmedSeq = seq
	}

	latest := seq == t.issued
	if latest {
		t.latestFailed = err != nil
	}
	if t.latestFailed {
		t.value = t.confirmed
	}
	onFailure := t.onFailure
	t.mu.Unlock()

	if err != nil && onFailure != nil {
		onFailure(ctx, target, !latest, err)
	}
	return err
}

// Flip is Set(!Value()).
func (t *Toggle) Flip(ctx context.Context, send SendFunc) (bool, error) {
	target := !t.Value()
	return target, t.Set(ctx, target, send)
}
