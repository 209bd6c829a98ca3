// Package debounce runs an action once input has been quiet for a delay.
//
// Each Trigger cancels the pending timer and the context of any action that
// is still running, and bumps a generation counter. Actions receive their
// generation so they can check, via IsCurrent, that no newer input arrived
// before publishing a result.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Action is invoked after the quiet period. ctx is cancelled as soon as a
// newer Trigger or Stop happens.
type Action func(ctx context.Context, gen uint64)

type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64
	parent context.Context
}

// New returns a debouncer. Actions run with contexts derived from parent.
func New(parent context.Context, delay time.Duration) *Debouncer {
	return &Debouncer{parent: parent, delay: delay}
}

// Trigger schedules action, superseding everything scheduled before.
// It returns the generation assigned to this call.
func (d *Debouncer) Trigger(action Action) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen

	ctx, cancel := context.WithCancel(d.parent)
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		if !d.IsCurrent(gen) {
			return
		}
		action(ctx, gen)
	})
	return gen
}

// IsCurrent reports whether gen is still the latest generation.
func (d *Debouncer) IsCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen
}

// Stop cancels the pending timer and any running action.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
