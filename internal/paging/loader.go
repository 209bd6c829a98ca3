// Package paging grows an append-only sequence of items from an offset-paged
// remote listing, one page at a time.
package paging

import (
	"context"
	"errors"
	"sync"
)

// DefaultPageSize is the artwork grid page size.
const DefaultPageSize = 24

// ErrClosed is returned by LoadNext after Close.
var ErrClosed = errors.New("loader closed")

// FetchFunc fetches limit items starting at offset.
type FetchFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// Loader keeps a zero-based page counter, the accumulated items and a single
// in-flight guard, so at most one page request is outstanding at any time.
type Loader[T any] struct {
	mu sync.Mutex

	fetch    FetchFunc[T]
	pageSize int

	page      int
	items     []T
	requested map[int]struct{}
	inFlight  bool
	done      bool
	closed    bool
	err       error
}

// NewLoader returns a loader that requests pageSize items per page.
// A non-positive pageSize falls back to DefaultPageSize.
func NewLoader[T any](pageSize int, fetch FetchFunc[T]) *Loader[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Loader[T]{fetch: fetch, pageSize: pageSize, requested: make(map[int]struct{})}
}

// LoadNext requests the next page unless a request is in flight, the
// listing is exhausted or a previous request failed. started reports whether
// a request was actually issued. The error, if any, is also kept as the
// loader's sticky error until Retry.
func (l *Loader[T]) LoadNext(ctx context.Context) (started bool, err error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false, ErrClosed
	}
	if l.inFlight || l.done || l.err != nil {
		l.mu.Unlock()
		return false, nil
	}
	page := l.page
	if _, ok := l.requested[page]; ok {
		l.mu.Unlock()
		return false, nil
	}
	l.requested[page] = struct{}{}
	l.inFlight = true
	l.mu.Unlock()

	items, err := l.fetch(ctx, l.pageSize, page*l.pageSize)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = false

	if l.closed {
		return true, ErrClosed
	}
	if err != nil {
		// the page may be requested again after an explicit Retry
		delete(l.requested, page)
		l.err = err
		return true, err
	}

	l.items = append(l.items, items...)
	l.page++
	if len(items) < l.pageSize {
		l.done = true
	}
	return true, nil
}

// Visible is the scroll trigger: it loads the next page only when index is
// the last item currently held.
func (l *Loader[T]) Visible(ctx context.Context, index int) (bool, error) {
	l.mu.Lock()
	last := len(l.items) - 1
	l.mu.Unlock()

	if index != last {
		return false, nil
	}
	return l.LoadNext(ctx)
}

// Retry clears the sticky error. It does not issue a request by itself.
func (l *Loader[T]) Retry() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = nil
}

// Close discards the results of any request still in flight.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// Items returns a copy of the accumulated items.
func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of accumulated items.
func (l *Loader[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Page returns the zero-based index of the next page to request.
func (l *Loader[T]) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

func (l *Loader[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

func (l *Loader[T]) Done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *Loader[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
