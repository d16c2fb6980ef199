package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const loadKey = "model"

// Loader produces a Classifier, typically by reading an artifact.
type Loader func(ctx context.Context) (Classifier, error)

// FileLoader returns a Loader reading the artifact at path.
func FileLoader(path string) Loader {
	return func(_ context.Context) (Classifier, error) {
		return LoadFile(path)
	}
}

// Option applies a configuration option to the Handle.
type Option func(*Handle)

// WithLoadObserver registers a callback invoked after every load attempt.
func WithLoadObserver(fn func(d time.Duration, err error)) Option {
	return func(h *Handle) {
		if fn != nil {
			h.observe = fn
		}
	}
}

// Handle loads a Classifier lazily and at most once at a time. Concurrent
// first callers share one load. A successful load is kept for the lifetime
// of the Handle; a failed load is not, so a later call retries.
type Handle struct {
	load    Loader
	group   singleflight.Group
	observe func(time.Duration, error)

	mu     sync.RWMutex
	loaded Classifier
}

// NewHandle creates a Handle that loads with load.
func NewHandle(load Loader, opts ...Option) *Handle {
	h := &Handle{
		load:    load,
		observe: func(time.Duration, error) {},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get returns the loaded Classifier, loading it on first use. Load failures
// wrap ErrModelUnavailable.
func (h *Handle) Get(ctx context.Context) (Classifier, error) {
	if c := h.cached(); c != nil {
		return c, nil
	}

	// the load ignores cancellation of the caller that started it
	ch := h.group.DoChan(loadKey, func() (interface{}, error) {
		if c := h.cached(); c != nil {
			return c, nil
		}
		start := time.Now()
		c, err := h.load(context.WithoutCancel(ctx))
		if err == nil && c == nil {
			err = errors.New("loader returned no model")
		}
		h.observe(time.Since(start), err)
		if err != nil {
			if !errors.Is(err, ErrModelUnavailable) {
				err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
			}
			return nil, err
		}
		h.mu.Lock()
		h.loaded = c
		h.mu.Unlock()
		return c, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Classifier), nil
	}
}

// Loaded reports whether a Classifier is available, attempting a load if
// none is. It never returns an error.
func (h *Handle) Loaded(ctx context.Context) bool {
	_, err := h.Get(ctx)
	return err == nil
}

func (h *Handle) cached() Classifier {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}
