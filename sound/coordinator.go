package sound

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// inflight is one pending fetch shared by every caller that requested the
// same sound before it settled. done is closed exactly once, after clip and
// err are final.
type inflight struct {
	done chan struct{}
	clip Clip
	err  error
}

func (f *inflight) wait(ctx context.Context) (Clip, error) {
	select {
	case <-f.done:
		return f.clip, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Coordinator deduplicates concurrent loads: per sound handle at most one
// fetch is in flight, every caller that attaches while it is pending observes
// the same outcome, and the bookkeeping entry is removed exactly once when
// the fetch settles.
type Coordinator struct {
	mu      sync.Mutex
	loader  Loader
	pending map[*Sound]*inflight
	logger  *slog.Logger
}

// NewCoordinator creates a coordinator that fetches through ld.
func NewCoordinator(ld Loader) *Coordinator {
	return &Coordinator{
		loader:  ld,
		pending: make(map[*Sound]*inflight),
		logger:  slog.With("component", "load-coordinator"),
	}
}

// Load returns the sound's clip, fetching it if necessary. Already-loaded
// sounds return immediately with no I/O. If a fetch is already in flight the
// caller attaches to it and receives its eventual result; otherwise the key
// is validated, the handle transitions to Loading, and one fetch is issued.
//
// Load errors are recoverable by design: the error is returned for logging
// but the expected caller reaction to a nil clip is "playback did not
// happen", not failure propagation.
func (c *Coordinator) Load(ctx context.Context, s *Sound) (Clip, error) {
	if clip, ok := s.loadedClip(); ok {
		return clip, nil
	}

	c.mu.Lock()
	if f, ok := c.pending[s]; ok {
		c.mu.Unlock()
		return f.wait(ctx)
	}
	// Re-check under the map lock: the fetch we would have attached to may
	// have settled between the fast path and here.
	if clip, ok := s.loadedClip(); ok {
		c.mu.Unlock()
		return clip, nil
	}
	if !s.Valid(c.loader) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, s.Key())
	}
	f := &inflight{done: make(chan struct{})}
	c.pending[s] = f
	gen := s.beginLoad()
	c.mu.Unlock()

	go c.fetch(s, f, gen)

	return f.wait(ctx)
}

// Unload detaches any in-flight bookkeeping for s and resets it to Unloaded,
// releasing a loaded clip back to the loader. An in-flight fetch that settles
// afterwards finds its generation stale and discards its result. No-op when
// already unloaded.
func (c *Coordinator) Unload(s *Sound) {
	c.mu.Lock()
	delete(c.pending, s)
	c.mu.Unlock()

	s.unload(c.loader)
}

// Pending returns the number of in-flight loads.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// fetch runs the single physical load for s and settles f.
func (c *Coordinator) fetch(s *Sound, f *inflight, gen uint64) {
	clip, err := c.loader.Fetch(context.Background(), s.Key())

	// Remove the entry exactly once, before anyone can observe the result.
	// Unload may already have detached it; deleting a missing key is fine.
	c.mu.Lock()
	if c.pending[s] == f {
		delete(c.pending, s)
	}
	c.mu.Unlock()

	switch {
	case err != nil:
		s.failLoad(gen)
		f.err = fmt.Errorf("%w: %q: %v", ErrLoadFailed, s.Key(), err)
	case clip == nil:
		s.failLoad(gen)
		f.err = fmt.Errorf("%w: %q: loader returned no clip", ErrLoadFailed, s.Key())
	case !s.completeLoad(gen, clip):
		// Unloaded while the fetch was in flight: hand the clip straight
		// back instead of caching it.
		c.loader.Release(s.Key())
		c.logger.Debug("Discarding stale load", slog.String("key", s.Key()))
		f.err = fmt.Errorf("%w: %q: unloaded while loading", ErrLoadFailed, s.Key())
	default:
		f.clip = clip
	}
	close(f.done)
}
