package sound

import "fmt"

// Pool is a fixed, ordered set of playback channels. Order matters only as
// the allocation scan order; no channel is added or removed after
// construction. The pool does no locking of its own: the manager serializes
// every caller that mutates it.
type Pool struct {
	channels []Channel
}

// NewPool creates a pool over the given channels. The channels are expected
// to be fully configured (routed to the shared mixer, not auto-playing)
// before they are handed in.
func NewPool(channels []Channel) *Pool {
	return &Pool{channels: channels}
}

// Size returns the number of channels.
func (p *Pool) Size() int {
	return len(p.channels)
}

// Busy returns the number of channels currently playing.
func (p *Pool) Busy() int {
	n := 0
	for _, ch := range p.channels {
		if ch.IsPlaying() {
			n++
		}
	}
	return n
}

// FindPlaying returns the first channel, in pool order, that is playing the
// given clip, or nil if the clip is nil or nothing is playing it.
func (p *Pool) FindPlaying(clip Clip) Channel {
	if clip == nil {
		return nil
	}
	for _, ch := range p.channels {
		if ch.IsPlaying() && ch.Clip() == clip {
			return ch
		}
	}
	return nil
}

// FindFree returns the first idle channel, or nil when the pool is saturated.
// Saturation is a hard capacity limit: callers drop the request rather than
// queue it.
func (p *Pool) FindFree() Channel {
	for _, ch := range p.channels {
		if !ch.IsPlaying() {
			return ch
		}
	}
	return nil
}

// StopAll stops every playing channel. A stop failure on one channel does
// not prevent stopping the rest; failures are collected and returned.
func (p *Pool) StopAll() []error {
	var errs []error
	for i, ch := range p.channels {
		if !ch.IsPlaying() {
			continue
		}
		if err := ch.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("channel %d: %w", i, err))
		}
	}
	return errs
}

// StopClip stops every channel currently bound to the given clip.
func (p *Pool) StopClip(clip Clip) []error {
	if clip == nil {
		return nil
	}
	var errs []error
	for i, ch := range p.channels {
		if !ch.IsPlaying() || ch.Clip() != clip {
			continue
		}
		if err := ch.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("channel %d: %w", i, err))
		}
	}
	return errs
}

// Reset force-stops every channel and clears its clip binding. Used during
// shutdown; per-channel stop failures are collected so one bad channel does
// not abort teardown of the rest.
func (p *Pool) Reset() []error {
	var errs []error
	for i, ch := range p.channels {
		if ch.IsPlaying() {
			if err := ch.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("channel %d: %w", i, err))
			}
		}
		ch.SetClip(nil)
	}
	return errs
}
