package sound

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClip stands in for a decoded resource; compared by pointer identity.
type fakeClip struct {
	key string
}

// fakeLoader is an in-memory Loader with per-key failure injection and an
// optional gate that holds fetches open until released.
type fakeLoader struct {
	mu           sync.Mutex
	invalid      map[string]bool
	failing      map[string]error
	clips        map[string]*fakeClip
	resolveCalls int
	fetchCalls   int
	releases     []string
	gate         chan struct{}
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		invalid: make(map[string]bool),
		failing: make(map[string]error),
		clips:   make(map[string]*fakeClip),
	}
}

func (l *fakeLoader) Resolvable(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolveCalls++
	return !l.invalid[key]
}

func (l *fakeLoader) Fetch(ctx context.Context, key string) (Clip, error) {
	l.mu.Lock()
	l.fetchCalls++
	gate := l.gate
	err := l.failing[key]
	l.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	clip, ok := l.clips[key]
	if !ok {
		clip = &fakeClip{key: key}
		l.clips[key] = clip
	}
	return clip, nil
}

func (l *fakeLoader) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases = append(l.releases, key)
}

func (l *fakeLoader) counts() (resolves, fetches, releases int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolveCalls, l.fetchCalls, len(l.releases)
}

// fakeChannel records every property write so tests can assert on redundant
// writes being skipped.
type fakeChannel struct {
	clip    Clip
	volume  float64
	pitch   float64
	loop    bool
	blend   float64
	pos     Vec3
	playing bool

	clipWrites   int
	volumeWrites int
	pitchWrites  int
	loopWrites   int
	plays        int
	stops        int
	stopErr      error
}

func (c *fakeChannel) SetClip(clip Clip) { c.clip = clip; c.clipWrites++ }
func (c *fakeChannel) Clip() Clip        { return c.clip }

func (c *fakeChannel) SetVolume(v float64) { c.volume = v; c.volumeWrites++ }
func (c *fakeChannel) Volume() float64     { return c.volume }

func (c *fakeChannel) SetPitch(p float64) { c.pitch = p; c.pitchWrites++ }
func (c *fakeChannel) Pitch() float64     { return c.pitch }

func (c *fakeChannel) SetLoop(loop bool) { c.loop = loop; c.loopWrites++ }
func (c *fakeChannel) Loop() bool        { return c.loop }

func (c *fakeChannel) SetSpatialBlend(blend float64) { c.blend = blend }
func (c *fakeChannel) SetPosition(pos Vec3)          { c.pos = pos }

func (c *fakeChannel) Play() { c.playing = true; c.plays++ }

func (c *fakeChannel) Stop() error {
	c.stops++
	if c.stopErr != nil {
		return c.stopErr
	}
	c.playing = false
	return nil
}

func (c *fakeChannel) IsPlaying() bool { return c.playing }

func fakeChannels(n int) ([]*fakeChannel, []Channel) {
	chs := make([]*fakeChannel, n)
	ifaces := make([]Channel, n)
	for i := range chs {
		chs[i] = &fakeChannel{volume: 1, pitch: 1}
		ifaces[i] = chs[i]
	}
	return chs, ifaces
}

// waitUntil polls cond until it holds or the test times out.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(time.Millisecond)
	}
}
