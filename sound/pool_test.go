package sound

import (
	"errors"
	"testing"
)

func TestFindFreeScansInOrder(t *testing.T) {
	chs, ifaces := fakeChannels(3)
	pool := NewPool(ifaces)

	if got := pool.FindFree(); got != chs[0] {
		t.Fatal("expected the first channel while all are idle")
	}

	chs[0].playing = true
	if got := pool.FindFree(); got != chs[1] {
		t.Fatal("expected the second channel once the first is busy")
	}

	chs[1].playing = true
	chs[2].playing = true
	if got := pool.FindFree(); got != nil {
		t.Fatal("expected nil from a saturated pool")
	}
}

func TestFindPlaying(t *testing.T) {
	chs, ifaces := fakeChannels(3)
	pool := NewPool(ifaces)
	clip := &fakeClip{key: "a"}

	if got := pool.FindPlaying(nil); got != nil {
		t.Error("FindPlaying(nil) should return nil")
	}
	if got := pool.FindPlaying(clip); got != nil {
		t.Error("found a clip nothing is playing")
	}

	// A bound but idle channel does not count.
	chs[2].clip = clip
	if got := pool.FindPlaying(clip); got != nil {
		t.Error("found clip on an idle channel")
	}

	chs[2].playing = true
	if got := pool.FindPlaying(clip); got != chs[2] {
		t.Error("did not find the playing channel")
	}

	// Pool order wins when several channels play the same clip.
	chs[1].clip = clip
	chs[1].playing = true
	if got := pool.FindPlaying(clip); got != chs[1] {
		t.Error("expected the earliest matching channel")
	}
}

func TestStopAllIsolatesFailures(t *testing.T) {
	chs, ifaces := fakeChannels(3)
	pool := NewPool(ifaces)
	for _, ch := range chs {
		ch.playing = true
	}
	chs[1].stopErr = errors.New("backend gone")

	errs := pool.StopAll()
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(errs))
	}
	if chs[0].playing || chs[2].playing {
		t.Error("healthy channels were not stopped")
	}
	if chs[2].stops != 1 {
		t.Error("failure on one channel aborted the sweep")
	}
}

func TestStopClipStopsEveryMatch(t *testing.T) {
	chs, ifaces := fakeChannels(3)
	pool := NewPool(ifaces)
	clip := &fakeClip{key: "a"}
	other := &fakeClip{key: "b"}

	chs[0].clip, chs[0].playing = clip, true
	chs[1].clip, chs[1].playing = other, true
	chs[2].clip, chs[2].playing = clip, true

	pool.StopClip(clip)
	if chs[0].playing || chs[2].playing {
		t.Error("matching channels still playing")
	}
	if !chs[1].playing {
		t.Error("non-matching channel was stopped")
	}
}

func TestResetClearsBindings(t *testing.T) {
	chs, ifaces := fakeChannels(3)
	pool := NewPool(ifaces)
	clip := &fakeClip{key: "a"}
	for _, ch := range chs {
		ch.clip = clip
		ch.playing = true
	}
	chs[0].stopErr = errors.New("backend gone")

	errs := pool.Reset()
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(errs))
	}
	for i, ch := range chs {
		if ch.clip != nil {
			t.Errorf("channel %d still bound after reset", i)
		}
	}
	if chs[1].playing || chs[2].playing {
		t.Error("healthy channels still playing after reset")
	}
}

func TestBusy(t *testing.T) {
	chs, ifaces := fakeChannels(4)
	pool := NewPool(ifaces)
	chs[0].playing = true
	chs[3].playing = true

	if got := pool.Busy(); got != 2 {
		t.Errorf("Busy() = %d, want 2", got)
	}
	if got := pool.Size(); got != 4 {
		t.Errorf("Size() = %d, want 4", got)
	}
}
