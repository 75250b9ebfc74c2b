package sound

import "testing"

func TestClamping(t *testing.T) {
	tests := []struct {
		name       string
		volume     float64
		pitch      float64
		wantVolume float64
		wantPitch  float64
	}{
		{name: "in range", volume: 0.8, pitch: 1.5, wantVolume: 0.8, wantPitch: 1.5},
		{name: "volume too high", volume: 5.0, pitch: 1, wantVolume: 1.0, wantPitch: 1},
		{name: "volume negative", volume: -0.5, pitch: 1, wantVolume: 0, wantPitch: 1},
		{name: "pitch zero", volume: 1, pitch: 0.0, wantVolume: 1, wantPitch: 0.1},
		{name: "pitch too high", volume: 1, pitch: 12, wantVolume: 1, wantPitch: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Def{Key: "k", Volume: tt.volume, Pitch: tt.pitch})
			if got := s.Volume(); got != tt.wantVolume {
				t.Errorf("Volume() = %v, want %v", got, tt.wantVolume)
			}
			if got := s.Pitch(); got != tt.wantPitch {
				t.Errorf("Pitch() = %v, want %v", got, tt.wantPitch)
			}

			// The same clamps apply on mutation after construction.
			s.SetVolume(tt.volume)
			s.SetPitch(tt.pitch)
			if got := s.Volume(); got != tt.wantVolume {
				t.Errorf("after SetVolume: Volume() = %v, want %v", got, tt.wantVolume)
			}
			if got := s.Pitch(); got != tt.wantPitch {
				t.Errorf("after SetPitch: Pitch() = %v, want %v", got, tt.wantPitch)
			}
		})
	}
}

func TestValidityMemoization(t *testing.T) {
	ld := newFakeLoader()
	s := New(Def{Key: "ui/click.wav", Volume: 1, Pitch: 1})

	if !s.Valid(ld) {
		t.Fatal("Valid() = false, want true")
	}
	if resolves, _, _ := ld.counts(); resolves != 1 {
		t.Fatalf("resolve calls = %d, want 1", resolves)
	}

	// Cached: no further resolvability checks.
	for i := 0; i < 5; i++ {
		s.Valid(ld)
	}
	if resolves, _, _ := ld.counts(); resolves != 1 {
		t.Errorf("resolve calls after repeats = %d, want 1", resolves)
	}

	// Unrelated mutation does not invalidate the memo.
	s.SetVolume(0.3)
	s.SetPitch(2)
	s.Valid(ld)
	if resolves, _, _ := ld.counts(); resolves != 1 {
		t.Errorf("resolve calls after volume/pitch change = %d, want 1", resolves)
	}

	// A key change does.
	s.SetKey("ui/other.wav")
	s.Valid(ld)
	if resolves, _, _ := ld.counts(); resolves != 2 {
		t.Errorf("resolve calls after key change = %d, want 2", resolves)
	}
}

func TestValidityNegativeMemoized(t *testing.T) {
	ld := newFakeLoader()
	ld.invalid["missing.wav"] = true
	s := New(Def{Key: "missing.wav", Volume: 1, Pitch: 1})

	if s.Valid(ld) {
		t.Fatal("Valid() = true for unresolvable key")
	}
	s.Valid(ld)
	if resolves, _, _ := ld.counts(); resolves != 1 {
		t.Errorf("resolve calls = %d, want 1 (negative result memoized)", resolves)
	}
}

func TestEmptyKeyInvalid(t *testing.T) {
	ld := newFakeLoader()
	s := New(Def{Volume: 1, Pitch: 1})
	if s.Valid(ld) {
		t.Error("Valid() = true for empty key")
	}
	if resolves, _, _ := ld.counts(); resolves != 0 {
		t.Errorf("resolve calls = %d, want 0 for empty key", resolves)
	}
}

func TestBindToNotLoaded(t *testing.T) {
	s := New(Def{Key: "k", Volume: 1, Pitch: 1})
	ch := &fakeChannel{}
	if s.BindTo(ch, 1, 1) {
		t.Fatal("BindTo succeeded on an unloaded sound")
	}
	if ch.clipWrites != 0 || ch.volumeWrites != 0 {
		t.Error("BindTo wrote properties despite failing")
	}
}

func TestBindToAppliesConfig(t *testing.T) {
	s := New(Def{Key: "k", Volume: 0.5, Pitch: 2, Loop: true})
	clip := &fakeClip{key: "k"}
	s.completeLoad(s.beginLoad(), clip)

	ch := &fakeChannel{}
	if !s.BindTo(ch, 0.5, 0.75) {
		t.Fatal("BindTo failed on a loaded sound")
	}
	if ch.clip != clip {
		t.Error("clip not bound")
	}
	if ch.volume != 0.25 {
		t.Errorf("channel volume = %v, want 0.25", ch.volume)
	}
	if ch.pitch != 1.5 {
		t.Errorf("channel pitch = %v, want 1.5", ch.pitch)
	}
	if !ch.loop {
		t.Error("loop not applied")
	}
}

func TestBindToClampsMultipliedValues(t *testing.T) {
	s := New(Def{Key: "k", Volume: 0.9, Pitch: 2.5})
	s.completeLoad(s.beginLoad(), &fakeClip{key: "k"})

	ch := &fakeChannel{}
	s.BindTo(ch, 4, 4)
	if ch.volume != 1 {
		t.Errorf("channel volume = %v, want clamped 1", ch.volume)
	}
	if ch.pitch != 3 {
		t.Errorf("channel pitch = %v, want clamped 3", ch.pitch)
	}
}

func TestBindToSkipsRedundantWrites(t *testing.T) {
	s := New(Def{Key: "k", Volume: 0.5, Pitch: 1.5, Loop: false})
	clip := &fakeClip{key: "k"}
	s.completeLoad(s.beginLoad(), clip)

	ch := &fakeChannel{}
	s.BindTo(ch, 1, 1)
	if ch.clipWrites != 1 || ch.volumeWrites != 1 || ch.pitchWrites != 1 {
		t.Fatalf("first bind writes = %d/%d/%d, want 1/1/1",
			ch.clipWrites, ch.volumeWrites, ch.pitchWrites)
	}

	// Identical bind: every property already matches, so no writes happen.
	s.BindTo(ch, 1, 1)
	if ch.clipWrites != 1 || ch.volumeWrites != 1 || ch.pitchWrites != 1 || ch.loopWrites != 0 {
		t.Errorf("redundant bind writes = %d/%d/%d/%d, want unchanged",
			ch.clipWrites, ch.volumeWrites, ch.pitchWrites, ch.loopWrites)
	}

	// Changing one multiplier touches only the affected property.
	s.BindTo(ch, 0.5, 1)
	if ch.volumeWrites != 2 {
		t.Errorf("volume writes = %d, want 2", ch.volumeWrites)
	}
	if ch.pitchWrites != 1 {
		t.Errorf("pitch writes = %d, want 1", ch.pitchWrites)
	}
}

func TestUnloadClearsClip(t *testing.T) {
	ld := newFakeLoader()
	s := New(Def{Key: "k", Volume: 1, Pitch: 1})
	s.completeLoad(s.beginLoad(), &fakeClip{key: "k"})

	s.unload(ld)
	if s.State() != Unloaded {
		t.Errorf("state = %s, want unloaded", s.State())
	}
	if s.Clip() != nil {
		t.Error("clip still present after unload")
	}
	if _, _, releases := ld.counts(); releases != 1 {
		t.Errorf("releases = %d, want 1", releases)
	}

	// Unloading again is a no-op.
	s.unload(ld)
	if _, _, releases := ld.counts(); releases != 1 {
		t.Errorf("releases after double unload = %d, want 1", releases)
	}
}
