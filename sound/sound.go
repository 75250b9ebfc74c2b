package sound

import (
	"math"
	"sync"
)

// Volume is clamped to [0, 1] and pitch to [0.1, 3] on every external
// mutation, so channels never observe an out-of-range value.
const (
	MinVolume = 0.0
	MaxVolume = 1.0
	MinPitch  = 0.1
	MaxPitch  = 3.0
)

// propertyEpsilon is the threshold below which a property write is considered
// redundant and skipped when binding to a channel.
const propertyEpsilon = 1e-6

// Sound is a cacheable handle to one audio resource. It tracks the load state
// of the resource, owns the decoded clip while loaded, and memoizes the
// resolvability of its key so repeated validity checks are cheap.
//
// Loading goes through a Coordinator; the handle itself only holds state.
type Sound struct {
	mu    sync.Mutex
	key   string
	state State
	clip  Clip
	gen   uint64

	volume float64
	pitch  float64
	loop   bool
	spam   SpamPolicy

	preload          bool
	unloadOnShutdown bool
	labels           []string
	description      string

	// Validity memo, trusted only while memoKey matches the current key.
	memoKey   string
	memoValid bool
	hasMemo   bool
}

// New creates a sound handle from its configured definition. Volume and pitch
// are clamped into range.
func New(def Def) *Sound {
	return &Sound{
		key:              def.Key,
		volume:           clampVolume(def.Volume),
		pitch:            clampPitch(def.Pitch),
		loop:             def.Loop,
		spam:             def.Spam,
		preload:          def.Preload,
		unloadOnShutdown: def.UnloadOnShutdown,
		labels:           def.Labels,
		description:      def.Description,
	}
}

// Key returns the resource key.
func (s *Sound) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// SetKey changes the resource key. The validity memo is keyed by the old
// value and therefore stops being trusted; callers should unload first if the
// sound is loaded.
func (s *Sound) SetKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

// State returns the current load state.
func (s *Sound) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Clip returns the decoded clip, or nil unless the sound is loaded.
func (s *Sound) Clip() Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loaded {
		return nil
	}
	return s.clip
}

// Volume returns the configured base volume.
func (s *Sound) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume sets the base volume, clamped to [0, 1].
func (s *Sound) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampVolume(v)
}

// Pitch returns the configured base pitch.
func (s *Sound) Pitch() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pitch
}

// SetPitch sets the base pitch, clamped to [0.1, 3].
func (s *Sound) SetPitch(p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pitch = clampPitch(p)
}

// Loop reports whether playback loops.
func (s *Sound) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// SetLoop sets whether playback loops.
func (s *Sound) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

// Spam returns the spam-protection policy.
func (s *Sound) Spam() SpamPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spam
}

// SetSpam sets the spam-protection policy.
func (s *Sound) SetSpam(p SpamPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spam = p
}

// Preload reports whether the sound is loaded during manager initialization.
func (s *Sound) Preload() bool {
	return s.preload
}

// UnloadOnShutdown reports whether the sound is in the explicit teardown set.
func (s *Sound) UnloadOnShutdown() bool {
	return s.unloadOnShutdown
}

// Labels returns the configured labels.
func (s *Sound) Labels() []string {
	return s.labels
}

// Description returns the configured description.
func (s *Sound) Description() string {
	return s.description
}

// Valid reports whether the key resolves against the loader. The result is
// memoized together with the key it was computed for; it is recomputed only
// after the key changes.
func (s *Sound) Valid(ld Loader) bool {
	s.mu.Lock()
	if s.hasMemo && s.memoKey == s.key {
		v := s.memoValid
		s.mu.Unlock()
		return v
	}
	key := s.key
	s.mu.Unlock()

	ok := key != "" && ld != nil && ld.Resolvable(key)

	s.mu.Lock()
	s.memoKey, s.memoValid, s.hasMemo = key, ok, true
	s.mu.Unlock()
	return ok
}

// BindTo binds the loaded clip to ch and applies volume, pitch and loop from
// the sound's configuration times the given multipliers. Property writes that
// would not change the channel's current value are skipped. Returns false if
// the sound is not loaded.
func (s *Sound) BindTo(ch Channel, volumeMul, pitchMul float64) bool {
	s.mu.Lock()
	if s.state != Loaded {
		s.mu.Unlock()
		return false
	}
	clip := s.clip
	volume := clampVolume(s.volume * volumeMul)
	pitch := clampPitch(s.pitch * pitchMul)
	loop := s.loop
	s.mu.Unlock()

	if ch.Clip() != clip {
		ch.SetClip(clip)
	}
	if !nearlyEqual(ch.Volume(), volume) {
		ch.SetVolume(volume)
	}
	if !nearlyEqual(ch.Pitch(), pitch) {
		ch.SetPitch(pitch)
	}
	if ch.Loop() != loop {
		ch.SetLoop(loop)
	}
	return true
}

// loadedClip returns the clip if the sound is loaded, without logging.
func (s *Sound) loadedClip() (Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Loaded {
		return s.clip, true
	}
	return nil, false
}

// beginLoad transitions to Loading and returns the load generation. A
// settlement only takes effect while the generation still matches; SetKey
// does not bump it but unload does, so a clip fetched for a since-unloaded
// handle is discarded.
func (s *Sound) beginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Loading
	s.gen++
	return s.gen
}

// completeLoad installs the fetched clip if the load generation is still
// current. Returns false when the handle was unloaded in the meantime.
func (s *Sound) completeLoad(gen uint64, clip Clip) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != Loading {
		return false
	}
	s.state = Loaded
	s.clip = clip
	return true
}

// failLoad resets a still-current Loading state back to Unloaded.
func (s *Sound) failLoad(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen && s.state == Loading {
		s.state = Unloaded
		s.clip = nil
	}
}

// unload resets the handle to Unloaded, bumps the load generation so any
// in-flight fetch settles stale, and releases a loaded clip back to the
// loader. Safe to call when already unloaded.
func (s *Sound) unload(ld Loader) {
	s.mu.Lock()
	wasLoaded := s.state == Loaded
	key := s.key
	s.state = Unloaded
	s.clip = nil
	s.gen++
	s.mu.Unlock()

	if wasLoaded && ld != nil {
		ld.Release(key)
	}
}

func clampVolume(v float64) float64 {
	return math.Min(MaxVolume, math.Max(MinVolume, v))
}

func clampPitch(p float64) float64 {
	return math.Min(MaxPitch, math.Max(MinPitch, p))
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < propertyEpsilon
}
