package sound

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Phase is the manager lifecycle state. Terminated is terminal; operations on
// a terminated manager are a caller bug and are guarded with a warning rather
// than a panic.
type Phase int

const (
	Uninitialized Phase = iota
	Initializing
	Ready
	ShuttingDown
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case ShuttingDown:
		return "shutting-down"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// UnloadSet selects which sounds are unloaded during shutdown.
type UnloadSet int

const (
	// UnloadPreloaded unloads every sound that was marked for preload.
	UnloadPreloaded UnloadSet = iota
	// UnloadAll unloads every registered sound.
	UnloadAll
	// UnloadListed unloads only sounds with the unload_on_shutdown flag.
	UnloadListed
)

// ParseUnloadSet parses the configuration spelling of an unload set.
func ParseUnloadSet(s string) (UnloadSet, error) {
	switch s {
	case "", "preloaded":
		return UnloadPreloaded, nil
	case "all":
		return UnloadAll, nil
	case "listed":
		return UnloadListed, nil
	default:
		return UnloadPreloaded, fmt.Errorf("unknown unload set %q", s)
	}
}

// ManagerOptions tunes manager behavior. The zero value gets sensible
// defaults: master volume 1, preload concurrency 4, unload preloaded sounds
// on shutdown.
type ManagerOptions struct {
	MasterVolume       float64
	PreloadConcurrency int
	ShutdownUnload     UnloadSet
}

// Manager orchestrates the pool: it preloads configured sounds, applies spam
// protection, allocates channels, binds loaded clips to them, and tears
// everything down on shutdown.
//
// A single logical caller drives all pool and channel mutation. Load calls
// may suspend the caller while the loader resolves, but pool state is only
// touched under the manager mutex, so channel allocation, property writes and
// play/stop never interleave between callers.
type Manager struct {
	mu     sync.Mutex
	phase  Phase
	master float64

	coord  *Coordinator
	pool   *Pool
	sounds map[string]*Sound
	order  []string

	preloadConcurrency int
	shutdownUnload     UnloadSet

	logger *slog.Logger
}

// NewManager creates a manager over the given loader, pool and sound set.
func NewManager(ld Loader, pool *Pool, sounds []*Sound, opts ManagerOptions) *Manager {
	if opts.MasterVolume <= 0 {
		opts.MasterVolume = 1
	}
	if opts.PreloadConcurrency <= 0 {
		opts.PreloadConcurrency = 4
	}

	m := &Manager{
		phase:              Uninitialized,
		master:             clampVolume(opts.MasterVolume),
		coord:              NewCoordinator(ld),
		pool:               pool,
		sounds:             make(map[string]*Sound, len(sounds)),
		preloadConcurrency: opts.PreloadConcurrency,
		shutdownUnload:     opts.ShutdownUnload,
		logger:             slog.With("component", "sound-manager"),
	}
	for _, s := range sounds {
		if _, dup := m.sounds[s.Key()]; dup {
			m.logger.Warn("Duplicate sound key, keeping first", slog.String("key", s.Key()))
			continue
		}
		m.sounds[s.Key()] = s
		m.order = append(m.order, s.Key())
	}
	return m
}

// Sound returns the registered sound for key, or nil.
func (m *Manager) Sound(key string) *Sound {
	return m.sounds[key]
}

// Pool returns the channel pool.
func (m *Manager) Pool() *Pool {
	return m.pool
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// SetMasterVolume sets the multiplier applied on top of every per-play volume
// scale, clamped to [0, 1]. Affects subsequent plays only.
func (m *Manager) SetMasterVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.master = clampVolume(v)
}

// Initialize preloads every sound marked for preload and transitions the
// manager to Ready. Preloading is concurrent and best-effort: a failed
// preload is logged and does not abort the others.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != Uninitialized {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("initialize in phase %s", phase)
	}
	m.phase = Initializing
	m.mu.Unlock()

	m.logger.Info("Initializing sound manager",
		slog.Int("sounds", len(m.order)),
		slog.Int("channels", m.pool.Size()))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.preloadConcurrency)
	for _, key := range m.order {
		s := m.sounds[key]
		if !s.Preload() {
			continue
		}
		g.Go(func() error {
			if _, err := m.coord.Load(ctx, s); err != nil {
				m.logger.Error("Preload failed", slog.String("key", s.Key()), slog.Any("error", err))
			}
			// Best-effort batch: never fail the group.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m.mu.Lock()
	m.phase = Ready
	m.mu.Unlock()

	m.logger.Info("Sound manager ready")
	return nil
}

// PlayOption adjusts a single play request.
type PlayOption func(*playRequest)

type playRequest struct {
	volumeScale float64
	pitchScale  float64
	position    *Vec3
}

// WithVolumeScale multiplies the sound's configured volume for this play.
func WithVolumeScale(v float64) PlayOption {
	return func(r *playRequest) { r.volumeScale = v }
}

// WithPitchScale multiplies the sound's configured pitch for this play.
func WithPitchScale(p float64) PlayOption {
	return func(r *playRequest) { r.pitchScale = p }
}

// AtPosition places this play in 3D space: the channel gets the position and
// full spatial blend.
func AtPosition(pos Vec3) PlayOption {
	return func(r *playRequest) { p := pos; r.position = &p }
}

// Play plays s on a pool channel, loading it first if necessary. The call
// suspends until the load settles; everything after that is synchronous.
// Returns the playing channel, or nil when playback did not happen (nil
// sound, failed load, spam-avoid miss is not possible, or pool exhausted).
// A nil return is an expected outcome, not an error.
func (m *Manager) Play(ctx context.Context, s *Sound, opts ...PlayOption) Channel {
	if s == nil {
		return nil
	}
	if !m.operational("play") {
		return nil
	}

	clip, err := m.coord.Load(ctx, s)
	if err != nil {
		m.logger.Error("Play aborted, load failed", slog.String("key", s.Key()), slog.Any("error", err))
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocate(s, clip, newPlayRequest(opts))
}

// PlaySync plays s without ever initiating a load: if the sound is not
// already loaded it fails fast with a nil channel and a log entry.
func (m *Manager) PlaySync(s *Sound, opts ...PlayOption) Channel {
	if s == nil {
		return nil
	}
	if !m.operational("play-sync") {
		return nil
	}

	clip, ok := s.loadedClip()
	if !ok {
		m.logger.Warn("Sync play refused", slog.String("key", s.Key()),
			slog.String("state", s.State().String()), slog.Any("error", ErrNotLoaded))
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocate(s, clip, newPlayRequest(opts))
}

// Stop stops every channel currently playing s's clip. No-op when the sound
// is nil or not loaded.
func (m *Manager) Stop(s *Sound) {
	if s == nil {
		return
	}
	clip, ok := s.loadedClip()
	if !ok {
		return
	}

	m.mu.Lock()
	errs := m.pool.StopClip(clip)
	m.mu.Unlock()
	for _, err := range errs {
		m.logger.Error("Stop failed", slog.String("key", s.Key()), slog.Any("error", err))
	}
}

// StopAll stops every playing channel.
func (m *Manager) StopAll() {
	m.mu.Lock()
	errs := m.pool.StopAll()
	m.mu.Unlock()
	for _, err := range errs {
		m.logger.Error("Stop failed", slog.Any("error", err))
	}
}

// Shutdown unloads the configured teardown set, force-stops and unbinds every
// channel, and transitions the manager to Terminated. Per-channel stop
// failures are logged and do not abort teardown of the remaining channels.
// Subsequent calls are no-ops.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.phase == ShuttingDown || m.phase == Terminated {
		m.mu.Unlock()
		return
	}
	m.phase = ShuttingDown
	m.mu.Unlock()

	m.logger.Info("Shutting down sound manager")

	for _, key := range m.order {
		s := m.sounds[key]
		if m.inUnloadSet(s) {
			m.coord.Unload(s)
		}
	}

	m.mu.Lock()
	errs := m.pool.Reset()
	m.phase = Terminated
	m.mu.Unlock()

	for _, err := range errs {
		m.logger.Error("Channel stop failed during shutdown", slog.Any("error", err))
	}
	m.logger.Info("Sound manager terminated")
}

// allocate runs the spam check, grabs a free channel, binds and starts it.
// Caller holds m.mu.
func (m *Manager) allocate(s *Sound, clip Clip, req playRequest) Channel {
	if current := m.pool.FindPlaying(clip); current != nil {
		switch s.Spam() {
		case SpamAvoid:
			// Dedup contract for rapid repeated triggers: hand back the
			// playing channel untouched.
			m.logger.Debug("Spam avoid, reusing channel", slog.String("key", s.Key()))
			return current
		case SpamOverride:
			if err := current.Stop(); err != nil {
				m.logger.Error("Spam override stop failed", slog.String("key", s.Key()), slog.Any("error", err))
			}
		}
	}

	ch := m.pool.FindFree()
	if ch == nil {
		m.logger.Warn("Play dropped", slog.String("key", s.Key()), slog.Any("error", ErrPoolExhausted))
		return nil
	}

	if !s.BindTo(ch, req.volumeScale*m.master, req.pitchScale) {
		m.logger.Warn("Bind refused", slog.String("key", s.Key()), slog.Any("error", ErrNotLoaded))
		return nil
	}
	if req.position != nil {
		ch.SetPosition(*req.position)
		ch.SetSpatialBlend(1)
	} else {
		ch.SetSpatialBlend(0)
	}
	ch.Play()
	return ch
}

// operational reports whether play calls are allowed in the current phase.
func (m *Manager) operational(op string) bool {
	m.mu.Lock()
	phase := m.phase
	m.mu.Unlock()
	switch phase {
	case Ready:
		return true
	case Terminated, ShuttingDown:
		m.logger.Warn("Operation on terminated manager", slog.String("op", op), slog.Any("error", ErrTerminated))
		return false
	default:
		m.logger.Warn("Operation before initialization", slog.String("op", op), slog.String("phase", phase.String()))
		return false
	}
}

func (m *Manager) inUnloadSet(s *Sound) bool {
	switch m.shutdownUnload {
	case UnloadAll:
		return true
	case UnloadListed:
		return s.UnloadOnShutdown()
	default:
		return s.Preload()
	}
}

func newPlayRequest(opts []PlayOption) playRequest {
	req := playRequest{volumeScale: 1, pitchScale: 1}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
