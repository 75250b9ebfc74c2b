package playback

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"chime/sound"
)

// Config describes the audio output.
type Config struct {
	SampleRate int
	Buffer     time.Duration
	Channels   int
}

// Engine owns the speaker and the shared mixer every channel routes into.
// Channel streams are added to the mixer on play and drop out when they end
// or are stopped; the mixer itself plays for the lifetime of the engine.
type Engine struct {
	sampleRate beep.SampleRate
	mixer      *beep.Mixer
	ctrl       *beep.Ctrl
	channels   []*Channel
	closed     bool
	logger     *slog.Logger
}

// NewEngine initializes the speaker and constructs the configured number of
// channels, each routed to the shared mixer and not auto-playing.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", cfg.Channels)
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 100 * time.Millisecond
	}

	sampleRate := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(sampleRate, sampleRate.N(cfg.Buffer)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	mixer := &beep.Mixer{}
	ctrl := &beep.Ctrl{Streamer: mixer}

	e := &Engine{
		sampleRate: sampleRate,
		mixer:      mixer,
		ctrl:       ctrl,
		logger:     slog.With("component", "playback-engine"),
	}
	for i := 0; i < cfg.Channels; i++ {
		e.channels = append(e.channels, newChannel(i, mixer))
	}

	speaker.Play(ctrl)

	e.logger.Info("Playback engine started",
		slog.Int("sample_rate", cfg.SampleRate),
		slog.Int("channels", cfg.Channels))
	return e, nil
}

// SampleRate returns the output sample rate.
func (e *Engine) SampleRate() beep.SampleRate {
	return e.sampleRate
}

// Channels returns the engine's channels as pool slots.
func (e *Engine) Channels() []sound.Channel {
	out := make([]sound.Channel, len(e.channels))
	for i, ch := range e.channels {
		out[i] = ch
	}
	return out
}

// Pause pauses all output.
func (e *Engine) Pause() {
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

// Resume resumes all output.
func (e *Engine) Resume() {
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
}

// Close stops every channel and shuts the speaker down.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	for _, ch := range e.channels {
		_ = ch.Stop()
	}

	speaker.Lock()
	e.mixer.Clear()
	speaker.Unlock()

	speaker.Close()

	e.logger.Info("Playback engine closed")
	return nil
}
