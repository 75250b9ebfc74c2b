package playback

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"chime/sound"
)

// resampleQuality is the beep resampler quality used for pitch shifting.
const resampleQuality = 4

var _ sound.Channel = (*Channel)(nil)

// Channel is one playback slot backed by a beep streamer chain:
//
//	buffer -> loop -> resampler (pitch) -> volume -> spatial -> ctrl -> mixer
//
// The chain is rebuilt on every Play and drops out of the mixer when the
// source ends or Stop detaches it. Property setters take effect live while
// playing.
//
// All methods except IsPlaying are driven by a single logical caller; the
// playing flag is the only state shared with the audio goroutine.
type Channel struct {
	id    int
	mixer *beep.Mixer

	clip   sound.Clip
	volume float64
	pitch  float64
	loop   bool
	blend  float64
	pos    sound.Vec3

	ctrl      *beep.Ctrl
	vol       *effects.Volume
	resampler *beep.Resampler
	spatial   *spatialStreamer
	playing   atomic.Bool
}

func newChannel(id int, mixer *beep.Mixer) *Channel {
	return &Channel{
		id:     id,
		mixer:  mixer,
		volume: 1,
		pitch:  1,
	}
}

// SetClip binds a decoded clip (a *beep.Buffer) to the channel. Takes effect
// on the next Play.
func (c *Channel) SetClip(clip sound.Clip) {
	c.clip = clip
}

// Clip returns the bound clip.
func (c *Channel) Clip() sound.Clip {
	return c.clip
}

// SetVolume sets linear volume in [0, 1], applied live while playing.
func (c *Channel) SetVolume(v float64) {
	c.volume = v
	if c.playing.Load() && c.vol != nil {
		speaker.Lock()
		applyVolume(c.vol, v)
		speaker.Unlock()
	}
}

// Volume returns the channel volume.
func (c *Channel) Volume() float64 {
	return c.volume
}

// SetPitch sets the playback rate multiplier, applied live while playing.
func (c *Channel) SetPitch(p float64) {
	c.pitch = p
	if c.playing.Load() && c.resampler != nil {
		speaker.Lock()
		c.resampler.SetRatio(p)
		speaker.Unlock()
	}
}

// Pitch returns the playback rate multiplier.
func (c *Channel) Pitch() float64 {
	return c.pitch
}

// SetLoop sets whether the next Play loops indefinitely. Loop structure is
// part of the streamer chain, so it does not change a playback in progress.
func (c *Channel) SetLoop(loop bool) {
	c.loop = loop
}

// Loop reports whether the next Play loops.
func (c *Channel) Loop() bool {
	return c.loop
}

// SetSpatialBlend interpolates between 2D (0, no panning or attenuation) and
// full 3D (1), applied live while playing.
func (c *Channel) SetSpatialBlend(blend float64) {
	c.blend = blend
	c.updateSpatial()
}

// SetPosition places the channel in the listener's coordinate space, applied
// live while playing.
func (c *Channel) SetPosition(pos sound.Vec3) {
	c.pos = pos
	c.updateSpatial()
}

// Play starts the bound clip from the beginning, rebuilding the streamer
// chain. A channel already playing is restarted. No-op without a clip.
func (c *Channel) Play() {
	buf, ok := c.clip.(*beep.Buffer)
	if !ok || buf == nil {
		return
	}

	// Detach a previous chain before attaching the new one, so a restart
	// never leaves two live streamers for the same channel in the mixer.
	c.detach()

	base := buf.Streamer(0, buf.Len())
	var src beep.Streamer = base
	if c.loop {
		if looped, err := beep.Loop2(base); err == nil {
			src = looped
		}
	}
	c.resampler = beep.ResampleRatio(resampleQuality, c.pitch, src)
	c.vol = &effects.Volume{Streamer: c.resampler, Base: 2}
	applyVolume(c.vol, c.volume)
	c.spatial = newSpatialStreamer(c.vol)
	c.spatial.update(c.blend, c.pos)
	c.ctrl = &beep.Ctrl{
		Streamer: beep.Seq(c.spatial, beep.Callback(func() {
			c.playing.Store(false)
		})),
	}

	c.playing.Store(true)
	speaker.Lock()
	c.mixer.Add(c.ctrl)
	speaker.Unlock()
}

// Stop halts playback. The streamer chain is detached and drops out of the
// mixer on the next pull. Safe when not playing.
func (c *Channel) Stop() error {
	c.detach()
	c.playing.Store(false)
	return nil
}

// IsPlaying reports whether the channel is currently playing. Cleared by the
// audio goroutine when a non-looping clip runs out.
func (c *Channel) IsPlaying() bool {
	return c.playing.Load()
}

func (c *Channel) detach() {
	if c.ctrl == nil {
		return
	}
	speaker.Lock()
	c.ctrl.Streamer = nil
	speaker.Unlock()
	c.ctrl = nil
}

func (c *Channel) updateSpatial() {
	if c.playing.Load() && c.spatial != nil {
		speaker.Lock()
		c.spatial.update(c.blend, c.pos)
		speaker.Unlock()
	}
}

// applyVolume maps linear [0, 1] onto the exponential effects.Volume scale.
func applyVolume(vol *effects.Volume, v float64) {
	if v <= 0 {
		vol.Silent = true
		vol.Volume = 0
		return
	}
	vol.Silent = false
	vol.Volume = math.Log2(v)
}
