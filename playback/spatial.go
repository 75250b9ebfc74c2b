package playback

import (
	"math"

	"github.com/gopxl/beep/v2"

	"chime/sound"
)

// rolloff controls inverse-distance attenuation: gain = 1 / (1 + rolloff*d).
const rolloff = 0.25

var _ beep.Streamer = (*spatialStreamer)(nil)

// spatialStreamer applies constant-power panning and distance attenuation for
// a listener fixed at the origin. Blend 0 leaves the signal untouched; blend
// 1 applies the full 3D gains; in between interpolates linearly.
//
// Gains are plain fields mutated under the speaker lock, the same way the
// audio goroutine reads them.
type spatialStreamer struct {
	src   beep.Streamer
	gainL float64
	gainR float64
}

func newSpatialStreamer(src beep.Streamer) *spatialStreamer {
	return &spatialStreamer{src: src, gainL: 1, gainR: 1}
}

// update recomputes the stereo gains from blend and position. Caller holds
// the speaker lock if the stream is live.
func (s *spatialStreamer) update(blend float64, pos sound.Vec3) {
	blend = math.Min(1, math.Max(0, blend))
	if blend == 0 {
		s.gainL, s.gainR = 1, 1
		return
	}

	dist := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	pan := 0.0
	if dist > 0 {
		pan = math.Min(1, math.Max(-1, pos.X/dist))
	}
	attenuation := 1 / (1 + rolloff*dist)

	// Constant-power law, normalized so a centered source keeps unit gain.
	angle := (pan + 1) * math.Pi / 4
	l := math.Cos(angle) * math.Sqrt2 * attenuation
	r := math.Sin(angle) * math.Sqrt2 * attenuation

	s.gainL = 1 + blend*(l-1)
	s.gainR = 1 + blend*(r-1)
}

func (s *spatialStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = s.src.Stream(samples)
	if s.gainL == 1 && s.gainR == 1 {
		return n, ok
	}
	for i := range samples[:n] {
		samples[i][0] *= s.gainL
		samples[i][1] *= s.gainR
	}
	return n, ok
}

func (s *spatialStreamer) Err() error {
	return s.src.Err()
}
