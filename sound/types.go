package sound

import (
	"context"
	"fmt"
	"strings"
)

// Clip is the decoded audio resource produced by a Loader. The sound package
// never inspects it; it is handed to channels as-is and compared by identity
// when looking up which channel is playing it.
type Clip any

// Loader resolves opaque resource keys to decoded clips. Implementations are
// expected to keep their own cache; Release decrements whatever reference the
// matching Fetch took.
type Loader interface {
	Resolvable(key string) bool
	Fetch(ctx context.Context, key string) (Clip, error)
	Release(key string)
}

// Vec3 is a position in the listener's coordinate space.
type Vec3 struct {
	X, Y, Z float64
}

// Channel is one reusable playback slot. Implementations play a single clip
// at a time; all mutation is driven by one logical caller (see Manager).
type Channel interface {
	SetClip(Clip)
	Clip() Clip
	SetVolume(float64)
	Volume() float64
	SetPitch(float64)
	Pitch() float64
	SetLoop(bool)
	Loop() bool
	SetSpatialBlend(float64)
	SetPosition(Vec3)
	Play()
	Stop() error
	IsPlaying() bool
}

// State is the load state of a Sound.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SpamPolicy governs repeated play requests for a sound that is already
// playing.
type SpamPolicy int

const (
	// SpamOverride stops the playing channel and starts the sound again.
	SpamOverride SpamPolicy = iota
	// SpamAvoid returns the already-playing channel without restarting.
	SpamAvoid
)

func (p SpamPolicy) String() string {
	switch p {
	case SpamOverride:
		return "override"
	case SpamAvoid:
		return "avoid"
	default:
		return fmt.Sprintf("spam(%d)", int(p))
	}
}

// ParseSpamPolicy parses the configuration spelling of a spam policy.
func ParseSpamPolicy(s string) (SpamPolicy, error) {
	switch strings.ToLower(s) {
	case "", "override":
		return SpamOverride, nil
	case "avoid":
		return SpamAvoid, nil
	default:
		return SpamOverride, fmt.Errorf("unknown spam policy %q", s)
	}
}

// Def describes one configured sound.
type Def struct {
	Key              string
	Volume           float64
	Pitch            float64
	Loop             bool
	Spam             SpamPolicy
	Preload          bool
	UnloadOnShutdown bool
	Labels           []string
	Description      string
}
