package cmd

import (
	"fmt"
	"time"

	"chime/sound"

	"github.com/spf13/cobra"
)

var (
	playVolume float64
	playPitch  float64
	playX      float64
	playY      float64
	playZ      float64
	playAt     bool
)

// playCmd plays configured sounds once and exits
var playCmd = &cobra.Command{
	Use:   "play KEY [KEY...]",
	Short: "Play one or more configured sounds",
	Long: `Play the given sound keys once, in order, and exit. Each key must appear in
the sounds section of the configuration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := buildService()
		if err != nil {
			return err
		}
		defer svc.close()

		if err := svc.manager.Initialize(cmd.Context()); err != nil {
			return fmt.Errorf("failed to initialize sound manager: %w", err)
		}

		for _, key := range args {
			s := svc.manager.Sound(key)
			if s == nil {
				fmt.Printf("Unknown sound %q, skipping\n", key)
				continue
			}

			opts := []sound.PlayOption{
				sound.WithVolumeScale(playVolume),
				sound.WithPitchScale(playPitch),
			}
			if playAt {
				opts = append(opts, sound.AtPosition(sound.Vec3{X: playX, Y: playY, Z: playZ}))
			}

			ch := svc.manager.Play(cmd.Context(), s, opts...)
			if ch == nil {
				fmt.Printf("Playback of %q did not happen\n", key)
				continue
			}
			waitForChannel(ch)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Float64Var(&playVolume, "volume", 1.0, "volume multiplier for this play")
	playCmd.Flags().Float64Var(&playPitch, "pitch", 1.0, "pitch multiplier for this play")
	playCmd.Flags().Float64Var(&playX, "x", 0, "3D position X")
	playCmd.Flags().Float64Var(&playY, "y", 0, "3D position Y")
	playCmd.Flags().Float64Var(&playZ, "z", 0, "3D position Z")
	playCmd.Flags().BoolVar(&playAt, "spatial", false, "play at the given 3D position")
}

// waitForChannel polls until the channel finishes. Looping sounds never
// finish on their own, so cap the wait.
func waitForChannel(ch sound.Channel) {
	const maxWait = 30 * time.Second

	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if !ch.IsPlaying() || time.Now().After(deadline) {
			return
		}
	}
}
