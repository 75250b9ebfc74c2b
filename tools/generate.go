// Generates a small set of tone assets into the sounds directory so the
// service can be exercised without shipping audio binaries.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	outDir     = "sounds"
	sampleRate = beep.SampleRate(44100)
)

type tone struct {
	name     string
	freq     int
	duration time.Duration
}

func main() {
	tones := []tone{
		{"Click", 1200, 60 * time.Millisecond},
		{"Blip", 880, 120 * time.Millisecond},
		{"Alert", 660, 300 * time.Millisecond},
		{"Drone", 110, 2 * time.Second},
		{"Éclat", 1760, 90 * time.Millisecond},
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		panic(fmt.Sprintf("Error creating output directory: %s", err))
	}

	for _, t := range tones {
		if err := writeTone(t); err != nil {
			panic(fmt.Sprintf("Error generating %s: %s", t.name, err))
		}
	}
}

func writeTone(t tone) error {
	name, err := toASCII(t.name)
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, name+".wav")

	streamer, err := generators.SineTone(sampleRate, float64(t.freq))
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(file, beep.Take(sampleRate.N(t.duration), streamer), format); err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%d Hz, %s)\n", path, t.freq, t.duration)
	return nil
}

func toASCII(str string) (string, error) {
	// Step 1: Decompose and remove diacritics (accents)
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)), // Remove non-spacing marks
	)
	normalized, _, err := transform.String(t, str)
	if err != nil {
		return "", err
	}

	// Step 2: Remove non-ASCII and non-alphanumeric characters
	filtered := strings.Map(func(r rune) rune {
		if r > 127 {
			return -1 // remove non-ASCII
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1 // remove symbols/punctuation
	}, normalized)

	lowercased := strings.ToLower(filtered)

	// Trim leading/trailing spaces and replace spaces with underscores
	filtered = strings.TrimSpace(lowercased)
	filtered = strings.ReplaceAll(filtered, " ", "_")

	// Ensure the filename is not empty
	if filtered == "" {
		return "", fmt.Errorf("resulting filename is empty after processing")
	}

	return filtered, nil
}
