// Package assets implements the sound.Loader interface over a directory of
// audio files. Fetched clips are decoded once into memory and reference
// counted; Release hands the reference back and the decoded clip is evicted
// when the last one goes.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"golang.org/x/text/unicode/norm"

	"chime/sound"
)

var _ sound.Loader = (*Library)(nil)

// Library is a disk-backed loader. Keys are paths relative to the library
// directory; they are NFC-normalized so configuration written on one platform
// resolves files created on another.
type Library struct {
	mu    sync.Mutex
	dir   string
	rate  beep.SampleRate
	cache map[string]*entry
	log   *slog.Logger
}

type entry struct {
	buf  *beep.Buffer
	refs int
}

// NewLibrary creates a library rooted at dir. Decoded audio is resampled to
// sampleRate so clips match the playback engine's output format.
func NewLibrary(dir string, sampleRate int) *Library {
	return &Library{
		dir:   dir,
		rate:  beep.SampleRate(sampleRate),
		cache: make(map[string]*entry),
		log:   slog.With("component", "asset-library"),
	}
}

// Resolvable reports whether key names a decodable file under the library
// directory. Cheap: a stat plus an extension check, no decoding.
func (l *Library) Resolvable(key string) bool {
	path, err := l.resolve(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Fetch returns the decoded clip for key, decoding it on first use. Every
// successful Fetch takes one reference; pair it with Release.
func (l *Library) Fetch(ctx context.Context, key string) (sound.Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	ck := cacheKey(key)
	l.mu.Lock()
	if e, ok := l.cache[ck]; ok {
		e.refs++
		l.mu.Unlock()
		return e.buf, nil
	}
	l.mu.Unlock()

	buf, err := l.decode(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.cache[ck]; ok {
		// Lost a decode race; keep the cached clip.
		e.refs++
		return e.buf, nil
	}
	l.cache[ck] = &entry{buf: buf, refs: 1}
	l.log.Debug("Decoded asset", slog.String("key", key), slog.Int("samples", buf.Len()))
	return buf, nil
}

// Release drops one reference on key's clip, evicting the decoded audio when
// the last reference goes. Unknown keys are ignored.
func (l *Library) Release(key string) {
	ck := cacheKey(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.cache[ck]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(l.cache, ck)
		l.log.Debug("Evicted asset", slog.String("key", key))
	}
}

// Cached returns the number of decoded clips currently held.
func (l *Library) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// resolve maps a key to an on-disk path, rejecting keys that escape the
// library directory or name an unsupported format.
func (l *Library) resolve(key string) (string, error) {
	key = cacheKey(key)
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	if !filepath.IsLocal(key) {
		return "", fmt.Errorf("key %q escapes the library directory", key)
	}
	switch strings.ToLower(filepath.Ext(key)) {
	case ".mp3", ".wav", ".ogg", ".flac":
	default:
		return "", fmt.Errorf("unsupported format %q", filepath.Ext(key))
	}
	return filepath.Join(l.dir, filepath.FromSlash(key)), nil
}

func (l *Library) decode(path string) (*beep.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(file)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	}
	if err != nil {
		file.Close()
		return nil, err
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != l.rate {
		src = beep.Resample(4, format.SampleRate, l.rate, streamer)
	}

	buffer := beep.NewBuffer(beep.Format{
		SampleRate:  l.rate,
		NumChannels: 2,
		Precision:   2,
	})
	buffer.Append(src)
	return buffer, nil
}

// cacheKey canonicalizes a key: NFC normalization plus slash cleanup.
func cacheKey(key string) string {
	return filepath.ToSlash(norm.NFC.String(strings.TrimSpace(key)))
}
