package sound

import "errors"

// All four conditions are recoverable by design: the public play and load
// surfaces log them and return a nil result instead of propagating.
var (
	// ErrInvalidReference means a sound's key does not resolve; no fetch was
	// attempted.
	ErrInvalidReference = errors.New("sound: reference does not resolve")

	// ErrLoadFailed means the loader rejected the fetch or returned nothing.
	ErrLoadFailed = errors.New("sound: load failed")

	// ErrPoolExhausted means no free channel was available; the play request
	// is dropped, never queued.
	ErrPoolExhausted = errors.New("sound: no free channel")

	// ErrNotLoaded means a synchronous play was attempted before the sound
	// finished loading.
	ErrNotLoaded = errors.New("sound: clip not loaded")

	// ErrTerminated means an operation was attempted on a manager that has
	// already shut down.
	ErrTerminated = errors.New("sound: manager terminated")
)
