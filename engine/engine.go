// Package engine implements the Onyx audio playback engine: decode to
// PCM, live five-band peaking EQ, volume, and buffered output to the
// audio hardware, behind a small transport-control API.
//
// Two implementations exist. Controller is the full pipeline:
//
//	[Decode] -> [5x Biquad EQ] -> [Volume] -> [Sink ring buffer] -> [Speaker]
//
// Basic is a plain pass-through player used as a fallback when the
// Controller reports itself unavailable.
package engine

import (
	"errors"
	"time"

	"github.com/gopxl/beep/v2"
)

// NumBands is the number of equalizer bands.
const NumBands = 5

// BandFreqs are the center frequencies (Hz) of the five peaking filters.
var BandFreqs = [NumBands]float64{60, 250, 1000, 4000, 16000}

const (
	bandQ = 1.41 // Q factor shared by all bands

	// GainMin and GainMax bound each band's gain in dB.
	GainMin = -12.0
	GainMax = 12.0

	// DefaultSampleRate is the engine's output rate; sources at other
	// rates are resampled.
	DefaultSampleRate = beep.SampleRate(44100)

	blockFrames     = 1024 // frames per produced PCM block
	lookaheadBlocks = 4    // sink depth absorbing scheduling jitter
	resampleQuality = 4
	tapFrames       = 4096 // visualization tap ring size
)

// ErrUnsupportedFormat is returned by Play for sources whose format the
// decoder does not handle.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// State is the transport state of an engine.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateFinished:
		return "Finished"
	default:
		return "Idle"
	}
}

// Engine is the playback engine surface consumed by the player shell.
// Control methods are safe for concurrent use, but the shell is expected
// to issue them sequentially from its own goroutine. Position, Duration,
// State and Samples never block on playback internals.
type Engine interface {
	// Available reports whether the engine can produce hardware output.
	// The shell checks it once at startup to pick an engine.
	Available() bool

	// Play starts playing the file at path, superseding any current
	// track. It returns an error if the source cannot be opened; the
	// engine is left idle in that case.
	Play(path string) error

	// Pause halts playback without releasing the track. No-op unless
	// playing.
	Pause()

	// Resume continues a paused track. No-op unless paused.
	Resume()

	// Stop ends playback and releases the current track, if any. Always
	// succeeds; safe to call redundantly.
	Stop()

	// Seek repositions playback, clamped to [0, Duration]. No-op unless
	// playing or paused.
	Seek(d time.Duration)

	// SetVolume sets the output volume, clamped to [0, 1]. Takes effect
	// on the next produced block.
	SetVolume(v float64)

	// Volume returns the current volume.
	Volume() float64

	// SetGains sets all five EQ band gains in dB, each clamped to
	// [GainMin, GainMax]. Glitch-free; takes effect on the next block.
	SetGains(g [NumBands]float64)

	// Gains returns the current EQ band gains.
	Gains() [NumBands]float64

	// Position returns the current playback position, 0 when idle.
	Position() time.Duration

	// Duration returns the current track's duration, 0 when idle.
	Duration() time.Duration

	// State returns the current transport state.
	State() State

	// OnFinished registers fn to be called exactly once each time a
	// track plays to its natural end. It is never called from the
	// audio path, and never as a result of Stop or Pause.
	OnFinished(fn func())

	// Samples returns up to n recent output samples (mono mix) for
	// visualization, or nil when none are available.
	Samples(n int) []float64

	// Underruns returns the number of times the output ran dry while
	// playing. Diagnostic only.
	Underruns() uint64

	// Close stops playback and releases the audio device.
	Close()
}

// Select returns the Controller when the audio device could be opened,
// otherwise the Basic fallback. The choice is made once; callers use the
// returned engine uniformly thereafter.
func Select(sr beep.SampleRate) Engine {
	if c := NewController(sr); c.Available() {
		return c
	}
	return NewBasic(sr)
}

func clampf(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
