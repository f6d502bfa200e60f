package engine

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

var _ Engine = (*Basic)(nil)

// Basic is the fallback engine: a plain decode-and-play pipeline with a
// volume stage but no equalizer and no lookahead buffering. It exists so
// the shell always has a working backend when the Controller reports
// itself unavailable; SetGains is accepted and ignored.
type Basic struct {
	mu       sync.Mutex
	out      output
	sr       beep.SampleRate
	inited   bool
	initErr  error
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	vol      *effects.Volume
	level    float64
	gen      uint64 // ignores done callbacks from superseded tracks

	state  atomic.Int32
	onDone atomic.Value
}

// NewBasic creates the fallback engine. The device is opened lazily on
// the first Play.
func NewBasic(sr beep.SampleRate) *Basic {
	return newBasic(sr, speakerOutput{})
}

func newBasic(sr beep.SampleRate, out output) *Basic {
	return &Basic{out: out, sr: sr, level: 1}
}

// Available always reports true: Basic is the engine of last resort,
// and per-track failures surface from Play.
func (b *Basic) Available() bool { return true }

func (b *Basic) initLocked() error {
	if b.inited {
		return b.initErr
	}
	b.inited = true
	b.initErr = b.out.Init(b.sr)
	if b.initErr != nil {
		slog.Warn("fallback engine: audio device unavailable", "err", b.initErr)
	}
	return b.initErr
}

// Play opens path and starts it, superseding any current track.
func (b *Basic) Play(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()

	if err := b.initLocked(); err != nil {
		return err
	}
	streamer, format, err := openStream(path)
	if err != nil {
		return err
	}

	b.streamer = streamer
	b.format = format
	b.gen++
	gen := b.gen

	var src beep.Streamer = streamer
	if format.SampleRate != b.sr {
		src = beep.Resample(resampleQuality, format.SampleRate, b.sr, streamer)
	}
	b.ctrl = &beep.Ctrl{Streamer: src}
	b.vol = &effects.Volume{Streamer: b.ctrl, Base: 2}
	b.applyVolumeLocked()

	b.out.Play(b.vol, func() {
		// The done callback runs on the device's goroutine; hand the
		// notification off so the shell is never re-entered from there.
		go b.finished(gen)
	})
	b.state.Store(int32(StatePlaying))
	return nil
}

func (b *Basic) finished(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || b.streamer == nil {
		b.mu.Unlock()
		return
	}
	b.closeLocked()
	b.state.Store(int32(StateFinished))
	b.mu.Unlock()

	if v := b.onDone.Load(); v != nil {
		v.(func())()
	}
}

// Pause halts playback, keeping the track loaded.
func (b *Basic) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil || b.State() != StatePlaying {
		return
	}
	b.out.Lock()
	b.ctrl.Paused = true
	b.out.Unlock()
	b.state.Store(int32(StatePaused))
}

// Resume continues a paused track.
func (b *Basic) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil || b.State() != StatePaused {
		return
	}
	b.out.Lock()
	b.ctrl.Paused = false
	b.out.Unlock()
	b.state.Store(int32(StatePlaying))
}

// Stop ends playback and releases the track. Safe to call redundantly.
func (b *Basic) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *Basic) stopLocked() {
	if b.streamer != nil {
		b.out.Clear()
		b.closeLocked()
	}
	b.state.Store(int32(StateIdle))
}

func (b *Basic) closeLocked() {
	if b.streamer != nil {
		b.streamer.Close()
		b.streamer = nil
	}
	b.ctrl = nil
	b.vol = nil
}

// Seek repositions playback, clamped to the track bounds.
func (b *Basic) Seek(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.State()
	if b.streamer == nil || (st != StatePlaying && st != StatePaused) {
		return
	}
	n := b.format.SampleRate.N(d)
	n = max(0, min(n, b.streamer.Len()))
	b.out.Lock()
	if err := b.streamer.Seek(n); err != nil {
		slog.Warn("seek failed", "err", err)
	}
	b.out.Unlock()
}

// SetVolume sets the volume scalar in [0, 1].
func (b *Basic) SetVolume(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = clampf(v, 0, 1)
	b.applyVolumeLocked()
}

// applyVolumeLocked maps the [0,1] scalar onto the exponential volume
// stage: 1 is unity gain, 0 is silence.
func (b *Basic) applyVolumeLocked() {
	if b.vol == nil {
		return
	}
	b.out.Lock()
	if b.level == 0 {
		b.vol.Silent = true
	} else {
		b.vol.Silent = false
		b.vol.Volume = math.Log2(b.level)
	}
	b.out.Unlock()
}

// Volume returns the current volume scalar.
func (b *Basic) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level
}

// SetGains is a no-op: the fallback engine has no equalizer.
func (b *Basic) SetGains(g [NumBands]float64) {}

// Gains returns flat gains.
func (b *Basic) Gains() [NumBands]float64 { return [NumBands]float64{} }

// Position returns the playback position, 0 when idle.
func (b *Basic) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamer == nil {
		return 0
	}
	b.out.Lock()
	pos := b.streamer.Position()
	b.out.Unlock()
	return b.format.SampleRate.D(pos)
}

// Duration returns the track duration, 0 when idle.
func (b *Basic) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamer == nil {
		return 0
	}
	return b.format.SampleRate.D(b.streamer.Len())
}

// State returns the transport state.
func (b *Basic) State() State { return State(b.state.Load()) }

// OnFinished registers the completion notification.
func (b *Basic) OnFinished(fn func()) { b.onDone.Store(fn) }

// Samples returns nil: the fallback engine has no visualization tap.
func (b *Basic) Samples(n int) []float64 { return nil }

// Underruns returns 0: buffering is the device's concern here.
func (b *Basic) Underruns() uint64 { return 0 }

// Close stops playback and releases the device.
func (b *Basic) Close() {
	b.Stop()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inited && b.initErr == nil {
		b.out.Close()
	}
}
